// Package session holds the console's client-side session: the persisted
// bearer token and the identity resolved from it.
package session

import (
	"context"
	"sync"

	"github.com/watchdesk/console/types"
)

// State is the explicit lifecycle state of the session.
type State string

const (
	// StateInitializing covers the window between construction and the
	// completion of Initialize. Guards render a loading placeholder here.
	StateInitializing State = "initializing"

	// StateAnonymous means no usable identity: no token, or a token the
	// server rejected.
	StateAnonymous State = "anonymous"

	// StateAuthenticated means the token was validated and the identity
	// (including its role) is loaded.
	StateAuthenticated State = "authenticated"
)

// IdentityClient resolves the identity behind the stored bearer token.
type IdentityClient interface {
	Me(ctx context.Context) (types.User, error)
}

// Snapshot is an immutable view of the session for guard evaluation.
type Snapshot struct {
	State    State
	Loading  bool
	HasToken bool
	Role     types.Role
}

// Store owns the session state machine. All transitions happen through
// Initialize, SetIdentity, and Logout; readers get consistent snapshots.
type Store struct {
	tokens   TokenStorage
	identity IdentityClient

	mu    sync.Mutex
	state State
	user  *types.User

	// generation invalidates in-flight identity fetches. Logout bumps it;
	// a fetch started under an older generation discards its result
	// instead of resurrecting the logged-out session.
	generation uint64
}

// NewStore constructs a Store in the initializing state.
func NewStore(tokens TokenStorage, identity IdentityClient) *Store {
	return &Store{
		tokens:   tokens,
		identity: identity,
		state:    StateInitializing,
	}
}

// Initialize resolves the persisted token into a session state. A missing
// token yields anonymous. A present token is validated against the identity
// endpoint; any failure (network, rejection) clears the token and yields
// anonymous rather than surfacing an error. Loading ends in every path.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	gen := s.generation
	token, ok, err := s.tokens.Load()
	if err != nil || !ok || token == "" {
		s.clearLocked()
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	user, err := s.identity.Me(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// Logged out while the fetch was in flight. The result is stale.
		return
	}
	if err != nil {
		s.clearLocked()
		return
	}
	s.user = &user
	s.state = StateAuthenticated
}

// SetIdentity records a freshly authenticated identity, as after a login or
// registration round trip.
func (s *Store) SetIdentity(user types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	s.state = StateAuthenticated
}

// Logout ends the session: the token is cleared from storage and the
// identity dropped. It is synchronous, makes no network call, and is safe
// to call repeatedly.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.clearLocked()
}

// clearLocked resets to anonymous. Callers hold s.mu.
func (s *Store) clearLocked() {
	_ = s.tokens.Clear()
	s.user = nil
	s.state = StateAnonymous
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentUser returns the authenticated identity, or ok=false.
func (s *Store) CurrentUser() (types.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return types.User{}, false
	}
	return *s.user, true
}

// Role returns the authenticated role, empty when anonymous.
func (s *Store) Role() types.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

// Snapshot captures the state for guard evaluation. HasToken reflects
// storage at the time of the call, so a guard sees the token even when the
// identity fetch behind it failed.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, hasToken, err := s.tokens.Load()
	if err != nil {
		hasToken = false
	}

	snap := Snapshot{
		State:    s.state,
		Loading:  s.state == StateInitializing,
		HasToken: hasToken,
	}
	if s.user != nil {
		snap.Role = s.user.Role
	}
	return snap
}
