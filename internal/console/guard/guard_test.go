package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/watchdesk/console/internal/console/session"
	"github.com/watchdesk/console/types"
)

var adminsOnly = []types.Role{types.RoleSuperAdmin, types.RoleOrgAdmin}

func TestPrivate(t *testing.T) {
	tests := []struct {
		name    string
		snap    session.Snapshot
		allowed []types.Role
		want    Decision
	}{
		{
			name: "loading defers rendering",
			snap: session.Snapshot{State: session.StateInitializing, Loading: true},
			want: Decision{Kind: ShowLoading},
		},
		{
			name: "no token redirects to login",
			snap: session.Snapshot{State: session.StateAnonymous},
			want: Decision{Kind: Redirect, Target: TargetLogin},
		},
		{
			name: "token without identity renders nothing",
			snap: session.Snapshot{State: session.StateAnonymous, HasToken: true},
			want: Decision{Kind: RenderNothing},
		},
		{
			name:    "role outside allow-list redirects to dashboard",
			snap:    session.Snapshot{State: session.StateAuthenticated, HasToken: true, Role: types.RoleObserver},
			allowed: adminsOnly,
			want:    Decision{Kind: Redirect, Target: TargetDashboard},
		},
		{
			name:    "allowed role renders",
			snap:    session.Snapshot{State: session.StateAuthenticated, HasToken: true, Role: types.RoleOrgAdmin},
			allowed: adminsOnly,
			want:    Decision{Kind: Render},
		},
		{
			name: "empty allow-list admits every authenticated role",
			snap: session.Snapshot{State: session.StateAuthenticated, HasToken: true, Role: types.RoleObserver},
			want: Decision{Kind: Render},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Private(tt.snap, tt.allowed))
		})
	}
}

func TestPublic(t *testing.T) {
	tests := []struct {
		name string
		snap session.Snapshot
		want Decision
	}{
		{
			name: "loading defers rendering",
			snap: session.Snapshot{State: session.StateInitializing, Loading: true},
			want: Decision{Kind: ShowLoading},
		},
		{
			name: "authenticated bounces to dashboard",
			snap: session.Snapshot{State: session.StateAuthenticated, HasToken: true, Role: types.RoleObserver},
			want: Decision{Kind: Redirect, Target: TargetDashboard},
		},
		{
			name: "token present bounces even without identity",
			snap: session.Snapshot{State: session.StateAnonymous, HasToken: true},
			want: Decision{Kind: Redirect, Target: TargetDashboard},
		},
		{
			name: "anonymous renders",
			snap: session.Snapshot{State: session.StateAnonymous},
			want: Decision{Kind: Render},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Public(tt.snap))
		})
	}
}

func TestGuardsArePure(t *testing.T) {
	snap := session.Snapshot{State: session.StateAuthenticated, HasToken: true, Role: types.RoleObserver}

	first := Private(snap, adminsOnly)
	second := Private(snap, adminsOnly)
	assert.Equal(t, first, second)

	assert.Equal(t, Public(snap), Public(snap))
}
