package services

import (
	"context"
	"time"

	"github.com/watchdesk/console/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context, organizationID *int) ([]types.User, error)
	ListExecutives(ctx context.Context, organizationID *int) ([]types.Executive, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	TouchLastLogin(ctx context.Context, id int, at time.Time) error
	Delete(ctx context.Context, id int) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// List returns users, restricted to one organization when scope is non-nil.
func (s *UserService) List(ctx context.Context, scope *int) ([]types.User, error) {
	return s.repo.List(ctx, scope)
}

func (s *UserService) ListExecutives(ctx context.Context, scope *int) ([]types.Executive, error) {
	return s.repo.ListExecutives(ctx, scope)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

func (s *UserService) Update(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Update(ctx, user)
}

// RecordLogin stamps the user's last successful login time.
func (s *UserService) RecordLogin(ctx context.Context, id int) error {
	return s.repo.TouchLastLogin(ctx, id, time.Now())
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
