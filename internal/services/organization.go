package services

import (
	"context"

	"github.com/watchdesk/console/types"
)

// OrganizationRepository defines persistence operations for organizations.
type OrganizationRepository interface {
	List(ctx context.Context) ([]types.Organization, error)
	Get(ctx context.Context, id int) (types.Organization, error)
	Create(ctx context.Context, org types.Organization) (types.Organization, error)
	Update(ctx context.Context, org types.Organization) (types.Organization, error)
	Delete(ctx context.Context, id int) error
}

// OrganizationService encapsulates organization use-cases.
type OrganizationService struct {
	repo OrganizationRepository
}

func NewOrganizationService(repo OrganizationRepository) *OrganizationService {
	return &OrganizationService{repo: repo}
}

func (s *OrganizationService) List(ctx context.Context) ([]types.Organization, error) {
	return s.repo.List(ctx)
}

func (s *OrganizationService) Get(ctx context.Context, id int) (types.Organization, error) {
	return s.repo.Get(ctx, id)
}

func (s *OrganizationService) Create(ctx context.Context, org types.Organization) (types.Organization, error) {
	if org.Status == "" {
		org.Status = types.OrganizationActive
	}
	return s.repo.Create(ctx, org)
}

func (s *OrganizationService) Update(ctx context.Context, org types.Organization) (types.Organization, error) {
	return s.repo.Update(ctx, org)
}

func (s *OrganizationService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
