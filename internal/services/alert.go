package services

import (
	"context"
	"errors"

	"github.com/watchdesk/console/types"
)

// ErrInvalidAlert is returned when an alert fails validation.
var ErrInvalidAlert = errors.New("invalid alert")

// AlertRepository defines persistence operations for alerts.
type AlertRepository interface {
	List(ctx context.Context, organizationID *int) ([]types.Alert, error)
	Get(ctx context.Context, id int) (types.Alert, error)
	Create(ctx context.Context, alert types.Alert) (types.Alert, error)
	Update(ctx context.Context, alert types.Alert) (types.Alert, error)
	Delete(ctx context.Context, id int) error
}

// AlertService encapsulates alert use-cases.
type AlertService struct {
	repo AlertRepository
}

func NewAlertService(repo AlertRepository) *AlertService {
	return &AlertService{repo: repo}
}

// List returns alerts, restricted to one organization when scope is non-nil.
func (s *AlertService) List(ctx context.Context, scope *int) ([]types.Alert, error) {
	return s.repo.List(ctx, scope)
}

func (s *AlertService) Get(ctx context.Context, id int) (types.Alert, error) {
	return s.repo.Get(ctx, id)
}

func (s *AlertService) Create(ctx context.Context, alert types.Alert) (types.Alert, error) {
	if alert.Title == "" || !types.ValidSeverity(alert.Severity) {
		return types.Alert{}, ErrInvalidAlert
	}
	if alert.Status == "" {
		alert.Status = types.AlertNew
	}
	if !types.ValidAlertStatus(alert.Status) {
		return types.Alert{}, ErrInvalidAlert
	}
	return s.repo.Create(ctx, alert)
}

func (s *AlertService) Update(ctx context.Context, alert types.Alert) (types.Alert, error) {
	if !types.ValidSeverity(alert.Severity) || !types.ValidAlertStatus(alert.Status) {
		return types.Alert{}, ErrInvalidAlert
	}
	return s.repo.Update(ctx, alert)
}

func (s *AlertService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
