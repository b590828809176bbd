package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/watchdesk/console/internal/mq"
	"github.com/watchdesk/console/internal/storage"
	"github.com/watchdesk/console/types"
)

// AuditRepository defines persistence operations for audit records.
type AuditRepository interface {
	List(ctx context.Context, filter types.AuditFilter) ([]types.AuditRecord, error)
	ListBefore(ctx context.Context, cutoff time.Time) ([]types.AuditRecord, error)
	Get(ctx context.Context, id int) (types.AuditRecord, error)
	Create(ctx context.Context, record types.AuditRecord) (types.AuditRecord, error)
}

// AuditService records platform activity. Every record is persisted; when a
// message bus is configured the record is also published for downstream
// consumers, and when object storage is configured aged records can be
// exported to an archive.
type AuditService struct {
	repo    AuditRepository
	bus     *mq.Bus
	archive *storage.Archive
}

// NewAuditService constructs the service. bus and archive may be nil.
func NewAuditService(repo AuditRepository, bus *mq.Bus, archive *storage.Archive) *AuditService {
	return &AuditService{repo: repo, bus: bus, archive: archive}
}

func (s *AuditService) List(ctx context.Context, filter types.AuditFilter) ([]types.AuditRecord, error) {
	return s.repo.List(ctx, filter)
}

func (s *AuditService) Get(ctx context.Context, id int) (types.AuditRecord, error) {
	return s.repo.Get(ctx, id)
}

// Record persists an audit entry and publishes it to the bus. Publishing is
// best-effort: a broker outage must not fail the request being audited.
func (s *AuditService) Record(ctx context.Context, record types.AuditRecord) {
	stored, err := s.repo.Create(ctx, record)
	if err != nil {
		slog.Error("audit record not persisted",
			"action", record.Action,
			"entity", record.Entity,
			"error", err)
		return
	}

	if s.bus == nil {
		return
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return
	}
	attrs := map[string]string{
		"action": string(stored.Action),
		"entity": stored.Entity,
	}
	if _, err := s.bus.Publish(ctx, mq.ChannelAudit, payload, attrs); err != nil {
		slog.Warn("audit record not published", "id", stored.ID, "error", err)
	}
}

// ExportResult summarizes an archive export.
type ExportResult struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Export writes all audit records older than the cutoff to object storage
// as one JSON document and returns the object key. Records are not deleted;
// retention is applied out of band.
func (s *AuditService) Export(ctx context.Context, cutoff time.Time) (ExportResult, error) {
	if s.archive == nil {
		return ExportResult{}, fmt.Errorf("audit archive storage is not configured")
	}

	records, err := s.repo.ListBefore(ctx, cutoff)
	if err != nil {
		return ExportResult{}, err
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return ExportResult{}, err
	}

	key := fmt.Sprintf("audit/%s-%s.json", cutoff.UTC().Format("20060102"), uuid.NewString())
	if err := s.archive.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), "application/json"); err != nil {
		return ExportResult{}, err
	}

	slog.Info("audit archive exported", "key", key, "count", len(records))
	return ExportResult{Key: key, Count: len(records)}, nil
}
