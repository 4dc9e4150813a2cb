// Package packet assembles preparer packets: a masked summary document and
// a zip archive of the intake's files. Each generation attempt is a
// PacketRequest row moving pending -> processing -> completed|failed; the
// row is the only record of a job.
package packet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/logging"
	"github.com/taxintake/intakeengine/internal/server/audit"
	"github.com/taxintake/intakeengine/internal/server/models"
	"github.com/taxintake/intakeengine/internal/server/repositories/repomanager"
)

type Service struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	dispatcher  Dispatcher
	audit       audit.Sink
	log         logging.Logger
	now         func() time.Time
}

func NewService(db *sql.DB, rm repomanager.RepositoryManager, d Dispatcher, sink audit.Sink, log logging.Logger) *Service {
	return &Service{
		db:          db,
		repomanager: rm,
		dispatcher:  d,
		audit:       sink,
		log:         log.With("module", "packet"),
		now:         time.Now,
	}
}

// Enqueue records a new pending request and hands it to the dispatcher. It
// returns as soon as the job is queued. A request that cannot be queued is
// marked failed and its id is returned along with the error.
func (s *Service) Enqueue(ctx context.Context, intakeID, actorID string) (string, error) {
	repo := s.repomanager.Packets(s.db)
	req, err := repo.Create(ctx, &models.PacketRequest{IntakeID: intakeID, RequestedBy: actorID})
	if err != nil {
		return "", fmt.Errorf("failed to create packet request: %w", err)
	}

	actor := actorID
	s.audit.Record(ctx, audit.Entry{
		ActorID:    &actor,
		Action:     ActionRequested,
		Resource:   AuditResource,
		ResourceID: req.ID,
		Result:     models.AuditSuccess,
		Details:    map[string]any{"intake_id": intakeID},
	})

	if err := s.dispatcher.Dispatch(ctx, req.ID); err != nil {
		msg := "dispatch failed: " + err.Error()
		if ferr := repo.MarkFailed(ctx, req.ID, msg, s.now()); ferr != nil {
			s.log.Error(ctx, "failed to mark undispatched request", "request_id", req.ID, "error", ferr)
		}
		s.audit.Record(ctx, audit.Entry{
			ActorID:    &actor,
			Action:     ActionFailed,
			Resource:   AuditResource,
			ResourceID: req.ID,
			Result:     models.AuditFailure,
			Details:    map[string]any{"intake_id": intakeID, "error": msg},
		})
		return req.ID, fmt.Errorf("dispatch packet request: %w", err)
	}

	s.log.Info(ctx, "packet requested", "request_id", req.ID, "intake_id", intakeID, "actor_id", actorID)
	return req.ID, nil
}

func (s *Service) Status(ctx context.Context, requestID string) (*models.PacketRequest, error) {
	return s.repomanager.Packets(s.db).GetByID(ctx, requestID)
}

// Latest returns the most recently created request of the intake.
func (s *Service) Latest(ctx context.Context, intakeID string) (*models.PacketRequest, error) {
	return s.repomanager.Packets(s.db).LatestByIntake(ctx, intakeID)
}

// IsGenerating reports whether the latest request is still pending or
// processing. Older requests are history and do not count.
func (s *Service) IsGenerating(ctx context.Context, intakeID string) (bool, error) {
	req, err := s.Latest(ctx, intakeID)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return req.Status.IsActive(), nil
}

// ReportOrphans logs requests stuck in processing for longer than olderThan.
// They are left for an operator; retrying could double-write an export.
func (s *Service) ReportOrphans(ctx context.Context, olderThan time.Duration) ([]*models.PacketRequest, error) {
	stale, err := s.repomanager.Packets(s.db).ListStale(ctx, s.now().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to list stale packet requests: %w", err)
	}
	for _, req := range stale {
		s.log.Warn(ctx, "orphaned packet request",
			"request_id", req.ID,
			"intake_id", req.IntakeID,
			"started_at", req.StartedAt)
	}
	return stale, nil
}
