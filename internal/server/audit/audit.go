// Package audit records security-relevant actions. Recording is
// fire-and-forget: sinks log their own failures and never return them.
package audit

import (
	"context"
	"database/sql"

	"github.com/taxintake/intakeengine/internal/logging"
	"github.com/taxintake/intakeengine/internal/server/models"
	"github.com/taxintake/intakeengine/internal/server/repositories/repomanager"
)

// Entry is one audit event.
type Entry struct {
	ActorID    *string
	Action     string
	Resource   string
	ResourceID string
	Result     models.AuditResult
	Details    map[string]any
}

// Sink accepts audit entries.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

// RepositorySink persists entries to the audit_log table.
type RepositorySink struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewRepositorySink(db *sql.DB, rm repomanager.RepositoryManager, log logging.Logger) *RepositorySink {
	return &RepositorySink{db: db, repomanager: rm, log: log.With("module", "audit")}
}

func (s *RepositorySink) Record(ctx context.Context, e Entry) {
	rec := &models.AuditRecord{
		ActorID:    e.ActorID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Result:     e.Result,
		Details:    e.Details,
	}
	if err := s.repomanager.Audit(s.db).Create(ctx, rec); err != nil {
		s.log.Error(ctx, "audit write failed", "action", e.Action, "resource_id", e.ResourceID, "error", err)
	}
}

// LogSink writes entries to a logger.
type LogSink struct {
	log logging.Logger
}

func NewLogSink(log logging.Logger) *LogSink {
	return &LogSink{log: log.With("module", "audit")}
}

func (s *LogSink) Record(ctx context.Context, e Entry) {
	actor := "system"
	if e.ActorID != nil {
		actor = *e.ActorID
	}
	s.log.Info(ctx, "audit",
		"actor_id", actor,
		"action", e.Action,
		"resource", e.Resource,
		"resource_id", e.ResourceID,
		"result", string(e.Result),
		"details", e.Details,
	)
}

// MultiSink fans an entry out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, e Entry) {
	for _, s := range m {
		s.Record(ctx, e)
	}
}
