// Package services exposes the intake engine operations to transports.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/logging"
	"github.com/taxintake/intakeengine/internal/server/auth"
	"github.com/taxintake/intakeengine/internal/server/checklist"
	"github.com/taxintake/intakeengine/internal/server/completeness"
	"github.com/taxintake/intakeengine/internal/server/models"
	"github.com/taxintake/intakeengine/internal/server/packet"
	"github.com/taxintake/intakeengine/internal/server/repositories/repomanager"
)

// Engine bundles evaluation, checklist reconciliation and packet
// generation behind one entry point.
type Engine struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	evaluator   *completeness.Evaluator
	reconciler  *checklist.Reconciler
	packets     *packet.Service
	log         logging.Logger
}

func NewEngine(db *sql.DB, rm repomanager.RepositoryManager, ev *completeness.Evaluator,
	rc *checklist.Reconciler, ps *packet.Service, log logging.Logger) *Engine {
	return &Engine{
		db:          db,
		repomanager: rm,
		evaluator:   ev,
		reconciler:  rc,
		packets:     ps,
		log:         log.With("module", "engine"),
	}
}

// Authorize lets staff reach every intake and clients only their own.
func (e *Engine) Authorize(ctx context.Context, actor auth.Actor, intakeID string) error {
	if actor.IsStaff() {
		return nil
	}
	intake, err := e.repomanager.Intakes(e.db).GetByID(ctx, intakeID)
	if err != nil {
		return err
	}
	if intake.UserID != actor.UserID {
		return fmt.Errorf("intake %s: %w", intakeID, common.ErrForbidden)
	}
	return nil
}

func (e *Engine) Evaluate(ctx context.Context, intakeID string) (*models.ValidationResult, error) {
	return e.evaluator.Evaluate(ctx, intakeID)
}

// Reconcile syncs the checklist with a fresh evaluation. actorID is nil for
// system-triggered runs.
func (e *Engine) Reconcile(ctx context.Context, intakeID string, actorID *string) (*checklist.Outcome, error) {
	return e.reconciler.Reconcile(ctx, intakeID, actorID)
}

// EnqueuePacket starts a packet generation and returns the request id
// without waiting for it.
func (e *Engine) EnqueuePacket(ctx context.Context, intakeID, actorID string) (string, error) {
	return e.packets.Enqueue(ctx, intakeID, actorID)
}

func (e *Engine) GetPacketStatus(ctx context.Context, requestID string) (*models.PacketRequest, error) {
	return e.packets.Status(ctx, requestID)
}

// LatestPacket returns the newest request of the intake and whether it is
// still generating.
func (e *Engine) LatestPacket(ctx context.Context, intakeID string) (*models.PacketRequest, bool, error) {
	req, err := e.packets.Latest(ctx, intakeID)
	if err != nil {
		return nil, false, err
	}
	return req, req.Status.IsActive(), nil
}

func (e *Engine) ListChecklist(ctx context.Context, intakeID string, includeResolved bool) ([]*models.ChecklistItem, error) {
	return e.reconciler.List(ctx, intakeID, includeResolved)
}

func (e *Engine) AddChecklistItem(ctx context.Context, intakeID string, t models.ChecklistItemType, description string, actorID *string) (*models.ChecklistItem, error) {
	return e.reconciler.AddManualItem(ctx, intakeID, t, description, actorID)
}

func (e *Engine) ResolveChecklistItem(ctx context.Context, itemID string, actorID *string) (*models.ChecklistItem, error) {
	return e.reconciler.ResolveManualItem(ctx, itemID, actorID)
}
