// Package checklist keeps the persisted checklist in line with the latest
// completeness evaluation. Auto items (missing_field, missing_document) are
// owned here; manual items belong to staff and are never rewritten by a
// reconcile run.
package checklist

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/dbx"
	"github.com/taxintake/intakeengine/internal/logging"
	"github.com/taxintake/intakeengine/internal/server/models"
	"github.com/taxintake/intakeengine/internal/server/repositories/repomanager"
)

// Evaluator produces the report a reconcile run diffs against.
type Evaluator interface {
	EvaluateWith(ctx context.Context, db dbx.DBTX, intakeID string) (*models.ValidationResult, error)
}

// Outcome counts what a run changed.
type Outcome struct {
	Created   int
	Updated   int
	Resolved  int
	Unchanged int
}

// Writes is the number of rows a run touched.
func (o Outcome) Writes() int {
	return o.Created + o.Updated + o.Resolved
}

type Reconciler struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	evaluator   Evaluator
	log         logging.Logger
	now         func() time.Time
}

func NewReconciler(db *sql.DB, rm repomanager.RepositoryManager, ev Evaluator, log logging.Logger) *Reconciler {
	return &Reconciler{
		db:          db,
		repomanager: rm,
		evaluator:   ev,
		log:         log.With("module", "checklist"),
		now:         time.Now,
	}
}

// Reconcile evaluates the intake and brings its auto items in line with the
// result inside one transaction. actorID is nil for system-triggered runs.
//
// Items no longer reported are resolved. Reported items are created, or
// reopened with the current description when they were resolved or
// reworded; re-detection undoes a staff resolution. Nothing is written when
// the checklist already matches.
func (r *Reconciler) Reconcile(ctx context.Context, intakeID string, actorID *string) (*Outcome, error) {
	var out Outcome
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := r.evaluator.EvaluateWith(ctx, tx, intakeID)
		if err != nil {
			return err
		}

		repo := r.repomanager.Checklist(tx)
		existing, err := repo.ListByIntake(ctx, intakeID, true, models.ItemMissingField, models.ItemMissingDocument)
		if err != nil {
			return fmt.Errorf("failed to list checklist: %w", err)
		}

		wanted := desired(intakeID, res)
		byKey := make(map[string]*models.ChecklistItem, len(existing))
		for _, it := range existing {
			byKey[it.Key()] = it
		}

		now := r.now()
		for _, it := range existing {
			if _, ok := wanted.items[it.Key()]; ok || it.IsResolved {
				continue
			}
			resolved, err := repo.MarkResolved(ctx, it.ID, actorID, now)
			if err != nil {
				return fmt.Errorf("failed to resolve checklist item %s: %w", it.ID, err)
			}
			if resolved {
				out.Resolved++
			}
		}

		for _, key := range wanted.order {
			item := wanted.items[key]
			cur, ok := byKey[key]
			if ok && !cur.IsResolved && cur.Description == item.Description {
				out.Unchanged++
				continue
			}
			inserted, err := repo.Upsert(ctx, item)
			if err != nil {
				return fmt.Errorf("failed to upsert checklist item %s: %w", key, err)
			}
			if inserted {
				out.Created++
			} else {
				out.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info(ctx, "checklist reconciled",
		"intake_id", intakeID,
		"created", out.Created,
		"updated", out.Updated,
		"resolved", out.Resolved,
		"unchanged", out.Unchanged)
	return &out, nil
}

type wantedItems struct {
	order []string
	items map[string]*models.ChecklistItem
}

// desired maps the report to auto items keyed by "{type}:{field}". A field
// reported twice keeps its first description.
func desired(intakeID string, res *models.ValidationResult) wantedItems {
	w := wantedItems{items: map[string]*models.ChecklistItem{}}
	add := func(t models.ChecklistItemType, mi models.MissingItem) {
		key := models.ChecklistKey(t, mi.Field)
		if _, dup := w.items[key]; dup {
			return
		}
		field := mi.Field
		w.order = append(w.order, key)
		w.items[key] = &models.ChecklistItem{
			IntakeID:    intakeID,
			ItemType:    t,
			FieldName:   &field,
			Description: mi.Description,
		}
	}
	for _, mi := range res.MissingFields {
		add(models.ItemMissingField, mi)
	}
	for _, mi := range res.MissingDocs {
		add(models.ItemMissingDocument, mi)
	}
	return w
}

// AddManualItem records a staff-created clarification or custom item.
func (r *Reconciler) AddManualItem(ctx context.Context, intakeID string, t models.ChecklistItemType, description string, actorID *string) (*models.ChecklistItem, error) {
	if !t.IsManual() {
		return nil, fmt.Errorf("add %q: %w", t, common.ErrInvalidItemType)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("checklist item description is required")
	}
	item, err := r.repomanager.Checklist(r.db).Create(ctx, &models.ChecklistItem{
		IntakeID:    intakeID,
		ItemType:    t,
		Description: description,
		CreatedBy:   actorID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checklist item: %w", err)
	}
	return item, nil
}

// ResolveManualItem marks a staff item resolved. Auto items are refused with
// common.ErrAutoItemOwned. Resolving twice is not an error.
func (r *Reconciler) ResolveManualItem(ctx context.Context, itemID string, actorID *string) (*models.ChecklistItem, error) {
	repo := r.repomanager.Checklist(r.db)
	item, err := repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.ItemType.IsAuto() {
		return nil, fmt.Errorf("resolve %s: %w", itemID, common.ErrAutoItemOwned)
	}
	if _, err := repo.MarkResolved(ctx, itemID, actorID, r.now()); err != nil {
		return nil, fmt.Errorf("failed to resolve checklist item: %w", err)
	}
	return repo.GetByID(ctx, itemID)
}

// List returns the intake's checklist in creation order.
func (r *Reconciler) List(ctx context.Context, intakeID string, includeResolved bool) ([]*models.ChecklistItem, error) {
	return r.repomanager.Checklist(r.db).ListByIntake(ctx, intakeID, includeResolved)
}
