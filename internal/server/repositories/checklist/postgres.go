package checklist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/dbx"
	"github.com/taxintake/intakeengine/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const itemColumns = `id, intake_id, item_type, field_name, description, is_resolved,
	resolved_at, resolved_by, created_by, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*models.ChecklistItem, error) {
	var it models.ChecklistItem
	err := row.Scan(&it.ID, &it.IntakeID, &it.ItemType, &it.FieldName, &it.Description, &it.IsResolved,
		&it.ResolvedAt, &it.ResolvedBy, &it.CreatedBy, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *PostgresRepository) ListByIntake(ctx context.Context, intakeID string, includeResolved bool, types ...models.ChecklistItemType) ([]*models.ChecklistItem, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + itemColumns + ` FROM checklist_items WHERE intake_id = $1`)
	args := []any{intakeID}

	if !includeResolved {
		sb.WriteString(` AND is_resolved = false`)
	}
	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			args = append(args, string(t))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		sb.WriteString(` AND item_type IN (` + strings.Join(placeholders, ", ") + `)`)
	}
	sb.WriteString(` ORDER BY created_at, id`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select checklist items: %w", err)
	}
	defer rows.Close()

	var result []*models.ChecklistItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.ChecklistItem, error) {
	it, err := scanItem(r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM checklist_items WHERE id = $1`, id))
	if err != nil {
		return nil, dbx.NotFound(err, "checklist item")
	}
	return it, nil
}

// Upsert relies on the partial unique index over (intake_id, item_type,
// field_name) for auto types, so concurrent reconciles of one intake never
// produce duplicate rows.
func (r *PostgresRepository) Upsert(ctx context.Context, item *models.ChecklistItem) (bool, error) {
	if !item.ItemType.IsAuto() || item.FieldName == nil {
		return false, fmt.Errorf("upsert %q: %w", item.ItemType, common.ErrInvalidItemType)
	}

	query := `
		INSERT INTO checklist_items (intake_id, item_type, field_name, description, created_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (intake_id, item_type, field_name) WHERE item_type IN ('missing_field', 'missing_document')
		DO UPDATE SET
			description = EXCLUDED.description,
			is_resolved = false,
			resolved_at = NULL,
			resolved_by = NULL,
			updated_at = now()
		RETURNING id, (xmax = 0) AS inserted`

	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		item.IntakeID, item.ItemType, item.FieldName, item.Description, item.CreatedBy).
		Scan(&item.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	item.IsResolved = false
	item.ResolvedAt = nil
	item.ResolvedBy = nil
	return inserted, nil
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.ChecklistItem) (*models.ChecklistItem, error) {
	if !item.ItemType.IsManual() {
		return nil, fmt.Errorf("create %q: %w", item.ItemType, common.ErrInvalidItemType)
	}

	query := `
		INSERT INTO checklist_items (intake_id, item_type, field_name, description, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		item.IntakeID, item.ItemType, item.FieldName, item.Description, item.CreatedBy).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("intake %s: %w", item.IntakeID, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) MarkResolved(ctx context.Context, id string, resolvedBy *string, at time.Time) (bool, error) {
	query := `
		UPDATE checklist_items
		SET is_resolved = true, resolved_at = $2, resolved_by = $3, updated_at = now()
		WHERE id = $1 AND is_resolved = false`

	res, err := r.db.ExecContext(ctx, query, id, at, resolvedBy)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}
