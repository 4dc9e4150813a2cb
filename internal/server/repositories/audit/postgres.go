package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/taxintake/intakeengine/internal/dbx"
	"github.com/taxintake/intakeengine/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.AuditRecord) error {
	details := rec.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	query :=
		`INSERT INTO audit_log (actor_id, action, resource, resource_id, result, details)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query, rec.ActorID, rec.Action, rec.Resource, rec.ResourceID, rec.Result, raw).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByResource(ctx context.Context, resource, resourceID string) ([]*models.AuditRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, actor_id, action, resource, resource_id, result, details, created_at
		 FROM audit_log WHERE resource = $1 AND resource_id = $2 ORDER BY created_at, id`, resource, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to select audit log: %w", err)
	}
	defer rows.Close()

	var result []*models.AuditRecord
	for rows.Next() {
		var (
			rec models.AuditRecord
			raw []byte
		)
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.Action, &rec.Resource, &rec.ResourceID, &rec.Result, &raw, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &rec.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
		}
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
