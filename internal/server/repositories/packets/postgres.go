package packets

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

const requestColumns = `id, intake_id, requested_by, status, result_location, archive_location,
	error_message, created_at, started_at, completed_at`

func scanRequest(row interface{ Scan(...any) error }) (*models.PacketRequest, error) {
	var p models.PacketRequest
	err := row.Scan(&p.ID, &p.IntakeID, &p.RequestedBy, &p.Status, &p.ResultLocation, &p.ArchiveLocation,
		&p.ErrorMessage, &p.CreatedAt, &p.StartedAt, &p.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new pending request.
func (r *PostgresRepository) Create(ctx context.Context, req *models.PacketRequest) (*models.PacketRequest, error) {
	query :=
		`INSERT INTO packet_requests (intake_id, requested_by, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`

	req.Status = models.PacketPending
	err := r.db.QueryRowContext(ctx, query, req.IntakeID, req.RequestedBy, req.Status).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("intake %s: %w", req.IntakeID, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.PacketRequest, error) {
	p, err := scanRequest(r.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM packet_requests WHERE id = $1`, id))
	if err != nil {
		return nil, dbx.NotFound(err, "packet request")
	}
	return p, nil
}

// LatestByIntake returns the most recently created request of the intake.
func (r *PostgresRepository) LatestByIntake(ctx context.Context, intakeID string) (*models.PacketRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM packet_requests
		WHERE intake_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`

	p, err := scanRequest(r.db.QueryRowContext(ctx, query, intakeID))
	if err != nil {
		return nil, dbx.NotFound(err, "packet request")
	}
	return p, nil
}

// fromStatus renders the guard for a transition to target from the model's
// state machine. Values are package constants, never input.
func fromStatus(target models.PacketStatus) string {
	sources := models.TransitionSources(target)
	quoted := make([]string, len(sources))
	for i, s := range sources {
		quoted[i] = "'" + string(s) + "'"
	}
	return "status IN (" + strings.Join(quoted, ", ") + ")"
}

func (r *PostgresRepository) MarkProcessing(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE packet_requests SET status = 'processing', started_at = $2
		 WHERE id = $1 AND `+fromStatus(models.PacketProcessing), id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return transitioned(res, id, models.PacketProcessing)
}

func (r *PostgresRepository) MarkCompleted(ctx context.Context, id, summaryKey, archiveKey string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE packet_requests
		 SET status = 'completed', result_location = $2, archive_location = $3, completed_at = $4, error_message = NULL
		 WHERE id = $1 AND `+fromStatus(models.PacketCompleted), id, summaryKey, archiveKey, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return transitioned(res, id, models.PacketCompleted)
}

func (r *PostgresRepository) MarkFailed(ctx context.Context, id, message string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE packet_requests SET status = 'failed', error_message = $2, completed_at = $3
		 WHERE id = $1 AND `+fromStatus(models.PacketFailed), id, message, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return transitioned(res, id, models.PacketFailed)
}

// ListStale returns requests stuck in processing since before startedBefore.
func (r *PostgresRepository) ListStale(ctx context.Context, startedBefore time.Time) ([]*models.PacketRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM packet_requests
		 WHERE status = 'processing' AND started_at < $1 ORDER BY started_at`, startedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to select packet requests: %w", err)
	}
	defer rows.Close()

	var result []*models.PacketRequest
	for rows.Next() {
		p, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func transitioned(res interface{ RowsAffected() (int64, error) }, id string, to models.PacketStatus) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("packet request %s -> %s: %w", id, to, common.ErrInvalidTransition)
	}
	return nil
}
