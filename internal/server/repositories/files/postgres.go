package files

import (
	"context"
	"fmt"

	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/dbx"
	"github.com/taxintake/intakeengine/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx). File contents live in storage.Storage.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, intake_id, category, original_name, content_type, size_bytes,
	checksum, storage_key, needs_review, uploaded_by, created_at`

func scanFile(row interface{ Scan(...any) error }) (*models.File, error) {
	var f models.File
	err := row.Scan(&f.ID, &f.IntakeID, &f.Category, &f.OriginalName, &f.ContentType, &f.SizeBytes,
		&f.Checksum, &f.StorageKey, &f.NeedsReview, &f.UploadedBy, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create records an uploaded file. Rows are never updated afterwards except
// for the review flag.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	if !file.Category.Valid() {
		return nil, fmt.Errorf("unknown file category %q", file.Category)
	}

	query := `
		INSERT INTO files (intake_id, category, original_name, content_type, size_bytes, checksum, storage_key, needs_review, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		file.IntakeID, file.Category, file.OriginalName, file.ContentType, file.SizeBytes,
		file.Checksum, file.StorageKey, file.NeedsReview, file.UploadedBy).Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id))
	if err != nil {
		return nil, dbx.NotFound(err, "file")
	}
	return f, nil
}

// ListByIntake returns files in upload order.
func (r *PostgresRepository) ListByIntake(ctx context.Context, intakeID string) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE intake_id = $1 ORDER BY created_at, id`, intakeID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetNeedsReview flips the staff review flag.
func (r *PostgresRepository) SetNeedsReview(ctx context.Context, id string, needsReview bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE files SET needs_review = $2 WHERE id = $1`, id, needsReview)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOneRow(res, common.ErrorNotFound)
}
