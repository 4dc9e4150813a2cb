package packet

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/taxintake/intakeengine/internal/common"
	"github.com/taxintake/intakeengine/internal/logging"
	"github.com/taxintake/intakeengine/internal/server/audit"
	"github.com/taxintake/intakeengine/internal/server/models"
	"github.com/taxintake/intakeengine/internal/server/render"
	"github.com/taxintake/intakeengine/internal/server/repositories/repomanager"
	"github.com/taxintake/intakeengine/internal/server/storage"
	"golang.org/x/sync/errgroup"
)

const (
	ArchiveName = "packet.zip"

	ActionRequested = "packet.requested"
	ActionCompleted = "packet.completed"
	ActionFailed    = "packet.failed"
	AuditResource   = "packet_request"
)

// Worker generates one packet per call to Process.
type Worker struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	codec            Decryptor
	storage          storage.Storage
	renderer         render.Renderer
	audit            audit.Sink
	log              logging.Logger
	fetchConcurrency int
	now              func() time.Time
}

type WorkerOption func(*Worker)

// WithFetchConcurrency bounds parallel file downloads. Values below 1 mean 1.
func WithFetchConcurrency(n int) WorkerOption {
	return func(w *Worker) {
		if n < 1 {
			n = 1
		}
		w.fetchConcurrency = n
	}
}

func NewWorker(db *sql.DB, rm repomanager.RepositoryManager, codec Decryptor, st storage.Storage,
	r render.Renderer, sink audit.Sink, log logging.Logger, opts ...WorkerOption) *Worker {
	w := &Worker{
		db:               db,
		repomanager:      rm,
		codec:            codec,
		storage:          st,
		renderer:         r,
		audit:            sink,
		log:              log.With("module", "packet"),
		fetchConcurrency: 4,
		now:              time.Now,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Handle adapts Process to a dispatcher Handler.
func (w *Worker) Handle(ctx context.Context, requestID string) {
	if err := w.Process(ctx, requestID); err != nil {
		w.log.Error(ctx, "packet request not processed", "request_id", requestID, "error", err)
	}
}

// Process moves a pending request to processing, builds and stores the
// packet, and finishes in completed or failed. Step failures, panics
// included, end in failed and are not returned. An error means the request
// could not be claimed or its final status could not be written.
func (w *Worker) Process(ctx context.Context, requestID string) error {
	repo := w.repomanager.Packets(w.db)
	if err := repo.MarkProcessing(ctx, requestID, w.now()); err != nil {
		return fmt.Errorf("claim packet request %s: %w", requestID, err)
	}
	w.log.Info(ctx, "packet generation started", "request_id", requestID)

	req, res, err := w.run(ctx, requestID)
	intakeID := ""
	if req != nil {
		intakeID = req.IntakeID
	}

	if err != nil {
		msg := err.Error()
		if ferr := repo.MarkFailed(ctx, requestID, msg, w.now()); ferr != nil {
			return fmt.Errorf("mark packet request %s failed: %w", requestID, ferr)
		}
		w.log.Warn(ctx, "packet generation failed", "request_id", requestID, "intake_id", intakeID, "error", msg)
		w.audit.Record(ctx, audit.Entry{
			Action:     ActionFailed,
			Resource:   AuditResource,
			ResourceID: requestID,
			Result:     models.AuditFailure,
			Details:    map[string]any{"intake_id": intakeID, "error": msg},
		})
		return nil
	}

	if err := repo.MarkCompleted(ctx, requestID, res.summaryKey, res.archiveKey, w.now()); err != nil {
		return fmt.Errorf("mark packet request %s completed: %w", requestID, err)
	}
	w.log.Info(ctx, "packet generation completed", "request_id", requestID, "intake_id", intakeID, "files", res.files)
	w.audit.Record(ctx, audit.Entry{
		Action:     ActionCompleted,
		Resource:   AuditResource,
		ResourceID: requestID,
		Result:     models.AuditSuccess,
		Details: map[string]any{
			"intake_id":   intakeID,
			"summary_key": res.summaryKey,
			"archive_key": res.archiveKey,
			"files":       res.files,
		},
	})
	return nil
}

type artifacts struct {
	summaryKey string
	archiveKey string
	files      int
}

func (w *Worker) run(ctx context.Context, requestID string) (req *models.PacketRequest, res artifacts, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("packet generation panicked: %v", p)
		}
	}()

	req, err = w.repomanager.Packets(w.db).GetByID(ctx, requestID)
	if err != nil {
		return nil, res, fmt.Errorf("%w: load request: %w", common.ErrStorageFault, err)
	}

	g, err := repomanager.LoadGraph(ctx, w.repomanager, w.db, req.IntakeID)
	if err != nil {
		return req, res, fmt.Errorf("%w: load intake: %w", common.ErrStorageFault, err)
	}

	now := w.now()
	summary, err := BuildSummary(g, w.codec, now)
	if err != nil {
		return req, res, fmt.Errorf("build summary: %w", err)
	}
	doc, err := w.renderer.Render(ctx, summary)
	if err != nil {
		return req, res, fmt.Errorf("render summary: %w", err)
	}

	files, err := w.fetchFiles(ctx, g.Files)
	if err != nil {
		return req, res, err
	}

	archive, err := buildArchive(doc.Name, doc.Data, files, now)
	if err != nil {
		return req, res, fmt.Errorf("build archive: %w", err)
	}

	res.summaryKey = storage.ExportKey(req.IntakeID, req.ID, doc.Name)
	res.archiveKey = storage.ExportKey(req.IntakeID, req.ID, ArchiveName)
	res.files = len(files)
	if err := w.storage.Put(ctx, res.summaryKey, doc.Data, doc.ContentType); err != nil {
		return req, res, fmt.Errorf("store summary: %w", err)
	}
	if err := w.storage.Put(ctx, res.archiveKey, archive, "application/zip"); err != nil {
		return req, res, fmt.Errorf("store archive: %w", err)
	}
	return req, res, nil
}

// fetchFiles downloads every file with bounded parallelism and checks the
// recorded SHA-256 where one exists. Results keep the input order.
func (w *Worker) fetchFiles(ctx context.Context, files []*models.File) ([]archiveFile, error) {
	out := make([]archiveFile, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.fetchConcurrency)

	for i, f := range files {
		g.Go(func() (err error) {
			// errgroup does not carry panics back to Wait.
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("%w: fetch file %s panicked: %v", common.ErrStorageFault, f.ID, p)
				}
			}()

			data, err := w.storage.Fetch(gctx, f.StorageKey)
			if err != nil {
				return fmt.Errorf("%w: fetch file %s: %w", common.ErrStorageFault, f.ID, err)
			}
			if f.Checksum != "" {
				sum := sha256.Sum256(data)
				if !strings.EqualFold(hex.EncodeToString(sum[:]), f.Checksum) {
					return fmt.Errorf("%w: checksum mismatch for file %s", common.ErrStorageFault, f.ID)
				}
			}
			out[i] = archiveFile{file: f, data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
