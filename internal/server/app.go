// Package server wires the intake engine together: database and migrations,
// the PII codec, file storage, the packet pipeline and the gRPC transport.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taxintake/intakeengine/internal/cryptox"
	"github.com/taxintake/intakeengine/internal/logging"
	"github.com/taxintake/intakeengine/internal/server/audit"
	"github.com/taxintake/intakeengine/internal/server/checklist"
	"github.com/taxintake/intakeengine/internal/server/completeness"
	"github.com/taxintake/intakeengine/internal/server/config"
	"github.com/taxintake/intakeengine/internal/server/packet"
	"github.com/taxintake/intakeengine/internal/server/render"
	"github.com/taxintake/intakeengine/internal/server/repositories/repomanager"
	"github.com/taxintake/intakeengine/internal/server/services"
	"github.com/taxintake/intakeengine/internal/server/storage"

	gs "github.com/taxintake/intakeengine/internal/server/grpc"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	storage storage.Storage
	packets *packet.Service
	server  *gs.GRPCServer

	pool      *packet.PoolDispatcher
	redis     *redis.Client
	consumers []*packet.RedisConsumer
}

// NewApp opens the database, runs migrations and builds every component.
// The config is expected to be validated.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	key, err := cryptox.ParseKey(c.PIIKey)
	if err != nil {
		return nil, fmt.Errorf("pii key: %w", err)
	}
	codec, err := cryptox.NewCodec(key)
	cryptox.WipeBytes(key)
	if err != nil {
		return nil, fmt.Errorf("pii codec: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	st, err := newStorage(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, storage: st}

	sink := audit.MultiSink{audit.NewRepositorySink(db, rm, logger), audit.NewLogSink(logger)}
	worker := packet.NewWorker(db, rm, codec, st, render.New(c.RendererFormat), sink, logger,
		packet.WithFetchConcurrency(c.FetchConcurrency))

	var dispatcher packet.Dispatcher
	switch c.QueueBackend {
	case "redis":
		app.redis = redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		dispatcher = packet.NewRedisDispatcher(app.redis, c.RedisQueue)
		for i := 0; i < c.Workers; i++ {
			app.consumers = append(app.consumers, packet.NewRedisConsumer(app.redis, c.RedisQueue, worker.Handle, logger))
		}
	default:
		app.pool = packet.NewPoolDispatcher(c.Workers, c.QueueSize, worker.Handle, logger)
		dispatcher = app.pool
	}

	app.packets = packet.NewService(db, rm, dispatcher, sink, logger)
	ev := completeness.NewEvaluator(db, rm, codec, logger)
	rc := checklist.NewReconciler(db, rm, ev, logger)
	engine := services.NewEngine(db, rm, ev, rc, app.packets, logger)

	app.server = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, engine, c.SecretKey)

	return app, nil
}

func newStorage(ctx context.Context, c *config.Config) (storage.Storage, error) {
	var (
		st  storage.Storage
		err error
	)
	switch c.StorageBackend {
	case "s3":
		var s *storage.S3
		s, err = storage.NewS3(ctx, storage.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		st = s
	case "gcs":
		var s *storage.GCS
		s, err = storage.NewGCS(ctx, c.GCSBucket, c.GCSCredentialsFile)
		st = s
	case "fs":
		var s *storage.FS
		s, err = storage.NewFS(c.FSRoot)
		st = s
	case "memory":
		st = storage.NewMemory()
	default:
		err = fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// reportOrphans logs requests left in processing by a previous run.
func (app *App) reportOrphans(ctx context.Context) {
	orphans, err := app.packets.ReportOrphans(ctx, app.config.OrphanAfter)
	if err != nil {
		app.logger.Error(ctx, "orphan scan failed", "error", err.Error())
		return
	}
	if len(orphans) > 0 {
		app.logger.Warn(ctx, "orphaned packet requests found", "count", len(orphans))
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	if app.pool != nil {
		app.pool.Start()
	}
	for _, c := range app.consumers {
		wg.Add(1)
		go func(c *packet.RedisConsumer) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil {
				app.logger.Info(ctx, "packet consumer stopped", "reason", err.Error())
			}
		}(c)
	}

	app.reportOrphans(ctx)

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.shutdown()
}

func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if app.pool != nil {
		if err := app.pool.Stop(ctx); err != nil {
			app.logger.Warn(ctx, "packet pool did not drain", "error", err.Error())
		}
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if c, ok := app.storage.(io.Closer); ok {
		_ = c.Close()
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}

	app.logger.Info(ctx, "App stopped")
}
