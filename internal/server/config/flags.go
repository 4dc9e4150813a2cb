package config

import (
	"flag"
	"time"

	"github.com/taxintake/intakeengine/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-k string   PII key (64 hex chars or passphrase)
//	-l string   log level
//	-storage    storage backend: s3, gcs, fs, memory
//	-queue      queue backend: pool, redis
//	-w int      packet workers
//
// Only these flags are read; os.Args is filtered first with flagx.FilterArgs.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-k", "-l", "-storage", "-queue", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.PIIKey, "k", config.PIIKey, "PII encryption key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.StorageBackend, "storage", config.StorageBackend, "storage backend")
	fs.StringVar(&config.QueueBackend, "queue", config.QueueBackend, "packet queue backend")
	fs.IntVar(&config.Workers, "w", config.Workers, "packet workers")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	return nil
}
