package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/taxintake/intakeengine/internal/flagx"
)

const envPrefix = "INTAKE"

// newViper returns a viper instance that reads INTAKE_* variables for every
// config key.
func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return v, nil
}

// configKeys lists the mapstructure keys of Config.
var configKeys = []string{
	"endpoint_addr_grpc", "database_dsn", "secret_key", "access_token_validity_duration",
	"pii_key", "log_format", "log_level",
	"storage_backend", "s3_root_user", "s3_root_password", "s3_bucket", "s3_region", "s3_base_endpoint",
	"gcs_bucket", "gcs_credentials_file", "fs_root",
	"queue_backend", "workers", "queue_size", "redis_addr", "redis_password", "redis_db", "redis_queue",
	"renderer_format", "fetch_concurrency", "orphan_after",
}

// parseFile overlays values from the -c/-config file (format chosen by
// extension) and INTAKE_* environment variables onto cfg. Keys that are
// set nowhere keep their current value.
func parseFile(cfg *Config, args []string) error {
	v, err := newViper()
	if err != nil {
		return err
	}

	if path := flagx.ConfigFileFlag(args); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	}

	setString(v, "endpoint_addr_grpc", &cfg.EndpointAddrGRPC)
	setString(v, "database_dsn", &cfg.DatabaseDSN)
	setString(v, "secret_key", &cfg.SecretKey)
	if v.IsSet("access_token_validity_duration") {
		cfg.AccessTokenValidityDuration = v.GetDuration("access_token_validity_duration")
	}

	setString(v, "pii_key", &cfg.PIIKey)
	setString(v, "log_format", &cfg.LogFormat)
	setString(v, "log_level", &cfg.LogLevel)

	setString(v, "storage_backend", &cfg.StorageBackend)
	setString(v, "s3_root_user", &cfg.S3RootUser)
	setString(v, "s3_root_password", &cfg.S3RootPassword)
	setString(v, "s3_bucket", &cfg.S3Bucket)
	setString(v, "s3_region", &cfg.S3Region)
	setString(v, "s3_base_endpoint", &cfg.S3BaseEndpoint)
	setString(v, "gcs_bucket", &cfg.GCSBucket)
	setString(v, "gcs_credentials_file", &cfg.GCSCredentialsFile)
	setString(v, "fs_root", &cfg.FSRoot)

	setString(v, "queue_backend", &cfg.QueueBackend)
	setInt(v, "workers", &cfg.Workers)
	setInt(v, "queue_size", &cfg.QueueSize)
	setString(v, "redis_addr", &cfg.RedisAddr)
	setString(v, "redis_password", &cfg.RedisPassword)
	setInt(v, "redis_db", &cfg.RedisDB)
	setString(v, "redis_queue", &cfg.RedisQueue)

	setString(v, "renderer_format", &cfg.RendererFormat)
	setInt(v, "fetch_concurrency", &cfg.FetchConcurrency)
	if v.IsSet("orphan_after") {
		cfg.OrphanAfter = v.GetDuration("orphan_after")
	}

	return nil
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func setInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}
