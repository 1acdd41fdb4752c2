package server

import (
	"context"
	"fmt"

	"mediavault/internal/config"
	"mediavault/pkg/cache"
	"mediavault/pkg/cache/memory"
	"mediavault/pkg/cache/redis"
	"mediavault/pkg/fsstore"
	"mediavault/pkg/object"
	"mediavault/pkg/s3"
	"mediavault/pkg/sqlite"

	"go.uber.org/zap"
)

// openDurable initializes the object storage selected by STORAGE_DRIVER.
func openDurable(ctx context.Context, cfg config.Config, logger *zap.Logger) (object.ObjectStorage, error) {
	var (
		backend object.ObjectStorage
		param   any
	)
	switch cfg.StorageDriver {
	case config.DriverFS:
		logger.Info("Using local filesystem as object storage backend", zap.String("dir", cfg.VideosDir))
		backend = &fsstore.Storage{}
		param = fsstore.Config{Dir: cfg.VideosDir}
	case config.DriverSQLite, config.DriverLibSQL:
		logger.Info("Using SQLite as object storage backend", zap.String("driver", cfg.StorageDriver))
		backend = &sqlite.Storage{}
		param = sqlite.Config{Source: cfg.ObjectStorageSource, Driver: cfg.StorageDriver}
	case config.DriverS3:
		logger.Info("Using S3 as object storage backend", zap.String("bucket", cfg.S3.Bucket))
		backend = &s3.Storage{}
		param = s3.Config{
			AccountID:        cfg.S3.AccountID,
			AccessKey:        cfg.S3.AccessKey,
			SecretAccessKey:  cfg.S3.SecretAccessKey,
			Bucket:           cfg.S3.Bucket,
			Region:           cfg.S3.Region,
			EndpointOverride: cfg.S3.Endpoint,
			PathStyle:        cfg.S3.PathStyle,
		}
	default:
		return nil, fmt.Errorf("unknown backend driver: %s", cfg.StorageDriver)
	}
	if err := backend.Init(ctx, param); err != nil {
		return nil, err
	}
	return backend, nil
}

// openCache connects the cache selected by CACHE_DRIVER.
func openCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (cache.Cache, error) {
	switch cfg.CacheDriver {
	case config.CacheMemory:
		logger.Info("Using in-process memory cache", zap.Int("max_mb", cfg.CacheMaxMB))
		return memory.New(ctx, memory.Config{HardMaxCacheSizeMB: cfg.CacheMaxMB})
	case config.CacheRedis:
		logger.Info("Using Redis cache", zap.String("addr", cfg.Redis.Addr))
		c := redis.New(redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB, Password: cfg.Redis.Password})
		// the server still works without the cache, so a failed ping only warns
		if err := c.Ping(ctx); err != nil {
			logger.Warn("Redis is unreachable, continuing with degraded cache", zap.Error(err))
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown cache driver: %s", cfg.CacheDriver)
}
