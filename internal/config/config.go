// Package config reads the server settings from the environment and .env.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gnitoahc/go-dotenv"
)

// Storage drivers.
const (
	DriverFS     = "fs"
	DriverSQLite = "sqlite"
	DriverLibSQL = "libsql"
	DriverS3     = "s3"
)

// Cache drivers.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Port     int
	LogLevel string
	LogFile  string

	StorageDriver       string
	VideosDir           string
	ObjectStorageSource string
	S3                  S3
	StorageTimeout      time.Duration

	CacheDriver string
	CacheTTL    time.Duration
	CacheMaxMB  int
	Redis       Redis

	MaxUploadBytes int64
}

type S3 struct {
	AccountID       string
	AccessKey       string
	SecretAccessKey string
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Load reads .env from the working directory, if present, and then the
// process environment. Variables already set in the environment win.
func Load() (Config, error) {
	dotenv.Load(".env")

	var errs []error
	cfg := Config{
		Port:                intVar("PORT", 3001, &errs),
		LogLevel:            get("LOG_LEVEL", "info"),
		LogFile:             get("LOG_FILE", ""),
		StorageDriver:       strings.ToLower(get("STORAGE_DRIVER", DriverFS)),
		VideosDir:           get("VIDEOS_DIR", "./videos"),
		ObjectStorageSource: get("OBJECT_STORAGE_SOURCE", "file:videos.db?cache=shared"),
		S3: S3{
			AccountID:       get("S3_ACCOUNT_ID", ""),
			AccessKey:       get("S3_ACCESS_KEY", ""),
			SecretAccessKey: get("S3_SECRET_ACCESS_KEY", ""),
			Bucket:          get("S3_BUCKET", ""),
			Region:          get("S3_REGION", ""),
			Endpoint:        get("S3_ENDPOINT", ""),
			PathStyle:       boolVar("S3_PATH_STYLE", false, &errs),
		},
		StorageTimeout: durationVar("STORAGE_TIMEOUT", 30*time.Second, &errs),
		CacheDriver:    strings.ToLower(get("CACHE_DRIVER", CacheMemory)),
		CacheTTL:       durationVar("CACHE_TTL", 60*time.Second, &errs),
		CacheMaxMB:     intVar("CACHE_MAX_MB", 512, &errs),
		Redis: Redis{
			Addr:     get("REDIS_ADDR", "localhost:6379"),
			Password: get("REDIS_PASSWORD", ""),
			DB:       intVar("REDIS_DB", 0, &errs),
		},
		MaxUploadBytes: int64(intVar("MAX_UPLOAD_BYTES", 10<<20, &errs)),
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the combinations a single variable parse cannot.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: PORT %d out of range", c.Port))
	}
	switch c.StorageDriver {
	case DriverFS:
		if c.VideosDir == "" {
			errs = append(errs, errors.New("config: VIDEOS_DIR is required for the fs driver"))
		}
	case DriverSQLite, DriverLibSQL:
		if c.ObjectStorageSource == "" {
			errs = append(errs, errors.New("config: OBJECT_STORAGE_SOURCE is required for the sqlite drivers"))
		}
	case DriverS3:
		for name, v := range map[string]string{
			"S3_ACCESS_KEY":        c.S3.AccessKey,
			"S3_SECRET_ACCESS_KEY": c.S3.SecretAccessKey,
			"S3_BUCKET":            c.S3.Bucket,
		} {
			if v == "" {
				errs = append(errs, fmt.Errorf("config: %s is required for the s3 driver", name))
			}
		}
		if c.S3.AccountID == "" && c.S3.Endpoint == "" {
			errs = append(errs, errors.New("config: S3_ACCOUNT_ID or S3_ENDPOINT is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	switch c.CacheDriver {
	case CacheMemory, CacheRedis:
	default:
		errs = append(errs, fmt.Errorf("config: unknown CACHE_DRIVER %q", c.CacheDriver))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("config: CACHE_TTL must be positive"))
	}
	if c.CacheMaxMB < 0 {
		errs = append(errs, errors.New("config: CACHE_MAX_MB must not be negative"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("config: MAX_UPLOAD_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

// get treats a variable set to the empty string like an unset one.
func get(key, def string) string {
	if v := dotenv.Get(key, def); v != "" {
		return v
	}
	return def
}

func intVar(key string, def int, errs *[]error) int {
	raw := get(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return v
}

func boolVar(key string, def bool, errs *[]error) bool {
	raw := get(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return v
}

func durationVar(key string, def time.Duration, errs *[]error) time.Duration {
	raw := get(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return v
}
