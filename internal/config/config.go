// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store driver names accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config holds configuration knobs for the HTTP server, the store backend
// and the journal worker pool.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string

	StoreDriver        string
	PostgresDSN        string
	RedisAddr          string
	RedisDB            int
	StoreRetryAttempts int

	InitialWorkerCount      int
	WorkerMin               int
	WorkerMax               int
	ScaleInterval           time.Duration
	ScaleUpBacklogPerWorker int
	ScaleDownIdleTicks      int
	JournalHighWatermark    int
}

// source resolves a key from the environment first, then from the optional
// config file, then from the compiled-in default. File keys are the
// lowercase form of the environment names.
type source struct {
	file map[string]string
}

func (s source) get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := s.file[strings.ToLower(key)]; v != "" {
		return v
	}
	return def
}

func (s source) atoi(key string, def int) int {
	v := s.get(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (s source) durms(key string, defMs int) time.Duration {
	return time.Duration(s.atoi(key, defMs)) * time.Millisecond
}

func (s source) durs(key string, defSec int) time.Duration {
	return time.Duration(s.atoi(key, defSec)) * time.Second
}

// Load collects configuration from the file named by CONFIG_FILE (if any)
// and the environment, with environment values taking precedence.
func Load() Config {
	return LoadWithFile(os.Getenv("CONFIG_FILE"))
}

// LoadWithFile is Load with an explicit config file path.
func LoadWithFile(path string) Config {
	src := source{file: map[string]string{}}
	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &src.file)
		}
	}
	minWorkers := src.atoi("WORKER_MIN", 2)
	maxWorkers := src.atoi("WORKER_MAX", 6)
	initialWorkers := src.atoi("WORKER_COUNT", minWorkers)
	return Config{
		HTTPAddr:        src.get("HTTP_ADDR", ":8081"),
		ShutdownTimeout: src.durs("SHUTDOWN_TIMEOUT", 15),
		LogLevel:        src.get("LOG_LEVEL", "info"),

		StoreDriver:        src.get("STORE_DRIVER", DriverMemory),
		PostgresDSN:        src.get("POSTGRES_DSN", ""),
		RedisAddr:          src.get("REDIS_ADDR", "localhost:6379"),
		RedisDB:            src.atoi("REDIS_DB", 0),
		StoreRetryAttempts: src.atoi("STORE_RETRY_ATTEMPTS", 3),

		InitialWorkerCount:      initialWorkers,
		WorkerMin:               minWorkers,
		WorkerMax:               maxWorkers,
		ScaleInterval:           src.durms("SCALE_INTERVAL_MS", 500),
		ScaleUpBacklogPerWorker: src.atoi("SCALE_UP_BACKLOG_PER_WORKER", 100),
		ScaleDownIdleTicks:      src.atoi("SCALE_DOWN_IDLE_TICKS", 6),
		JournalHighWatermark:    src.atoi("JOURNAL_HIGH_WATERMARK", 5000),
	}
}
