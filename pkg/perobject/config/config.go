package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/per-object-storage/pkg/perobject"
	fsarchive "github.com/tendant/per-object-storage/pkg/perobject/archive/fs"
	memoryarchive "github.com/tendant/per-object-storage/pkg/perobject/archive/memory"
	pgarchive "github.com/tendant/per-object-storage/pkg/perobject/archive/postgres"
	s3archive "github.com/tendant/per-object-storage/pkg/perobject/archive/s3"
)

// Archive types
const (
	ArchiveNone     = "none"
	ArchiveMemory   = "memory"
	ArchiveFS       = "fs"
	ArchiveS3       = "s3"
	ArchivePostgres = "postgres"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:        "8080",
		Environment: "development",
		LogLevel:    "info",
		FieldName:   perobject.FieldName,
		Archive: ArchiveConfig{
			Type: ArchiveMemory,
		},
	}
}

// ServerConfig represents configuration for the per-object storage server
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing
	LogLevel    string // debug, info, warn, error

	// Save-container field carrying persisted blobs
	FieldName string

	// Snapshot archive
	Archive ArchiveConfig

	// HMAC secret guarding mutating API routes; empty disables auth
	JWTSecret string
}

// ArchiveConfig selects and configures the snapshot archive
type ArchiveConfig struct {
	Type string // "none", "memory", "fs", "s3", "postgres"

	BaseDir string // fs

	S3 s3archive.Config // s3

	DatabaseURL string // postgres
	Schema      string // postgres
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.FieldName == "" {
		return errors.New("field name is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.Archive.Type {
	case ArchiveNone, ArchiveMemory:
	case ArchiveFS:
		if c.Archive.BaseDir == "" {
			return errors.New("archive base directory is required for fs archive")
		}
	case ArchiveS3:
		if c.Archive.S3.Bucket == "" {
			return errors.New("archive bucket is required for s3 archive")
		}
	case ArchivePostgres:
		if c.Archive.DatabaseURL == "" {
			return errors.New("database url is required for postgres archive")
		}
	default:
		return fmt.Errorf("archive type must be one of none, memory, fs, s3, postgres; got %q", c.Archive.Type)
	}

	return nil
}

func parseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", level)
	}
	return l, nil
}

// Logger builds the process logger: text output in development, JSON
// otherwise.
func (c *ServerConfig) Logger() *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.Environment == "development" || c.Environment == "testing" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// BuildArchive creates the configured archive. The returned close function
// releases any connection the archive holds and is never nil. A nil archive
// means snapshots are disabled.
func (c *ServerConfig) BuildArchive(ctx context.Context) (perobject.Archive, func(), error) {
	noop := func() {}

	switch c.Archive.Type {
	case ArchiveNone:
		return nil, noop, nil
	case ArchiveMemory:
		return memoryarchive.New(), noop, nil
	case ArchiveFS:
		a, err := fsarchive.New(fsarchive.Config{BaseDir: c.Archive.BaseDir})
		if err != nil {
			return nil, noop, fmt.Errorf("failed to build fs archive: %w", err)
		}
		return a, noop, nil
	case ArchiveS3:
		a, err := s3archive.New(c.Archive.S3)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to build s3 archive: %w", err)
		}
		return a, noop, nil
	case ArchivePostgres:
		pool, err := pgxpool.New(ctx, c.Archive.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := pgarchive.Migrate(ctx, pool, c.Archive.Schema); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return pgarchive.NewWithPool(pool, c.Archive.Schema), pool.Close, nil
	}
	return nil, noop, fmt.Errorf("unsupported archive type %q", c.Archive.Type)
}

// BuildService creates a Service from the configuration. Hooks log
// lifecycle events through logger.
func (c *ServerConfig) BuildService(logger *slog.Logger, archive perobject.Archive) (perobject.Service, error) {
	options := []perobject.Option{
		perobject.WithLogger(logger),
		perobject.WithHooks(perobject.LoggingHooks(logger)),
		perobject.WithFieldName(c.FieldName),
	}
	if archive != nil {
		options = append(options, perobject.WithArchive(archive))
	}
	return perobject.New(options...)
}
