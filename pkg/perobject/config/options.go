package config

import (
	"fmt"

	s3archive "github.com/tendant/per-object-storage/pkg/perobject/archive/s3"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithLogLevel sets the minimum log level
func WithLogLevel(level string) Option {
	return func(c *ServerConfig) error {
		if _, err := parseLevel(level); err != nil {
			return err
		}
		c.LogLevel = level
		return nil
	}
}

// WithFieldName sets the save-container field name
func WithFieldName(name string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			return fmt.Errorf("field name cannot be empty")
		}
		c.FieldName = name
		return nil
	}
}

// WithJWTSecret enables bearer-token auth on mutating API routes
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithoutArchive disables snapshots
func WithoutArchive() Option {
	return func(c *ServerConfig) error {
		c.Archive = ArchiveConfig{Type: ArchiveNone}
		return nil
	}
}

// WithMemoryArchive keeps snapshots in process memory
func WithMemoryArchive() Option {
	return func(c *ServerConfig) error {
		c.Archive = ArchiveConfig{Type: ArchiveMemory}
		return nil
	}
}

// WithFilesystemArchive stores snapshots below baseDir
func WithFilesystemArchive(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.Archive = ArchiveConfig{Type: ArchiveFS, BaseDir: baseDir}
		return nil
	}
}

// WithS3Archive stores snapshots in an S3 bucket
func WithS3Archive(cfg s3archive.Config) Option {
	return func(c *ServerConfig) error {
		if cfg.Bucket == "" {
			return fmt.Errorf("s3 bucket cannot be empty")
		}
		c.Archive = ArchiveConfig{Type: ArchiveS3, S3: cfg}
		return nil
	}
}

// WithPostgresArchive stores snapshots in a Postgres table
func WithPostgresArchive(databaseURL, schema string) Option {
	return func(c *ServerConfig) error {
		if databaseURL == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.Archive = ArchiveConfig{Type: ArchivePostgres, DatabaseURL: databaseURL, Schema: schema}
		return nil
	}
}
