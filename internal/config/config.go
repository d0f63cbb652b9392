package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/miraijuku/kanri/internal/paths"
	"gopkg.in/yaml.v3"
)

const (
	DefaultServerPort   = 53080
	DefaultPostgresPort = 5432
	DefaultChunkSize    = 500
)

type ServerConfig struct {
	Port int `yaml:"port"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"` // empty means: resolve from the vault
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// StorageConfig points at the S3-compatible object store holding snapshots.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"` // empty means: resolve from the vault
	UseSSL    bool   `yaml:"use_ssl"`
}

type RestoreConfig struct {
	ChunkSize    int   `yaml:"chunk_size"`
	SafetyBackup *bool `yaml:"safety_backup"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug|info|warn|error
	File  string `yaml:"file"`  // empty: stderr only
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Storage  StorageConfig  `yaml:"storage"`
	Restore  RestoreConfig  `yaml:"restore"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SafetyBackupEnabled reports whether the pre-restore safety backup should run.
// Unset means enabled.
func (c Config) SafetyBackupEnabled() bool {
	return c.Restore.SafetyBackup == nil || *c.Restore.SafetyBackup
}

func defaults() Config {
	return Config{
		Server: ServerConfig{Port: DefaultServerPort},
		Postgres: PostgresConfig{
			Host:    "127.0.0.1",
			Port:    DefaultPostgresPort,
			User:    "kanri",
			DBName:  "kanri",
			SSLMode: "disable",
		},
		Storage: StorageConfig{
			Endpoint: "127.0.0.1:9000",
			Region:   "ap-northeast-1",
			Bucket:   "kanri-backups",
		},
		Restore: RestoreConfig{ChunkSize: DefaultChunkSize},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Path returns the expected path to the config.yaml file.
func Path() string {
	return filepath.Join(paths.Home(), "config.yaml")
}

// Load reads configuration from config.yaml if it exists.
// Missing file is not an error; defaults are returned.
func Load() (Config, error) {
	cfg := defaults()
	p := Path()
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(b, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Merge: override defaults with provided values if non-zero
	if fileCfg.Server.Port != 0 {
		cfg.Server.Port = fileCfg.Server.Port
	}
	if fileCfg.Postgres.Host != "" {
		cfg.Postgres.Host = fileCfg.Postgres.Host
	}
	if fileCfg.Postgres.Port != 0 {
		cfg.Postgres.Port = fileCfg.Postgres.Port
	}
	if fileCfg.Postgres.User != "" {
		cfg.Postgres.User = fileCfg.Postgres.User
	}
	if fileCfg.Postgres.Password != "" {
		cfg.Postgres.Password = fileCfg.Postgres.Password
	}
	if fileCfg.Postgres.DBName != "" {
		cfg.Postgres.DBName = fileCfg.Postgres.DBName
	}
	if fileCfg.Postgres.SSLMode != "" {
		cfg.Postgres.SSLMode = fileCfg.Postgres.SSLMode
	}
	if fileCfg.Storage.Endpoint != "" {
		cfg.Storage.Endpoint = fileCfg.Storage.Endpoint
	}
	if fileCfg.Storage.Region != "" {
		cfg.Storage.Region = fileCfg.Storage.Region
	}
	if fileCfg.Storage.Bucket != "" {
		cfg.Storage.Bucket = fileCfg.Storage.Bucket
	}
	if fileCfg.Storage.AccessKey != "" {
		cfg.Storage.AccessKey = fileCfg.Storage.AccessKey
	}
	if fileCfg.Storage.SecretKey != "" {
		cfg.Storage.SecretKey = fileCfg.Storage.SecretKey
	}
	if fileCfg.Storage.UseSSL {
		cfg.Storage.UseSSL = true
	}
	if fileCfg.Restore.ChunkSize != 0 {
		cfg.Restore.ChunkSize = fileCfg.Restore.ChunkSize
	}
	if fileCfg.Restore.SafetyBackup != nil {
		cfg.Restore.SafetyBackup = fileCfg.Restore.SafetyBackup
	}
	if fileCfg.Logging.Level != "" {
		cfg.Logging.Level = fileCfg.Logging.Level
	}
	if fileCfg.Logging.File != "" {
		cfg.Logging.File = fileCfg.Logging.File
	}
	return cfg, nil
}
