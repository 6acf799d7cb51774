package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultSourceURL = "https://api.eia.gov/v2/electricity/rto/daily-region-data/data/"
	defaultAPIKeyEnv = "EIA_API_KEY"
	defaultFrequency = "daily"
	defaultDataType  = "D"
	defaultPageSize  = 5000
	defaultTimeout   = 30 * time.Second
)

type Config struct {
	Gridflow GridflowConfig `yaml:"gridflow"`
	Source   SourceConfig   `yaml:"source"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type GridflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type SourceConfig struct {
	EIA EIASourceConfig `yaml:"eia"`
}

type EIASourceConfig struct {
	URL            string               `yaml:"url"`
	APIKeyEnv      string               `yaml:"api_key_env"`
	Frequency      string               `yaml:"frequency"`
	DataType       string               `yaml:"data_type"`
	StartDate      string               `yaml:"start_date"`
	EndDate        string               `yaml:"end_date"`
	PageSize       int                  `yaml:"page_size"`
	Timeout        time.Duration        `yaml:"timeout"`
	Regions        []string             `yaml:"regions"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

type StorageConfig struct {
	S3     S3Config     `yaml:"s3"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	TablePrefix     string `yaml:"table_prefix"`
	TableName       string `yaml:"table_name"`
	Compression     string `yaml:"compression"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type SQLiteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Table   string `yaml:"table"`
}

type LoggingConfig struct {
	Level         string                 `yaml:"level"`
	Format        string                 `yaml:"format"`
	Output        string                 `yaml:"output"`
	MaxAge        int                    `yaml:"max_age"`
	Fields        map[string]interface{} `yaml:"fields"`
	DashboardName string                 `yaml:"dashboard_name"`
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Source: SourceConfig{
			EIA: EIASourceConfig{
				URL:       defaultSourceURL,
				APIKeyEnv: defaultAPIKeyEnv,
				Frequency: defaultFrequency,
				DataType:  defaultDataType,
				PageSize:  defaultPageSize,
				Timeout:   defaultTimeout,
			},
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override date window from environment variables if available
	if v := os.Getenv("EIA_START_DATE"); v != "" {
		config.Source.EIA.StartDate = strings.TrimSpace(v)
	}
	if v := os.Getenv("EIA_END_DATE"); v != "" {
		config.Source.EIA.EndDate = strings.TrimSpace(v)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Gridflow.Name == "" {
		return fmt.Errorf("gridflow.name is required")
	}

	if cfg.Gridflow.Version == "" {
		return fmt.Errorf("gridflow.version is required")
	}

	if cfg.Source.EIA.URL == "" {
		return fmt.Errorf("source.eia.url is required")
	}

	if cfg.Source.EIA.PageSize <= 0 {
		return fmt.Errorf("source.eia.page_size must be greater than 0")
	}

	if cfg.Source.EIA.StartDate == "" {
		return fmt.Errorf("source.eia.start_date is required")
	}
	if _, err := time.Parse("2006-01-02", cfg.Source.EIA.StartDate); err != nil {
		return fmt.Errorf("source.eia.start_date must be YYYY-MM-DD: %w", err)
	}
	if cfg.Source.EIA.EndDate != "" {
		if _, err := time.Parse("2006-01-02", cfg.Source.EIA.EndDate); err != nil {
			return fmt.Errorf("source.eia.end_date must be YYYY-MM-DD: %w", err)
		}
	}

	if !cfg.Storage.S3.Enabled && !cfg.Storage.SQLite.Enabled {
		return fmt.Errorf("at least one storage backend must be enabled")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if cfg.Storage.S3.TableName == "" {
			return fmt.Errorf("storage.s3.table_name is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
		if !isValidTableName(cfg.Storage.S3.TableName) {
			return fmt.Errorf("storage.s3.table_name '%s' is invalid", cfg.Storage.S3.TableName)
		}
	}

	if cfg.Storage.SQLite.Enabled {
		if cfg.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required when sqlite is enabled")
		}
		if cfg.Storage.SQLite.Table == "" {
			return fmt.Errorf("storage.sqlite.table is required when sqlite is enabled")
		}
		if !isValidTableName(cfg.Storage.SQLite.Table) {
			return fmt.Errorf("storage.sqlite.table '%s' is invalid", cfg.Storage.SQLite.Table)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}

var tableNameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func isValidTableName(name string) bool {
	return tableNameRegexp.MatchString(name)
}
