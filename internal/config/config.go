package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported catalog backends.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Supported image resolvers.
const (
	StorageURL = "url"
	StorageS3  = "s3"
)

// DefaultImageBaseURL serves the images referenced by free-exercise-db records.
const DefaultImageBaseURL = "https://raw.githubusercontent.com/yuhonas/free-exercise-db/main/exercises/"

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Client   ClientConfig   `mapstructure:"client"`
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	BasePath     string `mapstructure:"base_path"`
	ClientOrigin string `mapstructure:"client_origin"`
	// Mode is the gin mode: debug, release or test.
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	URI         string `mapstructure:"uri"`
	Name        string `mapstructure:"name"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	// SeedFile is imported at startup when the catalog is empty.
	SeedFile string `mapstructure:"seed_file"`
}

type CatalogConfig struct {
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

type StorageConfig struct {
	Driver       string   `mapstructure:"driver"`
	ImageBaseURL string   `mapstructure:"image_base_url"`
	S3           S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
	URLExpiry       time.Duration `mapstructure:"url_expiry"`
}

// ClientConfig configures the planner CLI's connection to the API.
type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadConfig reads config.yaml from path, then applies environment overrides.
// Nested keys map to env vars with dots replaced by underscores, e.g.
// database.uri -> DATABASE_URI.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.base_path", "")
	v.SetDefault("server.client_origin", "http://localhost:3000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "fitness")
	v.SetDefault("database.postgres_dsn", "postgres://localhost:5432/fitness?sslmode=disable")
	v.SetDefault("database.seed_file", "")
	v.SetDefault("catalog.default_limit", 50)
	v.SetDefault("catalog.max_limit", 50)
	v.SetDefault("catalog.query_timeout", "10s")
	v.SetDefault("storage.driver", StorageURL)
	v.SetDefault("storage.image_base_url", DefaultImageBaseURL)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.url_expiry", "15m")
	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.timeout", "10s")

	err = v.ReadInConfig()
	// A missing file is fine: defaults and env vars still apply.
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	if err = config.Validate(); err != nil {
		return
	}
	return config, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("config: unknown database.driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case StorageURL:
	case StorageS3:
		if c.Storage.S3.BucketName == "" {
			return errors.New("config: storage.s3.bucket_name is required for the s3 driver")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Catalog.DefaultLimit <= 0 || c.Catalog.MaxLimit <= 0 || c.Catalog.DefaultLimit > c.Catalog.MaxLimit {
		return fmt.Errorf("config: catalog limits must satisfy 0 < default_limit (%d) <= max_limit (%d)",
			c.Catalog.DefaultLimit, c.Catalog.MaxLimit)
	}
	if c.Catalog.QueryTimeout <= 0 {
		return errors.New("config: catalog.query_timeout must be positive")
	}
	return nil
}
