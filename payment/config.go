package payment

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // expiry_tz must resolve on hosts without a zoneinfo database

	"github.com/alovak/cardflow-paysim/internal/expiry"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config is a configuration for the payment application
type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`
	// RepoBackend is one of pg, sqlite or mem. mem additionally needs AllowMemBackend.
	RepoBackend     string `mapstructure:"repo_backend"`
	DBDSN           string `mapstructure:"db_dsn"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	AllowMemBackend bool   `mapstructure:"allow_mem_backend"`
	BcryptCost      int    `mapstructure:"bcrypt_cost"`
	// ExpiryTZ is an IANA timezone name used to decide the current month (e.g., "Europe/Madrid").
	ExpiryTZ string `mapstructure:"expiry_tz"`
	// YearSpan is how many years after the current one are accepted and offered as expiry years.
	YearSpan int    `mapstructure:"year_span"`
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:    "localhost:8080",
		RepoBackend: "sqlite",
		SQLitePath:  "paysim.db",
		BcryptCost:  bcrypt.DefaultCost,
		ExpiryTZ:    "UTC",
		YearSpan:    expiry.DefaultSpan,
		LogLevel:    "info",
	}
}

// LoadConfig layers, from lowest to highest precedence: defaults, the config
// file (path, or paysim.yaml in the working directory when path is empty) and
// PAYSIM_* environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("http_addr", def.HTTPAddr)
	v.SetDefault("repo_backend", def.RepoBackend)
	v.SetDefault("db_dsn", def.DBDSN)
	v.SetDefault("sqlite_path", def.SQLitePath)
	v.SetDefault("allow_mem_backend", def.AllowMemBackend)
	v.SetDefault("bcrypt_cost", def.BcryptCost)
	v.SetDefault("expiry_tz", def.ExpiryTZ)
	v.SetDefault("year_span", def.YearSpan)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_json", def.LogJSON)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("paysim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("PAYSIM")
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.RepoBackend {
	case "pg":
		if c.DBDSN == "" {
			return fmt.Errorf("db_dsn is required for pg backend")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for sqlite backend")
		}
	case "mem":
	default:
		return fmt.Errorf("unsupported repo_backend=%s", c.RepoBackend)
	}
	if c.YearSpan < 0 {
		return fmt.Errorf("year_span must not be negative")
	}
	if _, err := time.LoadLocation(c.ExpiryTZ); err != nil {
		return fmt.Errorf("expiry_tz %q: %w", c.ExpiryTZ, err)
	}
	return nil
}
