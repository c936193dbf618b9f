package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ModeOpen  = "open"
	ModeAdmin = "admin"

	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port      string `mapstructure:"port"`
		PublicURL string `mapstructure:"public_url"`
	} `mapstructure:"server"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Issuance struct {
		Mode string `mapstructure:"mode"`
	} `mapstructure:"issuance"`
	Admin struct {
		Password     string `mapstructure:"password"`
		PasswordHash string `mapstructure:"password_hash"`
	} `mapstructure:"admin"`
	Session struct {
		Secret       string        `mapstructure:"secret"`
		TTL          time.Duration `mapstructure:"ttl"`
		CookieName   string        `mapstructure:"cookie_name"`
		SecureCookie bool          `mapstructure:"secure_cookie"`
	} `mapstructure:"session"`
	Tokens struct {
		DefaultHours  float64       `mapstructure:"default_hours"`
		EvictExpired  bool          `mapstructure:"evict_expired"`
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
	} `mapstructure:"tokens"`
	Static struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"static"`
	Storage struct {
		Driver   string `mapstructure:"driver"`
		FilePath string `mapstructure:"file_path"`
	} `mapstructure:"storage"`
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		Key      string `mapstructure:"key"`
	} `mapstructure:"redis"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.public_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("issuance.mode", ModeOpen)
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.cookie_name", "gate_session")
	v.SetDefault("session.secure_cookie", false)
	v.SetDefault("tokens.default_hours", 24.0)
	v.SetDefault("tokens.evict_expired", true)
	v.SetDefault("tokens.sweep_interval", time.Duration(0))
	v.SetDefault("static.dir", "./public")
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.file_path", "./links.json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "access_gate")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "access_gate:links")
}

// Load reads config.yml from path when present and applies environment
// overrides such as SERVER_PORT (or PORT) and ADMIN_PASSWORD. A missing file is fine.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	// PORT is what most hosting platforms inject.
	if err := v.BindEnv("server.port", "SERVER_PORT", "PORT"); err != nil {
		return Config{}, fmt.Errorf("bind server.port env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	switch c.Issuance.Mode {
	case ModeOpen:
	case ModeAdmin:
		if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
			return errors.New("admin mode requires admin.password or admin.password_hash")
		}
		if c.Session.Secret == "" {
			return errors.New("admin mode requires session.secret")
		}
	default:
		return fmt.Errorf("unknown issuance mode %q", c.Issuance.Mode)
	}

	switch c.Storage.Driver {
	case DriverFile, DriverRedis, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

func LoadConfig(path string) {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Error loading configuration, %s", err)
	}
	AppConfig = cfg
}
