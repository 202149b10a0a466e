package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultPort is used when PORT is unset or empty.
	DefaultPort = "3000"
	// DefaultMongoURI is used when MONGO_URI is unset or empty.
	DefaultMongoURI = "mongodb://localhost:27017/mydatabase"
)

// Config holds all configuration for the backend service
type Config struct {
	// Port is passed to the listener as-is.
	Port string `mapstructure:"port"`

	MongoDB struct {
		URI            string        `mapstructure:"uri"`
		Database       string        `mapstructure:"database"` // empty = taken from the URI path
		ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
		MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
	} `mapstructure:"mongodb"`

	API struct {
		MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
		ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
		ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
		RateLimit         struct {
			Enabled           bool `mapstructure:"enabled"`
			RequestsPerSecond int  `mapstructure:"requests_per_second"`
			Burst             int  `mapstructure:"burst"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"api"`

	Admin struct {
		Port string `mapstructure:"port"` // empty = admin listener disabled
	} `mapstructure:"admin"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("mongodb.uri", DefaultMongoURI)
	v.SetDefault("mongodb.database", "")
	v.SetDefault("mongodb.connect_timeout", 30*time.Second)
	v.SetDefault("mongodb.max_pool_size", 100)
	v.SetDefault("api.max_body_bytes", 100*1024) // 100kb, same as the express json() default
	v.SetDefault("api.read_header_timeout", 5*time.Second)
	v.SetDefault("api.shutdown_timeout", 10*time.Second)
	v.SetDefault("api.rate_limit.enabled", false)
	v.SetDefault("api.rate_limit.requests_per_second", 100)
	v.SetDefault("api.rate_limit.burst", 100)
	v.SetDefault("admin.port", "")
	v.SetDefault("log.level", "info")
}

// loadFromEnv binds the unprefixed environment variable names the service is deployed with.
func loadFromEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("mongodb.uri", "MONGO_URI")
	_ = v.BindEnv("mongodb.database", "MONGO_DATABASE")
	_ = v.BindEnv("mongodb.connect_timeout", "MONGO_CONNECT_TIMEOUT")
	_ = v.BindEnv("mongodb.max_pool_size", "MONGO_MAX_POOL_SIZE")
	_ = v.BindEnv("admin.port", "ADMIN_PORT")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

// LoadConfig loads configuration from an optional config.yaml and the environment.
// Empty environment variables are treated as unset, so PORT="" resolves to DefaultPort.
func LoadConfig() (*Config, error) {
	return load(viper.New(), "")
}

// LoadConfigFile is LoadConfig with an explicit config file path.
func LoadConfigFile(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	loadFromEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// validateConfig checks the tuning knobs. PORT and MONGO_URI are deliberately
// left alone: a bad port fails at bind time, a bad URI fails the connection attempt.
func validateConfig(config *Config) error {
	if config.MongoDB.ConnectTimeout <= 0 {
		return fmt.Errorf("mongodb.connect_timeout must be positive, got %v", config.MongoDB.ConnectTimeout)
	}
	if config.API.MaxBodyBytes <= 0 {
		return fmt.Errorf("api.max_body_bytes must be positive, got %d", config.API.MaxBodyBytes)
	}
	if config.API.ReadHeaderTimeout <= 0 {
		return fmt.Errorf("api.read_header_timeout must be positive, got %v", config.API.ReadHeaderTimeout)
	}
	if config.API.ShutdownTimeout <= 0 {
		return fmt.Errorf("api.shutdown_timeout must be positive, got %v", config.API.ShutdownTimeout)
	}
	if config.API.RateLimit.Enabled {
		if config.API.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("api.rate_limit.requests_per_second must be positive, got %d", config.API.RateLimit.RequestsPerSecond)
		}
		if config.API.RateLimit.Burst <= 0 {
			return fmt.Errorf("api.rate_limit.burst must be positive, got %d", config.API.RateLimit.Burst)
		}
	}
	if config.Admin.Port != "" && config.Admin.Port == config.Port {
		return fmt.Errorf("admin.port must differ from port (%s)", config.Port)
	}
	if _, err := zapcore.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", config.Log.Level, err)
	}
	return nil
}

// Addr returns the listen address for the API port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// AdminAddr returns the admin listen address, or "" when the admin listener is disabled.
func (c *Config) AdminAddr() string {
	if c.Admin.Port == "" {
		return ""
	}
	return ":" + c.Admin.Port
}

// RedactedMongoURI returns the Mongo URI with any password replaced.
// Unparseable URIs are returned unchanged since they carry no recognizable userinfo.
func (c *Config) RedactedMongoURI() string {
	parsed, err := url.Parse(c.MongoDB.URI)
	if err != nil || parsed.User == nil {
		return c.MongoDB.URI
	}
	if _, hasPassword := parsed.User.Password(); hasPassword {
		parsed.User = url.UserPassword(parsed.User.Username(), "xxxxx")
	}
	return parsed.String()
}
