// Package config carga la configuración desde env y, opcionalmente, un YAML.
// Las keys usan "." y se mapean a env con "_" (p.ej. DATABASE_DSN).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	AuthModeDev    = "dev"
	AuthModeJWT    = "jwt"
	AuthModeRemote = "remote"
)

type Config struct {
	Server struct {
		Address  string `mapstructure:"address"`
		HTTPPort string `mapstructure:"http_port"`
	} `mapstructure:"server"`

	Logging struct {
		Level  string `mapstructure:"level"`  // debug|info|warn|error
		Format string `mapstructure:"format"` // text|json
	} `mapstructure:"logs"`

	Database struct {
		DSN         string `mapstructure:"dsn"` // vacío => in-memory
		AutoMigrate bool   `mapstructure:"auto_migrate"`
	} `mapstructure:"database"`

	Auth struct {
		Mode          string `mapstructure:"mode"` // dev|jwt|remote
		JWTSecret     string `mapstructure:"jwt_secret"`
		JWTIssuer     string `mapstructure:"jwt_issuer"`
		RemoteBaseURL string `mapstructure:"remote_base_url"`
		RemoteAPIKey  string `mapstructure:"remote_api_key"`
	} `mapstructure:"auth"`

	Tokens struct {
		CodePepper string        `mapstructure:"code_pepper"`
		DefaultTTL time.Duration `mapstructure:"default_ttl"`
		MaxTTL     time.Duration `mapstructure:"max_ttl"`
	} `mapstructure:"tokens"`

	Redis struct {
		Addr     string `mapstructure:"addr"` // vacío => limiter en memoria
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Redeem struct {
		MaxAttempts int           `mapstructure:"max_attempts"`
		Window      time.Duration `mapstructure:"window"`
	} `mapstructure:"redeem"`

	AMQP struct {
		URI      string `mapstructure:"uri"` // vacío => sin publicación
		Exchange string `mapstructure:"exchange"`
	} `mapstructure:"amqp"`

	Invitations struct {
		AutoGrant         bool   `mapstructure:"auto_grant"`
		DefaultPermission string `mapstructure:"default_permission"`
	} `mapstructure:"invitations"`
}

// Addr arma host:port para http.Server.
func (c *Config) Addr() string {
	return c.Server.Address + ":" + c.Server.HTTPPort
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.http_port", "8080")

	v.SetDefault("logs.level", "info")
	v.SetDefault("logs.format", "text")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("auth.mode", AuthModeDev)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "")
	v.SetDefault("auth.remote_base_url", "")
	v.SetDefault("auth.remote_api_key", "")

	v.SetDefault("tokens.code_pepper", "")
	v.SetDefault("tokens.default_ttl", 7*24*time.Hour)
	v.SetDefault("tokens.max_ttl", 30*24*time.Hour)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("redeem.max_attempts", 10)
	v.SetDefault("redeem.window", 15*time.Minute)

	v.SetDefault("amqp.uri", "")
	v.SetDefault("amqp.exchange", "patient-access.audit")

	v.SetDefault("invitations.auto_grant", false)
	v.SetDefault("invitations.default_permission", "read")
}

func validate(c *Config) error {
	if strings.TrimSpace(c.Server.HTTPPort) == "" {
		return errors.New("server.http_port must not be empty")
	}

	c.Auth.Mode = strings.ToLower(strings.TrimSpace(c.Auth.Mode))
	switch c.Auth.Mode {
	case AuthModeDev:
	case AuthModeJWT:
		if strings.TrimSpace(c.Auth.JWTSecret) == "" {
			return errors.New("auth.jwt_secret must be set when auth.mode=jwt")
		}
	case AuthModeRemote:
		if strings.TrimSpace(c.Auth.RemoteBaseURL) == "" {
			return errors.New("auth.remote_base_url must be set when auth.mode=remote")
		}
	default:
		return fmt.Errorf("auth.mode %q must be one of dev|jwt|remote", c.Auth.Mode)
	}

	if c.Tokens.DefaultTTL <= 0 {
		return errors.New("tokens.default_ttl must be positive")
	}
	if c.Tokens.MaxTTL > 0 && c.Tokens.DefaultTTL > c.Tokens.MaxTTL {
		return errors.New("tokens.default_ttl must not exceed tokens.max_ttl")
	}
	if c.Redeem.MaxAttempts <= 0 || c.Redeem.Window <= 0 {
		return errors.New("redeem.max_attempts and redeem.window must be positive")
	}
	return nil
}
