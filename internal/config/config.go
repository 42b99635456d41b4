package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"pkg.mon.icu/social/internal/config/hook"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Storage struct {
		Driver      string
		PostgresDSN string
		Host        string
		Port        uint16
		User        string
		Password    string
		Name        string
	}

	Auth struct {
		Secret        string
		Algorithm     jwt.SigningMethod
		TokenLifetime time.Duration
	}

	Logging struct {
		Level zapcore.Level
	}

	Api struct {
		Port        uint16
		CorsOrigins []string
		// RateLimit is the number of requests per second allowed for one client; zero disables limiting.
		RateLimit float64
		RateBurst int
	}

	Media struct {
		Root         string
		UrlPrefix    string
		MaxImageSize int64
		MaxVideoSize int64
	}
}

func Read() (*Config, error) {
	v := viper.New()
	configureDefaults(v)
	configureEnv(v)
	configureLocation(v)
	return readUnmarshalConfig(v)
}

// configureDefaults also registers every key, which AutomaticEnv needs for Unmarshal to see env-only values.
func configureDefaults(v *viper.Viper) {
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("storage.postgresdsn", "")
	v.SetDefault("storage.host", "")
	v.SetDefault("storage.port", 5432)
	v.SetDefault("storage.user", "")
	v.SetDefault("storage.password", "")
	v.SetDefault("storage.name", "")

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.algorithm", "HS256")
	v.SetDefault("auth.tokenlifetime", "30m")

	v.SetDefault("logging.level", "info")

	v.SetDefault("api.port", 8000)
	v.SetDefault("api.corsorigins", []string{"*"})
	v.SetDefault("api.ratelimit", 20)
	v.SetDefault("api.rateburst", 40)

	v.SetDefault("media.root", "static")
	v.SetDefault("media.urlprefix", "/static")
	v.SetDefault("media.maximagesize", 5<<20)
	v.SetDefault("media.maxvideosize", 50<<20)
}

func configureEnv(v *viper.Viper) {
	v.AutomaticEnv()
	v.SetEnvPrefix("conf")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

func configureLocation(v *viper.Viper) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
}

func readUnmarshalConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}
	c := &Config{}
	if err := v.Unmarshal(c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		hook.Level(), hook.SigningMethod(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Auth.Secret == "" {
		return errors.New("auth.secret is required")
	}
	if c.Auth.TokenLifetime <= 0 {
		return fmt.Errorf("auth.tokenlifetime must be positive, got %s", c.Auth.TokenLifetime)
	}
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.PostgresDSN() == "" {
			return errors.New("storage.postgresdsn or storage.host is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Media.MaxImageSize <= 0 || c.Media.MaxVideoSize <= 0 {
		return errors.New("media size limits must be positive")
	}
	if c.Api.RateLimit < 0 {
		return errors.New("api.ratelimit must not be negative")
	}
	return nil
}

// PostgresDSN returns storage.postgresdsn, or a URL assembled from the separate connection settings.
func (c *Config) PostgresDSN() string {
	s := c.Storage
	if s.PostgresDSN != "" {
		return s.PostgresDSN
	}
	if s.Host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(s.Host, strconv.Itoa(int(s.Port))),
		Path:   "/" + s.Name,
	}
	if s.User != "" {
		u.User = url.UserPassword(s.User, s.Password)
	}
	return u.String()
}
