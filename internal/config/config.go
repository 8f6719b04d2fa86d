package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration loaded from environment variables.
// Pushover credentials are optional at startup; their absence is reported as
// a degraded health state instead of a load error.
type Config struct {
	// Pushover
	PushoverAPIToken string `env:"PUSHOVER_API_TOKEN" env-description:"Pushover application token"`
	PushoverUserKey  string `env:"PUSHOVER_USER_KEY" env-description:"Pushover user or group key"`
	PushoverAPIURL   string `env:"PUSHOVER_API_URL" env-default:"https://api.pushover.net/1/messages.json" validate:"required,http_url"`

	// Inbound auth and payload defaults
	AuthToken       string `env:"AUTH_TOKEN" env-description:"Shared bearer secret for inbound webhooks"`
	JellyfinBaseURL string `env:"JELLYFIN_BASE_URL" env-description:"Fallback Jellyfin base URL for item images"`
	DefaultTitle    string `env:"DEFAULT_TITLE" env-default:"jf-pushover-webhook"`
	MaxBodyBytes    int64  `env:"MAX_BODY_BYTES" env-default:"1048576" validate:"gt=0"`

	// Outbound calls (image fetch and Pushover send)
	RequestTimeout Duration `env:"REQUEST_TIMEOUT" env-default:"10" env-description:"Outbound timeout, seconds or Go duration" validate:"gt=0"`

	// Server
	Host            string        `env:"HOST,FLASK_RUN_HOST" env-default:"0.0.0.0"`
	Port            int           `env:"PORT,FLASK_RUN_PORT" env-default:"8484" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" env-default:"5s" validate:"gt=0"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" env-default:"30s" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s" validate:"gt=0"`

	// Ambient
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:","`
	OTLPEndpoint       string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel           string   `env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	LogFormat          string   `env:"LOG_FORMAT" env-default:"json" validate:"oneof=json console"`
}

var validate = validator.New()

// Load reads the process environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads variables from path into the process environment without
// overriding variables that are already set. An empty path loads ./.env when
// it exists and is a no-op otherwise.
func LoadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Describe renders the list of supported environment variables.
func Describe() (string, error) {
	header := "Environment variables:"
	return cleanenv.GetDescription(&Config{}, &header)
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config %s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// MissingCredentials lists the Pushover variables that are not set.
func (c *Config) MissingCredentials() []string {
	missing := make([]string, 0, 2)
	if c.PushoverAPIToken == "" {
		missing = append(missing, "PUSHOVER_API_TOKEN")
	}
	if c.PushoverUserKey == "" {
		missing = append(missing, "PUSHOVER_USER_KEY")
	}
	return missing
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Duration accepts either whole seconds ("10") or a Go duration string
// ("1m30s"). Bare integers keep compatibility with older deployments that
// set REQUEST_TIMEOUT in seconds.
type Duration time.Duration

// SetValue implements cleanenv.Setter.
func (d *Duration) SetValue(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("empty duration")
	}
	if n, err := strconv.Atoi(s); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }
