package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/dmitrijs2005/usermanager/internal/filex"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/pflag"
)

// AppName names the state directory and the environment prefix.
const AppName = "usermgr"

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "USERMGR_"

const (
	KeyServerURL      = "server-url"
	KeySessionDB      = "session-db"
	KeyRequestTimeout = "request-timeout"
	KeyLogLevel       = "log-level"
	KeyLogFormat      = "log-format"

	// FlagConfig selects the config file; it is not itself a config key.
	FlagConfig = "config"
)

// Config holds runtime settings of the CLI.
type Config struct {
	ServerURL      string        `koanf:"server-url" validate:"required,url"`
	SessionDB      string        `koanf:"session-db" validate:"required"`
	RequestTimeout time.Duration `koanf:"request-timeout" validate:"gt=0"`
	LogLevel       string        `koanf:"log-level" validate:"oneof=debug info warn error"`
	LogFormat      string        `koanf:"log-format" validate:"oneof=text json console"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ServerURL:      "http://127.0.0.1:8000/api",
		SessionDB:      filepath.Join(filex.StateDir(AppName), "session.db"),
		RequestTimeout: 10 * time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Sources tells Load where to look. The zero value reads ./.env (if any) and
// the process environment, with no file and no flags.
type Sources struct {
	// ConfigFile overrides the -c/--config flag.
	ConfigFile string
	// EnvFile defaults to ".env"; a missing file is ignored.
	EnvFile string
	// Flags is the parsed flag set holding the flags from RegisterFlags.
	Flags *pflag.FlagSet
	// Lookuper replaces the process environment, mainly for tests.
	Lookuper envconfig.Lookuper
}

// envOverlay receives USERMGR_* variables. Pointers stay nil when a variable
// is unset, so only set ones override.
type envOverlay struct {
	ServerURL      *string        `env:"SERVER_URL, noinit"`
	SessionDB      *string        `env:"SESSION_DB, noinit"`
	RequestTimeout *time.Duration `env:"REQUEST_TIMEOUT, noinit"`
	LogLevel       *string        `env:"LOG_LEVEL, noinit"`
	LogFormat      *string        `env:"LOG_FORMAT, noinit"`
}

// RegisterFlags defines the config flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.StringP(FlagConfig, "c", "", "path to a JSON or YAML config file")
	fs.String(KeyServerURL, d.ServerURL, "backend API base URL")
	fs.String(KeySessionDB, d.SessionDB, "path of the local session database")
	fs.Duration(KeyRequestTimeout, d.RequestTimeout, "timeout of a single backend request")
	fs.String(KeyLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(KeyLogFormat, d.LogFormat, "log format: text, json, console")
}

// Load builds the configuration from src and validates it.
func Load(ctx context.Context, src Sources) (*Config, error) {
	k := koanf.New(".")

	d := Defaults()
	for key, val := range map[string]any{
		KeyServerURL:      d.ServerURL,
		KeySessionDB:      d.SessionDB,
		KeyRequestTimeout: d.RequestTimeout,
		KeyLogLevel:       d.LogLevel,
		KeyLogFormat:      d.LogFormat,
	} {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	path := src.ConfigFile
	if path == "" && src.Flags != nil {
		path, _ = src.Flags.GetString(FlagConfig)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := loadEnv(ctx, k, src); err != nil {
		return nil, err
	}

	if src.Flags != nil {
		if err := k.Load(posflag.Provider(src.Flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnv(ctx context.Context, k *koanf.Koanf, src Sources) error {
	lookuper := src.Lookuper
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	envFile := src.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	switch {
	case err == nil:
		// real environment wins over .env
		lookuper = envconfig.MultiLookuper(lookuper, envconfig.MapLookuper(dotenv))
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("read %s: %w", envFile, err)
	}

	var env envOverlay
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	}); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}

	overrides := map[string]any{}
	if env.ServerURL != nil {
		overrides[KeyServerURL] = *env.ServerURL
	}
	if env.SessionDB != nil {
		overrides[KeySessionDB] = *env.SessionDB
	}
	if env.RequestTimeout != nil {
		overrides[KeyRequestTimeout] = *env.RequestTimeout
	}
	if env.LogLevel != nil {
		overrides[KeyLogLevel] = *env.LogLevel
	}
	if env.LogFormat != nil {
		overrides[KeyLogFormat] = *env.LogFormat
	}
	for key, val := range overrides {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set %s from environment: %w", key, err)
		}
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report koanf keys, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks cfg and joins every violation into one error.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", field, fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
