package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noEnv isolates tests from the process environment and any .env file.
func noEnv(t *testing.T) Sources {
	t.Helper()
	return Sources{
		EnvFile:  filepath.Join(t.TempDir(), "missing.env"),
		Lookuper: envconfig.MapLookuper(map[string]string{}),
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")

	cfg, err := Load(context.Background(), noEnv(t))
	require.NoError(t, err)

	want := Config{
		ServerURL:      "http://127.0.0.1:8000/api",
		SessionDB:      "/tmp/state/usermgr/session.db",
		RequestTimeout: 10 * time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
	}
	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	src := noEnv(t)
	src.ConfigFile = writeFile(t, "cfg.yaml", "server-url: https://users.example.com/api/\nrequest-timeout: 3s\nlog-format: console\n")

	cfg, err := Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "https://users.example.com/api", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_JSONFileViaFlag(t *testing.T) {
	path := writeFile(t, "cfg.json", `{"server-url": "http://10.0.0.1:9000/api", "log-level": "debug"}`)
	src := noEnv(t)
	src.Flags = newFlags(t, "-c", path)

	cfg, err := Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:9000/api", cfg.ServerURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "server-url: http://file/api\nlog-level: warn\nlog-format: json\nrequest-timeout: 2s\n")
	envFile := writeFile(t, ".env", "USERMGR_LOG_FORMAT=console\nUSERMGR_LOG_LEVEL=debug\n")

	src := Sources{
		EnvFile: envFile,
		Lookuper: envconfig.MapLookuper(map[string]string{
			"USERMGR_SERVER_URL": "http://env/api",
			"USERMGR_LOG_LEVEL":  "error",
		}),
		Flags: newFlags(t, "--config", path, "--server-url", "http://flag/api"),
	}

	cfg, err := Load(context.Background(), src)
	require.NoError(t, err)

	want := Config{
		ServerURL:      "http://flag/api", // flag beats env and file
		SessionDB:      Defaults().SessionDB,
		RequestTimeout: 2 * time.Second, // file beats default, unchanged flag does not override
		LogLevel:       "error",         // process env beats .env
		LogFormat:      "console",       // .env beats file
	}
	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvDuration(t *testing.T) {
	src := noEnv(t)
	src.Lookuper = envconfig.MapLookuper(map[string]string{"USERMGR_REQUEST_TIMEOUT": "750ms"})

	cfg, err := Load(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		src := noEnv(t)
		src.ConfigFile = "/no/such/file.yaml"
		_, err := Load(context.Background(), src)
		require.ErrorContains(t, err, "load config file")
	})

	t.Run("bad env duration", func(t *testing.T) {
		src := noEnv(t)
		src.Lookuper = envconfig.MapLookuper(map[string]string{"USERMGR_REQUEST_TIMEOUT": "soon"})
		_, err := Load(context.Background(), src)
		require.ErrorContains(t, err, "load environment")
	})

	t.Run("validation", func(t *testing.T) {
		src := noEnv(t)
		src.Flags = newFlags(t, "--server-url", "not a url", "--log-format", "xml", "--request-timeout", "0s")
		_, err := Load(context.Background(), src)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server-url must be a URL")
		assert.Contains(t, err.Error(), "log-format must be one of: text json console")
		assert.Contains(t, err.Error(), "request-timeout must be greater than 0")
	})
}

func TestValidate_Defaults(t *testing.T) {
	d := Defaults()
	assert.NoError(t, Validate(&d))

	d.SessionDB = ""
	assert.ErrorContains(t, Validate(&d), "session-db is required")
}
