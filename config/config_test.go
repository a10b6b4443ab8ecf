package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
	assert.Equal(t, ":8080", cfg.Server.Addr())
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "certgen.yaml")
	content := `
server:
  port: 9000
store:
  driver: memory
convert:
  command: libreoffice
  timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("CERTGEN_SERVER_PORT", "9100")
	t.Setenv("CERTGEN_OUTPUT_DIR", "/tmp/certs")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env wins over file")
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "libreoffice", cfg.Convert.Command)
	assert.Equal(t, 30*time.Second, cfg.Convert.Timeout)
	assert.Equal(t, "/tmp/certs", cfg.Output.Dir)
	assert.Equal(t, "certificates.zip", cfg.Output.ArchiveName, "default fills the gap")
	assert.Equal(t, 1, cfg.Convert.Concurrency)
}

func TestLoadZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "certgen.yaml")
	content := `
store:
  redis_db: 0
  ttl: 0s
convert:
  timeout: 0s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Store.RedisDB)
	assert.Equal(t, time.Duration(0), cfg.Store.TTL)
	assert.Equal(t, time.Duration(0), cfg.Convert.Timeout)
	assert.Equal(t, "127.0.0.1:6379", cfg.Store.RedisAddr, "keys absent from the file keep their default")
}

func TestLoadZeroValuesFromEnv(t *testing.T) {
	t.Setenv("CERTGEN_STORE_REDIS_DB", "0")
	t.Setenv("CERTGEN_STORE_TTL", "0s")
	t.Setenv("CERTGEN_CONVERT_TIMEOUT", "0s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Store.RedisDB)
	assert.Equal(t, time.Duration(0), cfg.Store.TTL)
	assert.Equal(t, time.Duration(0), cfg.Convert.Timeout)
}

func TestOverride(t *testing.T) {
	cfg := Defaults()
	err := cfg.Override(Config{
		Output:  OutputConfig{Dir: "/srv/certs"},
		Convert: ConvertConfig{Concurrency: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, "/srv/certs", cfg.Output.Dir)
	assert.Equal(t, 4, cfg.Convert.Concurrency)
	assert.Equal(t, "soffice", cfg.Convert.Command, "zero fields leave the value alone")

	err = cfg.Override(Config{Logging: LoggingConfig{Level: "trace"}})
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad driver", func(c *Config) { c.Store.Driver = "mysql" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, true},
		{"redis without addr", func(c *Config) { c.Store.RedisAddr = "" }, true},
		{"memory without addr", func(c *Config) {
			c.Store.Driver = "memory"
			c.Store.RedisAddr = ""
		}, false},
		{"zero concurrency", func(c *Config) { c.Convert.Concurrency = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
