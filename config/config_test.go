package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgfetch/s3presign/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(86400), cfg.Sign.Expires)
	assert.Equal(t, 8642, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.CORS.Enabled)
	assert.Empty(t, cfg.Sources)
}

func TestLoadSources(t *testing.T) {
	path := writeConfig(t, `
s3_source:
  examplebucket:
    provider: env
    region: eu-west-1
  releases:
    id: AKIACFG
    secret: cfgsecret
    security_token: cfgtoken
  internal:
    provider: instance_profile
log:
  level: debug
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Sources, 3)

	src, ok := cfg.Source("examplebucket")
	require.True(t, ok)
	assert.Equal(t, "env", src.Provider)
	assert.Equal(t, "eu-west-1", src.Region)

	src, ok = cfg.Source("releases")
	require.True(t, ok)
	assert.Equal(t, "AKIACFG", src.ID)
	assert.Equal(t, "cfgsecret", src.Secret)
	assert.Equal(t, "cfgtoken", src.SecurityToken)

	_, ok = cfg.Source("missing")
	assert.False(t, ok)
}

func TestSourceLookupNormalizesCase(t *testing.T) {
	path := writeConfig(t, `
s3_source:
  examplebucket:
    id: AKIACFG
    secret: cfgsecret
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	_, ok := cfg.Source("ExampleBucket")
	assert.True(t, ok)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	t.Setenv("S3PRESIGN_LOG_LEVEL", "warn")

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFlagOverride(t *testing.T) {
	path := writeConfig(t, "sign:\n  expires: 600\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int64("expires", 0, "")
	flags.Int("port", 0, "")
	require.NoError(t, flags.Parse([]string{"--expires=120"}))

	cfg, err := config.Load([]string{path}, flags)
	require.NoError(t, err)
	assert.Equal(t, int64(120), cfg.Sign.Expires)
	// Unchanged flags do not override the file or defaults.
	assert.Equal(t, 8642, cfg.Server.Port)
}

func TestLoadMergesFiles(t *testing.T) {
	base := writeConfig(t, "log:\n  level: info\nserver:\n  port: 9000\n")
	override := writeConfig(t, "log:\n  level: error\n")

	cfg, err := config.Load([]string{base, override}, nil)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{name: "bad port", contents: "server:\n  port: 70000\n"},
		{name: "bad log level", contents: "log:\n  level: loud\n"},
		{name: "bad log format", contents: "log:\n  format: xml\n"},
		{name: "negative expires", contents: "sign:\n  expires: -1\n"},
		{name: "bad metadata endpoint", contents: "sign:\n  metadata_endpoint: not-a-url\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.contents)
			_, err := config.Load([]string{path}, nil)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}
