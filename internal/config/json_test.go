package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zyn.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseJson(t *testing.T) {
	t.Run("overlays present keys only", func(t *testing.T) {
		path := writeTempJSON(t, `{
			"remote_driver": "s3",
			"s3_endpoint": "http://127.0.0.1:9000",
			"s3_access_key_id": "minio",
			"remote_timeout": "10s",
			"watch_mirror": false
		}`)

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-c", path})

		assert.Equal(t, RemoteS3, cfg.RemoteDriver)
		assert.Equal(t, "http://127.0.0.1:9000", cfg.S3Endpoint)
		assert.Equal(t, "minio", cfg.S3AccessKeyID)
		assert.Equal(t, 10*time.Second, cfg.RemoteTimeout)
		assert.False(t, cfg.WatchMirror)
		assert.Equal(t, "127.0.0.1:3000", cfg.HTTPAddr)
		assert.Equal(t, "zyn-tracker", cfg.S3Bucket)
	})

	t.Run("no config flag leaves cfg alone", func(t *testing.T) {
		cfg := &Config{HTTPAddr: "keep:1"}
		parseJson(cfg, []string{"-a", "x"})
		assert.Equal(t, "keep:1", cfg.HTTPAddr)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		path := writeTempJSON(t, `{ not json`)
		require.Panics(t, func() { parseJson(&Config{}, []string{"-config", path}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		require.Panics(t, func() {
			parseJson(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "absent.json")})
		})
	})
}

func TestLoad_FlagsOverrideJSON(t *testing.T) {
	path := writeTempJSON(t, `{"http_addr": ":4000", "default_window": 14}`)

	cfg := Load([]string{"-c", path, "-a", ":5000"})

	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.Equal(t, 14, cfg.DefaultWindow)
}
