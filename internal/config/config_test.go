package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:3000", c.HTTPAddr)
	assert.Equal(t, ".zyn", c.DataDir)
	assert.Equal(t, MirrorSQLite, c.MirrorDriver)
	assert.Equal(t, RemoteGitHub, c.RemoteDriver)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.Equal(t, "zyn-tracker", c.S3Bucket)
	assert.True(t, c.S3PathStyle)
	assert.Zero(t, c.RemoteTimeout)
	assert.Equal(t, 30, c.DefaultWindow)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "json", c.LogFormat)
	assert.True(t, c.WatchMirror)
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "memory mirror", mutate: func(c *Config) { c.MirrorDriver = MirrorMemory }},
		{name: "s3 remote", mutate: func(c *Config) { c.RemoteDriver = RemoteS3 }},
		{name: "unknown mirror", mutate: func(c *Config) { c.MirrorDriver = "bolt" }, wantErr: `unknown mirror driver "bolt"`},
		{name: "unknown remote", mutate: func(c *Config) { c.RemoteDriver = "gitlab" }, wantErr: `unknown remote driver "gitlab"`},
		{name: "negative timeout", mutate: func(c *Config) { c.RemoteTimeout = -time.Second }, wantErr: "remote timeout must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestLoad_NoArgs(t *testing.T) {
	cfg := Load(nil)

	require.NotNil(t, cfg)
	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *cfg)
}
