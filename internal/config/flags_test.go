package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		mutate      func(*Config)
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"-a", ":8080", "-d", "/var/lib/zyn", "-m", "memory", "-r", "s3", "-g", "http://ghe/api/v3/", "-t", "15", "-w", "7", "-l", "debug"},
			mutate: func(c *Config) {
				c.HTTPAddr = ":8080"
				c.DataDir = "/var/lib/zyn"
				c.MirrorDriver = MirrorMemory
				c.RemoteDriver = RemoteS3
				c.GitHubEndpoint = "http://ghe/api/v3/"
				c.RemoteTimeout = 15 * time.Second
				c.DefaultWindow = 7
				c.LogLevel = "debug"
			},
		},
		{
			name:   "unrelated flags ignored",
			args:   []string{"-c", "cfg.json", "--verbose", "-w", "90"},
			mutate: func(c *Config) { c.DefaultWindow = 90 },
		},
		{
			name:        "bad timeout",
			args:        []string{"-t", "soon"},
			expectPanic: true,
		},
		{
			name:        "bad window",
			args:        []string{"-w", "x"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.LoadDefaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg, tt.args) })
				return
			}

			want := &Config{}
			want.LoadDefaults()
			tt.mutate(want)

			require.NotPanics(t, func() { parseFlags(cfg, tt.args) })
			assert.Empty(t, cmp.Diff(want, cfg))
		})
	}
}

func TestParseFlags_TimeoutUntouchedWhenAbsent(t *testing.T) {
	cfg := &Config{RemoteTimeout: 1500 * time.Millisecond}
	parseFlags(cfg, []string{"-w", "5"})
	assert.Equal(t, 1500*time.Millisecond, cfg.RemoteTimeout)
}
