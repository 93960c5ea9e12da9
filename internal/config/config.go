package config

import (
	"fmt"
	"os"
	"time"
)

const (
	MirrorSQLite = "sqlite"
	MirrorMemory = "memory"

	RemoteGitHub = "github"
	RemoteS3     = "s3"
)

// Config holds runtime settings for the server and the CLI.
type Config struct {
	HTTPAddr     string
	DataDir      string
	MirrorDriver string
	RemoteDriver string

	GitHubEndpoint string

	S3Endpoint    string
	S3Region      string
	S3Bucket      string
	S3AccessKeyID string
	S3PathStyle   bool

	// RemoteTimeout bounds a single remote round-trip. Zero means no bound.
	RemoteTimeout time.Duration
	DefaultWindow int

	LogLevel  string
	LogFormat string
	LogFile   string

	WatchMirror bool
}

// LoadDefaults populates c with defaults suitable for a local run.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = "127.0.0.1:3000"
	c.DataDir = ".zyn"
	c.MirrorDriver = MirrorSQLite
	c.RemoteDriver = RemoteGitHub
	c.GitHubEndpoint = ""
	c.S3Endpoint = ""
	c.S3Region = "us-east-1"
	c.S3Bucket = "zyn-tracker"
	c.S3AccessKeyID = ""
	c.S3PathStyle = true
	c.RemoteTimeout = 0
	c.DefaultWindow = 30
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.LogFile = ""
	c.WatchMirror = true
}

// Validate rejects driver names nothing can serve.
func (c *Config) Validate() error {
	switch c.MirrorDriver {
	case MirrorSQLite, MirrorMemory:
	default:
		return fmt.Errorf("unknown mirror driver %q", c.MirrorDriver)
	}
	switch c.RemoteDriver {
	case RemoteGitHub, RemoteS3:
	default:
		return fmt.Errorf("unknown remote driver %q", c.RemoteDriver)
	}
	if c.RemoteTimeout < 0 {
		return fmt.Errorf("remote timeout must not be negative")
	}
	return nil
}

// Load applies defaults, then the JSON file named in args (if any), then the
// flags in args.
func Load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}

// LoadConfig is Load over the process arguments.
func LoadConfig() *Config {
	return Load(os.Args[1:])
}
