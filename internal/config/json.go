package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/zyntracker/internal/flagx"
	"github.com/dmitrijs2005/zyntracker/internal/timex"
)

// JsonConfig is the on-disk form of Config. It is seeded from the current
// values so that keys absent from the file leave them alone.
type JsonConfig struct {
	HTTPAddr       string         `json:"http_addr"`
	DataDir        string         `json:"data_dir"`
	MirrorDriver   string         `json:"mirror_driver"`
	RemoteDriver   string         `json:"remote_driver"`
	GitHubEndpoint string         `json:"github_endpoint"`
	S3Endpoint     string         `json:"s3_endpoint"`
	S3Region       string         `json:"s3_region"`
	S3Bucket       string         `json:"s3_bucket"`
	S3AccessKeyID  string         `json:"s3_access_key_id"`
	S3PathStyle    bool           `json:"s3_path_style"`
	RemoteTimeout  timex.Duration `json:"remote_timeout"`
	DefaultWindow  int            `json:"default_window"`
	LogLevel       string         `json:"log_level"`
	LogFormat      string         `json:"log_format"`
	LogFile        string         `json:"log_file"`
	WatchMirror    bool           `json:"watch_mirror"`
}

// parseJson overlays cfg with the file given by -c/-config. Read or decode
// errors panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	jc := JsonConfig{
		HTTPAddr:       cfg.HTTPAddr,
		DataDir:        cfg.DataDir,
		MirrorDriver:   cfg.MirrorDriver,
		RemoteDriver:   cfg.RemoteDriver,
		GitHubEndpoint: cfg.GitHubEndpoint,
		S3Endpoint:     cfg.S3Endpoint,
		S3Region:       cfg.S3Region,
		S3Bucket:       cfg.S3Bucket,
		S3AccessKeyID:  cfg.S3AccessKeyID,
		S3PathStyle:    cfg.S3PathStyle,
		RemoteTimeout:  timex.Duration{Duration: cfg.RemoteTimeout},
		DefaultWindow:  cfg.DefaultWindow,
		LogLevel:       cfg.LogLevel,
		LogFormat:      cfg.LogFormat,
		LogFile:        cfg.LogFile,
		WatchMirror:    cfg.WatchMirror,
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.HTTPAddr = jc.HTTPAddr
	cfg.DataDir = jc.DataDir
	cfg.MirrorDriver = jc.MirrorDriver
	cfg.RemoteDriver = jc.RemoteDriver
	cfg.GitHubEndpoint = jc.GitHubEndpoint
	cfg.S3Endpoint = jc.S3Endpoint
	cfg.S3Region = jc.S3Region
	cfg.S3Bucket = jc.S3Bucket
	cfg.S3AccessKeyID = jc.S3AccessKeyID
	cfg.S3PathStyle = jc.S3PathStyle
	cfg.RemoteTimeout = jc.RemoteTimeout.Duration
	cfg.DefaultWindow = jc.DefaultWindow
	cfg.LogLevel = jc.LogLevel
	cfg.LogFormat = jc.LogFormat
	cfg.LogFile = jc.LogFile
	cfg.WatchMirror = jc.WatchMirror
}
