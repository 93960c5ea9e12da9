package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/zyntracker/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-m", "-r", "-g", "-t", "-w", "-l"}

// parseFlags overlays cfg with the flags it owns. Other arguments are
// filtered out first so -c and unrelated flags do not make parsing fail.
func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("zyn", flag.ContinueOnError)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.MirrorDriver, "m", cfg.MirrorDriver, "mirror driver (sqlite|memory)")
	fs.StringVar(&cfg.RemoteDriver, "r", cfg.RemoteDriver, "remote driver (github|s3)")
	fs.StringVar(&cfg.GitHubEndpoint, "g", cfg.GitHubEndpoint, "GitHub API endpoint")
	timeout := fs.Int("t", int(cfg.RemoteTimeout.Seconds()), "remote timeout (in seconds)")
	fs.IntVar(&cfg.DefaultWindow, "w", cfg.DefaultWindow, "default stats window (in days)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RemoteTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
