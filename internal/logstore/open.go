package logstore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/zyntracker/internal/config"
	"github.com/dmitrijs2005/zyntracker/internal/logging"
	"github.com/dmitrijs2005/zyntracker/internal/mirror"
	"github.com/dmitrijs2005/zyntracker/internal/remote"
)

// Open builds and loads a store from application settings. A remote
// failure during load is logged and the store is returned anyway; closeFn
// releases the mirror.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger) (s *Store, closeFn func() error, err error) {
	m, err := mirror.Open(ctx, cfg.MirrorDriver, cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open mirror: %w", err)
	}

	rc, err := remote.New(ctx, remote.Options{
		Driver:         cfg.RemoteDriver,
		GitHubEndpoint: cfg.GitHubEndpoint,
		S3Endpoint:     cfg.S3Endpoint,
		S3Region:       cfg.S3Region,
		S3Bucket:       cfg.S3Bucket,
		S3AccessKeyID:  cfg.S3AccessKeyID,
		S3PathStyle:    cfg.S3PathStyle,
		Timeout:        cfg.RemoteTimeout,
	})
	if err != nil {
		_ = m.Close()
		return nil, nil, fmt.Errorf("remote client: %w", err)
	}

	s = New(m, rc,
		WithLogger(log),
		WithRemoteName(remote.DisplayName(cfg.RemoteDriver)),
	)
	if err := s.Load(ctx); err != nil {
		if ctx.Err() != nil {
			_ = m.Close()
			return nil, nil, err
		}
		log.Warn(ctx, "initial remote load failed, serving local data", "err", err)
	}
	return s, m.Close, nil
}
