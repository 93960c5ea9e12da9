// Package remote defines the client used to read and write the shared logs
// document, and builds the configured backend.
package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/zyntracker/internal/common"
	"github.com/dmitrijs2005/zyntracker/internal/models"
	"github.com/dmitrijs2005/zyntracker/internal/remote/github"
	"github.com/dmitrijs2005/zyntracker/internal/remote/s3"
)

// Client reads and writes the remote logs document.
//
// Fetch returns an empty list and an empty token when the document does not
// exist yet. Push replaces the whole document; token is the version the
// caller last saw and a stale token fails with an error matching
// common.ErrVersionConflict. Neither method merges.
type Client interface {
	Fetch(ctx context.Context, cfg models.SyncConfig) ([]models.LogEntry, models.VersionToken, error)
	Push(ctx context.Context, cfg models.SyncConfig, entries []models.LogEntry, token models.VersionToken, message string) (models.VersionToken, error)
}

// Validate checks that cfg names a document and carries credentials.
func Validate(cfg models.SyncConfig) error {
	var missing []string
	if strings.TrimSpace(cfg.Owner) == "" {
		missing = append(missing, "owner")
	}
	if strings.TrimSpace(cfg.Repo) == "" {
		missing = append(missing, "repo")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", common.ErrRemoteConfig, strings.Join(missing, ", "))
	}
	return nil
}

func AddMessage(id int64) string    { return fmt.Sprintf("Add log #%d", id) }
func UpdateMessage(id int64) string { return fmt.Sprintf("Update log #%d", id) }
func DeleteMessage(id int64) string { return fmt.Sprintf("Delete log #%d", id) }

// Options selects and configures a backend.
type Options struct {
	Driver string // "github" or "s3"

	GitHubEndpoint string

	S3Endpoint    string
	S3Region      string
	S3Bucket      string
	S3AccessKeyID string
	S3PathStyle   bool

	Timeout time.Duration
}

// New builds the backend named by opts.Driver, bounded by opts.Timeout when
// it is positive.
func New(ctx context.Context, opts Options) (Client, error) {
	var c Client
	switch opts.Driver {
	case "", "github":
		gc, err := github.New(opts.GitHubEndpoint)
		if err != nil {
			return nil, err
		}
		c = gc
	case "s3":
		sc, err := s3.New(ctx, s3.Options{
			Endpoint:    opts.S3Endpoint,
			Region:      opts.S3Region,
			Bucket:      opts.S3Bucket,
			AccessKeyID: opts.S3AccessKeyID,
			PathStyle:   opts.S3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		c = sc
	default:
		return nil, fmt.Errorf("unknown remote driver %q", opts.Driver)
	}

	if opts.Timeout > 0 {
		c = WithTimeout(c, opts.Timeout)
	}
	return c, nil
}

// DisplayName is the human name of a driver, used in status messages.
func DisplayName(driver string) string {
	if driver == "s3" {
		return "S3"
	}
	return "GitHub"
}

type timeoutClient struct {
	next    Client
	timeout time.Duration
}

// WithTimeout bounds every call made through c.
func WithTimeout(c Client, d time.Duration) Client {
	return &timeoutClient{next: c, timeout: d}
}

func (t *timeoutClient) Fetch(ctx context.Context, cfg models.SyncConfig) ([]models.LogEntry, models.VersionToken, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Fetch(ctx, cfg)
}

func (t *timeoutClient) Push(ctx context.Context, cfg models.SyncConfig, entries []models.LogEntry, token models.VersionToken, message string) (models.VersionToken, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Push(ctx, cfg, entries, token, message)
}
