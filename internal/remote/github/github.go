// Package github stores the logs document as a file in a GitHub repository
// through the contents API. The blob sha is the version token.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v82/github"

	"github.com/dmitrijs2005/zyntracker/internal/common"
	"github.com/dmitrijs2005/zyntracker/internal/models"
)

// Client talks to api.github.com or to the endpoint given to New.
type Client struct {
	base *gogithub.Client
}

// New returns a Client. An empty endpoint means the public API; otherwise
// endpoint is the API root, e.g. "https://ghe.example.com/api/v3/".
func New(endpoint string) (*Client, error) {
	base := gogithub.NewClient(nil)
	if endpoint != "" {
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("github endpoint: %w", err)
		}
		base.BaseURL = u
	}
	return &Client{base: base}, nil
}

func (c *Client) api(token string) *gogithub.Client {
	return c.base.WithAuthToken(token)
}

func (c *Client) Fetch(ctx context.Context, cfg models.SyncConfig) ([]models.LogEntry, models.VersionToken, error) {
	opts := &gogithub.RepositoryContentGetOptions{Ref: cfg.Branch}

	file, _, resp, err := c.api(cfg.Token).Repositories.GetContents(ctx, cfg.Owner, cfg.Repo, cfg.Path, opts)
	if err != nil {
		if statusOf(resp, err) == http.StatusNotFound {
			return []models.LogEntry{}, "", nil
		}
		return nil, "", remoteError(resp, err, false)
	}
	if file == nil {
		return nil, "", common.NewRemoteError(0, fmt.Sprintf("%s is a directory, not a logs file", cfg.Path), nil)
	}

	body, err := file.GetContent()
	if err != nil {
		return nil, "", common.NewRemoteError(0, fmt.Sprintf("decode %s: %v", cfg.Path, err), err)
	}

	entries, err := models.DecodeEntries([]byte(body))
	if err != nil {
		return nil, "", common.NewRemoteError(0, "remote logs file is not a JSON array", err)
	}
	return entries, models.VersionToken(file.GetSHA()), nil
}

func (c *Client) Push(ctx context.Context, cfg models.SyncConfig, entries []models.LogEntry, token models.VersionToken, message string) (models.VersionToken, error) {
	body, err := models.EncodeEntries(entries)
	if err != nil {
		return "", fmt.Errorf("encode logs: %w", err)
	}

	opts := &gogithub.RepositoryContentFileOptions{
		Message: gogithub.Ptr(message),
		Content: body,
		Branch:  gogithub.Ptr(cfg.Branch),
	}

	api := c.api(cfg.Token)
	var (
		res  *gogithub.RepositoryContentResponse
		resp *gogithub.Response
	)
	if token != "" {
		opts.SHA = gogithub.Ptr(string(token))
		res, resp, err = api.Repositories.UpdateFile(ctx, cfg.Owner, cfg.Repo, cfg.Path, opts)
	} else {
		res, resp, err = api.Repositories.CreateFile(ctx, cfg.Owner, cfg.Repo, cfg.Path, opts)
	}
	if err != nil {
		return "", remoteError(resp, err, true)
	}
	if res == nil || res.Content == nil {
		return "", common.NewRemoteError(0, "remote did not return the new file version", nil)
	}
	return models.VersionToken(res.Content.GetSHA()), nil
}

func statusOf(resp *gogithub.Response, err error) int {
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	var er *gogithub.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	return 0
}

// remoteError maps a go-github failure to a RemoteError. For writes, 409
// and 412, and a 422 complaining about the sha, mean someone else changed
// the file.
func remoteError(resp *gogithub.Response, err error, write bool) *common.RemoteError {
	status := statusOf(resp, err)

	var message string
	var er *gogithub.ErrorResponse
	var rl *gogithub.RateLimitError
	switch {
	case errors.As(err, &rl):
		message = rl.Message
	case errors.As(err, &er):
		message = er.Message
	}

	re := common.NewRemoteError(status, message, err)
	if write {
		switch status {
		case http.StatusConflict, http.StatusPreconditionFailed:
			re.Conflict = true
		case http.StatusUnprocessableEntity:
			re.Conflict = strings.Contains(strings.ToLower(message), "sha")
		}
	}
	return re
}
