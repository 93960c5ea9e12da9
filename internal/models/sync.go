package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/zyntracker/internal/common"
)

// VersionToken identifies a revision of the remote document. The zero value
// means no remote document exists yet.
type VersionToken string

// SyncConfig addresses the remote logs document.
type SyncConfig struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
	Path   string `json:"path"`
	Token  string `json:"token"`
}

// Normalized trims every field and fills in the default branch and path.
func (c SyncConfig) Normalized() SyncConfig {
	out := SyncConfig{
		Owner:  strings.TrimSpace(c.Owner),
		Repo:   strings.TrimSpace(c.Repo),
		Branch: strings.TrimSpace(c.Branch),
		Path:   strings.Trim(strings.TrimSpace(c.Path), "/"),
		Token:  strings.TrimSpace(c.Token),
	}
	if out.Branch == "" {
		out.Branch = common.DefaultBranch
	}
	if out.Path == "" {
		out.Path = common.DefaultPath
	}
	return out
}

// Enabled reports whether remote sync is switched on. A non-empty token is
// the only condition.
func (c SyncConfig) Enabled() bool {
	return c.Token != ""
}

// Redacted returns a copy safe to log or return over the API.
func (c SyncConfig) Redacted() SyncConfig {
	if c.Token != "" {
		c.Token = "********"
	}
	return c
}

// SyncStatus is the activity part of SyncState.
type SyncStatus string

const (
	StatusIdle    SyncStatus = "idle"
	StatusSyncing SyncStatus = "syncing"
	StatusError   SyncStatus = "error"
)

// SyncState is what observers see of the synchronization machine.
// Enabled=false is the disabled state.
type SyncState struct {
	Enabled      bool       `json:"enabled"`
	Status       SyncStatus `json:"status"`
	Message      string     `json:"message"`
	LastSyncedAt *time.Time `json:"lastSyncedAt"`
}
