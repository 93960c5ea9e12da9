// Package syncstate tracks the remote synchronization status of a store.
//
// A machine starts disabled. Begin moves disabled, idle or error to
// syncing; Succeed and Fail leave syncing for idle or error. Disable is
// legal from any state. A Machine is not safe for concurrent use; the owning
// store serialises access.
package syncstate

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/zyntracker/internal/common"
	"github.com/dmitrijs2005/zyntracker/internal/models"
)

// Kind selects the status message shown while a remote call is running.
type Kind int

const (
	// Push is a mutation being written to the remote.
	Push Kind = iota
	// Reload is a full fetch replacing the cache.
	Reload
)

type Machine struct {
	remoteName string
	state      models.SyncState
}

// New returns a disabled machine. remoteName is used in status messages,
// e.g. "GitHub".
func New(remoteName string) *Machine {
	return &Machine{
		remoteName: remoteName,
		state:      models.SyncState{Status: models.StatusIdle},
	}
}

// State returns a copy of the current state.
func (m *Machine) State() models.SyncState {
	s := m.state
	if s.LastSyncedAt != nil {
		at := *s.LastSyncedAt
		s.LastSyncedAt = &at
	}
	return s
}

// Disable switches sync off and forgets the last sync time.
func (m *Machine) Disable() models.SyncState {
	m.state = models.SyncState{Status: models.StatusIdle}
	return m.State()
}

// Begin enters syncing. It is illegal while another remote call is running.
func (m *Machine) Begin(kind Kind) (models.SyncState, error) {
	if m.state.Enabled && m.state.Status == models.StatusSyncing {
		return m.State(), fmt.Errorf("%w: begin while syncing", common.ErrIllegalTransition)
	}

	msg := fmt.Sprintf("Syncing with %s…", m.remoteName)
	if kind == Reload {
		msg = "Loading remote logs…"
	}

	m.state.Enabled = true
	m.state.Status = models.StatusSyncing
	m.state.Message = msg
	return m.State(), nil
}

// Succeed leaves syncing for idle, recording count and the sync time.
func (m *Machine) Succeed(count int, at time.Time) (models.SyncState, error) {
	if err := m.requireSyncing("succeed"); err != nil {
		return m.State(), err
	}

	m.state.Status = models.StatusIdle
	m.state.Message = fmt.Sprintf("Synced %d logs", count)
	m.state.LastSyncedAt = &at
	return m.State(), nil
}

// Fail leaves syncing for error, carrying the error text as the message.
// The last sync time is kept.
func (m *Machine) Fail(cause error) (models.SyncState, error) {
	if err := m.requireSyncing("fail"); err != nil {
		return m.State(), err
	}

	m.state.Status = models.StatusError
	m.state.Message = cause.Error()
	return m.State(), nil
}

func (m *Machine) requireSyncing(op string) error {
	if !m.state.Enabled || m.state.Status != models.StatusSyncing {
		return fmt.Errorf("%w: %s from %s", common.ErrIllegalTransition, op, m.describe())
	}
	return nil
}

func (m *Machine) describe() string {
	if !m.state.Enabled {
		return "disabled"
	}
	return string(m.state.Status)
}
