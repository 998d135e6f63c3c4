// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/kontakte/lib/importwizard"
)

// snapshotMsg carries a wizard state change into the program.
type snapshotMsg struct {
	snapshot importwizard.Snapshot
}

// Bridge carries wizard snapshots from the goroutine that changed the
// state to the bubbletea program. It holds at most one pending
// snapshot: a newer one replaces an undelivered older one, so a slow
// renderer skips intermediate progress values but always sees the
// latest state. Publish never blocks.
type Bridge struct {
	mu       sync.Mutex
	channel  chan importwizard.Snapshot
	closed   bool
	shutdown chan struct{}
}

// NewBridge creates an empty Bridge.
func NewBridge() *Bridge {
	return &Bridge{
		channel:  make(chan importwizard.Snapshot, 1),
		shutdown: make(chan struct{}),
	}
}

// Publish queues snapshot for delivery. Use it as the wizard's
// OnChange callback.
func (bridge *Bridge) Publish(snapshot importwizard.Snapshot) {
	bridge.mu.Lock()
	defer bridge.mu.Unlock()
	if bridge.closed {
		return
	}
	select {
	case <-bridge.channel:
	default:
	}
	bridge.channel <- snapshot
}

// Close stops delivery. A listen command blocked on the bridge returns
// nil.
func (bridge *Bridge) Close() {
	bridge.mu.Lock()
	defer bridge.mu.Unlock()
	if !bridge.closed {
		bridge.closed = true
		close(bridge.shutdown)
	}
}

// listen returns a tea.Cmd that blocks until the next snapshot.
func (bridge *Bridge) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case snapshot := <-bridge.channel:
			return snapshotMsg{snapshot: snapshot}
		case <-bridge.shutdown:
			return nil
		}
	}
}
