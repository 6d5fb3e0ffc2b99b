package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sahilbhatiani/net-worth-tracker/internal/syncer"
)

// StateChangedMsg is sent after the entries or target changed.
type StateChangedMsg struct{}

// SyncedMsg is sent after a successful remote load or write.
type SyncedMsg struct {
	Status syncer.Status
}

// SyncErrorMsg is sent when the gateway fails to reach the cache or remote.
type SyncErrorMsg struct {
	Err error
}

// AuthChangedMsg is sent when the signed-in identity changes.
type AuthChangedMsg struct {
	SignedIn bool
}

// Bus carries notifications from background goroutines (state observers,
// the sync gateway, the credentials watcher) into the Bubble Tea loop.
// Sends never block: when the buffer is full the message is dropped, which
// is harmless because every message makes the app re-read state.
type Bus struct {
	ch chan tea.Msg
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{ch: make(chan tea.Msg, 32)}
}

func (b *Bus) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
	}
}

// StateChanged reports a state mutation.
func (b *Bus) StateChanged() { b.send(StateChangedMsg{}) }

// Synced reports a successful sync.
func (b *Bus) Synced(st syncer.Status) { b.send(SyncedMsg{Status: st}) }

// SyncError reports a sync failure.
func (b *Bus) SyncError(err error) { b.send(SyncErrorMsg{Err: err}) }

// AuthChanged reports a sign-in or sign-out.
func (b *Bus) AuthChanged(signedIn bool) { b.send(AuthChangedMsg{SignedIn: signedIn}) }

// wait blocks until the next message arrives on the bus.
func (b *Bus) wait() tea.Cmd {
	return func() tea.Msg {
		return <-b.ch
	}
}
