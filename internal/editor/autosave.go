package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SaveFunc persists the given content.
type SaveFunc func(ctx context.Context, content string) error

// Autosave debounces a save action: the save fires once per quiet window
// after edits stop, and never while a previous save is still in flight.
// Failures are logged, not retried; the next edit re-arms the timer and the
// stale snapshot makes that save carry the missed content.
type Autosave struct {
	save  SaveFunc
	delay time.Duration
	log   *slog.Logger

	mu        sync.Mutex
	enabled   bool
	timer     *time.Timer
	content   string
	filePath  string
	lastSaved string
	inFlight  bool
	stopped   bool
}

func NewAutosave(save SaveFunc, delay time.Duration, enabled bool, log *slog.Logger) *Autosave {
	return &Autosave{save: save, delay: delay, enabled: enabled, log: log}
}

// Update records the latest content and file identity. Any pending timer is
// cancelled; if autosave is enabled and a file is open, a new one is armed.
// Switching files resets the snapshot so the previous file's content can
// never trigger a spurious save against the new one.
func (a *Autosave) Update(content, filePath string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}

	if filePath != a.filePath {
		a.filePath = filePath
		a.lastSaved = content
	}
	a.content = content

	a.cancelTimerLocked()
	if a.enabled && a.filePath != "" {
		a.armLocked()
	}
}

// SetEnabled toggles the controller. Disabling cancels any pending timer;
// enabling arms one if a file is open.
func (a *Autosave) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped || a.enabled == enabled {
		return
	}
	a.enabled = enabled
	a.cancelTimerLocked()
	if a.enabled && a.filePath != "" {
		a.armLocked()
	}
}

// MarkSaved records that content was persisted outside the controller
// (a manual save), so the debounced save skips identical content.
func (a *Autosave) MarkSaved(content string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSaved = content
}

// Stop cancels any pending timer and prevents all future fires.
func (a *Autosave) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.cancelTimerLocked()
}

func (a *Autosave) armLocked() {
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *Autosave) cancelTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Autosave) fire() {
	a.mu.Lock()
	if a.stopped || a.inFlight || a.filePath == "" || a.content == a.lastSaved {
		a.mu.Unlock()
		return
	}
	content := a.content
	a.inFlight = true
	a.mu.Unlock()

	err := a.save(context.Background(), content)

	a.mu.Lock()
	a.inFlight = false
	if err != nil {
		a.log.Warn("autosave failed", "path", a.filePath, "error", err)
	} else {
		a.lastSaved = content
	}
	// Edits that raced with the save get their own window.
	if err == nil && !a.stopped && a.enabled && a.filePath != "" && a.content != content {
		a.cancelTimerLocked()
		a.armLocked()
	}
	a.mu.Unlock()
}
