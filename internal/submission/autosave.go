package submission

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"merchant-onboarding/internal/onboarding"
)

// DefaultDebounce is the quiet period before an auto-save fires.
const DefaultDebounce = 2 * time.Second

const autosaveTimeout = 30 * time.Second

// DraftSaver persists a draft aggregate.
type DraftSaver interface {
	SaveDraft(ctx context.Context, contractID string, d *onboarding.Data) Result
}

// AutoSaver saves the latest snapshot of a draft after edits settle.
// Failures are logged, never returned. At most one save runs at a time; a
// snapshot scheduled during a save is written after it. Flush waits for a
// running save before writing what is still pending.
type AutoSaver struct {
	saver      DraftSaver
	contractID string
	delay      time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *onboarding.Data
	stopped bool

	// saving is held for the whole SaveDraft call.
	saving sync.Mutex
	saves  atomic.Int64
}

// NewAutoSaver returns an auto-saver for an existing contract.
func NewAutoSaver(saver DraftSaver, contractID string, delay time.Duration) *AutoSaver {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &AutoSaver{saver: saver, contractID: contractID, delay: delay}
}

// Schedule snapshots d and (re)starts the debounce timer.
func (a *AutoSaver) Schedule(d *onboarding.Data) {
	snapshot, err := d.Clone()
	if err != nil {
		log.Printf("⚠️ Auto-save snapshot failed for %s: %v", a.contractID, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.pending = snapshot
	if a.timer == nil {
		a.timer = time.AfterFunc(a.delay, a.fire)
		return
	}
	a.timer.Reset(a.delay)
}

// Flush saves a pending snapshot now. It blocks while a timer save is in
// flight, so when it returns every scheduled snapshot has been written.
func (a *AutoSaver) Flush(ctx context.Context) {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()

	a.saving.Lock()
	defer a.saving.Unlock()
	a.save(ctx)
}

// Stop cancels the timer and drops any pending snapshot.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
	}
}

// Saves returns how many saves have completed successfully.
func (a *AutoSaver) Saves() int64 {
	return a.saves.Load()
}

func (a *AutoSaver) fire() {
	if !a.saving.TryLock() {
		a.rearm()
		return
	}
	defer a.saving.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()
	a.save(ctx)
}

// save writes the pending snapshot. Callers hold a.saving.
func (a *AutoSaver) save(ctx context.Context) {
	a.mu.Lock()
	d := a.pending
	a.pending = nil
	a.mu.Unlock()
	if d == nil {
		return
	}

	res := a.saver.SaveDraft(ctx, a.contractID, d)
	if !res.Success {
		log.Printf("⚠️ Auto-save failed for %s: %s", a.contractID, res.Error)
		return
	}
	a.saves.Add(1)
}

// rearm retries later when a save is already running.
func (a *AutoSaver) rearm() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped || a.pending == nil {
		return
	}
	if a.timer == nil {
		a.timer = time.AfterFunc(a.delay, a.fire)
		return
	}
	a.timer.Reset(a.delay)
}
