package submission

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/datastore"
	"merchant-onboarding/internal/onboarding"
)

type fakeSaver struct {
	mu      sync.Mutex
	names   []string
	active  atomic.Int32
	maxSeen atomic.Int32
	block   chan struct{}
	started chan struct{}
	fail    bool
}

func (f *fakeSaver) SaveDraft(_ context.Context, _ string, d *onboarding.Data) Result {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.names = append(f.names, d.ContactInfo.FirstName)
	f.mu.Unlock()
	if f.fail {
		return Result{Error: "boom"}
	}
	return Result{Success: true}
}

func (f *fakeSaver) saved() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...)
}

func dataNamed(name string) *onboarding.Data {
	d := onboarding.NewData()
	d.ContactInfo.FirstName = name
	return d
}

func TestAutoSaver_DebounceCoalesces(t *testing.T) {
	f := &fakeSaver{}
	a := NewAutoSaver(f, "c-1", 20*time.Millisecond)

	a.Schedule(dataNamed("a"))
	a.Schedule(dataNamed("b"))
	a.Schedule(dataNamed("c"))

	require.Eventually(t, func() bool { return a.Saves() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"c"}, f.saved())
}

func TestAutoSaver_SnapshotIsolatedFromLaterEdits(t *testing.T) {
	f := &fakeSaver{}
	a := NewAutoSaver(f, "c-1", time.Hour)
	d := dataNamed("before")
	a.Schedule(d)
	d.ContactInfo.FirstName = "after"

	a.Flush(context.Background())
	assert.Equal(t, []string{"before"}, f.saved())
}

func TestAutoSaver_NoOverlappingSaves(t *testing.T) {
	f := &fakeSaver{block: make(chan struct{}), started: make(chan struct{}, 4)}
	a := NewAutoSaver(f, "c-1", 10*time.Millisecond)

	a.Schedule(dataNamed("first"))
	<-f.started

	a.Schedule(dataNamed("second"))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), f.active.Load(), "second save must wait")

	close(f.block)
	require.Eventually(t, func() bool { return a.Saves() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"first", "second"}, f.saved())
	assert.Equal(t, int32(1), f.maxSeen.Load())
}

func TestAutoSaver_FlushWaitsForSaveInFlight(t *testing.T) {
	f := &fakeSaver{block: make(chan struct{}), started: make(chan struct{}, 4)}
	a := NewAutoSaver(f, "c-1", 10*time.Millisecond)

	a.Schedule(dataNamed("first"))
	<-f.started
	a.Schedule(dataNamed("second"))

	flushed := make(chan struct{})
	go func() {
		a.Flush(context.Background())
		close(flushed)
	}()

	select {
	case <-flushed:
		t.Fatal("Flush returned while a save was still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(f.block)
	select {
	case <-flushed:
	case <-time.After(time.Second):
		t.Fatal("Flush did not return after the running save finished")
	}
	a.Stop()

	assert.Equal(t, []string{"first", "second"}, f.saved())
	assert.Equal(t, int64(2), a.Saves())
	assert.Equal(t, int32(1), f.maxSeen.Load())
}

func TestAutoSaver_StopDropsPending(t *testing.T) {
	f := &fakeSaver{}
	a := NewAutoSaver(f, "c-1", 10*time.Millisecond)
	a.Schedule(dataNamed("x"))
	a.Stop()
	a.Schedule(dataNamed("y"))

	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, f.saved())
}

func TestAutoSaver_FailureIsNotCounted(t *testing.T) {
	f := &fakeSaver{fail: true}
	a := NewAutoSaver(f, "c-1", time.Hour)
	a.Schedule(dataNamed("x"))
	a.Flush(context.Background())
	assert.Equal(t, int64(0), a.Saves())
	assert.Len(t, f.saved(), 1)
}

func TestAutoSaver_WithPipeline(t *testing.T) {
	mem := datastore.NewMemory()
	p := New(mem)
	ctx := context.Background()
	draft := p.SaveDraft(ctx, "", onboarding.NewData())
	require.True(t, draft.Success)

	a := NewAutoSaver(p, draft.ContractID, time.Hour)
	a.Schedule(dataNamed("Eva"))
	a.Flush(ctx)

	stored, err := mem.LoadAggregate(ctx, draft.ContractID)
	require.NoError(t, err)
	assert.Equal(t, "Eva", stored.ContactInfo.FirstName)
}
