package composer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebounceAppliesOnlyMostRecentCall(t *testing.T) {
	var (
		mu   sync.Mutex
		got  []string
		done = make(chan struct{}, 1)
	)
	call, stop := Debounce(30*time.Millisecond, func(q string) {
		mu.Lock()
		got = append(got, q)
		mu.Unlock()
		done <- struct{}{}
	})
	defer stop()

	// A burst of keystrokes collapses into one fetch with the last query.
	call("r")
	call("ry")
	call("ryzen")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "ryzen", got[0])
}

func TestDebounceStopCancelsPending(t *testing.T) {
	fired := make(chan struct{}, 1)
	call, stop := Debounce(20*time.Millisecond, func(struct{}) {
		fired <- struct{}{}
	})

	call(struct{}{})
	stop()

	select {
	case <-fired:
		t.Fatal("stopped debounce still fired")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestStoreSweepDropsIdleDrafts(t *testing.T) {
	store := NewStore()
	catalog := testCatalog()

	stale := store.Create(New(catalog, &fakeSubmitter{}))
	fresh := store.Create(New(catalog, &fakeSubmitter{}))
	require.Equal(t, 2, store.Len())

	// Age the first draft past the cutoff.
	stale.mu.Lock()
	stale.lastUsed = time.Now().Add(-2 * time.Hour)
	stale.mu.Unlock()

	removed := store.Sweep(time.Hour)
	assert.Equal(t, 1, removed)
	assert.Nil(t, store.Get(stale.ID))
	assert.NotNil(t, store.Get(fresh.ID))
}
