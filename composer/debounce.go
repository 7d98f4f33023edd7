package composer

import (
	"sync"
	"time"
)

// DefaultSearchDelay is the debounce window for search-as-you-type catalog
// refetches.
const DefaultSearchDelay = 500 * time.Millisecond

// Debounce wraps fn so that rapid successive calls collapse into one: fn runs
// with the most recent argument once delay has elapsed since the last call.
// stop cancels any pending invocation.
func Debounce[T any](delay time.Duration, fn func(T)) (call func(T), stop func()) {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	call = func(arg T) {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			fn(arg)
		})
	}
	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
			timer = nil
		}
	}
	return call, stop
}
