package app

import (
	"sync"
	"time"
)

// Scheduler abstracts timer creation so session transitions can be driven
// deterministically in tests. Cancel funcs are safe to call more than once.
// Cancellation is best effort at the timer level; the session pairs every
// scheduled callback with a generation check so a callback that loses the
// race can never mutate superseded state.
type Scheduler interface {
	// After runs fn once after d.
	After(d time.Duration, fn func()) (cancel func())
	// Every runs fn repeatedly at interval d until canceled.
	Every(d time.Duration, fn func()) (cancel func())
}

// WallScheduler is the production Scheduler backed by the wall clock.
type WallScheduler struct{}

func (WallScheduler) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

func (WallScheduler) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
