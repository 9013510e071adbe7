package engine

import (
	"sync"
	"time"
)

// countdown drives one tick per interval into the session until canceled.
// The state machine never sleeps; the one-second wait lives here, outside
// the reducer.
type countdown struct {
	stop chan struct{}
	once sync.Once
}

// startCountdown launches the tick loop in a goroutine. tick is invoked once
// per interval until Cancel is called or tick reports the run is over.
func startCountdown(interval time.Duration, tick func() bool) *countdown {
	c := &countdown{stop: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				if !tick() {
					return
				}
			}
		}
	}()

	return c
}

// Cancel stops the countdown. Safe to call redundantly: canceling an
// already-canceled countdown is a no-op, not an error.
func (c *countdown) Cancel() {
	c.once.Do(func() { close(c.stop) })
}
