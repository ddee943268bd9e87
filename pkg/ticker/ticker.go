// SPDX-License-Identifier: GPL-3.0-or-later

package ticker

import (
	"sync"
	"time"
)

// Ticker emits the tick counter on C at interval boundaries of the wall clock.
// A tick is dropped if the receiver is not ready.
type Ticker struct {
	C        <-chan int
	done     chan struct{}
	stopOnce sync.Once
	interval time.Duration
	loops    int
}

func New(interval time.Duration) *Ticker {
	ch := make(chan int)
	t := &Ticker{
		C:        ch,
		done:     make(chan struct{}),
		interval: interval,
	}
	go t.start(ch)
	return t
}

func (t *Ticker) start(ch chan int) {
	timer := time.NewTimer(t.untilNext())
	defer timer.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-timer.C:
		}

		t.loops++
		select {
		case ch <- t.loops:
		default:
		}

		timer.Reset(t.untilNext())
	}
}

func (t *Ticker) untilNext() time.Duration {
	now := time.Now()
	return now.Truncate(t.interval).Add(t.interval).Sub(now)
}

// Stop turns off the ticker. C is not closed.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.done) })
}
