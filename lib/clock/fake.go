// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at initial.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.armed = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a Clock that advances only through Advance. Safe for
// concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	pending []*pendingWait
	armed   *sync.Cond
}

// pendingWait is one armed After or ticker.
type pendingWait struct {
	deadline time.Time
	channel  chan time.Time
	// interval is non-zero for tickers, which re-arm after firing.
	interval time.Duration
	stopped  bool
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After arms a one-shot wait. Non-positive durations deliver
// immediately and are not counted as pending.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}
	c.pending = append(c.pending, &pendingWait{deadline: c.current.Add(d), channel: channel})
	c.armed.Broadcast()
	return channel
}

// NewTicker arms a periodic wait.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	wait := &pendingWait{
		deadline: c.current.Add(d),
		channel:  make(chan time.Time, 1),
		interval: d,
	}
	c.pending = append(c.pending, wait)
	c.armed.Broadcast()

	return &Ticker{
		C: wait.channel,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			wait.stopped = true
		},
	}
}

// Advance moves the clock forward by d and fires, in deadline order,
// every wait that falls due. A ticker spanning several intervals fires
// once per interval; sends never block, so ticks beyond the channel
// buffer are dropped.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current
	c.mu.Unlock()

	for {
		due := c.takeDue(target)
		if len(due) == 0 {
			return
		}
		for _, wait := range due {
			select {
			case wait.channel <- target:
			default:
			}
		}
	}
}

// takeDue removes due waits (re-arming tickers) and returns them
// sorted by deadline.
func (c *FakeClock) takeDue(target time.Time) []*pendingWait {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due, remaining []*pendingWait
	for _, wait := range c.pending {
		switch {
		case wait.stopped:
		case wait.deadline.After(target):
			remaining = append(remaining, wait)
		default:
			due = append(due, wait)
		}
	}
	slices.SortStableFunc(due, func(a, b *pendingWait) int {
		return a.deadline.Compare(b.deadline)
	})
	for _, wait := range due {
		if wait.interval > 0 {
			wait.deadline = wait.deadline.Add(wait.interval)
			remaining = append(remaining, wait)
		}
	}
	c.pending = remaining
	return due
}

// WaitForTimers blocks until at least n waits are armed.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.armed.Wait()
	}
}

// PendingCount reports how many waits are armed.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *FakeClock) pendingLocked() int {
	count := 0
	for _, wait := range c.pending {
		if !wait.stopped {
			count++
		}
	}
	return count
}
