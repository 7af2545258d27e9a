// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"time"

	"github.com/agilira/go-timecache"
)

// tickClock is the "processing tick time" the data model assigns to each
// Worker: a timestamp cached once at the start of a tick instead of a
// time.Now() syscall on every push/send. It is backed by
// agilira/go-timecache's background-refreshed cache rather than a
// hand-rolled one, the way agilira-lethe wires the same cache into its
// own hot write path.
type tickClock struct {
	cache  *timecache.TimeCache
	cached time.Time
}

func newTickClock() *tickClock {
	return &tickClock{cache: timecache.NewWithResolution(time.Millisecond)}
}

// refresh snapshots the cached clock. Called once per tick, never on the
// push/send hot path.
func (c *tickClock) refresh() {
	c.cached = c.cache.CachedTime()
}

// now returns the timestamp captured by the most recent refresh.
func (c *tickClock) now() time.Time { return c.cached }

// stop releases the background refresh goroutine backing the cache.
func (c *tickClock) stop() { c.cache.Stop() }
