// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import "time"

// mailbox is a Worker's inbound aggregator: an array of P dedicated SPSC
// rings, one per other worker, plus an idle-wait notification. Every
// producer owns exactly one ring for the lifetime of the mailbox, so
// producers never contend with each other — dedicated rings traded for
// the contention a single shared FAA-based MPSC ring would have imposed
// on every producer.
// The consumer (this mailbox's owning worker) pays a bounded round-robin
// cost proportional to worker count instead.
type mailbox struct {
	rings    []*ring
	notify   chan struct{} // buffered 1; signaled on a successful enqueue
	idleWait time.Duration
}

func newMailbox(producers, ringCapacity int, idleWait time.Duration) *mailbox {
	m := &mailbox{
		rings:    make([]*ring, producers),
		notify:   make(chan struct{}, 1),
		idleWait: idleWait,
	}
	for i := range m.rings {
		m.rings[i] = newRing(ringCapacity)
	}
	return m
}

// enqueue forwards to the ring dedicated to producerIndex. producerIndex
// must be the same value every time a given source worker flushes to
// this mailbox (see denseIndex in worker.go) so FIFO-per-sender holds.
func (m *mailbox) enqueue(producerIndex int, b *bucket) bool {
	ok := m.rings[producerIndex].enqueue(b)
	if ok && m.idleWait > 0 {
		select {
		case m.notify <- struct{}{}:
		default:
		}
	}
	return ok
}

// drain visits each ring once in index order, draining up to max buckets
// from each, and returns the total number of buckets handed to fn.
// Consumer-only.
func (m *mailbox) drain(max int, fn func(*bucket)) int {
	total := 0
	for _, r := range m.rings {
		total += r.drain(max, fn)
	}
	return total
}

// wait blocks the consumer until a producer signals, or idleWait elapses
// — a soft bound, not a guarantee of promptness. idleWait == 0 means
// "busy spin": wait returns immediately and the caller is expected to
// loop back into drain itself. Consumer-only.
func (m *mailbox) wait() {
	if m.idleWait <= 0 {
		return
	}
	select {
	case <-m.notify:
	case <-time.After(m.idleWait):
	}
}
