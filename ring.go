// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import "code.hybscloud.com/atomix"

// ring is a single-producer single-consumer bounded queue of buckets.
//
// It is a Lamport ring buffer with cached-index optimization, its
// element type fixed to bucket, stored by value (enqueue copies *b into
// its slot, dequeue returns the copy): one dedicated producer thread,
// one dedicated consumer thread, capacity rounded up to a power of 2 so
// index wraparound is a mask instead of a modulo. The producer caches the
// consumer's head index and vice versa, so the hot path only pays for a
// cross-core read when its local cache says the ring might be full or
// empty.
//
// Capacity is chosen so the largest bucket this mailbox will ever carry
// always fits — since a bucket here is a single Go value, not a run of
// raw bytes, "largest bucket" just means "ring never needs more than one
// slot per message"; roundToPow2 still applies to sizing, to follow the
// cache-line-slot contract.
type ring struct {
	_          pad
	head       atomix.Uint64 // consumer reads from here
	_          pad
	cachedTail uint64
	_          pad
	tail       atomix.Uint64 // producer writes here
	_          pad
	cachedHead uint64
	_          pad
	buffer     []bucket
	mask       uint64
}

func newRing(capacity int) *ring {
	if capacity < 2 {
		capacity = 2
	}
	n := uint64(roundToPow2(capacity))
	return &ring{
		buffer: make([]bucket, n),
		mask:   n - 1,
	}
}

// enqueue adds a bucket to the ring (producer only). Returns false if the
// ring is full — backpressure the caller must retry on a later tick.
func (r *ring) enqueue(b *bucket) bool {
	tail := r.tail.LoadRelaxed()
	if tail-r.cachedHead > r.mask {
		r.cachedHead = r.head.LoadAcquire()
		if tail-r.cachedHead > r.mask {
			return false
		}
	}
	r.buffer[tail&r.mask] = *b
	r.tail.StoreRelease(tail + 1)
	return true
}

// dequeue removes and returns a bucket (consumer only).
func (r *ring) dequeue() (bucket, bool) {
	head := r.head.LoadRelaxed()
	if head >= r.cachedTail {
		r.cachedTail = r.tail.LoadAcquire()
		if head >= r.cachedTail {
			return bucket{}, false
		}
	}
	b := r.buffer[head&r.mask]
	r.buffer[head&r.mask] = bucket{}
	r.head.StoreRelease(head + 1)
	return b, true
}

// drain calls fn once per bucket currently published, up to max buckets,
// without copying more than the single dequeue already does. This is the
// package's equivalent of consume_all: it visits exactly the committed
// range [read, write) published by the producer and stops there, it
// never blocks, and it never re-delivers a bucket once fn has seen it.
func (r *ring) drain(max int, fn func(*bucket)) int {
	n := 0
	for n < max {
		b, ok := r.dequeue()
		if !ok {
			break
		}
		fn(&b)
		n++
	}
	return n
}

// cap returns the ring's slot capacity.
func (r *ring) cap() int { return int(r.mask + 1) }
