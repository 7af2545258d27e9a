// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

// pipe is a per-(source worker, target worker) FIFO of buckets staged
// for flush. It holds the slot-level equivalent of the C++
// original's growable byte buffer: writes only append at the tail, reads
// only consume from the head, and a bucket is either entirely staged or
// not staged at all — there is no partial write to observe.
//
// Where the original grows/compacts a raw byte arena, this pipe grows a
// []*bucket and compacts it by copying the undrained tail to the front
// once more than 256 buckets and more than half the slice are drained,
// which is the same amortized
// cost tradeoff applied to a slot-typed buffer instead of bytes.
type pipe struct {
	buf  []*bucket
	head int
}

// push appends a bucket at the tail (allocate_back + commit in one step,
// since a bucket here is already a fully constructed value).
func (p *pipe) push(b *bucket) {
	p.buf = append(p.buf, b)
}

// front returns the bucket at the head without removing it.
func (p *pipe) front() (*bucket, bool) {
	if p.head >= len(p.buf) {
		return nil, false
	}
	return p.buf[p.head], true
}

// advance drops the head bucket after it has been handed off to a
// mailbox ring, compacting the backing array once more than 256 buckets
// and more than half of it are drained so the pipe doesn't grow unboundedly under sustained
// one-way traffic.
func (p *pipe) advance() {
	p.head++
	if p.head > 256 && p.head*2 > len(p.buf) {
		p.compact()
	}
}

func (p *pipe) compact() {
	n := copy(p.buf, p.buf[p.head:])
	p.buf = p.buf[:n]
	p.head = 0
}

// empty reports whether every staged bucket has been flushed.
func (p *pipe) empty() bool { return p.head >= len(p.buf) }

// len reports the number of buckets still awaiting flush.
func (p *pipe) len() int { return len(p.buf) - p.head }
