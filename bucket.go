// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

// QoS is the delivery class of an event bucket. The value itself carries
// no behavior in this package — it is passed through unchanged so an
// external transport (the I/O reactor) can map its own priority
// classes onto it.
type QoS uint8

const (
	QoSBestEffort QoS = iota
	QoSNormal
	QoSGuaranteed
)

// protocolMagic is the bucket header's reserved protocol tag. It has no
// meaning inside this package; it exists so a future wire-level consumer
// of a bucket (e.g. a transport actor serializing it off-process) can
// sanity-check that it is looking at a bucket and not arbitrary memory —
// the same role qb's BucketHeader magic field plays in the original.
const protocolMagic uint16 = 0x6271 // "qb" in ASCII, kept for lineage

// bucketHeader is the fixed part of an event bucket: everything the
// dispatcher needs to route and account for a message without inspecting
// its payload.
//
// The C++ original lays the header out immediately before a raw byte
// payload inside one recycled cache-line-aligned allocation, because it
// has no garbage collector and must manage that memory itself. Go
// already has a GC-managed, reference-counted home for variable-sized
// payloads — a plain interface value — so this package keeps the header
// but lets BucketCount be informational bookkeeping rather than a
// slot-count the ring has to split allocations over; see ring.go and
// the bucket.go entry in DESIGN.md for the full rationale.
type bucketHeader struct {
	Alive       bool
	QoS         QoS
	Magic       uint16
	BucketCount uint16 // cache-line units; always 1 under this adaptation
	TypeID      TypeId
	Dest        ActorId
	Source      ActorId
}

// bucket is the in-flight unit of delivery: a header plus its payload.
// Once enqueued into a mailbox ring, a bucket's header fields are
// immutable until the consuming worker dispatches it — the only writer
// after that point is the dispatching actor itself, via reply/forward,
// which is safe because dispatch is single-threaded per worker.
type bucket struct {
	header   bucketHeader
	payload  any
	consumed bool // set by reply/forward/Received so a second call on the same bucket fails
}

func newBucket(typeID TypeId, source, dest ActorId, qos QoS, payload any) *bucket {
	return &bucket{
		header: bucketHeader{
			Alive:       true,
			QoS:         qos,
			Magic:       protocolMagic,
			BucketCount: 1,
			TypeID:      typeID,
			Dest:        dest,
			Source:      source,
		},
		payload: payload,
	}
}

// ServiceEvent extends a plain event with the (forward, service_event_id)
// pair used for request/response service patterns. A service actor's
// handler receives the ServiceEvent as its payload type and calls
// Received to swap identifiers before replying, so the original
// requester becomes the destination of the acknowledgement. See
// Received for the swap itself.
type ServiceEvent struct {
	Forward        ActorId
	ServiceEventID uint64
	Body           any
}
