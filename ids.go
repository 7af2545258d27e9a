// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"reflect"
	"sync"

	"code.hybscloud.com/atomix"
)

// MaxWorkers bounds the number of virtual cores a single Engine can host.
const MaxWorkers = 256

// WorkerId identifies a worker thread (virtual core). Valid values are
// [0, MaxWorkers).
type WorkerId uint16

// BroadcastWorker is the reserved WorkerId encoding of "every worker".
// It is never used to index a concrete mailbox or pipe: Broadcast
// expands a fan-out event into one concrete-WorkerId push per worker on
// the sender side, so routing code never has to special-case it.
// It exists so ActorId can name the concept without a separate type.
const BroadcastWorker WorkerId = 0xFFFF

// SlotId is an actor slot, unique within its owning worker.
type SlotId uint16

// BroadcastSlot is the reserved SlotId meaning "every actor on the
// worker". A dispatcher seeing this slot fans out to every alive actor
// on the worker whose handler table contains the event's TypeId.
const BroadcastSlot SlotId = 0xFFFF

// serviceSlotEnd is the exclusive upper bound of the reserved slot range
// handed out to services at registration time. Regular actors draw slot
// ids from a counter starting at serviceSlotEnd.
const serviceSlotEnd SlotId = 4096

// ActorId addresses a single actor (or, with a broadcast slot, a set of
// actors) as a packed (WorkerId, SlotId) pair. The zero value (0,0) means
// "not found / invalid" per the data model.
type ActorId uint32

// InvalidActorId is the (0,0) sentinel meaning "not found".
const InvalidActorId ActorId = 0

// NewActorId packs a worker and slot into an ActorId.
func NewActorId(w WorkerId, s SlotId) ActorId {
	return ActorId(uint32(w)<<16 | uint32(s))
}

// Worker returns the worker half of the id.
func (a ActorId) Worker() WorkerId { return WorkerId(a >> 16) }

// Slot returns the slot half of the id.
func (a ActorId) Slot() SlotId { return SlotId(a & 0xFFFF) }

// IsBroadcast reports whether a addresses every actor on its worker.
func (a ActorId) IsBroadcast() bool { return a.Slot() == BroadcastSlot }

// IsValid reports whether a is not the (0,0) sentinel.
func (a ActorId) IsValid() bool { return a != InvalidActorId }

// BroadcastTo returns the ActorId that fans out to every actor on w.
func BroadcastTo(w WorkerId) ActorId { return NewActorId(w, BroadcastSlot) }

// TypeId stably identifies a concrete event or actor type for handler
// lookup and type-tagged discovery. Go has no compile-time type tokens,
// so TypeId is assigned the first time a type is observed and cached for
// the lifetime of the process — equality is the only operation handler
// lookup and discovery ever need from it.
type TypeId uint64

var (
	typeIDs       sync.Map // reflect.Type -> TypeId
	typeIDCounter atomix.Uint64
)

// typeIDFor returns the stable TypeId for E, assigning one on first use.
func typeIDFor[E any]() TypeId {
	t := reflect.TypeFor[E]()
	if id, ok := typeIDs.Load(t); ok {
		return id.(TypeId)
	}
	id := TypeId(typeIDCounter.AddAcqRel(1))
	actual, _ := typeIDs.LoadOrStore(t, id)
	return actual.(TypeId)
}
