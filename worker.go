// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"io"
	"runtime"
	"time"

	"code.hybscloud.com/atomix"
	"golang.org/x/sys/unix"

	"code.hybscloud.com/core/internal/corelog"
)

// defaultRingCapacity is the per-producer ring size inside a mailbox. It
// rounds up to a power of 2; a much smaller capacity can be used in
// tests to provoke backpressure explicitly.
const defaultRingCapacity = 4096

// ringDrainBudget bounds how many buckets a single mailbox.drain call
// takes from one ring per tick, so one noisy producer cannot starve the
// others within a tick.
const ringDrainBudget = 1024

// backpressureLogThreshold is how many consecutive ticks a peer's
// mailbox must stay full, for one of this worker's outbound pipes,
// before the sustained backpressure is logged. A single full tick is
// normal jitter; a run this long means the peer cannot keep up.
const backpressureLogThreshold = 8

// Worker is a virtual core: a single goroutine that owns a set of
// actors and runs the cooperative drain/callback/flush/removal loop
// (see tick). Nothing outside this goroutine ever reads or
// writes Worker.actors, Worker.callbackOrder or an owned actor's state.
type Worker struct {
	id     WorkerId
	engine *Engine

	mailbox         *mailbox
	outboundOrdered []*pipe // dense-indexed by denseIndex(id, target)
	outboundFast    []*pipe
	localQueue      []*bucket // same-worker push/send/reply/forward/broadcast

	actors          map[SlotId]ActorImpl
	callbackOrder   []SlotId
	pendingRemoval  map[SlotId]struct{}
	freeSlots       []SlotId
	nextSlot        SlotId
	nextServiceSlot SlotId
	serviceSlots    map[TypeId]SlotId

	discovery *discoveryCache

	clock *tickClock
	tick  uint64

	affinity []int
	latency  time.Duration

	// backpressureStreak/backpressureLogged are dense-indexed by
	// denseIndex(id, target), tracking how many consecutive ticks a
	// peer's mailbox has stayed full for each outbound pipe.
	backpressureStreak []int
	backpressureLogged []bool

	errBits    atomix.Uint32
	lost       atomix.Uint64
	dispatched atomix.Uint64

	killSent bool

	log corelog.Sink
}

func newWorker(id WorkerId, e *Engine) *Worker {
	return &Worker{
		id:              id,
		engine:          e,
		actors:          make(map[SlotId]ActorImpl),
		pendingRemoval:  make(map[SlotId]struct{}),
		serviceSlots:    make(map[TypeId]SlotId),
		nextSlot:        serviceSlotEnd,
		nextServiceSlot: 1,
		discovery:       newDiscoveryCache(),
		clock:           newTickClock(),
		latency:         200 * time.Microsecond,
		log:             corelog.Noop(),
	}
}

// ID returns this worker's id.
func (w *Worker) ID() WorkerId { return w.id }

// Now returns the timestamp cached at the start of the current tick.
func (w *Worker) Now() time.Time { return w.clock.now() }

// Lost returns the number of dispatched-to-unknown-destination events.
func (w *Worker) Lost() uint64 { return w.lost.LoadAcquire() }

// Dispatched returns the number of successfully dispatched events.
func (w *Worker) Dispatched() uint64 { return w.dispatched.LoadAcquire() }

// ErrorBits returns the worker's accumulated error bitmask.
func (w *Worker) ErrorBits() uint32 { return w.errBits.LoadAcquire() }

func (w *Worker) setErrorBit(bit uint32) {
	for {
		cur := w.errBits.LoadAcquire()
		if w.errBits.CompareAndSwapAcqRel(cur, cur|bit) {
			return
		}
	}
}

func (w *Worker) applyAffinity() {
	if len(w.affinity) == 0 {
		return
	}
	var set unix.CPUSet
	for _, cpu := range w.affinity {
		set.Set(cpu)
	}
	runtime.LockOSThread()
	_ = unix.SchedSetaffinity(0, &set)
}

// denseIndex maps a peer worker id to this worker's stable ring/pipe
// index, excluding the owner itself from the numbering. It is used both
// for a worker's own outbound-pipe bookkeeping and, crucially, for the
// producer index a source worker presents to a destination's mailbox —
// both sides compute it the same way from the destination's id, so it
// stays stable for the lifetime of the engine, which a per-producer ring
// design requires.
func denseIndex(owner, other WorkerId) int {
	if other < owner {
		return int(other)
	}
	return int(other) - 1
}

func (w *Worker) buildPipes(workerCount int) {
	w.outboundOrdered = make([]*pipe, workerCount-1)
	w.outboundFast = make([]*pipe, workerCount-1)
	w.backpressureStreak = make([]int, workerCount-1)
	w.backpressureLogged = make([]bool, workerCount-1)
	for i := range w.outboundOrdered {
		w.outboundOrdered[i] = &pipe{}
		w.outboundFast[i] = &pipe{}
	}
}

// stageOutbound is the routing decision every Push/Send/Reply/Forward
// goes through: same-worker destinations skip the pipe/mailbox round
// trip entirely and land in localQueue for the next drain pass; other
// destinations are staged in the ordered or fast pipe for dest's worker.
func (w *Worker) stageOutbound(dest ActorId, b *bucket, ordered bool) error {
	target := dest.Worker()
	if target == w.id {
		w.localQueue = append(w.localQueue, b)
		return nil
	}
	if int(target) >= len(w.engine.workers) {
		return ErrUnknownWorker
	}
	idx := denseIndex(w.id, target)
	if ordered {
		w.outboundOrdered[idx].push(b)
	} else {
		w.outboundFast[idx].push(b)
	}
	return nil
}

func (w *Worker) scheduleRemoval(slot SlotId) {
	w.pendingRemoval[slot] = struct{}{}
}

// tick runs one iteration of the drain/callback/flush/removal loop and
// reports whether any
// step made progress, so run() knows whether to call mailbox.wait().
func (w *Worker) tick() bool {
	w.tick++
	w.clock.refresh()
	activity := false

	// Step 2: drain own mailbox plus same-worker local deliveries.
	local := w.localQueue
	w.localQueue = nil
	for i := range local {
		w.dispatch(local[i])
		activity = true
	}
	n := w.mailbox.drain(ringDrainBudget, func(b *bucket) { w.dispatch(b) })
	if n > 0 {
		activity = true
	}

	// Step 3: periodic callbacks, in registration order.
	for _, slot := range w.callbackOrder {
		impl, ok := w.actors[slot]
		if !ok {
			continue
		}
		if cb, ok := impl.(PeriodicCallback); ok {
			w.runGuarded(func() { cb.OnCallback(w.tick) })
			activity = true
		}
	}

	// Step 4: flush outbound pipes into peer mailboxes.
	if w.flushAll() {
		activity = true
	}

	// Step 5: process pending removals.
	if w.processRemovals() {
		activity = true
	}

	return activity
}

func (w *Worker) runGuarded(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.setErrorBit(ErrBitExceptionThrown)
			w.log.Errorf("worker %d: recovered panic: %v", w.id, r)
		}
	}()
	fn()
}

func (w *Worker) dispatch(b *bucket) {
	dest := b.header.Dest
	if dest.Slot() == BroadcastSlot {
		for _, impl := range w.actors {
			w.dispatchTo(impl, b)
		}
		return
	}
	impl, ok := w.actors[dest.Slot()]
	if !ok {
		n := w.lost.AddAcqRel(1)
		w.setErrorBit(ErrBitUnknownDestError)
		w.log.Warnf("worker %d: dropped event for unknown actor %v (lost=%d)", w.id, dest, n)
		return
	}
	w.dispatchTo(impl, b)
}

func (w *Worker) dispatchTo(impl ActorImpl, b *bucket) {
	base := impl.Base()
	if !base.alive.LoadAcquire() && b.header.Dest.IsBroadcast() {
		return // broadcast fan-out reaches only alive actors
	}
	h, ok := base.handlers[b.header.TypeID]
	if !ok {
		return // unhandled: drop silently
	}
	w.runGuarded(func() {
		base.current = b
		h(base, b)
		base.current = nil
	})
	w.dispatched.AddAcqRel(1)
}

func (w *Worker) flushAll() bool {
	activity := false
	for wid := 0; wid < len(w.engine.workers); wid++ {
		target := WorkerId(wid)
		if target == w.id {
			continue
		}
		idx := denseIndex(w.id, target)
		peerMailbox := w.engine.workers[target].mailbox
		producerIdx := denseIndex(target, w.id)

		blocked := false
		for _, pl := range []*pipe{w.outboundOrdered[idx], w.outboundFast[idx]} {
			for {
				b, ok := pl.front()
				if !ok {
					break
				}
				if !peerMailbox.enqueue(producerIdx, b) {
					blocked = true
					break // peer ring full; retry next tick
				}
				pl.advance()
				activity = true
			}
		}
		w.trackBackpressure(idx, target, blocked)
	}
	return activity
}

// trackBackpressure records whether this tick's flush to target was
// blocked by a full peer mailbox, logging once a run of consecutive
// blocked ticks crosses backpressureLogThreshold. The streak resets,
// and the log latch clears, the moment a flush to that peer succeeds.
func (w *Worker) trackBackpressure(idx int, target WorkerId, blocked bool) {
	if !blocked {
		w.backpressureStreak[idx] = 0
		w.backpressureLogged[idx] = false
		return
	}
	w.backpressureStreak[idx]++
	if w.backpressureStreak[idx] >= backpressureLogThreshold && !w.backpressureLogged[idx] {
		w.backpressureLogged[idx] = true
		w.log.Warnf("worker %d: backpressure to worker %d sustained for %d ticks",
			w.id, target, w.backpressureStreak[idx])
	}
}

func (w *Worker) processRemovals() bool {
	if len(w.pendingRemoval) == 0 {
		return false
	}
	for slot := range w.pendingRemoval {
		if impl, ok := w.actors[slot]; ok {
			if c, ok := impl.(io.Closer); ok {
				_ = c.Close()
			}
			delete(w.actors, slot)
		}
		w.removeFromCallbackOrder(slot)
		delete(w.pendingRemoval, slot)
		if slot >= serviceSlotEnd {
			w.freeSlots = append(w.freeSlots, slot)
		}
	}
	return true
}

func (w *Worker) removeFromCallbackOrder(slot SlotId) {
	for i, s := range w.callbackOrder {
		if s == slot {
			w.callbackOrder = append(w.callbackOrder[:i], w.callbackOrder[i+1:]...)
			return
		}
	}
}

// idle reports whether the worker has no actors and nothing pending
// removal — the condition, combined with a requested shutdown, that
// ends the run loop.
func (w *Worker) idle() bool {
	return len(w.actors) == 0 && len(w.pendingRemoval) == 0
}

func (w *Worker) broadcastKill() {
	for _, impl := range w.actors {
		base := impl.Base()
		w.dispatchTo(impl, newBucket(typeIDFor[KillEvent](), InvalidActorId, base.id, QoSGuaranteed, KillEvent{}))
	}
}

// run executes the Running/Draining phases of the worker lifecycle
// until shutdown and an empty actor set coincide.
func (w *Worker) run(sd *shutdownFlag) {
	defer w.clock.stop()
	for {
		if sd.isSet() && !w.killSent && len(w.actors) > 0 {
			w.broadcastKill()
			w.killSent = true
		}
		activity := w.tick()
		if sd.isSet() && w.idle() {
			break
		}
		if !activity {
			w.mailbox.wait()
		}
	}
}

// nextActorSlot allocates a regular-actor slot id from the free list or
// the monotonically increasing counter above the reserved service range.
func (w *Worker) nextActorSlot() SlotId {
	if n := len(w.freeSlots); n > 0 {
		s := w.freeSlots[n-1]
		w.freeSlots = w.freeSlots[:n-1]
		return s
	}
	s := w.nextSlot
	w.nextSlot++
	return s
}

func (w *Worker) allocateActor(factory func(ActorId) ActorImpl) ActorImpl {
	slot := w.nextActorSlot()
	id := NewActorId(w.id, slot)
	impl := factory(id)
	base := impl.Base()
	base.worker = w
	w.actors[slot] = impl
	if _, ok := impl.(PeriodicCallback); ok {
		w.callbackOrder = append(w.callbackOrder, slot)
	}
	return impl
}

func (w *Worker) deallocateActor(slot SlotId) {
	delete(w.actors, slot)
	w.removeFromCallbackOrder(slot)
	if slot >= serviceSlotEnd {
		w.freeSlots = append(w.freeSlots, slot)
	}
}

// initConfiguredActors runs OnInit for every actor added during the
// configuration phase, in map iteration order (not allocation order).
// The first failure stops the pass: it removes only the failing actor,
// sets ErrBitActorInitFailed and returns ErrInitFailed. The actors that
// remain are torn down by Engine.Start through destroyConfigured.
func (w *Worker) initConfiguredActors() error {
	for slot, impl := range w.actors {
		if init, ok := impl.(Initializer); ok {
			if !init.OnInit() {
				w.deallocateActor(slot)
				w.setErrorBit(ErrBitActorInitFailed)
				return ErrInitFailed
			}
		}
	}
	return nil
}

// destroyConfigured tears down every actor configured on this worker
// before Start, used when a peer worker's initialization failed and the
// whole engine start must be unwound.
func (w *Worker) destroyConfigured() {
	for slot, impl := range w.actors {
		if c, ok := impl.(io.Closer); ok {
			_ = c.Close()
		}
		delete(w.actors, slot)
	}
	w.callbackOrder = nil
	w.pendingRemoval = make(map[SlotId]struct{})
}

// addActorRuntime implements AddRefActor: create a new actor on w,
// running OnInit synchronously, returning the zero value of A if
// OnInit returns false.
func addActorRuntime[A ActorImpl](w *Worker, factory func(ActorId) A) A {
	var concrete A
	impl := w.allocateActor(func(id ActorId) ActorImpl {
		concrete = factory(id)
		return concrete
	})
	if init, ok := impl.(Initializer); ok {
		if !init.OnInit() {
			w.deallocateActor(impl.Base().id.Slot())
			w.setErrorBit(ErrBitActorInitFailed)
			var zero A
			return zero
		}
	}
	return concrete
}
