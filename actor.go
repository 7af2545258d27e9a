// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import "code.hybscloud.com/atomix"

// handlerThunk casts a bucket's payload to the concrete event type and
// invokes the actor's method. It is the Go substitute for the original's
// TypeId -> Box<dyn Fn(bucket_ptr)> table: reflection supplies the
// TypeId, a closure captured at RegisterEvent time supplies the cast, and
// nothing here relies on runtime type identification of the payload
// beyond the map lookup already required to find the thunk.
type handlerThunk func(a *Actor, b *bucket)

// Initializer is implemented by actor types that need to run setup logic
// once their slot is assigned. OnInit returning false destroys the actor
// immediately — during the configuration phase this aborts the whole
// engine start; at runtime (AddRefActor) it yields a nil reference to
// the caller.
type Initializer interface {
	OnInit() bool
}

// PeriodicCallback is implemented by actor types that want to run once
// per worker tick, in registration order, after the mailbox is drained.
type PeriodicCallback interface {
	OnCallback(tick uint64)
}

// ActorImpl is any user actor type. Base exposes the embedded Actor so
// the worker can reach identity, lifecycle and the handler table without
// the user type needing to re-export them. Actor.Base returns itself, so
// embedding core.Actor by value satisfies this for free — the same
// promoted-method pattern used elsewhere for optional-interface checks
// (`if d, ok := q.(Drainer); ok`).
type ActorImpl interface {
	Base() *Actor
}

// Actor is the base every user actor type embeds. It carries identity,
// the handler table, lifecycle state, and the non-owning back-reference
// to the worker it was created on — valid for the actor's entire
// lifetime because the worker always outlives the actors it owns.
type Actor struct {
	id       ActorId
	name     string
	alive    atomix.Bool
	handlers map[TypeId]handlerThunk
	worker   *Worker
	current  *bucket // the inbound bucket being dispatched, for reply/forward
}

// NewActor constructs the embeddable base for a user actor type. Callers
// use it inside the factory passed to CoreInitializer.AddActor /
// Worker.AddRefActor.
func NewActor(id ActorId, name string) Actor {
	a := Actor{
		id:       id,
		name:     name,
		handlers: make(map[TypeId]handlerThunk),
	}
	a.alive.StoreRelease(true)
	RegisterEvent(&a, func(a *Actor, _ KillEvent) { a.Kill() })
	return a
}

// Base implements ActorImpl.
func (a *Actor) Base() *Actor { return a }

// ID returns the actor's address.
func (a *Actor) ID() ActorId { return a.id }

// Name returns the actor's human-readable name.
func (a *Actor) Name() string { return a.name }

// Alive reports whether the actor is still live (kill() not yet called).
func (a *Actor) Alive() bool { return a.alive.LoadAcquire() }

// Worker returns the worker this actor is bound to.
func (a *Actor) Worker() *Worker { return a.worker }

// KillEvent is broadcast to every actor on a worker when shutdown is
// requested. The default handler, registered for every actor in
// NewActor, simply calls Kill.
type KillEvent struct{}

// RegisterEvent installs a handler for event type E on actor a.
func RegisterEvent[E any](a *Actor, fn func(*Actor, E)) {
	tid := typeIDFor[E]()
	a.handlers[tid] = func(actor *Actor, b *bucket) {
		ev, _ := b.payload.(E)
		fn(actor, ev)
	}
}

// UnregisterEvent removes the handler for event type E, if any.
func UnregisterEvent[E any](a *Actor) {
	delete(a.handlers, typeIDFor[E]())
}

// Push constructs an event in the outbound pipe for dest's worker and
// returns once it is staged. Pushes from the same actor to the same
// destination are delivered in the order they were sent — FIFO per
// (source, destination) — including across workers.
func Push[E any](a *Actor, dest ActorId, ev E) error {
	b := newBucket(typeIDFor[E](), a.id, dest, QoSNormal, ev)
	return a.worker.stageOutbound(dest, b, true)
}

// Send is like Push but is not ordered with respect to Push calls from
// the same actor: it is the fire-and-forget fast path for events the
// spec describes as "trivially destructible", i.e. events with no
// finalization needs beyond letting the GC reclaim them.
func Send[E any](a *Actor, dest ActorId, ev E) error {
	b := newBucket(typeIDFor[E](), a.id, dest, QoSBestEffort, ev)
	return a.worker.stageOutbound(dest, b, false)
}

// Reply swaps source/dest on the event currently being dispatched and
// re-enqueues ev to the original sender, marking the inbound bucket
// consumed so a second Reply/Forward on it is refused. Calling
// Reply outside a handler, or calling it twice for the same inbound
// event, returns an error — the debug check the design notes call for.
func Reply[E any](a *Actor, ev E) error {
	b := a.current
	if b == nil {
		return ErrNoCurrentEvent
	}
	if b.consumed {
		return ErrAlreadyConsumed
	}
	b.consumed = true
	nb := newBucket(typeIDFor[E](), a.id, b.header.Source, b.header.QoS, ev)
	return a.worker.stageOutbound(nb.header.Dest, nb, true)
}

// Forward sets dest = newDest on the event currently being dispatched
// while preserving its original source, and re-enqueues it. Like Reply,
// it consumes the inbound bucket.
func Forward[E any](a *Actor, newDest ActorId, ev E) error {
	b := a.current
	if b == nil {
		return ErrNoCurrentEvent
	}
	if b.consumed {
		return ErrAlreadyConsumed
	}
	b.consumed = true
	nb := newBucket(typeIDFor[E](), b.header.Source, newDest, b.header.QoS, ev)
	return a.worker.stageOutbound(newDest, nb, true)
}

// PushService constructs a ServiceEvent carrying body and pushes it to
// dest, with Forward set to a's own id so whatever handles it can route
// an acknowledgement back via ServiceEvent.Received.
func PushService[B any](a *Actor, dest ActorId, serviceEventID uint64, body B) error {
	return Push(a, dest, ServiceEvent{Forward: a.id, ServiceEventID: serviceEventID, Body: body})
}

// Received swaps identifiers on the inbound ServiceEvent: the event's
// own Forward id becomes the destination of the acknowledgement — the
// original requester — while the acknowledgement's new Forward becomes a
// itself, so a further Received call downstream would bounce back to
// whichever actor last handled it. It re-enqueues the same way Reply
// does. Calling Received outside a handler, or twice for the same
// inbound event, returns an error.
func (s ServiceEvent) Received(a *Actor) error {
	b := a.current
	if b == nil {
		return ErrNoCurrentEvent
	}
	if b.consumed {
		return ErrAlreadyConsumed
	}
	b.consumed = true
	dest := s.Forward
	ack := ServiceEvent{Forward: a.id, ServiceEventID: s.ServiceEventID, Body: s.Body}
	return a.worker.stageOutbound(dest, newBucket(typeIDFor[ServiceEvent](), a.id, dest, b.header.QoS, ack), true)
}

// Broadcast enqueues ev once per worker, addressed to that worker's
// broadcast slot. On the consuming side each worker's dispatcher fans
// the single bucket out to every alive local actor whose handler table
// contains E's TypeId.
func Broadcast[E any](a *Actor, ev E) {
	for w := WorkerId(0); w < WorkerId(len(a.worker.engine.workers)); w++ {
		_ = Push(a, BroadcastTo(w), ev)
	}
}

// Kill marks the actor dead and asks its worker to schedule removal. The
// actor keeps receiving events dispatched during the tick kill() was
// called in; it is destructed once the worker's removal pass runs.
func (a *Actor) Kill() {
	if a.alive.CompareAndSwapAcqRel(true, false) {
		a.worker.scheduleRemoval(a.id.Slot())
	}
}

// AddRefActor creates a new actor on the same worker as a, running its
// OnInit synchronously. It returns nil if OnInit returns false. The
// returned value is a non-owning reference: the child actor controls its
// own lifetime via Kill, the same as any other actor.
func AddRefActor[A ActorImpl](a *Actor, factory func(id ActorId) A) A {
	return addActorRuntime(a.worker, factory)
}

// Require broadcasts a PingEvent tagged with A's TypeId; live services
// of that type reply with a RequireEvent{TypeID, StatusAlive}. See
// discovery.go for the caching/circuit-breaker layer built on top of
// this primitive.
func Require[A any](a *Actor) {
	tid := typeIDFor[A]()
	if !a.worker.discovery.shouldBroadcast(tid) {
		return
	}
	Broadcast(a, PingEvent{TypeID: tid, Requester: a.id})
}
