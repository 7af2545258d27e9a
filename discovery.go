// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"
)

// DiscoveryStatus is the liveness a RequireEvent reports.
type DiscoveryStatus uint8

const StatusAlive DiscoveryStatus = 1

// PingEvent is broadcast by Require to every worker. A live service
// whose static tag matches TypeID replies with a RequireEvent.
type PingEvent struct {
	TypeID    TypeId
	Requester ActorId
}

// RequireEvent is the reply a service sends back to a PingEvent. The
// requester accumulates one per live service of the requested type —
// discovery is ordinary broadcast + reply, with no privileged path.
type RequireEvent struct {
	TypeID    TypeId
	Status    DiscoveryStatus
	Responder ActorId
}

var errNoResponders = errors.New("core: no responders observed yet")

// discoveryCacheSize bounds the LRU of TypeId -> known responders kept
// per worker.
const discoveryCacheSize = 256

// discoveryCache de-duplicates repeated Require calls for the same
// TypeId: an LRU remembers the last known responders so a hot requester
// doesn't have to wait a full round trip every call, and a circuit
// breaker per TypeId stops re-broadcasting once a run of calls has seen
// no responders at all, until the breaker's cooldown lets one probe
// through again.
type discoveryCache struct {
	mu       sync.Mutex
	seen     *lru.Cache[TypeId, []ActorId]
	breakers map[TypeId]*gobreaker.CircuitBreaker
}

func newDiscoveryCache() *discoveryCache {
	seen, _ := lru.New[TypeId, []ActorId](discoveryCacheSize)
	return &discoveryCache{
		seen:     seen,
		breakers: make(map[TypeId]*gobreaker.CircuitBreaker),
	}
}

// recordResponse is called from the requester's RequireEvent handler so
// the cache reflects actual observed replies.
func (d *discoveryCache) recordResponse(t TypeId, responder ActorId) {
	d.mu.Lock()
	defer d.mu.Unlock()
	existing, _ := d.seen.Get(t)
	for _, id := range existing {
		if id == responder {
			return
		}
	}
	d.seen.Add(t, append(existing, responder))
}

// shouldBroadcast reports whether Require should actually broadcast a
// PingEvent for t, or rely on the circuit breaker's short-circuited
// result because recent broadcasts have gone unanswered.
func (d *discoveryCache) shouldBroadcast(t TypeId) bool {
	d.mu.Lock()
	cb, ok := d.breakers[t]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: fmt.Sprintf("require-%d", t),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		})
		d.breakers[t] = cb
	}
	_, hasResponders := d.seen.Get(t)
	d.mu.Unlock()

	_, err := cb.Execute(func() (interface{}, error) {
		if hasResponders {
			return nil, nil
		}
		return nil, errNoResponders
	})
	return err == nil || cb.State() != gobreaker.StateOpen
}

// RecordResponse feeds an observed RequireEvent back into the worker's
// discovery cache. A requester wires this into its own RequireEvent
// handler:
//
//	core.RegisterEvent(&a.Actor, func(a *core.Actor, ev core.RequireEvent) {
//	    core.RecordResponse[Registry](a.Worker(), ev.Responder)
//	})
func RecordResponse[A any](w *Worker, responder ActorId) {
	w.discovery.recordResponse(typeIDFor[A](), responder)
}

// Known returns the most recently observed responders for type A,
// without triggering a new broadcast.
func Known[A any](w *Worker) []ActorId {
	ids, _ := w.discovery.seen.Get(typeIDFor[A]())
	return ids
}
