// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package demo wires a handful of toy actors on top of code.hybscloud.com/core
// to exercise the engine end to end: a registry service other workers
// discover via Require, a greeter that pings the registry once and then
// replies to GreetEvent, and a ticker that demonstrates a periodic
// callback and cross-worker Push.
package demo

import (
	"fmt"

	core "code.hybscloud.com/core"
	"code.hybscloud.com/core/internal/corelog"
)

// RegistryTag names the Registry service for Require/AddService.
type RegistryTag struct{}

// NewRegistry builds the factory CoreInitializer.AddService expects. A
// Registry service exists solely so other actors can discover it
// through the engine's broadcast + reply discovery path; it needs no
// handlers of its own beyond what Service[RegistryTag] installs.
func NewRegistry() func(core.ActorId) *core.Service[RegistryTag] {
	return func(id core.ActorId) *core.Service[RegistryTag] {
		return &core.Service[RegistryTag]{Actor: core.NewActor(id, "registry")}
	}
}

// GreetEvent asks a Greeter to say hello to Name.
type GreetEvent struct {
	Name string
}

// GreetedEvent is the reply to GreetEvent.
type GreetedEvent struct {
	Message string
}

// NewGreeter returns the factory CoreInitializer.AddActor expects.
// The returned actor replies to GreetEvent and, once on startup, calls
// Require to locate every live Registry on the engine.
func NewGreeter(log corelog.Sink) func(core.ActorId) core.ActorImpl {
	return func(id core.ActorId) core.ActorImpl {
		g := &greeterImpl{Actor: core.NewActor(id, "greeter"), log: log}
		core.RegisterEvent(&g.Actor, func(a *core.Actor, ev GreetEvent) {
			msg := fmt.Sprintf("hello, %s, from %s", ev.Name, a.Name())
			_ = core.Reply(a, GreetedEvent{Message: msg})
		})
		core.RegisterEvent(&g.Actor, func(a *core.Actor, ev core.RequireEvent) {
			core.RecordResponse[RegistryTag](a.Worker(), ev.Responder)
			log.Infof("greeter: registry %v responded to Require", ev.Responder)
		})
		return g
	}
}

type greeterImpl struct {
	core.Actor
	log corelog.Sink
}

func (g *greeterImpl) OnInit() bool {
	core.Require[RegistryTag](&g.Actor)
	return true
}

// Ticker demonstrates PeriodicCallback: once every `every` ticks it
// greets a configured peer actor with a cross-worker Push.
type tickerImpl struct {
	core.Actor
	peer   core.ActorId
	every  uint64
	log    corelog.Sink
	greets uint64
}

// NewTicker returns the factory CoreInitializer.AddActor expects. peer
// is usually a Greeter living on another worker, to exercise the
// ordered outbound pipe and the mailbox's per-producer ring.
func NewTicker(peer core.ActorId, every uint64, log corelog.Sink) func(core.ActorId) core.ActorImpl {
	return func(id core.ActorId) core.ActorImpl {
		t := &tickerImpl{Actor: core.NewActor(id, "ticker"), peer: peer, every: every, log: log}
		core.RegisterEvent(&t.Actor, func(a *core.Actor, ev GreetedEvent) {
			log.Infof("ticker: %s", ev.Message)
		})
		return t
	}
}

func (t *tickerImpl) OnCallback(tick uint64) {
	if t.every == 0 || tick%t.every != 0 {
		return
	}
	t.greets++
	_ = core.Push(&t.Actor, t.peer, GreetEvent{Name: fmt.Sprintf("tick-%d", t.greets)})
}
