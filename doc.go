// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package core is an in-process actor runtime for latency-sensitive
// servers.
//
// Work is partitioned across a fixed set of workers ("virtual cores"),
// each running on its own goroutine. An actor is permanently bound to the
// worker it was created on and talks to every other actor exclusively by
// asynchronous message passing: a handler runs to completion and never
// blocks, suspends, or touches another actor's state directly.
//
// # Quick Start
//
//	eng := core.NewEngine(2)
//	eng.Core(0).SetLatency(0) // busy-spin worker, lowest latency
//	eng.Core(1).SetLatency(200 * time.Microsecond)
//
//	var ping core.ActorId
//	eng.Core(0).AddActor(func(id core.ActorId) core.ActorImpl {
//		a := &Pinger{}
//		a.Actor = core.NewActor(id, "pinger")
//		return a
//	})
//
//	if err := eng.Start(); err != nil {
//		log.Fatal(err)
//	}
//	eng.Stop()
//	if eng.Join() {
//		log.Fatal("a worker reported an error")
//	}
//
// # Messaging
//
// Actors never call each other's methods. Instead they exchange typed
// events through the engine:
//
//	core.Push(&a.Actor, dest, Tick{N: 42})   // ordered, per (source,dest)
//	core.Send(&a.Actor, dest, Ping{})         // unordered fast path
//	core.Reply(&a.Actor, Pong{N: 42})         // swap source/dest, re-enqueue
//	core.Broadcast(&a.Actor, ShutdownTick{})  // fan out to every worker
//
// # What this package is not
//
// It does not do I/O. Transports, protocol parsers, compression, and
// cryptography are external collaborators that are expected to run as
// ordinary actors built on top of this package (see cmd/coredemo for a
// small demo application built from ordinary actors). It does not cluster across
// processes, migrate actors between workers, or preempt a running
// handler.
package core
