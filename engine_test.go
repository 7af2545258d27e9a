// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// collectorActor appends every received event of type numberedEvent to a
// mutex-protected slice a test goroutine can poll safely. A test captures
// the concrete *collectorActor via its factory closure rather than
// reaching into a Worker's actor table directly — that table belongs
// entirely to the worker's own goroutine.
type collectorActor struct {
	Actor
	mu   sync.Mutex
	seen []int
}

func (c *collectorActor) record(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, n)
}

func (c *collectorActor) snapshot() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, len(c.seen))
	copy(out, c.seen)
	return out
}

type numberedEvent struct{ N int }

func newCollector(out **collectorActor) func(ActorId) ActorImpl {
	return func(id ActorId) ActorImpl {
		c := &collectorActor{Actor: NewActor(id, "collector")}
		RegisterEvent(&c.Actor, func(_ *Actor, ev numberedEvent) { c.record(ev.N) })
		*out = c
		return c
	}
}

// pushNSender pushes events [0, count) to Dest from OnInit — which runs
// on the owning worker's own goroutine before that worker's tick loop
// starts, so staging outbound events there never races with anything.
type pushNSender struct {
	Actor
	Dest  ActorId
	Count int
}

func (s *pushNSender) OnInit() bool {
	for i := 0; i < s.Count; i++ {
		_ = Push(&s.Actor, s.Dest, numberedEvent{N: i})
	}
	return true
}

func TestEngineStartAndGracefulShutdown(t *testing.T) {
	e := NewEngine(2)
	var c *collectorActor
	e.Core(0).AddActor(newCollector(&c))

	require.NoError(t, e.Start())
	e.Stop()
	hadError := e.Join()
	require.False(t, hadError)
}

func TestEnginePushIsFIFOPerSenderDestination(t *testing.T) {
	e := NewEngine(2)
	var collector *collectorActor
	collectorID := e.Core(1).AddActor(newCollector(&collector))

	const count = 200
	e.Core(0).AddActor(func(id ActorId) ActorImpl {
		return &pushNSender{Actor: NewActor(id, "sender"), Dest: collectorID, Count: count}
	})

	require.NoError(t, e.Start())
	defer func() {
		e.Stop()
		e.Join()
	}()

	require.Eventually(t, func() bool {
		return len(collector.snapshot()) == count
	}, 2*time.Second, time.Millisecond)

	got := collector.snapshot()
	for i := 0; i < count; i++ {
		require.Equal(t, i, got[i], "events must arrive in the order they were pushed")
	}
}

type broadcastTarget struct {
	Actor
	mu  sync.Mutex
	hit bool
}

func (b *broadcastTarget) mark() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hit = true
}

func (b *broadcastTarget) was() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hit
}

type pingEvent struct{}

func newBroadcastTarget(out **broadcastTarget) func(ActorId) ActorImpl {
	return func(id ActorId) ActorImpl {
		b := &broadcastTarget{Actor: NewActor(id, "target")}
		RegisterEvent(&b.Actor, func(_ *Actor, _ pingEvent) { b.mark() })
		*out = b
		return b
	}
}

// broadcaster calls Broadcast once from OnInit, for the same
// single-goroutine-before-barrier reason pushNSender does.
type broadcaster struct{ Actor }

func (s *broadcaster) OnInit() bool {
	Broadcast(&s.Actor, pingEvent{})
	return true
}

func TestEngineBroadcastReachesEveryWorker(t *testing.T) {
	e := NewEngine(3)
	var t0, t1, t2 *broadcastTarget
	e.Core(0).AddActor(newBroadcastTarget(&t0))
	e.Core(1).AddActor(newBroadcastTarget(&t1))
	e.Core(2).AddActor(newBroadcastTarget(&t2))

	e.Core(0).AddActor(func(id ActorId) ActorImpl {
		return &broadcaster{Actor: NewActor(id, "sender")}
	})

	require.NoError(t, e.Start())
	defer func() {
		e.Stop()
		e.Join()
	}()

	require.Eventually(t, func() bool {
		return t0.was() && t1.was() && t2.was()
	}, 2*time.Second, time.Millisecond)
}

func TestEngineInitFailureAbortsStart(t *testing.T) {
	e := NewEngine(2)
	var c *collectorActor
	e.Core(0).AddActor(newCollector(&c))
	e.Core(1).AddActor(func(id ActorId) ActorImpl {
		return &failingInit{Actor: NewActor(id, "failing")}
	})

	err := e.Start()
	require.ErrorIs(t, err, ErrInitFailed)
}

type failingInit struct{ Actor }

func (f *failingInit) OnInit() bool { return false }

// killerSender sends a KillEvent to Target from OnInit, exercising every
// actor's default KillEvent handler (registered in NewActor) rather than
// calling Kill() from outside the target's own worker goroutine.
type killerSender struct {
	Actor
	Target ActorId
}

func (k *killerSender) OnInit() bool {
	_ = Push(&k.Actor, k.Target, KillEvent{})
	return true
}

func TestNewEngineFromWorkerSetRemapsExternalIds(t *testing.T) {
	ws := NewWorkerSet(7, 3)
	e := NewEngineFromWorkerSet(ws)
	require.Equal(t, 2, len(e.Workers()))

	var c *collectorActor
	collectorID := e.Core(WorkerId(3)).AddActor(newCollector(&c))
	e.Core(WorkerId(7)).AddActor(func(id ActorId) ActorImpl {
		return &pushNSender{Actor: NewActor(id, "sender"), Dest: collectorID, Count: 5}
	})

	require.NoError(t, e.Start())
	defer func() {
		e.Stop()
		e.Join()
	}()

	require.Eventually(t, func() bool {
		return len(c.snapshot()) == 5
	}, 2*time.Second, time.Millisecond)
}

func TestEngineCorePanicsForIdNotInWorkerSet(t *testing.T) {
	e := NewEngineFromWorkerSet(NewWorkerSet(7, 3))
	require.Panics(t, func() { e.Core(WorkerId(99)) })
}

func TestSetAffinityRejectsOutOfRangeCPU(t *testing.T) {
	e := NewEngine(1)
	ci, err := e.Core(0).SetAffinity(1 << 20)
	require.ErrorIs(t, err, ErrInvalidAffinity)
	require.NotNil(t, ci)
}

func TestSetAffinityRejectsNegativeCPU(t *testing.T) {
	e := NewEngine(1)
	_, err := e.Core(0).SetAffinity(-1)
	require.ErrorIs(t, err, ErrInvalidAffinity)
}

func TestEngineKillMarksActorDead(t *testing.T) {
	e := NewEngine(1)
	var c *collectorActor
	id := e.Core(0).AddActor(newCollector(&c))
	e.Core(0).AddActor(func(aid ActorId) ActorImpl {
		return &killerSender{Actor: NewActor(aid, "killer"), Target: id}
	})

	require.NoError(t, e.Start())
	defer func() {
		e.Stop()
		e.Join()
	}()

	require.Eventually(t, func() bool {
		return !c.Alive()
	}, 2*time.Second, time.Millisecond)
}
