// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"code.hybscloud.com/core/internal/corelog"
)

// WorkerSet remaps a sparse, caller-chosen list of worker ids onto the
// dense [0, N) id space the engine actually uses internally — the Go
// equivalent of the original's CoreSet, which lets an application name
// its cores however it likes (e.g. to match physical CPU ids) without
// the engine having to support a sparse WorkerId range everywhere.
type WorkerSet struct {
	ids   []WorkerId
	index map[WorkerId]int
}

// NewWorkerSet builds a WorkerSet from a caller-chosen list of external
// worker ids, assigned dense ids [0, len(ids)) in the order given. Use
// NewEngineFromWorkerSet to build an Engine addressed through it.
func NewWorkerSet(ids ...WorkerId) WorkerSet {
	s := WorkerSet{ids: ids, index: make(map[WorkerId]int, len(ids))}
	for i, id := range ids {
		s.index[id] = i
	}
	return s
}

// Len returns the number of workers in the set.
func (s WorkerSet) Len() int { return len(s.ids) }

// Dense returns the dense [0, N) id assigned to external, and whether
// external is actually a member of the set.
func (s WorkerSet) Dense(external WorkerId) (WorkerId, bool) {
	i, ok := s.index[external]
	return WorkerId(i), ok
}

// Engine is the controller that builds workers, assigns affinity,
// handles signals, and runs the configuration -> start -> join lifecycle.
type Engine struct {
	id      uuid.UUID
	workers []*Worker
	barrier startupBarrier
	sd      shutdownFlag

	signals    []os.Signal
	sigCh      chan os.Signal
	log        corelog.Sink
	buildPhase bool
	started    bool
	wg         sync.WaitGroup

	workerSet *WorkerSet // non-nil when built via NewEngineFromWorkerSet
}

// NewEngine builds an Engine with n workers, all in the configuration
// phase. Use Core(w) to configure each one before calling Start. Workers
// are addressed by their dense id [0, n) directly; use
// NewEngineFromWorkerSet to address them through caller-chosen ids.
func NewEngine(n int) *Engine {
	if n <= 0 || n > MaxWorkers {
		panic("core: worker count must be in (0, MaxWorkers]")
	}
	e := &Engine{
		id:         uuid.New(),
		workers:    make([]*Worker, n),
		buildPhase: true,
		log:        corelog.Noop(),
	}
	for i := 0; i < n; i++ {
		e.workers[i] = newWorker(WorkerId(i), e)
	}
	return e
}

// NewEngineFromWorkerSet builds an Engine whose workers are addressed
// through ws's external ids rather than the default dense [0, N)
// numbering — Core(w) looks w up via ws.Dense, so an application can
// name its cores after physical CPU ids or any other scheme it likes.
func NewEngineFromWorkerSet(ws WorkerSet) *Engine {
	e := NewEngine(ws.Len())
	e.workerSet = &ws
	return e
}

// ID returns this engine's run-scoped identifier, assigned once by
// NewEngine. The engine does not add it to its own log lines or to
// Require traffic; it is only available to callers through this method.
func (e *Engine) ID() uuid.UUID { return e.id }

// SetLogger installs the sink every worker and the engine itself report
// diagnostics through. Must be called before Start.
func (e *Engine) SetLogger(sink corelog.Sink) {
	e.log = sink
	for _, w := range e.workers {
		w.log = sink
	}
}

// CoreInitializer configures one worker during the configuration phase.
// All of its methods must be called before Start.
type CoreInitializer struct {
	w *Worker
}

// Core returns the configuration handle for worker w. If the engine was
// built via NewEngineFromWorkerSet, w is the external id named in that
// set rather than a dense [0, N) index; an id the set doesn't contain
// panics, the same way an out-of-range dense id would.
func (e *Engine) Core(w WorkerId) *CoreInitializer {
	if !e.buildPhase {
		panic("core: Core() called after Start")
	}
	if e.workerSet != nil {
		dense, ok := e.workerSet.Dense(w)
		if !ok {
			panic("core: worker id is not a member of this engine's WorkerSet")
		}
		w = dense
	}
	return &CoreInitializer{w: e.workers[w]}
}

// SetAffinity pins the worker's goroutine to the given CPU ids on
// Start. An empty call leaves the worker unpinned. It returns
// ErrInvalidAffinity synchronously if any cpu id is negative or not
// present on this machine — the underlying affinity syscall silently
// ignores out-of-range ids instead of rejecting them, so this package
// validates before Start rather than let a typo pin a worker to nothing.
func (c *CoreInitializer) SetAffinity(cpus ...int) (*CoreInitializer, error) {
	n := runtime.NumCPU()
	for _, cpu := range cpus {
		if cpu < 0 || cpu >= n {
			c.w.log.Errorf("worker %d: invalid cpu affinity %d (have %d cpus)", c.w.id, cpu, n)
			return c, ErrInvalidAffinity
		}
	}
	c.w.affinity = cpus
	return c, nil
}

// SetLatency sets the worker's idle-wait bound: 0 means busy-spin
// (lowest latency, full CPU), >0 bounds the condition-variable-style
// wait in mailbox.wait.
func (c *CoreInitializer) SetLatency(d time.Duration) *CoreInitializer {
	c.w.latency = d
	return c
}

// AddActor schedules an actor for creation during Start, before the
// startup barrier. factory receives the actor's freshly assigned
// ActorId and must return the concrete actor with its embedded Actor
// base constructed via NewActor(id, name).
func (c *CoreInitializer) AddActor(factory func(id ActorId) ActorImpl) ActorId {
	impl := c.w.allocateActor(factory)
	return impl.Base().id
}

// AddService schedules a unique-per-worker service for creation during
// Start. It returns ErrDuplicateService if a service with the same Tag
// is already registered on this worker.
func AddService[Tag any](c *CoreInitializer, factory func(id ActorId) *Service[Tag]) (ActorId, error) {
	tag := typeIDFor[Tag]()
	if _, exists := c.w.serviceSlots[tag]; exists {
		c.w.log.Errorf("worker %d: duplicate service registration for tag %T", c.w.id, *new(Tag))
		return InvalidActorId, ErrDuplicateService
	}
	slot := c.w.nextServiceSlot
	c.w.nextServiceSlot++
	if slot >= serviceSlotEnd {
		c.w.log.Errorf("worker %d: service slot range exhausted", c.w.id)
		return InvalidActorId, ErrDuplicateService
	}
	id := NewActorId(c.w.id, slot)
	svc := factory(id)
	svc.worker = c.w
	registerServiceHandlers(svc)
	c.w.actors[slot] = svc
	if _, ok := any(svc).(PeriodicCallback); ok {
		c.w.callbackOrder = append(c.w.callbackOrder, slot)
	}
	c.w.serviceSlots[tag] = slot
	return id, nil
}

// RegisterSignal adds sig to the set the engine handles with a graceful
// stop. Must be called before Start. If never called, SIGINT and SIGTERM
// are handled by default.
func (e *Engine) RegisterSignal(sig os.Signal) {
	e.signals = append(e.signals, sig)
}

// Start builds each worker's mailbox, installs signal handling, spawns
// one goroutine per worker, runs every configuration-phase actor's
// OnInit, and blocks until every worker has reported the outcome of its
// OnInit calls. The workers then meet at the startup barrier on their
// own goroutines; Start does not wait for that.
func (e *Engine) Start() error {
	if e.started {
		e.log.Errorf("core: Start called on an already-started engine")
		return ErrAlreadyStarted
	}
	e.buildPhase = false
	n := len(e.workers)
	e.barrier.total = uint64(n)

	for _, w := range e.workers {
		w.mailbox = newMailbox(n-1, defaultRingCapacity, w.latency)
		w.buildPipes(n)
	}

	e.installSignalHandlers()

	type initResult struct {
		err error
	}
	results := make(chan initResult, n)
	for _, w := range e.workers {
		e.wg.Add(1)
		go func(w *Worker) {
			defer e.wg.Done()
			w.applyAffinity()
			err := w.initConfiguredActors()
			results <- initResult{err: err}
			if err != nil {
				e.barrier.abort()
				return
			}
			if !e.barrier.arrive() {
				return
			}
			w.run(&e.sd)
		}(w)
	}

	var failed bool
	for i := 0; i < n; i++ {
		if r := <-results; r.err != nil {
			failed = true
		}
	}
	if failed {
		e.log.Errorf("core: one or more actors failed on_init, aborting start")
		for _, w := range e.workers {
			w.destroyConfigured()
		}
		e.wg.Wait()
		return ErrInitFailed
	}
	e.started = true
	return nil
}

func (e *Engine) installSignalHandlers() {
	sigs := e.signals
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	e.sigCh = make(chan os.Signal, 4)
	signal.Notify(e.sigCh, sigs...)
	go func() {
		for sig := range e.sigCh {
			e.log.Infof("core: shutdown signal received: %v", sig)
			e.Stop()
		}
	}()
}

// Stop requests a graceful, system-wide shutdown. Calling it more than
// once is equivalent to calling it once.
func (e *Engine) Stop() {
	e.sd.set()
	e.log.Infof("core: shutdown requested")
}

// Join blocks until every worker has exited and reports whether any of
// them recorded a non-zero error bitmask.
func (e *Engine) Join() bool {
	e.wg.Wait()
	if e.sigCh != nil {
		signal.Stop(e.sigCh)
	}
	return e.HasError()
}

// HasError reports whether any worker's error bitmask is non-zero.
func (e *Engine) HasError() bool {
	for _, w := range e.workers {
		if w.ErrorBits() != 0 {
			return true
		}
	}
	return false
}

// Workers returns the engine's worker handles, mainly for tests and
// metrics — application actors should never reach into a worker other
// than their own.
func (e *Engine) Workers() []*Worker { return e.workers }
