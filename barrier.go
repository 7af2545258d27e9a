// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"code.hybscloud.com/spin"

	"code.hybscloud.com/atomix"
)

// startupBarrier is the cross-worker "all ready" gate: every worker that
// finished initializing its configuration-phase actors increments the
// counter and spins until it equals the worker count, so no worker can
// start dispatching before its peers are able to accept flushes.
//
// If any worker's initialization fails, abort releases every worker
// already spinning here without letting them proceed, so Engine.Start
// can report the failure instead of deadlocking the survivors forever.
type startupBarrier struct {
	count   atomix.Uint64
	total   uint64
	aborted atomix.Bool
}

// arrive increments the counter and spins until every worker has
// arrived. Returns false if the barrier was aborted instead.
func (b *startupBarrier) arrive() bool {
	b.count.AddAcqRel(1)
	sw := spin.Wait{}
	for b.count.LoadAcquire() < b.total {
		if b.aborted.LoadAcquire() {
			return false
		}
		sw.Once()
	}
	return !b.aborted.LoadAcquire()
}

// abort releases every worker currently spinning in arrive without
// letting the barrier reach total.
func (b *startupBarrier) abort() { b.aborted.StoreRelease(true) }

// shutdownFlag is the engine-wide "stop requested" signal. Setting it
// twice (or a thousand times) is equivalent to setting it once — the
// idempotent-shutdown property — because StoreRelease(true) onto
// an already-true flag changes nothing observable.
type shutdownFlag struct {
	flag atomix.Bool
}

func (f *shutdownFlag) set() { f.flag.StoreRelease(true) }

func (f *shutdownFlag) isSet() bool { return f.flag.LoadAcquire() }
