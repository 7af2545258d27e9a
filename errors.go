// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates a ring or pipe operation cannot proceed
// immediately. For a mailbox enqueue this means the target ring is full
// (backpressure); callers retry on the next tick rather than treating it
// as a failure. This is an alias for [iox.ErrWouldBlock] so that
// backpressure keeps the same meaning across this package and the
// underlying queue primitives.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err is [ErrWouldBlock].
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// Configuration and routing errors. ErrDuplicateService and
// ErrInvalidAffinity are returned synchronously from the configuration
// API (AddService, CoreInitializer.SetAffinity); ErrAlreadyStarted is
// returned by a second Engine.Start; ErrUnknownWorker is returned by
// Push/Send/Reply/Forward when the destination worker does not exist.
var (
	ErrDuplicateService = errors.New("core: duplicate service on worker")
	ErrInvalidAffinity  = errors.New("core: invalid cpu affinity set")
	ErrAlreadyStarted   = errors.New("core: engine already started")
	ErrUnknownWorker    = errors.New("core: unknown destination worker")
)

// Initialization failure: at least one actor's OnInit returned false
// during the configuration-phase start sequence.
var ErrInitFailed = errors.New("core: one or more actors failed on_init")

// Runtime errors surfaced through an actor's reply/forward calls.
var (
	ErrNoCurrentEvent  = errors.New("core: reply/forward called outside a handler")
	ErrAlreadyConsumed = errors.New("core: event already replied to or forwarded")
)

// Error bits recorded in a Worker's error bitmask and aggregated by
// Engine.HasError. Named after the original qb framework's EngineError
// constants (system/Types.h) so worker diagnostics stay self-describing.
const (
	ErrBitNone             uint32 = 0
	ErrBitExceptionThrown  uint32 = 1 << 0
	ErrBitActorInitFailed  uint32 = 1 << 1
	ErrBitUnknownDestError uint32 = 1 << 2
)
