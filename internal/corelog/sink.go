// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package corelog declares the tiny logging seam the engine and its
// workers call through. Nothing in package core depends on a logging
// backend directly — only on this Sink interface — so swapping zap for
// anything else never touches the engine or worker code.
package corelog

// Sink is the logging surface a Worker or Engine writes diagnostics
// through: lost-message counter increments, error-bit transitions,
// configuration failures, and signal-initiated shutdown.
type Sink interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Sync() error
}

// noop discards everything. It is the engine's default sink so that an
// application that never calls Engine.SetLogger still runs without a
// nil-pointer panic on the first diagnostic line.
type noop struct{}

func (noop) Infof(string, ...any)  {}
func (noop) Warnf(string, ...any)  {}
func (noop) Errorf(string, ...any) {}
func (noop) Sync() error           { return nil }

// Noop returns a Sink that discards everything.
func Noop() Sink { return noop{} }
