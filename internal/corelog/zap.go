// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corelog

import "go.uber.org/zap"

// zapSink adapts a *zap.SugaredLogger to Sink. zap.NewProduction's core
// is non-blocking under normal load, so a worker tick calling Infof
// never turns into a suspension point the way a synchronous write to a
// file or socket would.
type zapSink struct {
	l *zap.SugaredLogger
}

// NewZap wraps l as a Sink. Callers typically build l with
// zap.NewProduction() or zap.NewDevelopment() and pass its Sugar().
func NewZap(l *zap.SugaredLogger) Sink {
	return &zapSink{l: l}
}

func (z *zapSink) Infof(format string, args ...any)  { z.l.Infof(format, args...) }
func (z *zapSink) Warnf(format string, args ...any)  { z.l.Warnf(format, args...) }
func (z *zapSink) Errorf(format string, args ...any) { z.l.Errorf(format, args...) }
func (z *zapSink) Sync() error                       { return z.l.Sync() }
