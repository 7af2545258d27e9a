// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	core "code.hybscloud.com/core"
	"code.hybscloud.com/core/cmd/coredemo/config"
	"code.hybscloud.com/core/cmd/coredemo/demo"
	"code.hybscloud.com/core/internal/corelog"
)

// provideLogger builds the zap production logger coredemo logs through
// and the corelog.Sink adapter the engine logs through.
func provideLogger(cfg *config.Config) (*zap.Logger, corelog.Sink, error) {
	zcfg := zap.NewProductionConfig()
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zcfg.Level = level
	zl, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return zl, corelog.NewZap(zl.Sugar()), nil
}

// provideEngine builds the Engine and wires the demo actors from cfg,
// but does not start it: fx.Lifecycle hooks call Start/Stop/Join.
func provideEngine(cfg *config.Config, log corelog.Sink) (*core.Engine, error) {
	e := core.NewEngine(len(cfg.Workers))
	e.SetLogger(log)

	for i, wc := range cfg.Workers {
		ci := e.Core(core.WorkerId(i))
		if len(wc.Affinity) > 0 {
			if _, err := ci.SetAffinity(wc.Affinity...); err != nil {
				return nil, err
			}
		}
		if wc.LatencyNs > 0 {
			ci.SetLatency(wc.LatencyNs)
		}
	}

	core0 := e.Core(0)
	_, _ = core.AddService[demo.RegistryTag](core0, demo.NewRegistry())
	greeterID := core0.AddActor(demo.NewGreeter(log))

	if len(cfg.Workers) > 1 {
		tickCore := e.Core(1)
		tickCore.AddActor(demo.NewTicker(greeterID, 200, log))
	} else {
		core0.AddActor(demo.NewTicker(greeterID, 200, log))
	}

	return e, nil
}

// registerLifecycle hooks the engine into fx's OnStart/OnStop so `fx.App`
// drives the same Start -> Stop -> Join sequence a hand-rolled main would.
func registerLifecycle(lc fx.Lifecycle, e *core.Engine, zl *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := e.Start(); err != nil {
				return err
			}
			zl.Info("coredemo: engine started", zap.Int("workers", len(e.Workers())))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			e.Stop()
			done := make(chan struct{})
			go func() { e.Join(); close(done) }()
			select {
			case <-done:
			case <-ctx.Done():
			case <-time.After(10 * time.Second):
			}
			return zl.Sync()
		},
	})
}

func newApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			provideLogger,
			provideEngine,
		),
		fx.Invoke(registerLifecycle),
		fx.NopLogger,
	)
}
