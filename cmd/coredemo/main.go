// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command coredemo is a runnable demonstration of code.hybscloud.com/core:
// it boots an Engine with a discoverable registry service, a greeter
// actor, and a periodic ticker, then blocks until SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"code.hybscloud.com/core/cmd/coredemo/commands"
	"code.hybscloud.com/core/cmd/coredemo/config"
)

func run(fs *pflag.FlagSet) error {
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	app := newApp(cfg)
	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	<-app.Done()
	stopCtx, cancel2 := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel2()
	return app.Stop(stopCtx)
}

func main() {
	if err := commands.Execute(run); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
