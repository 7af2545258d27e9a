// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package commands holds coredemo's cobra command tree. The actual fx
// wiring lives in package main (app.go) since it needs the unexported
// newApp constructor; Execute and its RunFunc parameter type are the
// only symbols this package exports.
package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RunFunc is supplied by package main so this package can stay free of
// the fx wiring it kicks off.
type RunFunc func(fs *pflag.FlagSet) error

var rootCmd = &cobra.Command{
	Use:   "coredemo",
	Short: "Run the core actor-runtime demo engine",
	Long: `coredemo boots an Engine with a handful of demo actors
(a discoverable registry, a greeter, and a periodic ticker) and runs
until SIGINT/SIGTERM.`,
}

func init() {
	rootCmd.Flags().String("log_level", "info", "log level: debug, info, warn, error")
	rootCmd.Flags().Int("worker_count", 0, "worker count (0: use config file or default)")
}

// Execute runs the CLI, invoking run with the parsed flag set.
func Execute(run RunFunc) error {
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(cmd.Flags())
	}
	return rootCmd.Execute()
}
