/*
Command autosim inspects, simulates and plots autonomous programs.

	autosim inspect  program.yaml
	autosim simulate program.yaml --path shoot --offset 0,1.5 --csv trace.csv
	autosim plot     program.yaml -o program.png

Settings are read from --config (YAML) and AUTOPATH_* environment variables.

BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/npillmayer/autopath/config"
	"github.com/npillmayer/autopath/program"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/spf13/cobra"
)

// tracer writes to trace with key 'autopath.autosim'
func tracer() tracing.Trace {
	return tracing.Select("autopath.autosim")
}

// traceSelector hands out one Go-logger tracer per key. All of them share
// the trace level set last.
type traceSelector struct {
	mu      sync.Mutex
	level   tracing.TraceLevel
	tracers map[string]tracing.Trace
}

var traces = &traceSelector{level: tracing.LevelError, tracers: map[string]tracing.Trace{}}

// Select is part of interface tracing.TraceSelector.
func (sel *traceSelector) Select(key string) tracing.Trace {
	sel.mu.Lock()
	defer sel.mu.Unlock()
	t, ok := sel.tracers[key]
	if !ok {
		t = gologadapter.New()
		t.SetTraceLevel(sel.level)
		sel.tracers[key] = t
	}
	return t
}

// SetTraceLevel sets the level of all tracers, including those selected
// later.
func (sel *traceSelector) SetTraceLevel(level tracing.TraceLevel) {
	sel.mu.Lock()
	defer sel.mu.Unlock()
	sel.level = level
	for _, t := range sel.tracers {
		t.SetTraceLevel(level)
	}
}

func main() {
	tracing.SetTraceSelector(traces)
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options are shared by all sub-commands.
type options struct {
	configPath string
	traceLevel string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "autosim",
		Short:        "Inspect, simulate and plot autonomous robot programs",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.traceLevel != "" {
				cfg.Trace.Level = opts.traceLevel
			}
			traces.SetTraceLevel(cfg.TraceLevel())
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (YAML)")
	root.PersistentFlags().StringVar(&opts.traceLevel, "trace", "", "trace level: error, info or debug")
	root.AddCommand(newInspectCmd(opts))
	root.AddCommand(newSimulateCmd(opts))
	root.AddCommand(newPlotCmd(opts))
	return root
}

// load reads and builds the program at path.
func load(path string) (*program.Program, error) {
	desc, err := program.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prog, err := desc.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}
