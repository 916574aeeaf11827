// Copyright 2015 Google Inc. All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command gosh is a POSIX-conformant shell command-language engine,
// wiring the gosh package's lexer/parser/evaluator to real process
// argv, stdin and the controlling terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang/glog"

	"github.com/tmc/gosh"
)

// applyDebugEnv maps GOSH_DEBUG=n onto glog's --v verbosity the way the
// teacher's main.go maps -kati_log onto its own logging gate, so
// engine-internal tracing (gosh.Logf) can be turned on without a
// rebuild. This is read from the environment, not argv, since argv's
// leading flags belong to the POSIX shell-option grammar (-c, -e, -s,
// ...) and must not be fought over with the flag package's own
// double-dash conventions.
func applyDebugEnv() {
	v := os.Getenv("GOSH_DEBUG")
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	flag.Set("v", strconv.Itoa(n))
	gosh.EvalStatsFlag = n >= 3
}

func main() {
	// flag.Parse with no arguments merely lets glog register and read
	// its own --v/--logtostderr from the process environment's
	// GLOG_* defaults; os.Args is handled entirely by gosh.ParseArgs
	// below, matching real /bin/sh's argv grammar rather than Go's.
	flag.CommandLine.Parse(nil)
	applyDebugEnv()
	defer glog.Flush()
	defer gosh.DumpStats()

	argv0 := os.Args[0]
	cfg, err := gosh.ParseArgs(argv0, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "gosh: %v\n", err)
		os.Exit(2)
	}
	gosh.SetXtrace(cfg.Opts.XTrace)

	name := cfg.Args[0]
	args := cfg.Args[1:]
	if cfg.ScriptPath != "" {
		name = cfg.ScriptPath
	}
	ev := gosh.NewEvaluator(name, args)
	*ev.Opts = cfg.Opts

	status := run(ev, cfg)
	gosh.DumpStats()
	glog.Flush()
	os.Exit(status)
}

func run(ev *gosh.Evaluator, cfg *gosh.StartupConfig) int {
	switch {
	case cfg.HasCommand:
		return runString(ev, cfg.CommandStr, "gosh")
	case cfg.ScriptPath != "":
		return runFile(ev, cfg.ScriptPath)
	default:
		return runInteractiveOrPipe(ev, cfg.Opts.Interactive)
	}
}

func runString(ev *gosh.Evaluator, src, filename string) int {
	ast, err := gosh.ParseString(src, filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gosh: %v\n", err)
		return 2
	}
	if err := ev.Run(ast); err != nil {
		reportRunError(err)
	}
	return ev.LastStatus
}

func runFile(ev *gosh.Evaluator, path string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gosh: %s: %v\n", path, err)
		return 127
	}
	defer f.Close()

	ev.In.SetFile(f, filepath.Base(path))
	p := gosh.NewParser(ev.In, ev.Aliases, filepath.Base(path))
	ast, err := p.ParseProgram()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gosh: %v\n", err)
		return 2
	}
	if err := ev.Run(ast); err != nil {
		reportRunError(err)
	}
	return ev.LastStatus
}

// runInteractiveOrPipe drives the read-eval loop a shell runs with no
// script operand: one statement at a time off stdin, printing PS1
// when the session is interactive, per spec.md §4.13/§5. No PS2
// continuation prompt is printed.
func runInteractiveOrPipe(ev *gosh.Evaluator, interactive bool) int {
	ev.In.SetFile(os.Stdin, "stdin")
	p := gosh.NewParser(ev.In, ev.Aliases, "stdin")
	for {
		if interactive {
			ps1, _ := ev.Vars.Lookup("PS1")
			fmt.Fprint(os.Stderr, ps1)
		}
		ast, err := p.ParseOne()
		if err != nil {
			fmt.Fprintf(os.Stderr, "gosh: %v\n", err)
			continue
		}
		if ast == nil {
			break
		}
		if err := ev.Run(ast); err != nil {
			reportRunError(err)
			if se, ok := err.(*gosh.ShellError); ok && se.Kind == gosh.ExExit {
				return se.Status
			}
		}
	}
	return ev.LastStatus
}

func reportRunError(err error) {
	se, ok := err.(*gosh.ShellError)
	if !ok {
		fmt.Fprintf(os.Stderr, "gosh: %v\n", err)
		return
	}
	if se.Message != "" {
		fmt.Fprintln(os.Stderr, se.Error())
	}
}
