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

package gosh

import (
	"strconv"
	"strings"
	"syscall"
)

// signame/namesig translate between trap's symbolic names and the
// syscall.Signal values intr.go's pending bitset indexes by, per
// spec.md §4.13 "trap".
var signame = map[syscall.Signal]string{
	syscall.SIGHUP:  "HUP",
	syscall.SIGINT:  "INT",
	syscall.SIGQUIT: "QUIT",
	syscall.SIGABRT: "ABRT",
	syscall.SIGKILL: "KILL",
	syscall.SIGPIPE: "PIPE",
	syscall.SIGALRM: "ALRM",
	syscall.SIGTERM: "TERM",
	syscall.SIGUSR1: "USR1",
	syscall.SIGUSR2: "USR2",
	syscall.SIGCHLD: "CHLD",
	syscall.SIGTSTP: "TSTP",
	syscall.SIGTTIN: "TTIN",
	syscall.SIGTTOU: "TTOU",
}

var namesig = func() map[string]syscall.Signal {
	m := make(map[string]syscall.Signal, len(signame))
	for sig, name := range signame {
		m[name] = sig
	}
	return m
}()

// TrapExit and TrapErr are the two pseudo-signal names spec.md §4.13
// lists alongside real signals ("trap CMD EXIT", "trap CMD ERR").
const (
	TrapExit = "EXIT"
	TrapErr  = "ERR"
)

// TrapTable holds each signal's registered action text, spec.md §4.13.
// Grounded on _examples/original_source/src/trap.c's action-string
// table plus the pending-bitset coalescing rule recovered from the
// same file: repeated delivery of a signal before its trap runs is
// collapsed to a single pending bit, not queued.
type TrapTable struct {
	actions map[string]string // "INT", "EXIT", "ERR", ... -> command text; "" means ignore
	pseudo  map[string]bool
}

func NewTrapTable() *TrapTable {
	return &TrapTable{actions: make(map[string]string)}
}

// ResolveName maps a trap argument (numeric or symbolic, case
// insensitive, optional "SIG" prefix) to the canonical name used as
// this table's key.
func ResolveName(arg string) (string, bool) {
	if arg == "0" {
		return TrapExit, true
	}
	upper := strings.ToUpper(strings.TrimPrefix(strings.ToUpper(arg), "SIG"))
	if upper == TrapExit || upper == TrapErr {
		return upper, true
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if name, ok := signame[syscall.Signal(n)]; ok {
			return name, true
		}
		return "", false
	}
	if _, ok := namesig[upper]; ok {
		return upper, true
	}
	return "", false
}

// Set installs action for name ("-" resets to default, "" ignores).
func (t *TrapTable) Set(name, action string) {
	if action == "-" {
		delete(t.actions, name)
		return
	}
	t.actions[name] = action
}

func (t *TrapTable) Get(name string) (string, bool) {
	a, ok := t.actions[name]
	return a, ok
}

func (t *TrapTable) List() map[string]string {
	out := make(map[string]string, len(t.actions))
	for k, v := range t.actions {
		out[k] = v
	}
	return out
}

// drainTraps runs the action registered for every signal that has
// become pending since the last drain, at the cooperative points
// spec.md §4.13 names: after each command and before each wait. $? is
// saved and restored around each trap body, per POSIX.
func (ev *Evaluator) drainTraps() {
	pending := TakePending()
	for _, sig := range pending {
		name, ok := signame[sig]
		if !ok {
			continue
		}
		action, ok := ev.Traps.Get(name)
		if !ok || action == "" {
			continue
		}
		ev.runTrapAction(name, action)
	}
}

// runExitTrap fires EXIT on normal or `exit`-triggered termination.
func (ev *Evaluator) runExitTrap() {
	if action, ok := ev.Traps.Get(TrapExit); ok && action != "" {
		ev.runTrapAction(TrapExit, action)
	}
}

// runErrTrap fires ERR after a command fails, honouring the same
// suppression contexts as -e (inside && / || / if-conditions / until
// and while conditions it does not fire), left to the caller to gate.
func (ev *Evaluator) runErrTrap() {
	if action, ok := ev.Traps.Get(TrapErr); ok && action != "" {
		ev.runTrapAction(TrapErr, action)
	}
}

func (ev *Evaluator) runTrapAction(name, action string) {
	saved := ev.LastStatus
	ast, err := ParseString(action, "trap:"+name)
	if err != nil {
		Warn("trap", 0, "%s: %v", name, err)
		return
	}
	if err := ev.runTopLevel(ast); err != nil {
		if se, ok := err.(*ShellError); ok && se.Kind == ExExit {
			panic(se)
		}
	}
	ev.LastStatus = saved
}
