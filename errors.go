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

import "fmt"

// ExceptionKind is the nonlocal-exit discipline of spec.md §4.3,
// recast from the original's jmp_buf handler stack onto ordinary Go
// error values: every recursion site that can trigger one of these
// returns (*ShellError) as its error, and the few places the original
// really does want a single unwind across many stack frames (an
// interrupt landing mid-expansion, an "exit" from deep inside a
// function body) use panic/recover bracketed by the nearest handler,
// mirroring the ast.go "can't happen" panics of the teacher.
type ExceptionKind int

const (
	// ExInterrupt is an asynchronous interrupt (SIGINT et al.).
	ExInterrupt ExceptionKind = iota
	// ExError is a runtime error: quoted message, status 2.
	ExError
	// ExExit is an explicit shell exit.
	ExExit
	// ExEOF is completion-time end of input.
	ExEOF
)

func (k ExceptionKind) String() string {
	switch k {
	case ExInterrupt:
		return "interrupt"
	case ExError:
		return "error"
	case ExExit:
		return "exit"
	case ExEOF:
		return "eof"
	default:
		return "unknown"
	}
}

// ShellError is the single exception type the evaluator, lexer,
// parser and expander raise. Status follows spec.md §6's canonical
// exit codes: 2 for syntax, 126 for not-executable, 127 for
// not-found, 128+signal for signal termination.
type ShellError struct {
	Kind     ExceptionKind
	Message  string
	Status   int
	Filename string
	Lineno   int
}

func (e *ShellError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s: line %d: %s", e.Filename, e.Lineno, e.Message)
	}
	return e.Message
}

// newError builds an ExError at a given source position. It is the
// generalization of the teacher's parser.go `p.srcpos().errorf(...)`
// accumulate-and-report idiom.
func newError(filename string, lineno int, status int, f string, a ...interface{}) *ShellError {
	return &ShellError{
		Kind:     ExError,
		Message:  fmt.Sprintf(f, a...),
		Status:   status,
		Filename: filename,
		Lineno:   lineno,
	}
}

func newSyntaxError(filename string, lineno int, f string, a ...interface{}) *ShellError {
	return newError(filename, lineno, 2, f, a...)
}

// exitError signals $? should become status with no diagnostic text.
// The `exit` builtin and the `set -e` abort in checkErrExit return it;
// "command not found" (127) and "not executable" (126) set $? directly
// in runExternal and do not unwind.
func exitError(status int) *ShellError {
	return &ShellError{Kind: ExExit, Status: status}
}

// IsSpecialBuiltinFatal reports whether a failing special builtin
// (spec.md §6's list) should terminate a non-interactive shell rather
// than just set $?.
func IsSpecialBuiltinFatal(name string) bool {
	switch name {
	case "break", "continue", ".", "eval", "exec", "exit", "export",
		"readonly", "return", "set", "shift", "trap", "unset", ":":
		return true
	}
	return false
}
