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
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// interruptState is the process-wide suppression counter and pending
// bitset of spec.md §4.3 / §5. Grounded on the teacher's general
// "protect shared mutable state across async mutation" framing (the
// teacher itself is single-threaded batch tooling with no signal
// story; this is built directly from spec.md §4.3's contract and the
// pending-bit coalescing rule recovered from
// _examples/original_source/src/trap.c — repeated delivery of the same
// signal before the trap runs does not queue).
type interruptState struct {
	mu       sync.Mutex
	suppress int32
	pending  uint64 // one bit per signal number (< 64 on every supported OS)
	sigint   bool   // fast path: SIGINT also raises through panic/recover
}

var intrState interruptState

// EnterCritical suspends interrupt delivery across a region that
// mutates data shared with asynchronous signal delivery (alias table,
// job table, variable table, redirection stack, command cache) —
// spec.md §4.3.
func EnterCritical() {
	atomic.AddInt32(&intrState.suppress, 1)
}

// LeaveCritical decrements the suppression counter and, if it reached
// zero with SIGINT pending, raises it via panic(*ShellError) to the
// nearest recover in the evaluator's command loop.
func LeaveCritical() {
	if atomic.AddInt32(&intrState.suppress, -1) == 0 {
		raisePendingIfAny()
	}
}

func raisePendingIfAny() {
	intrState.mu.Lock()
	sig := intrState.sigint
	intrState.sigint = false
	intrState.mu.Unlock()
	if sig {
		panic(&ShellError{Kind: ExInterrupt, Message: "interrupted", Status: 130})
	}
}

func markPending(signum syscall.Signal) {
	intrState.mu.Lock()
	intrState.pending |= 1 << uint(signum)
	if signum == syscall.SIGINT {
		intrState.sigint = true
	}
	intrState.mu.Unlock()
	if atomic.LoadInt32(&intrState.suppress) == 0 {
		raisePendingIfAny()
	}
}

// TakePending clears and returns the set of signal numbers that are
// pending trap actions, for (*Evaluator).drainTraps to drain at a cooperative
// point (after each command, before each wait) per spec.md §4.13/§5.
func TakePending() []syscall.Signal {
	intrState.mu.Lock()
	defer intrState.mu.Unlock()
	var out []syscall.Signal
	for i := 0; i < 64; i++ {
		if intrState.pending&(1<<uint(i)) != 0 {
			out = append(out, syscall.Signal(i))
		}
	}
	intrState.pending = 0
	return out
}

// startSignalRelay installs the process-wide os/signal relay: no shell
// logic runs inside the handler goroutine beyond flag setting, per
// spec.md §5 "No shell logic runs inside a handler beyond flag
// setting."
func startSignalRelay() chan<- struct{} {
	ch := make(chan os.Signal, 16)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGCHLD, syscall.SIGTSTP, syscall.SIGQUIT)
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case s := <-ch:
				if sig, ok := s.(syscall.Signal); ok {
					markPending(sig)
				}
			case <-stop:
				signal.Stop(ch)
				return
			}
		}
	}()
	return stop
}
