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
	"fmt"
	"os"

	"github.com/golang/glog"
)

// xtraceEnabled mirrors set -x / -o xtrace: emitted commands are
// logged at V(1) so a caller can enable them with --v=1 without
// forcing every other V(n) site on.
var xtraceEnabled bool

// SetXtrace toggles the -x / set -o xtrace engine-wide flag.
func SetXtrace(on bool) { xtraceEnabled = on }

// Xtrace writes the PS4-prefixed trace line the evaluator builds for
// a simple command about to run, honouring -x the way glog.V(1) honours
// --v=1: a no-op unless enabled.
func Xtrace(line string) {
	if !xtraceEnabled {
		return
	}
	fmt.Fprintln(os.Stderr, line)
	glog.V(1).Infof("xtrace: %s", line)
}

// Warn prints a non-fatal diagnostic tied to a source position, as the
// parser does for things like an unterminated here-doc marker that
// the grammar can still recover from.
func Warn(filename string, lineno int, f string, a ...interface{}) {
	msg := fmt.Sprintf(f, a...)
	fmt.Fprintf(os.Stderr, "%s: line %d: %s\n", filename, lineno, msg)
}

// Logf is gated engine-internal tracing, independent from
// shell-visible xtrace; its one caller is the fc builtin's edit diff
// in shellutil.go. It is driven by
// GOSH_DEBUG=n, mapped to glog verbosity in cmd/gosh/main.go.
func Logf(f string, a ...interface{}) {
	glog.V(2).Infof(f, a...)
}
