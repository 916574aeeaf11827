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
	"io/ioutil"
	"os"
	"strings"
	"testing"
)

// captureStdout wires ev's fd 1 to a pipe and returns a function that
// closes the write end and reads back everything written.
func captureStdout(t *testing.T, ev *Evaluator) func() string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	ev.Redirs.table[1] = fdSlot{file: w}
	return func() string {
		w.Close()
		out, _ := ioutil.ReadAll(r)
		r.Close()
		return string(out)
	}
}

func TestBuiltinEcho(t *testing.T) {
	for _, tc := range []struct {
		argv []string
		want string
	}{
		{argv: []string{"echo", "hello", "world"}, want: "hello world\n"},
		{argv: []string{"echo", "-n", "no newline"}, want: "no newline"},
		{argv: []string{"echo", "-e", `a\tb`}, want: "a\tb\n"},
		{argv: []string{"echo", "--", "-n"}, want: "-n\n"},
	} {
		ev := NewEvaluator("sh", nil)
		finish := captureStdout(t, ev)
		if err := builtinEcho(ev, tc.argv); err != nil {
			t.Fatalf("builtinEcho(%v): %v", tc.argv, err)
		}
		if got := finish(); got != tc.want {
			t.Errorf("builtinEcho(%v)=%q, want %q", tc.argv, got, tc.want)
		}
		if ev.LastStatus != 0 {
			t.Errorf("builtinEcho(%v) LastStatus=%d, want 0", tc.argv, ev.LastStatus)
		}
	}
}

func TestBuiltinTrueFalse(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	if err := builtinTrue(ev, []string{"true"}); err != nil || ev.LastStatus != 0 {
		t.Errorf("builtinTrue: err=%v status=%d, want nil/0", err, ev.LastStatus)
	}
	if err := builtinFalse(ev, []string{"false"}); err != nil || ev.LastStatus != 1 {
		t.Errorf("builtinFalse: err=%v status=%d, want nil/1", err, ev.LastStatus)
	}
}

func TestBuiltinCdCDPATH(t *testing.T) {
	base := t.TempDir()
	sub := base + "/projects"
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	target := sub + "/widget"
	if err := os.Mkdir(target, 0755); err != nil {
		t.Fatal(err)
	}
	start, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(start)

	ev := NewEvaluator("sh", nil)
	ev.Vars.Set(ev, "CDPATH", sub, 0)
	finish := captureStdout(t, ev)
	if err := builtinCd(ev, []string{"cd", "widget"}); err != nil {
		t.Fatalf("builtinCd: %v", err)
	}
	if got := finish(); !strings.Contains(got, "widget") {
		t.Errorf("builtinCd via CDPATH printed %q, want it to name the resolved path", got)
	}
	wd, _ := ev.Vars.Lookup("PWD")
	if !strings.HasSuffix(wd, "/widget") {
		t.Errorf("PWD=%q, want suffix /widget", wd)
	}
}

func TestBuiltinCdDash(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	start, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(start)

	ev := NewEvaluator("sh", nil)
	if err := os.Chdir(a); err != nil {
		t.Fatal(err)
	}
	ev.Vars.Set(ev, "PWD", a, 0)
	if err := builtinCd(ev, []string{"cd", b}); err != nil {
		t.Fatalf("builtinCd(%s): %v", b, err)
	}
	finish := captureStdout(t, ev)
	if err := builtinCd(ev, []string{"cd", "-"}); err != nil {
		t.Fatalf("builtinCd(-): %v", err)
	}
	out := finish()
	if !strings.Contains(out, a) {
		t.Errorf("cd - printed %q, want it to echo %q", out, a)
	}
	wd, _ := ev.Vars.Lookup("PWD")
	if wd != a {
		t.Errorf("after cd -, PWD=%q, want %q", wd, a)
	}
}

func TestSplitOnIFS(t *testing.T) {
	for _, tc := range []struct {
		line      string
		ifs       string
		maxFields int
		want      []string
	}{
		{line: "a b c", ifs: " \t\n", maxFields: 3, want: []string{"a", "b", "c"}},
		{line: "a b c d", ifs: " \t\n", maxFields: 2, want: []string{"a", "b c d"}},
		{line: "  a   b  ", ifs: " \t\n", maxFields: 2, want: []string{"a", "b"}},
		{line: "x:y:z", ifs: ":", maxFields: 3, want: []string{"x", "y", "z"}},
	} {
		got := splitOnIFS(tc.line, tc.ifs, tc.maxFields)
		if len(got) != len(tc.want) {
			t.Errorf("splitOnIFS(%q,%q,%d)=%q, want %q", tc.line, tc.ifs, tc.maxFields, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitOnIFS(%q,%q,%d)[%d]=%q, want %q", tc.line, tc.ifs, tc.maxFields, i, got[i], tc.want[i])
			}
		}
	}
}

func TestApplyOptLetter(t *testing.T) {
	o := &ShellOpts{}
	applyOptLetter(o, 'e', true)
	if !o.ErrExit {
		t.Error("applyOptLetter('e', true) did not set ErrExit")
	}
	applyOptLetter(o, 'e', false)
	if o.ErrExit {
		t.Error("applyOptLetter('e', false) did not clear ErrExit")
	}
	applyOptLetter(o, 'u', true)
	applyOptLetter(o, 'n', true)
	if !o.NoUnset || !o.NoExec {
		t.Errorf("applyOptLetter did not set NoUnset/NoExec: %+v", o)
	}
}

func TestBuiltinShift(t *testing.T) {
	ev := NewEvaluator("sh", []string{"a", "b", "c"})
	if err := builtinShift(ev, []string{"shift"}); err != nil {
		t.Fatalf("builtinShift: %v", err)
	}
	if got := ev.Positional[1:]; len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("after shift, positional=%v, want [b c]", got)
	}
	if err := builtinShift(ev, []string{"shift", "5"}); err == nil && ev.LastStatus == 0 {
		t.Errorf("shift past end of positional params should fail, got status %d", ev.LastStatus)
	}
}

func TestBuiltinExit(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	err := builtinExit(ev, []string{"exit", "7"})
	se, ok := err.(*ShellError)
	if !ok {
		t.Fatalf("builtinExit returned %T, want *ShellError", err)
	}
	if se.Kind != ExExit || se.Status != 7 {
		t.Errorf("builtinExit(7): Kind=%v Status=%d, want ExExit/7", se.Kind, se.Status)
	}
}

func TestLookupBuiltin(t *testing.T) {
	for _, name := range []string{"cd", "echo", "read", "getopts", "fc", "trap"} {
		if _, ok := LookupBuiltin(name); !ok {
			t.Errorf("LookupBuiltin(%q) not found", name)
		}
	}
	if _, ok := LookupBuiltin("not-a-builtin"); ok {
		t.Error(`LookupBuiltin("not-a-builtin") unexpectedly found`)
	}
}
