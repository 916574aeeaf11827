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

func newTestHistory(lines ...string) *History {
	h := NewHistory()
	for _, l := range lines {
		h.Append(l)
	}
	return h
}

func TestHistoryRangeDefault(t *testing.T) {
	h := newTestHistory("echo one", "echo two", "echo three")
	start, end, err := h.Range("", "")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if start != 2 || end != 3 {
		t.Errorf("Range(\"\",\"\")=(%d,%d), want (2,3) (just the last entry)", start, end)
	}
}

func TestHistoryRangeLiteralNumber(t *testing.T) {
	h := newTestHistory("echo one", "echo two", "echo three")
	start, end, err := h.Range("1", "2")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if start != 0 || end != 2 {
		t.Errorf("Range(\"1\",\"2\")=(%d,%d), want (0,2)", start, end)
	}
}

func TestHistoryRangeNegativeOffset(t *testing.T) {
	h := newTestHistory("a", "b", "c", "d")
	start, end, err := h.Range("-2", "-1")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if start != 2 || end != 4 {
		t.Errorf("Range(\"-2\",\"-1\")=(%d,%d), want (2,4)", start, end)
	}
}

func TestHistoryRangePrefixMatch(t *testing.T) {
	h := newTestHistory("ls -l", "echo hi", "grep foo bar")
	start, end, err := h.Range("grep", "grep")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if start != 2 || end != 3 {
		t.Errorf("Range(\"grep\",\"grep\")=(%d,%d), want (2,3)", start, end)
	}
}

func TestHistoryRangeUnknownPrefix(t *testing.T) {
	h := newTestHistory("ls -l", "echo hi")
	if _, _, err := h.Range("nonexistent", "nonexistent"); err == nil {
		t.Error("Range with an unmatched prefix should return an error")
	}
}

func TestHistoryRangeReversed(t *testing.T) {
	h := newTestHistory("a", "b", "c", "d")
	start, end, err := h.Range("3", "1")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if start != 0 || end != 3 {
		t.Errorf("Range(\"3\",\"1\") should normalize to ascending order, got (%d,%d)", start, end)
	}
}

func TestBuiltinFcListsHistory(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	ev.Hist.Append("echo one")
	ev.Hist.Append("echo two")
	finish := captureStdout(t, ev)
	if err := builtinFc(ev, []string{"fc", "-l", "1", "2"}); err != nil {
		t.Fatalf("builtinFc -l: %v", err)
	}
	out := finish()
	if out != "1\techo one\n2\techo two\n" {
		t.Errorf("fc -l 1 2 printed %q", out)
	}
}

func TestBuiltinFcSubstituteAndRerun(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	ev.Hist.Append("echo one")
	finish := captureStdout(t, ev)
	if err := builtinFc(ev, []string{"fc", "-s", "one=two"}); err != nil {
		t.Fatalf("builtinFc -s: %v", err)
	}
	out := finish()
	if out != "echo two\ntwo\n" {
		t.Errorf("fc -s one=two printed %q, want echoed substituted line followed by its output", out)
	}
}
