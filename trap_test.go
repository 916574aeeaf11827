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

func TestResolveName(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
		ok   bool
	}{
		{"0", TrapExit, true},
		{"EXIT", TrapExit, true},
		{"exit", TrapExit, true},
		{"ERR", TrapErr, true},
		{"INT", "INT", true},
		{"SIGINT", "INT", true},
		{"sigint", "INT", true},
		{"2", "INT", true},
		{"not-a-signal", "", false},
	} {
		got, ok := ResolveName(tc.in)
		if ok != tc.ok {
			t.Errorf("ResolveName(%q) ok=%v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ResolveName(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTrapTableSetGet(t *testing.T) {
	tt := NewTrapTable()
	tt.Set("INT", "echo caught")
	action, ok := tt.Get("INT")
	if !ok || action != "echo caught" {
		t.Fatalf("Get(INT)=(%q,%v), want (echo caught,true)", action, ok)
	}

	tt.Set("INT", "-")
	if _, ok := tt.Get("INT"); ok {
		t.Error(`Set(INT,"-") should reset INT to default (no entry)`)
	}
}

func TestTrapTableList(t *testing.T) {
	tt := NewTrapTable()
	tt.Set("INT", "echo a")
	tt.Set(TrapExit, "echo b")
	list := tt.List()
	if len(list) != 2 || list["INT"] != "echo a" || list[TrapExit] != "echo b" {
		t.Errorf("List()=%v, want INT/EXIT entries", list)
	}
	list["INT"] = "tampered"
	if a, _ := tt.Get("INT"); a != "echo a" {
		t.Error("List() should return a copy, not a reference to the live map")
	}
}

func TestRunExitTrap(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	ev.Traps.Set(TrapExit, "echo bye")
	finish := captureStdout(t, ev)
	ev.runExitTrap()
	if got := finish(); got != "bye\n" {
		t.Errorf("runExitTrap with EXIT='echo bye' printed %q, want \"bye\\n\"", got)
	}
}
