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

func TestVarStoreSetLookup(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	if err := ev.Vars.Set(ev, "FOO", "bar", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := ev.Vars.Lookup("FOO")
	if !ok || got != "bar" {
		t.Errorf("Lookup(FOO)=(%q,%v), want (bar,true)", got, ok)
	}
}

func TestVarStoreBadName(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	if err := ev.Vars.Set(ev, "9FOO", "x", 0); err == nil {
		t.Error("Set with a name starting with a digit should fail")
	}
	if err := ev.Vars.Set(ev, "FOO BAR", "x", 0); err == nil {
		t.Error("Set with a space in the name should fail")
	}
}

func TestVarStoreReadonly(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	ev.Vars.Set(ev, "RO", "v1", VarReadonly)
	if err := ev.Vars.Set(ev, "RO", "v2", 0); err == nil {
		t.Error("Set on a readonly variable should fail")
	}
	got, _ := ev.Vars.Lookup("RO")
	if got != "v1" {
		t.Errorf("readonly variable value changed to %q, want v1", got)
	}
	ev.Vars.Unset("RO")
	if got, ok := ev.Vars.Lookup("RO"); !ok || got != "v1" {
		t.Errorf("Unset on a readonly variable should be a no-op, got (%q,%v)", got, ok)
	}
}

func TestVarStoreUnset(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	ev.Vars.Set(ev, "FOO", "bar", 0)
	ev.Vars.Unset("FOO")
	if _, ok := ev.Vars.Lookup("FOO"); ok {
		t.Error("FOO should be unset")
	}
}

func TestVarStoreLocalScope(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	ev.Vars.Set(ev, "X", "outer", 0)
	ev.Vars.PushLocalScope()
	ev.Vars.Set(ev, "X", "inner", 0)
	if got, _ := ev.Vars.Lookup("X"); got != "inner" {
		t.Errorf("X inside local scope=%q, want inner", got)
	}
	ev.Vars.PopLocalScope()
	if got, _ := ev.Vars.Lookup("X"); got != "outer" {
		t.Errorf("X after PopLocalScope=%q, want outer (restored)", got)
	}
}

func TestVarStoreLookupIntNounset(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	if _, err := ev.Vars.LookupInt("UNSET_VAR", true); err == nil {
		t.Error("LookupInt with nounset=true on an unset variable should fail")
	}
	if n, err := ev.Vars.LookupInt("UNSET_VAR", false); err != nil || n != 0 {
		t.Errorf("LookupInt with nounset=false on an unset variable=(%d,%v), want (0,nil)", n, err)
	}
	ev.Vars.Set(ev, "N", "42", 0)
	n, err := ev.Vars.LookupInt("N", true)
	if err != nil || n != 42 {
		t.Errorf("LookupInt(N)=(%d,%v), want (42,nil)", n, err)
	}
}

func TestVarStoreSetEq(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	if err := ev.Vars.SetEq(ev, "NAME=value", 0); err != nil {
		t.Fatalf("SetEq: %v", err)
	}
	if got, _ := ev.Vars.Lookup("NAME"); got != "value" {
		t.Errorf("after SetEq(NAME=value), Lookup=%q, want value", got)
	}
	if err := ev.Vars.SetEq(ev, "noequalsign", 0); err == nil {
		t.Error("SetEq with no '=' should fail")
	}
}
