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

func TestAliasSetLookup(t *testing.T) {
	as := NewAliasStore()
	as.Set("ll", "ls -l")
	a, ok := as.Lookup("ll", false)
	if !ok || a.Replacement != "ls -l" {
		t.Fatalf("Lookup(ll)=(%v,%v), want ls -l/true", a, ok)
	}
}

func TestAliasCycleGuard(t *testing.T) {
	as := NewAliasStore()
	as.Set("ls", "ls -F")
	a, _ := as.Lookup("ls", true)
	as.MarkDone(a)

	if _, ok := as.Lookup("ls", true); ok {
		t.Error("an alias marked in-use should be invisible to its own body (check=true)")
	}
	if _, ok := as.Lookup("ls", false); !ok {
		t.Error("an in-use alias should still be visible when check=false")
	}

	as.ReleaseDone()
	if _, ok := as.Lookup("ls", true); !ok {
		t.Error("ReleaseDone should clear the in-use bit, making the alias visible again")
	}
}

func TestAliasUnsetWhileInUse(t *testing.T) {
	as := NewAliasStore()
	as.Set("ls", "ls -F")
	a, _ := as.Lookup("ls", false)
	as.MarkDone(a)

	as.Unset("ls")
	if _, ok := as.Lookup("ls", false); !ok {
		t.Error("Unset on an in-use alias should defer deletion, not remove it immediately")
	}

	as.ReleaseDone()
	if _, ok := as.Lookup("ls", false); ok {
		t.Error("ReleaseDone should complete a deferred Unset")
	}
}

func TestAliasClearAll(t *testing.T) {
	as := NewAliasStore()
	as.Set("a", "1")
	as.Set("b", "2")
	as.ClearAll()
	if len(as.List()) != 0 {
		t.Errorf("List() after ClearAll has %d entries, want 0", len(as.List()))
	}
}
