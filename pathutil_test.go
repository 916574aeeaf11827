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

func TestFullMatch(t *testing.T) {
	for _, tc := range []struct {
		pat, str string
		want     bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "main.c", false},
		{"foo?bar", "fooXbar", true},
		{"foo?bar", "fooXYbar", false},
		{"[abc]at", "bat", true},
		{"[abc]at", "dat", false},
		{"[!abc]at", "dat", true},
		{"[[:digit:]]*", "5files", true},
		{"[[:digit:]]*", "files", false},
		{"", "", true},
		{"", "x", false},
	} {
		got := fullMatch(tc.pat, tc.str)
		if got != tc.want {
			t.Errorf("fullMatch(%q, %q)=%v, want %v", tc.pat, tc.str, got, tc.want)
		}
	}
}

func TestMatchPrefixMode(t *testing.T) {
	ok, n := matchPrefixMode("a*", "aXbXc", true)
	if !ok || n != 5 {
		t.Errorf("matchPrefixMode longest a* over aXbXc = (%v,%d), want (true,5)", ok, n)
	}
	ok, n = matchPrefixMode("a*", "aXbXc", false)
	if !ok || n != 1 {
		t.Errorf("matchPrefixMode shortest a* over aXbXc = (%v,%d), want (true,1)", ok, n)
	}
}

func TestMatchSuffixMode(t *testing.T) {
	ok, n := matchSuffixMode("*c", "aXbXc", true)
	if !ok || n != 0 {
		t.Errorf("matchSuffixMode longest *c over aXbXc = (%v,%d), want (true,0)", ok, n)
	}
	ok, n = matchSuffixMode("*c", "aXbXc", false)
	if !ok || n != 4 {
		t.Errorf("matchSuffixMode shortest *c over aXbXc = (%v,%d), want (true,4)", ok, n)
	}
}

func TestPmatchWhole(t *testing.T) {
	ok, _ := pmatch("*.txt", "notes.txt", matchWhole)
	if !ok {
		t.Error(`pmatch("*.txt","notes.txt",matchWhole) should match`)
	}
	ok, _ = pmatch("*.txt", "notes.txt.bak", matchWhole)
	if ok {
		t.Error(`pmatch("*.txt","notes.txt.bak",matchWhole) should not match`)
	}
}
