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
	"path/filepath"
	"testing"
)

func TestRedirStackPushPopTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	rs := NewRedirStack()
	redirs := []*FileRedir{{FD: 1, Kind: RedirTo, Fname: &ArgWord{Text: path}}}
	if err := rs.Push(nil, redirs); err != nil {
		t.Fatalf("Push: %v", err)
	}
	f := rs.FileFor(1)
	if f == nil {
		t.Fatal("FileFor(1) is nil after Push")
	}
	f.WriteString("hello")
	rs.Pop()

	if f := rs.FileFor(1); f != os.Stdout {
		t.Errorf("FileFor(1) after Pop = %v, want the default os.Stdout", f)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("file contents=%q, want hello", data)
	}
}

func TestRedirStackAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(path, []byte("first\n"), 0644); err != nil {
		t.Fatal(err)
	}
	rs := NewRedirStack()
	redirs := []*FileRedir{{FD: 1, Kind: RedirAppend, Fname: &ArgWord{Text: path}}}
	if err := rs.Push(nil, redirs); err != nil {
		t.Fatalf("Push: %v", err)
	}
	rs.FileFor(1).WriteString("second\n")
	rs.Pop()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("appended contents=%q, want both lines", data)
	}
}

func TestRedirStackDupFD(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	rs := NewRedirStack()
	redirs := []*FileRedir{
		{FD: 1, Kind: RedirTo, Fname: &ArgWord{Text: path}},
		{FD: 2, Kind: RedirToFD, DupFD: 1},
	}
	if err := rs.Push(nil, redirs); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if rs.FileFor(2) != rs.FileFor(1) {
		t.Error("fd 2 should be dup'd onto fd 1's file")
	}
	rs.Pop()
}

func TestRedirStackNestedPushPop(t *testing.T) {
	a := filepath.Join(t.TempDir(), "a.txt")
	b := filepath.Join(t.TempDir(), "b.txt")
	rs := NewRedirStack()
	if err := rs.Push(nil, []*FileRedir{{FD: 1, Kind: RedirTo, Fname: &ArgWord{Text: a}}}); err != nil {
		t.Fatal(err)
	}
	outer := rs.FileFor(1)
	if err := rs.Push(nil, []*FileRedir{{FD: 1, Kind: RedirTo, Fname: &ArgWord{Text: b}}}); err != nil {
		t.Fatal(err)
	}
	if rs.FileFor(1) == outer {
		t.Error("nested Push should install a new fd 1 binding")
	}
	rs.Pop()
	if rs.FileFor(1) != outer {
		t.Error("Pop should restore the outer fd 1 binding")
	}
	rs.Pop()
	if rs.FileFor(1) != os.Stdout {
		t.Error("popping the outermost frame should restore the process default")
	}
}

func TestRedirStackRollbackOnError(t *testing.T) {
	rs := NewRedirStack()
	before := rs.FileFor(1)
	redirs := []*FileRedir{
		{FD: 1, Kind: RedirFrom, Fname: &ArgWord{Text: "/nonexistent/path/for/gosh/tests"}},
	}
	if err := rs.Push(nil, redirs); err == nil {
		t.Fatal("Push with an unopenable file should fail")
	}
	if rs.FileFor(1) != before {
		t.Error("a failed Push should not leave a partial binding installed")
	}
}
