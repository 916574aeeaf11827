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

func TestJobTableRegisterAssignsIDs(t *testing.T) {
	jt := NewJobTable()
	j1 := &Job{Command: "sleep 1"}
	j2 := &Job{Command: "sleep 2"}
	jt.Register(j1)
	jt.Register(j2)
	if j1.ID != 1 || j2.ID != 2 {
		t.Errorf("job IDs = %d,%d, want 1,2", j1.ID, j2.ID)
	}
	if len(jt.List()) != 2 {
		t.Errorf("List() has %d entries, want 2", len(jt.List()))
	}
}

func TestJobTableLookup(t *testing.T) {
	jt := NewJobTable()
	jt.Register(&Job{Command: "make build"})
	jt.Register(&Job{Command: "make test"})

	if j, err := jt.Lookup("1"); err != nil || j.Command != "make build" {
		t.Errorf("Lookup(1)=(%v,%v), want the first job", j, err)
	}
	if j, err := jt.Lookup("%2"); err != nil || j.Command != "make test" {
		t.Errorf("Lookup(%%2)=(%v,%v), want the second job", j, err)
	}
	if j, err := jt.Lookup(""); err != nil || j.Command != "make test" {
		t.Errorf("Lookup(\"\")=(%v,%v), want the most recent job", j, err)
	}
	if j, err := jt.Lookup("-"); err != nil || j.Command != "make build" {
		t.Errorf("Lookup(-)=(%v,%v), want the second-to-last job", j, err)
	}
	if j, err := jt.Lookup("?test"); err != nil || j.Command != "make test" {
		t.Errorf("Lookup(?test)=(%v,%v), want the job whose command contains 'test'", j, err)
	}
	if _, err := jt.Lookup("99"); err == nil {
		t.Error("Lookup(99) for a nonexistent job number should fail")
	}
}

func TestJobLastStatus(t *testing.T) {
	j := &Job{Procs: []*Proc{}}
	if got := j.LastStatus(); got != 0 {
		t.Errorf("LastStatus() with no procs=%d, want 0", got)
	}
}

func TestShowJobFormat(t *testing.T) {
	j := &Job{ID: 1, State: JobRunning, Command: "sleep 5"}
	got := ShowJob(j)
	want := "[1]  Running  sleep 5"
	if got != want {
		t.Errorf("ShowJob=%q, want %q", got, want)
	}
}

func TestJobStateString(t *testing.T) {
	for _, tc := range []struct {
		s    JobState
		want string
	}{
		{JobRunning, "Running"},
		{JobStopped, "Stopped"},
		{JobDone, "Done"},
	} {
		if got := tc.s.String(); got != tc.want {
			t.Errorf("JobState(%d).String()=%q, want %q", tc.s, got, tc.want)
		}
	}
}
