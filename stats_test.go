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
	"testing"
	"time"
)

func TestShellStatsTAccumulates(t *testing.T) {
	saved := EvalStatsFlag
	defer func() { EvalStatsFlag = saved }()
	EvalStatsFlag = true

	s := &shellStatsT{}
	s.add(10 * time.Millisecond)
	s.add(20 * time.Millisecond)
	if got, want := s.Count(), 2; got != want {
		t.Errorf("Count()=%d, want %d", got, want)
	}
	if got, want := s.Duration(), 30*time.Millisecond; got != want {
		t.Errorf("Duration()=%v, want %v", got, want)
	}
}

func TestStatsTGatedByFlag(t *testing.T) {
	saved := EvalStatsFlag
	defer func() { EvalStatsFlag = saved }()

	EvalStatsFlag = false
	s := &statsT{data: make(map[string]statsData)}
	s.add("cache", "ls", time.Now().Add(-time.Millisecond))
	if len(s.data) != 0 {
		t.Errorf("add() recorded an entry with EvalStatsFlag off: %v", s.data)
	}

	EvalStatsFlag = true
	s.add("cache", "ls", time.Now().Add(-time.Millisecond))
	sd, ok := s.data["cache:ls"]
	if !ok {
		t.Fatal(`add() with EvalStatsFlag on did not record "cache:ls"`)
	}
	if sd.Count != 1 {
		t.Errorf("Count=%d, want 1", sd.Count)
	}
}

func TestShellStatsTGatedByFlag(t *testing.T) {
	saved := EvalStatsFlag
	defer func() { EvalStatsFlag = saved }()

	EvalStatsFlag = false
	s := &shellStatsT{}
	s.add(10 * time.Millisecond)
	if got := s.Count(); got != 0 {
		t.Errorf("add() recorded a sample with EvalStatsFlag off: Count()=%d", got)
	}
}

func TestByTotalTimeSortsDescending(t *testing.T) {
	sv := byTotalTime{
		{Name: "a", Total: 5 * time.Millisecond},
		{Name: "b", Total: 50 * time.Millisecond},
		{Name: "c", Total: 1 * time.Millisecond},
	}
	if !sv.Less(1, 0) {
		t.Error("byTotalTime.Less should order the larger Total first")
	}
	if sv.Less(0, 1) {
		t.Error("byTotalTime.Less should not consider a smaller Total as less")
	}
}
