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
	"fmt"
	"sort"
	"sync"
	"time"
)

// EvalStatsFlag gates the per-event timing table below, the way the
// teacher's stats.go gates its own EvalStatsFlag — off by default since
// the bookkeeping costs a mutex lock per event.
var EvalStatsFlag bool

type statsData struct {
	Name    string
	Count   int
	Longest time.Duration
	Total   time.Duration
}

// statsT accumulates per-event-kind timing, directly grounded on the
// teacher's stats.go statsT, generalized from "include:file" /
// "shell:cmd" event keys to this engine's command-cache lookups (the
// "cache" kind recorded by CmdCache.Lookup); command substitutions and
// external forks are timed by the shellStatsT counters instead.
type statsT struct {
	mu   sync.Mutex
	data map[string]statsData
}

var engineStats = &statsT{data: make(map[string]statsData)}

func (s *statsT) add(name, v string, since time.Time) {
	if !EvalStatsFlag {
		return
	}
	d := time.Since(since)
	key := name + ":" + v
	s.mu.Lock()
	sd := s.data[key]
	if d > sd.Longest {
		sd.Longest = d
	}
	sd.Total += d
	sd.Count++
	s.data[key] = sd
	s.mu.Unlock()
}

// DumpStats prints the collected table, if EvalStatsFlag is set — the
// cmd/gosh entry point calls this on exit the way the teacher's main.go
// defers dumpStats().
func DumpStats() {
	if !EvalStatsFlag {
		return
	}
	var sv byTotalTime
	for k, v := range engineStats.data {
		v.Name = k
		sv = append(sv, v)
	}
	sort.Sort(sv)
	fmt.Println("count,longest(ns),total(ns),longest,total,name")
	for _, s := range sv {
		fmt.Printf("%d,%d,%d,%v,%v,%s\n", s.Count, s.Longest, s.Total, s.Longest, s.Total, s.Name)
	}
}

type byTotalTime []statsData

func (b byTotalTime) Len() int      { return len(b) }
func (b byTotalTime) Swap(i, j int) { b[i], b[j] = b[j], b[i] }
func (b byTotalTime) Less(i, j int) bool {
	return b[i].Total > b[j].Total
}

// shellStatsT tracks aggregate time spent and count of command
// substitutions / external forks, grounded on the teacher's
// shellStatsT (which times calls to $(shell ...)), generalized to
// cover this engine's two process-spawning paths.
type shellStatsT struct {
	mu       sync.Mutex
	duration time.Duration
	count    int
}

func (s *shellStatsT) add(d time.Duration) {
	if !EvalStatsFlag {
		return
	}
	s.mu.Lock()
	s.duration += d
	s.count++
	s.mu.Unlock()
}

func (s *shellStatsT) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *shellStatsT) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// commandSubStats and externalForkStats are the two counters
// SPEC_FULL.md's ambient-stack section names: one for every `` `...` ``
// / $(...)  evaluated, one for every external command actually forked.
var (
	commandSubStats   = &shellStatsT{}
	externalForkStats = &shellStatsT{}
)
