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
	"strings"
	"sync"
	"time"
)

// CmdCache is the PATH-search hash cache of spec.md §4.10, grounded on
// the teacher's depgraph.go target-lookup memoization shape (a
// name->resolved-path table invalidated wholesale on a relevant input
// change) generalized from "rule changed" to "PATH changed".
type CmdCache struct {
	mu    sync.Mutex
	table map[string]string // command name -> resolved absolute path
	path  string            // PATH value the table was built against
}

func NewCmdCache() *CmdCache {
	return &CmdCache{table: make(map[string]string)}
}

// Flush drops every memoized entry — spec.md §4.10 "hash -r", and the
// PATH setter callback registered by (*Evaluator).installBuiltinSetters.
func (c *CmdCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table = make(map[string]string)
}

// Forget drops one memoized entry; the `hash` builtin has no option
// that calls it.
func (c *CmdCache) Forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.table, name)
}

// Remember installs an explicit path; `hash name` uses it to record
// the result of a successful Lookup.
func (c *CmdCache) Remember(name, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.table[name] = path
}

// Entries returns a snapshot for the `hash` builtin with no operands.
func (c *CmdCache) Entries() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.table))
	for k, v := range c.table {
		out[k] = v
	}
	return out
}

// Lookup resolves name against PATH, consulting and updating the
// cache, per spec.md §4.10. A name containing a slash bypasses PATH
// search entirely (POSIX "command name with a slash").
func (c *CmdCache) Lookup(ev *Evaluator, name string) (string, error) {
	start := time.Now()
	defer func() { engineStats.add("cache", name, start) }()
	if strings.ContainsRune(name, '/') {
		if isExecutable(name) {
			return name, nil
		}
		return "", newError("", 0, 127, "%s: not found", name)
	}
	pathVal, _ := ev.Vars.Lookup("PATH")

	c.mu.Lock()
	if c.path != pathVal {
		c.table = make(map[string]string)
		c.path = pathVal
	}
	if p, ok := c.table[name]; ok {
		c.mu.Unlock()
		if isExecutable(p) {
			return p, nil
		}
		c.mu.Lock()
		delete(c.table, name)
	}
	c.mu.Unlock()

	for _, dir := range strings.Split(pathVal, ":") {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			c.mu.Lock()
			c.table[name] = candidate
			c.mu.Unlock()
			return candidate, nil
		}
	}
	return "", newError("", 0, 127, "%s: not found", name)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}
