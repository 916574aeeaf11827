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

import "sync"

// bucketCount is the minimum hash-chain table size spec.md §4.4
// recommends ("≥ 39 recommended").
const bucketCount = 63

// symtab is the single bucketed hash-chain table shape shared by the
// variable store (var.go) and alias store (alias.go) — spec.md
// specifies both as "hash-chain table" (the command cache in cache.go
// uses a plain Go map);
// this is grounded on the teacher's symtab.go string interning table,
// generalized from a flat dedup set into a real chained map with
// insertion-order-independent lookup/delete.
//
// The zero value is not ready to use; call newSymtab.
type symtab struct {
	buckets [][]entry
}

type entry struct {
	key   string
	value interface{}
}

func newSymtab() *symtab {
	return &symtab{buckets: make([][]entry, bucketCount)}
}

func hashName(name string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= 16777619
	}
	return h
}

func (t *symtab) bucket(name string) int {
	return int(hashName(name) % uint32(len(t.buckets)))
}

func (t *symtab) get(name string) (interface{}, bool) {
	b := t.buckets[t.bucket(name)]
	for i := range b {
		if b[i].key == name {
			return b[i].value, true
		}
	}
	return nil, false
}

func (t *symtab) set(name string, v interface{}) {
	i := t.bucket(name)
	b := t.buckets[i]
	for j := range b {
		if b[j].key == name {
			b[j].value = v
			return
		}
	}
	t.buckets[i] = append(b, entry{key: name, value: v})
}

func (t *symtab) delete(name string) {
	i := t.bucket(name)
	b := t.buckets[i]
	for j := range b {
		if b[j].key == name {
			t.buckets[i] = append(b[:j], b[j+1:]...)
			return
		}
	}
}

// each calls f for every entry; f may not mutate the table.
func (t *symtab) each(f func(name string, v interface{})) {
	for _, b := range t.buckets {
		for _, e := range b {
			f(e.key, e.value)
		}
	}
}

// interned name strings: a dedup pool (nothing in the package calls
// intern or internBytes yet), matching the teacher's symtab.go `intern`/`internBytes`
// (reused verbatim in shape since word text dedup is identical in
// both a Makefile and a shell token stream).
var internTab = struct {
	mu sync.Mutex
	m  map[string]string
}{m: make(map[string]string)}

func intern(s string) string {
	internTab.mu.Lock()
	defer internTab.mu.Unlock()
	if v, ok := internTab.m[s]; ok {
		return v
	}
	internTab.m[s] = s
	return s
}

func internBytes(s []byte) string {
	internTab.mu.Lock()
	defer internTab.mu.Unlock()
	if v, ok := internTab.m[string(s)]; ok {
		return v
	}
	v := string(s)
	internTab.m[v] = v
	return v
}
