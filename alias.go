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

// AliasFlag is the alias entry flag set of spec.md §3 "Alias entry".
type AliasFlag uint

const (
	// AliasInUse prevents re-expansion within its own body.
	AliasInUse AliasFlag = 1 << iota
	// AliasDead + AliasInUse means "scheduled for deletion on release".
	AliasDead
)

// Alias is one name -> replacement entry. Grounded on the teacher's
// symtab.go bucket-table shape plus the cycle-guard state machine
// recovered from _examples/original_source/src/alias.c, which kati
// has no analogue for (Make has no aliases).
type Alias struct {
	Name        string
	Replacement string
	Flags       AliasFlag
}

// AliasStore is the hash-chain alias table of spec.md §4.5, plus the
// "done" sub-list that tracks which alias bodies have finished being
// read so their INUSE bit can be released at the next word boundary.
type AliasStore struct {
	table *symtab
	done  []*Alias
}

func NewAliasStore() *AliasStore {
	return &AliasStore{table: newSymtab()}
}

func (as *AliasStore) Set(name, value string) {
	if old, ok := as.table.get(name); ok && old.(*Alias).Flags&AliasInUse != 0 {
		// Replacing a currently-expanding alias: keep it INUSE so the
		// cycle guard still applies to the body already pushed, but
		// install the new replacement text for future expansions.
		oa := old.(*Alias)
		oa.Replacement = value
		oa.Flags &^= AliasDead
		return
	}
	as.table.set(name, &Alias{Name: name, Replacement: value})
}

func (as *AliasStore) Unset(name string) {
	if raw, ok := as.table.get(name); ok {
		a := raw.(*Alias)
		if a.Flags&AliasInUse != 0 {
			// Deferred: the cycle guard (lookup with check=true) must
			// keep rejecting this alias until release_done fires for
			// the in-flight expansion, per spec.md §4.5.
			a.Flags |= AliasDead
			return
		}
	}
	as.table.delete(name)
}

func (as *AliasStore) ClearAll() {
	as.table = newSymtab()
	as.done = nil
}

// Lookup returns the alias, honouring the cycle guard when check is
// true: an alias with AliasInUse set is invisible to its own body.
func (as *AliasStore) Lookup(name string, check bool) (*Alias, bool) {
	raw, ok := as.table.get(name)
	if !ok {
		return nil, false
	}
	a := raw.(*Alias)
	if check && a.Flags&AliasInUse != 0 {
		return nil, false
	}
	return a, true
}

// MarkDone records that an alias body has been entirely consumed by
// the input stream; it stays INUSE until ReleaseDone runs at the next
// word boundary, matching spec.md's "an alias is never expanded while
// its INUSE bit is set" invariant across the whole body, not just its
// first token.
func (as *AliasStore) MarkDone(a *Alias) {
	a.Flags |= AliasInUse
	as.done = append(as.done, a)
}

// ReleaseDone clears INUSE on every alias frame that finished since
// the last call, deleting any that were unaliased while expanding
// (AliasDead) — the lexer calls this at each word boundary per
// spec.md §4.5.
func (as *AliasStore) ReleaseDone() {
	if len(as.done) == 0 {
		return
	}
	for _, a := range as.done {
		a.Flags &^= AliasInUse
		if a.Flags&AliasDead != 0 {
			as.table.delete(a.Name)
		}
	}
	as.done = as.done[:0]
}

// List returns every alias, for the `alias` builtin with no operands.
func (as *AliasStore) List() []*Alias {
	var out []*Alias
	as.table.each(func(_ string, v interface{}) { out = append(out, v.(*Alias)) })
	return out
}
