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
	"strconv"
	"strings"
)

// VarFlag is the per-variable flag set of spec.md §3 "Variable entry".
type VarFlag uint

const (
	VarExported VarFlag = 1 << iota
	VarReadonly
	VarStrFixed  // value storage is a fixed-size immutable buffer
	VarTextFixed // name storage is fixed (never renamed/reinterned)
	VarStack     // part of a local-scope stack frame, not the global table
	VarUnset     // present in the table only to remember "explicitly unset"
	VarNoFunc    // setter callback suppressed (bootstrap assignment)
	VarNoSave    // not snapshotted into a subshell/function frame
	VarLateFunc  // setter callback runs after the value is installed (LC_*)
)

// SetterFunc is the per-special-variable callback of spec.md §4.4.
// PATH is the only variable with one (it flushes the command cache);
// assigning OPTIND, LANG or LC_* runs no callback.
type SetterFunc func(ev *Evaluator, name, value string)

// Var is a variable entry. Grounded directly on the teacher's var.go
// `Var` interface (Flavor/Origin/IsDefined) and its
// SimpleVar/RecursiveVar split, which maps cleanly onto the
// distinction POSIX shells draw between a plain string variable (no
// further expansion) and one whose value is expanded fresh at every
// reference — gosh variables are always "simple" (shell variables do
// not recursively re-expand on each read the way Make's `=` does), so
// a single concrete type suffices; the interface is kept so local
// scoping (targetSpecificVar in the teacher) generalizes the same way.
type Var struct {
	Name    string
	Value   string
	NullSet bool // true if never assigned (distinguishes unset from set-to-empty)
	Flags   VarFlag
	Setter  SetterFunc
}

func (v *Var) IsDefined() bool { return v != nil && !v.NullSet }

func (v *Var) isExported() bool { return v != nil && v.Flags&VarExported != 0 }
func (v *Var) isReadonly() bool { return v != nil && v.Flags&VarReadonly != 0 }

// localFrame is one `local` scope pushed on function entry, unwound on
// return — spec.md §3 "Local scope" / §4.4.
type localFrame struct {
	saved map[string]*Var // name -> previous value (nil = was unset)
	names []string        // insertion order, for deterministic unwind
}

// VarStore is the hash-chain variable table of spec.md §4.4, generalized
// over the shared symtab bucket table (symtab.go).
type VarStore struct {
	table   *symtab
	locals  []*localFrame
	setters map[string]SetterFunc
}

func NewVarStore() *VarStore {
	vs := &VarStore{table: newSymtab(), setters: make(map[string]SetterFunc)}
	vs.installSpecialSetters()
	return vs
}

// RegisterSetter installs a callback invoked after Set for the named
// special variable (installBuiltinSetters registers one, for PATH).
func (vs *VarStore) RegisterSetter(name string, f SetterFunc) {
	vs.setters[name] = f
}

// installSpecialSetters seeds the setters table used before an
// Evaluator exists yet (NewVarStore runs ahead of NewEvaluator's own
// installBuiltinSetters pass, which adds the PATH/cache-flush
// callback on top). Nothing needs a setter
// at this point in bootstrap; it exists so VarStore is self-contained
// and does not depend on construction order beyond "setters map
// exists".
func (vs *VarStore) installSpecialSetters() {}

func validVarName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		ok := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9')
		if !ok {
			return false
		}
	}
	return true
}

// Set installs name=value with the given additional flags, running the
// special-variable setter callback afterward (spec.md §4.4 LATEFUNC
// ordering: "the callback runs after the value is installed").
func (vs *VarStore) Set(ev *Evaluator, name, value string, flags VarFlag) error {
	if !validVarName(name) {
		return newError("", 0, 2, "%s: bad variable name", name)
	}
	if old, ok := vs.lookupRaw(name); ok && old.isReadonly() {
		return newError("", 0, 2, "%s: is read only", name)
	}
	v := &Var{Name: name, Value: value, Flags: flags}
	if len(vs.locals) > 0 {
		vs.pushLocalShadow(name)
	}
	vs.table.set(name, v)
	if setter, ok := vs.setters[name]; ok && flags&VarNoFunc == 0 {
		setter(ev, name, value)
	}
	return nil
}

// SetEq parses a "name=value" buffer (the assignment-word encoding
// spec.md §4.4's `set_eq` describes) and installs it.
func (vs *VarStore) SetEq(ev *Evaluator, buf string, flags VarFlag) error {
	i := strings.IndexByte(buf, '=')
	if i < 0 {
		return newError("", 0, 2, "%s: bad variable assignment", buf)
	}
	return vs.Set(ev, buf[:i], buf[i+1:], flags)
}

func (vs *VarStore) lookupRaw(name string) (*Var, bool) {
	v, ok := vs.table.get(name)
	if !ok {
		return nil, false
	}
	vv := v.(*Var)
	return vv, !vv.NullSet
}

// Lookup returns the value and whether it is currently set (vs
// unset-without-value, which lookupRaw distinguishes via NullSet).
func (vs *VarStore) Lookup(name string) (string, bool) {
	v, ok := vs.lookupRaw(name)
	if !ok {
		return "", false
	}
	return v.Value, true
}

// LookupInt parses the variable as an intmax_t for arithmetic contexts,
// honouring set -u (nounset) semantics via the caller-supplied flag.
func (vs *VarStore) LookupInt(name string, nounset bool) (int64, error) {
	s, ok := vs.Lookup(name)
	if !ok {
		if nounset {
			return 0, newError("", 0, 2, "%s: parameter not set", name)
		}
		return 0, nil
	}
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, newError("", 0, 2, "%s: bad arithmetic value %q", name, s)
	}
	return n, nil
}

// Unset removes a variable from the innermost scope that holds it.
func (vs *VarStore) Unset(name string) {
	if v, ok := vs.lookupRaw(name); ok && v.isReadonly() {
		return
	}
	if len(vs.locals) > 0 {
		vs.pushLocalShadow(name)
	}
	vs.table.delete(name)
}

// PushLocalScope begins a `local` frame (function entry).
func (vs *VarStore) PushLocalScope() {
	vs.locals = append(vs.locals, &localFrame{saved: make(map[string]*Var)})
}

// PopLocalScope restores every variable the current frame shadowed
// (function return) — spec.md §3 "Local scope" unwind contract.
func (vs *VarStore) PopLocalScope() {
	n := len(vs.locals)
	if n == 0 {
		return
	}
	f := vs.locals[n-1]
	vs.locals = vs.locals[:n-1]
	for _, name := range f.names {
		prev := f.saved[name]
		if prev == nil {
			vs.table.delete(name)
		} else {
			vs.table.set(name, prev)
		}
	}
}

func (vs *VarStore) pushLocalShadow(name string) {
	f := vs.locals[len(vs.locals)-1]
	if _, already := f.saved[name]; already {
		return
	}
	var prev *Var
	if v, ok := vs.table.get(name); ok {
		cp := *v.(*Var)
		prev = &cp
	}
	f.saved[name] = prev
	f.names = append(f.names, name)
}

// List returns variables whose flags intersect include and do not
// intersect exclude, the contract spec.md §4.4 `list` describes.
func (vs *VarStore) List(include, exclude VarFlag) []*Var {
	var out []*Var
	vs.table.each(func(_ string, raw interface{}) {
		v := raw.(*Var)
		if v.NullSet {
			return
		}
		if include != 0 && v.Flags&include == 0 {
			return
		}
		if exclude != 0 && v.Flags&exclude != 0 {
			return
		}
		out = append(out, v)
	})
	return out
}

// Exported renders the environ-serialized snapshot of spec.md §6
// "Environment out": "name=value" for every VarExported entry.
func (vs *VarStore) Exported() []string {
	var out []string
	for _, v := range vs.List(VarExported, 0) {
		out = append(out, v.Name+"="+v.Value)
	}
	return out
}

// ImportEnviron installs every environ entry whose name is a valid
// shell name as an exported variable — spec.md §6 "Environment in".
func (vs *VarStore) ImportEnviron(ev *Evaluator, environ []string) {
	for _, kv := range environ {
		i := strings.IndexByte(kv, '=')
		if i < 0 {
			continue
		}
		name, value := kv[:i], kv[i+1:]
		if !validVarName(name) {
			continue
		}
		vs.Set(ev, name, value, VarExported)
	}
}
