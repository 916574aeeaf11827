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

// scratch is the scoped scratch region of spec.md §4.2: a LIFO region
// used by the lexer and expander to build strings whose lifetime is
// bounded by a surrounding mark. Grounded on the teacher's buf.go
// pooled *bytes.Buffer idiom (newBuf/freeBuf via sync.Pool), here
// generalized into an explicit mark/unmark bracket instead of a flat
// reset, since the expander needs nested regions (one per word, one
// per command substitution inside that word).
type scratch struct {
	buf   []byte
	marks []int
}

var scratchPool = sync.Pool{
	New: func() interface{} { return new(scratch) },
}

func newScratch() *scratch {
	s := scratchPool.Get().(*scratch)
	s.buf = s.buf[:0]
	s.marks = s.marks[:0]
	return s
}

func (s *scratch) release() {
	if cap(s.buf) > 64<<10 {
		return
	}
	scratchPool.Put(s)
}

// mark pushes the current high-water mark, returning a token unmark
// must be called with.
func (s *scratch) mark() int {
	m := len(s.buf)
	s.marks = append(s.marks, m)
	return m
}

// unmark pops back to the mark, discarding everything allocated since.
// Marks must be released in LIFO order, matching spec.md's "the
// scratch region pointer only moves monotonically within a stack mark
// bracket" invariant.
func (s *scratch) unmark(m int) {
	n := len(s.marks)
	if n == 0 || s.marks[n-1] != m {
		panic("scratch: unmark out of order")
	}
	s.marks = s.marks[:n-1]
	s.buf = s.buf[:m]
}

// alloc reserves n fresh bytes at the top of the region and returns a
// slice over them (zeroed).
func (s *scratch) alloc(n int) []byte {
	off := len(s.buf)
	s.buf = append(s.buf, make([]byte, n)...)
	return s.buf[off : off+n : off+n]
}

// putC appends one byte to the top block.
func (s *scratch) putC(c byte) {
	s.buf = append(s.buf, c)
}

// putS appends a string to the top block.
func (s *scratch) putS(str string) {
	s.buf = append(s.buf, str...)
}

// commit reserves n bytes into the current top block without zeroing,
// for callers that will fill the bytes in immediately (the lexer's
// "decode into place" paths).
func (s *scratch) commit(n int) []byte {
	off := len(s.buf)
	for i := 0; i < n; i++ {
		s.buf = append(s.buf, 0)
	}
	return s.buf[off : off+n]
}

// since returns the bytes allocated after mark m, without popping it —
// used to read back a just-built string before deciding whether to
// keep or discard it.
func (s *scratch) since(m int) []byte {
	return s.buf[m:]
}

// topString is a convenience for "read what I just built, then keep
// the mark open" call sites (the expander keeps IFS-region bookkeeping
// that needs the string before any unmark happens).
func (s *scratch) topString(m int) string {
	return string(s.buf[m:])
}
