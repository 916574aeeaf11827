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
	"bufio"
	"io"
)

// Synthetic getc() markers, outside the 0..0xFF raw-byte range, per
// spec.md §4.1.
const (
	PEOF = -1 - iota
	PMBW
	PMBB
)

// inputFrame is one element of the input-stream stack of spec.md §3
// "Input frame": a file-descriptor-backed buffer or an in-memory
// string, stacked for `.` and command substitution. Grounded on the
// teacher's parser.go `readLine`-over-*bufio.Reader shape, generalized
// from "read one Makefile line at a time" to a byte-at-a-time getc/
// ungetc state machine the lexer drives directly (spec.md §4.6 needs
// single-character lookahead mid-word, which line-at-a-time scanning
// cannot give).
type inputFrame struct {
	rd       *bufio.Reader
	str      string // set instead of rd for in-memory string frames
	strPos   int
	filename string
	lineno   int
	pushback [2]int
	npush    int
	isAlias  bool
	alias    *Alias // non-nil when isAlias: released via release_done
	backq    uint32 // nesting depth bitmask for old-style backquotes
	dqbackq  uint64 // per-level double-quotedness bitmap
	prevWasWS bool
}

// InputStream is the stacked input-frame machine of spec.md §4.1.
type InputStream struct {
	frames []*inputFrame
	needPrompt bool
}

func NewInputStream() *InputStream {
	return &InputStream{}
}

// SetFile pushes a file-descriptor-backed frame (script or stdin).
func (in *InputStream) SetFile(r io.Reader, filename string) {
	in.frames = append(in.frames, &inputFrame{
		rd:       bufio.NewReader(r),
		filename: filename,
		lineno:   1,
	})
}

// SetString pushes an in-memory string frame (here-docs, `-c`, `eval`).
func (in *InputStream) SetString(s string) {
	in.frames = append(in.frames, &inputFrame{str: s, filename: "", lineno: 1})
}

// PushString layers an alias body (or any string push) above the
// current frame without disturbing it, per spec.md §4.1's "sub-stack
// of string push frames".
func (in *InputStream) PushString(s string, a *Alias) {
	f := &inputFrame{str: s, isAlias: a != nil, alias: a}
	if len(in.frames) > 0 {
		f.filename = in.frames[len(in.frames)-1].filename
		f.lineno = in.frames[len(in.frames)-1].lineno
	}
	in.frames = append(in.frames, f)
}

func (in *InputStream) top() *inputFrame {
	if len(in.frames) == 0 {
		return nil
	}
	return in.frames[len(in.frames)-1]
}

// PopFrame removes the current top frame, e.g. when an alias body or
// `.`-included file is exhausted.
func (in *InputStream) PopFrame() *inputFrame {
	n := len(in.frames)
	if n == 0 {
		return nil
	}
	f := in.frames[n-1]
	in.frames = in.frames[:n-1]
	return f
}

// UnwindTo pops frames until exactly `stop` remain, the bracket
// EX_ERROR/EX_INT handlers use to restore the input stack on a
// non-local exit (spec.md §4.3).
func (in *InputStream) UnwindTo(stop int) {
	for len(in.frames) > stop {
		in.PopFrame()
	}
}

func (in *InputStream) Depth() int { return len(in.frames) }

func (in *InputStream) Lineno() int {
	if f := in.top(); f != nil {
		return f.lineno
	}
	return 0
}

func (in *InputStream) Filename() string {
	if f := in.top(); f != nil {
		return f.filename
	}
	return ""
}

func (f *inputFrame) rawByte() (int, bool) {
	if f.str != "" || f.strPos < len(f.str) {
		if f.strPos >= len(f.str) {
			return 0, false
		}
		c := f.str[f.strPos]
		f.strPos++
		return int(c), true
	}
	if f.rd == nil {
		return 0, false
	}
	c, err := f.rd.ReadByte()
	if err != nil {
		return 0, false
	}
	return int(c), true
}

// Getc returns PEOF, a control byte, or a raw byte, per spec.md §4.1.
// Nul bytes are silently discarded, except a nul on a file's first
// line is a fatal "cannot execute binary file" (status 126).
func (in *InputStream) Getc() int {
	for {
		f := in.top()
		if f == nil {
			return PEOF
		}
		if f.npush > 0 {
			f.npush--
			return f.pushback[f.npush]
		}
		c, ok := f.rawByte()
		if !ok {
			if f.isAlias && f.alias != nil {
				// Alias body exhausted: schedule release at the
				// next word boundary (spec.md §4.1/§4.5).
			}
			in.PopFrame()
			if f.isAlias {
				continue
			}
			continue
		}
		if c == 0 {
			if f.lineno == 1 && !f.isAlias {
				panic(&ShellError{Kind: ExError, Message: "cannot execute binary file", Status: 126})
			}
			continue
		}
		if c == '\n' {
			f.lineno++
			in.needPrompt = true
			f.prevWasWS = true
		} else {
			f.prevWasWS = (c == ' ' || c == '\t')
		}
		return c
	}
}

// Ungetc pushes back up to two characters, per spec.md §4.1.
func (in *InputStream) Ungetc(c int) {
	f := in.top()
	if f == nil || f.npush >= len(f.pushback) {
		return
	}
	f.pushback[f.npush] = c
	f.npush++
}

// CloseScript releases every frame (shell exit / EX_EXIT unwind).
func (in *InputStream) CloseScript() {
	in.frames = nil
}
