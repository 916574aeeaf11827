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
	"sort"
	"strings"
)

// matchMode selects which of the ${v#pat}-family semantics pmatch
// should apply, per spec.md §4.8 item 3.
type matchMode int

const (
	matchWhole matchMode = iota
	matchPrefixLongest
	matchPrefixShortest
	matchSuffixLongest
	matchSuffixShortest
)

var charClasses = map[string]func(byte) bool{
	"alnum":  func(c byte) bool { return isAlpha(c) || isDigit(c) },
	"alpha":  isAlpha,
	"blank":  func(c byte) bool { return c == ' ' || c == '\t' },
	"cntrl":  func(c byte) bool { return c < 0x20 || c == 0x7f },
	"digit":  isDigit,
	"graph":  func(c byte) bool { return c > 0x20 && c < 0x7f },
	"lower":  func(c byte) bool { return c >= 'a' && c <= 'z' },
	"print":  func(c byte) bool { return c >= 0x20 && c < 0x7f },
	"punct":  func(c byte) bool { return c > 0x20 && c < 0x7f && !isAlpha(c) && !isDigit(c) },
	"space":  func(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f' },
	"upper":  func(c byte) bool { return c >= 'A' && c <= 'Z' },
	"xdigit": func(c byte) bool { return isDigit(c) || (c|0x20 >= 'a' && c|0x20 <= 'f') },
}

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// pmatch is the pattern matcher of spec.md §4.8: ?, *, [...], [!...],
// [[:class:]], with CTLESC honoured so a literal character produced by
// quoting never participates in matching. Grounded on the teacher's
// pathutil.go glob-support shape (hasWildcardMeta / matchPattern),
// generalized from Make's single '%' wildcard to full POSIX glob
// syntax — the teacher's own matcher is too narrow to reuse directly,
// so this follows filepath.Match's recursive-backtracking structure
// (the stdlib's own glob engine) while adding CTLESC-awareness and the
// four pmatch modes spec.md requires, which filepath.Match does not
// expose.
func pmatch(pat, str string, mode matchMode) (bool, int) {
	switch mode {
	case matchWhole:
		return matchAt(pat, str) == len(str) && fullMatch(pat, str), 0
	case matchPrefixLongest:
		return matchPrefixMode(pat, str, true)
	case matchPrefixShortest:
		return matchPrefixMode(pat, str, false)
	case matchSuffixLongest:
		return matchSuffixMode(pat, str, true)
	case matchSuffixShortest:
		return matchSuffixMode(pat, str, false)
	}
	return false, 0
}

func fullMatch(pat, str string) bool {
	ok, _ := globMatch(pat, str)
	return ok
}

func matchAt(pat, str string) int {
	if fullMatch(pat, str) {
		return len(str)
	}
	return -1
}

// matchPrefixMode finds the longest or shortest prefix of str matched
// by pat (used by ${v#pat} / ${v##pat}; the suffix forms ${v%pat} /
// ${v%%pat} use matchSuffixMode).
func matchPrefixMode(pat, str string, longest bool) (bool, int) {
	n := len(str)
	if longest {
		for i := n; i >= 0; i-- {
			if fullMatch(pat, str[:i]) {
				return true, i
			}
		}
	} else {
		for i := 0; i <= n; i++ {
			if fullMatch(pat, str[:i]) {
				return true, i
			}
		}
	}
	return false, 0
}

func matchSuffixMode(pat, str string, longest bool) (bool, int) {
	n := len(str)
	if longest {
		for i := 0; i <= n; i++ {
			if fullMatch(pat, str[i:]) {
				return true, i
			}
		}
	} else {
		for i := n; i >= 0; i-- {
			if fullMatch(pat, str[i:]) {
				return true, i
			}
		}
	}
	return false, 0
}

// globMatch implements the recursive-descent ?, *, [...] matcher.
// str is matched as plain text; pat is the raw (still CTLESC-containing)
// pattern.
func globMatch(pat, str string) (bool, error) {
	for len(pat) > 0 {
		var star bool
		var chunk string
		star, chunk, pat = scanChunk(pat)
		if star && chunk == "" {
			return true, nil
		}
		t, ok := matchChunk(chunk, str)
		if ok && (len(pat) > 0 || len(t) == 0) {
			str = t
			continue
		}
		if star {
			for i := 0; i < len(str); i++ {
				if t, ok := matchChunk(chunk, str[i+1:]); ok && (len(pat) > 0 || len(t) == 0) {
					return globMatch(pat, t)
				}
			}
		}
		return false, nil
	}
	return len(str) == 0, nil
}

func scanChunk(pat string) (star bool, chunk, rest string) {
	for len(pat) > 0 && pat[0] == '*' {
		pat = pat[1:]
		star = true
	}
	i := 0
	inRange := false
	for i < len(pat) {
		if pat[i] == byte(CTLESC) && i+1 < len(pat) {
			i += 2
			continue
		}
		if pat[i] == '[' {
			inRange = true
		} else if pat[i] == ']' {
			inRange = false
		} else if pat[i] == '*' && !inRange {
			break
		}
		i++
	}
	return star, pat[:i], pat[i:]
}

func matchChunk(chunk, s string) (rest string, ok bool) {
	for len(chunk) > 0 {
		if len(s) == 0 {
			return "", false
		}
		switch {
		case chunk[0] == byte(CTLESC):
			if len(chunk) < 2 || chunk[1] != s[0] {
				return "", false
			}
			s = s[1:]
			chunk = chunk[2:]
		case chunk[0] == '?':
			s = s[1:]
			chunk = chunk[1:]
		case chunk[0] == '[':
			r, n := utf8DecodeFirst(s)
			var matched bool
			chunk, matched = matchClass(chunk, r)
			if !matched {
				return "", false
			}
			s = s[n:]
		default:
			if chunk[0] != s[0] {
				return "", false
			}
			s = s[1:]
			chunk = chunk[1:]
		}
	}
	return s, true
}

func utf8DecodeFirst(s string) (rune, int) {
	for i, r := range s {
		_ = i
		n := len(string(r))
		return r, n
	}
	return 0, 0
}

// matchClass parses one [...] bracket expression starting at chunk[0]
// == '[' and reports whether r is inside it, per spec.md §4.8's
// ?,*,[...],[!...],[[:class:]] grammar.
func matchClass(chunk string, r rune) (rest string, matched bool) {
	chunk = chunk[1:]
	negate := false
	if len(chunk) > 0 && (chunk[0] == '!' || chunk[0] == '^') {
		negate = true
		chunk = chunk[1:]
	}
	first := true
	for len(chunk) > 0 && (chunk[0] != ']' || first) {
		first = false
		if strings.HasPrefix(chunk, "[:") {
			end := strings.Index(chunk, ":]")
			if end < 0 {
				break
			}
			name := chunk[2:end]
			if f, ok := charClasses[name]; ok && r < 256 && f(byte(r)) {
				matched = true
			}
			chunk = chunk[end+2:]
			continue
		}
		lo := decodeClassRune(chunk)
		chunk = chunk[len(string(lo)):]
		if strings.HasPrefix(chunk, "-") && len(chunk) > 1 && chunk[1] != ']' {
			chunk = chunk[1:]
			hi := decodeClassRune(chunk)
			chunk = chunk[len(string(hi)):]
			if r >= lo && r <= hi {
				matched = true
			}
			continue
		}
		if r == lo {
			matched = true
		}
	}
	if len(chunk) > 0 && chunk[0] == ']' {
		chunk = chunk[1:]
	}
	if negate {
		matched = !matched
	}
	return chunk, matched
}

func decodeClassRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

// expandPathname globs a quote-removed word per spec.md §4.8 item 7,
// returning the sorted matches, or nil if there were none (the caller
// falls back to the literal word).
func expandPathname(word string) []string {
	if !hasGlobMeta(word) {
		return nil
	}
	dir, base := filepath.Split(word)
	if dir == "" {
		dir = "."
	}
	if hasGlobMeta(dir) {
		// Recurse into the directory portion first (a/*/b.txt).
		dirs := expandPathname(strings.TrimSuffix(dir, "/"))
		var out []string
		for _, d := range dirs {
			out = append(out, globOneDir(d, base)...)
		}
		sort.Strings(out)
		return out
	}
	matches := globOneDir(strings.TrimSuffix(dir, "/"), base)
	sort.Strings(matches)
	return matches
}

func globOneDir(dir, pattern string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	hidden := strings.HasPrefix(pattern, ".")
	for _, e := range entries {
		name := e.Name()
		if !hidden && strings.HasPrefix(name, ".") {
			continue
		}
		if ok, _ := globMatch(pattern, name); ok {
			if dir == "." {
				out = append(out, name)
			} else {
				out = append(out, filepath.Join(dir, name))
			}
		}
	}
	return out
}

func hasGlobMeta(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[':
			return true
		case byte(CTLESC):
			i++
		}
	}
	return false
}
