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
	"os/user"
	"strconv"
	"strings"
)

// ExpandFlag is the expand_arg flag set of spec.md §4.8.
type ExpandFlag uint

const (
	ExpFull ExpandFlag = 1 << iota
	ExpTilde
	ExpVarTilde
	ExpVarTilde2
	ExpQuoted
	ExpCase
	ExpRedir
	ExpXtrace
	ExpWord
	ExpDiscard
)

// ifsRegion is a half-open [Begin,End) byte interval that originated
// from unquoted expansion output and is therefore eligible for field
// splitting, spec.md's GLOSSARY "IFS region".
type ifsRegion struct {
	Begin, End int
	NullOnly   bool // "$@"-style: only split on embedded NUL markers
}

// ifsKind reports how a single expansion's output should participate
// in field splitting: not at all, by the ordinary IFS rules, or by the
// "$@" NUL-terminator hack of spec.md §4.8.
type ifsKind int

const (
	ifsNone ifsKind = iota
	ifsWhitespace
	ifsNullOnly
)

// expandState accumulates one word's expansion, grounded on the
// teacher's func.go `evalBuffer`/`ssvWriter` pooled-writer shape,
// generalized to also track IFS regions alongside the growing byte
// buffer (the teacher has no field-splitting concept: Make words are
// never re-split by a runtime IFS).
type expandState struct {
	out     []byte
	regions []ifsRegion
}

// ExpandArg is the expand_arg entry point of spec.md §4.8: it walks
// the control-byte encoding of arg.Text, producing zero or more
// argument strings in out.
func (ev *Evaluator) ExpandArg(arg *ArgWord, flags ExpandFlag) ([]string, error) {
	st := &expandState{}
	if err := ev.expandInto(st, arg, flags); err != nil {
		return nil, err
	}
	word := string(st.out)
	if flags&ExpTilde != 0 {
		word = ev.expandTildePrefix(word)
	}
	if flags&ExpFull == 0 {
		return []string{quoteRemove(word)}, nil
	}
	fields := ev.splitFields(word, st.regions)
	var out []string
	for _, f := range fields {
		if flags&ExpRedir != 0 || flags&ExpCase != 0 {
			out = append(out, quoteRemove(f))
			continue
		}
		matches := expandPathname(f)
		if matches == nil {
			out = append(out, quoteRemove(f))
			continue
		}
		out = append(out, matches...)
	}
	return out, nil
}

// expandInto walks one argument's control-byte text emitting decoded
// bytes to st.out and recording IFS regions for later field-splitting
// — spec.md §4.8 item 1.
func (ev *Evaluator) expandInto(st *expandState, arg *ArgWord, flags ExpandFlag) error {
	text := arg.Text
	bq := arg.Backquote
	bqi := 0
	quoted := flags&ExpQuoted != 0
	i := 0
	for i < len(text) {
		c := text[i]
		switch c {
		case CTLESC:
			i++
			if i < len(text) {
				st.out = append(st.out, text[i])
				i++
			}
		case CTLQUOTEMARK:
			quoted = !quoted
			i++
		case CTLBACKQ:
			i++
			if bqi >= len(bq) {
				break
			}
			out, err := ev.runCommandSub(bq[bqi])
			bqi++
			if err != nil {
				return err
			}
			start := len(st.out)
			st.out = append(st.out, out...)
			if !quoted {
				st.regions = append(st.regions, ifsRegion{Begin: start, End: len(st.out)})
			}
		case CTLVAR:
			i++
			subtype := varSubtype(text[i])
			i++
			if text[i] != '{' {
				return newError("", 0, 2, "malformed parameter expansion")
			}
			i++
			start := i
			depth := 1
			for i < len(text) && depth > 0 {
				if text[i] == CTLENDVAR {
					depth--
					if depth == 0 {
						break
					}
				}
				i++
			}
			inner := text[start:i]
			i++ // skip CTLENDVAR
			val, kind, err := ev.expandParam(inner, subtype, quoted, flags)
			if err != nil {
				return err
			}
			startOut := len(st.out)
			st.out = append(st.out, val...)
			switch {
			case kind == ifsNullOnly:
				st.regions = append(st.regions, ifsRegion{Begin: startOut, End: len(st.out), NullOnly: true})
			case !quoted && kind == ifsWhitespace:
				st.regions = append(st.regions, ifsRegion{Begin: startOut, End: len(st.out)})
			}
		case CTLARI:
			i++
			start := i
			for i < len(text) && text[i] != CTLENDARI {
				i++
			}
			inner := text[start:i]
			i++ // skip CTLENDARI
			n, err := arithEval(ev, inner)
			if err != nil {
				return err
			}
			startOut := len(st.out)
			st.out = append(st.out, strconv.FormatInt(n, 10)...)
			if !quoted {
				st.regions = append(st.regions, ifsRegion{Begin: startOut, End: len(st.out)})
			}
		default:
			st.out = append(st.out, c)
			i++
		}
	}
	return nil
}

// expandParam computes and transforms one ${...} reference, per
// spec.md §4.8 item 3.
func (ev *Evaluator) expandParam(inner string, subtype varSubtype, quoted bool, flags ExpandFlag) (string, ifsKind, error) {
	nullTest := subtype&varFlagNullTest != 0
	baseType := subtype &^ varFlagNullTest

	name, word, hasWord := splitParamWord(inner)
	val, isSet := ev.lookupSpecial(name)
	if !isSet {
		val, isSet = ev.Vars.Lookup(name)
	}
	isNullOrUnset := !isSet || (nullTest && val == "")

	switch baseType {
	case varLength:
		return strconv.Itoa(runeLen(val)), ifsWhitespace, nil
	case varMinus:
		if isNullOrUnset {
			w, _, err := ev.expandWordPart(word, flags)
			return w, ifsNone, err
		}
		return val, ifsWhitespace, nil
	case varPlus:
		if isNullOrUnset {
			return "", ifsWhitespace, nil
		}
		w, _, err := ev.expandWordPart(word, flags)
		return w, ifsNone, err
	case varAssign:
		if isNullOrUnset {
			w, _, err := ev.expandWordPart(word, flags)
			if err != nil {
				return "", ifsWhitespace, err
			}
			if err := ev.Vars.Set(ev, name, w, 0); err != nil {
				return "", ifsWhitespace, err
			}
			return w, ifsWhitespace, nil
		}
		return val, ifsWhitespace, nil
	case varQuestion:
		if isNullOrUnset {
			w := word
			if !hasWord {
				w = name + ": parameter not set"
			}
			msg, _, _ := ev.expandWordPart(w, flags)
			panic(&ShellError{Kind: ExError, Message: msg, Status: 2})
		}
		return val, ifsWhitespace, nil
	case varTrimLeft, varTrimLeftMax, varTrimRight, varTrimRightMax:
		mode := map[varSubtype]matchMode{
			varTrimLeft: matchPrefixShortest, varTrimLeftMax: matchPrefixLongest,
			varTrimRight: matchSuffixShortest, varTrimRightMax: matchSuffixLongest,
		}[baseType]
		pat, _, _ := ev.expandWordPart(word, flags|ExpCase)
		ok, n := pmatch(pat, val, mode)
		if !ok {
			return val, ifsWhitespace, nil
		}
		switch baseType {
		case varTrimLeft, varTrimLeftMax:
			return val[n:], ifsWhitespace, nil
		default:
			return val[:n], ifsWhitespace, nil
		}
	default: // varNormal
		if !isSet && ev.Opts.NoUnset && !isSpecialParamName(name) {
			panic(&ShellError{Kind: ExError, Message: name + ": unbound variable", Status: 2})
		}
		if name == "@" {
			if quoted {
				return joinPositionalsNUL(ev.Positional[1:]), ifsNullOnly, nil
			}
			return strings.Join(ev.Positional[1:], " "), ifsWhitespace, nil
		}
		return val, ifsWhitespace, nil
	}
}

// joinPositionalsNUL encodes positional parameters for the quoted
// "$@" hack: each parameter is followed by a NUL terminator, so that
// zero positionals produce zero bytes (and so drop their surrounding
// field entirely) rather than one ambiguous empty field.
func joinPositionalsNUL(ps []string) string {
	var b strings.Builder
	for _, p := range ps {
		b.WriteString(p)
		b.WriteByte(0)
	}
	return b.String()
}

// expandWordPart recursively expands a default/alternative/error word
// operand, which may itself contain nested expansions — re-lexed as a
// tiny ArgWord since the lexer already encoded it during ${...}
// scanning (readBracedParam emits nested CTLVAR/CTLBACKQ inline).
func (ev *Evaluator) expandWordPart(text string, flags ExpandFlag) (string, bool, error) {
	st := &expandState{}
	if err := ev.expandInto(st, &ArgWord{Text: text}, flags|ExpQuoted); err != nil {
		return "", false, err
	}
	return string(st.out), false, nil
}

func splitParamWord(inner string) (name, word string, hasWord bool) {
	// inner is "NAME" possibly followed by raw word bytes already
	// emitted by the lexer after the subtype character was consumed;
	// readBracedParam leaves non-subtype bytes verbatim, so name runs
	// until the first byte that cannot continue a name.
	i := 0
	for i < len(inner) && (isNameCont(int(inner[i])) || (i == 0 && isSpecialParamByte(inner[i]))) {
		i++
		if i == 1 && isSpecialParamByte(inner[0]) {
			break
		}
	}
	return inner[:i], inner[i:], i < len(inner)
}

func isSpecialParamByte(c byte) bool { return isSpecialParam(int(c)) }

func isSpecialParamName(name string) bool {
	return len(name) == 1 && isSpecialParam(int(name[0]))
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// lookupSpecial computes the special parameters spec.md §4.4/§4.8 list
// as "not table entries but computed": $$ $? $# $! $- $* $@ and
// numeric positionals $0-$9.
func (ev *Evaluator) lookupSpecial(name string) (string, bool) {
	switch name {
	case "$":
		return strconv.Itoa(os.Getpid()), true
	case "?":
		return strconv.Itoa(ev.LastStatus), true
	case "#":
		return strconv.Itoa(len(ev.Positional) - 1), true
	case "!":
		return strconv.Itoa(ev.LastBgPID), true
	case "-":
		return ev.Opts.String(), true
	case "*":
		return strings.Join(ev.Positional[1:], " "), true
	case "@":
		return strings.Join(ev.Positional[1:], "\x00"), true
	}
	if len(name) == 1 && name[0] >= '0' && name[0] <= '9' {
		idx := int(name[0] - '0')
		if idx < len(ev.Positional) {
			return ev.Positional[idx], true
		}
		return "", true
	}
	return "", false
}

// expandHeredoc expands a RedirHereX body (unquoted delimiter):
// parameter, command, and arithmetic expansion run, but the result is
// never field-split or pathname-expanded, spec.md §4.6/§4.11.
func (ev *Evaluator) expandHeredoc(body string) (string, error) {
	text, backq, err := encodeHeredocBody(body)
	if err != nil {
		return "", err
	}
	st := &expandState{}
	if err := ev.expandInto(st, &ArgWord{Text: text, Backquote: backq}, ExpQuoted); err != nil {
		return "", err
	}
	return quoteRemove(string(st.out)), nil
}

// expandTildePrefix implements spec.md §4.8 item 2.
func (ev *Evaluator) expandTildePrefix(word string) string {
	if !strings.HasPrefix(word, "~") {
		return word
	}
	rest := word[1:]
	end := strings.IndexAny(rest, "/"+string(rune(CTLQUOTEMARK)))
	name := rest
	tail := ""
	if end >= 0 {
		name, tail = rest[:end], rest[end:]
	}
	if name == "" {
		if home, ok := ev.Vars.Lookup("HOME"); ok {
			return home + tail
		}
		return word
	}
	if dir, ok := lookupUserHome(name); ok {
		return dir + tail
	}
	return word
}

// splitFields implements spec.md §4.8 item 6: sequences of
// IFS-whitespace separate fields outside IFS regions are never split;
// inside a region, a run of IFS-whitespace separates fields, a single
// non-whitespace IFS char is one separator, and a NullOnly region only
// splits on embedded NUL markers (the "$@" hack of spec.md §4.8).
func (ev *Evaluator) splitFields(word string, regions []ifsRegion) []string {
	ifs, ok := ev.Vars.Lookup("IFS")
	if !ok {
		ifs = " \t\n"
	}
	if len(regions) == 0 {
		return []string{word}
	}
	var fields []string
	var cur strings.Builder
	inField := false
	emit := func() {
		fields = append(fields, cur.String())
		cur.Reset()
		inField = false
	}
	i := 0
	for i < len(word) {
		region := regionAt(regions, i)
		if region == nil {
			cur.WriteByte(word[i])
			inField = true
			i++
			continue
		}
		c := word[i]
		if region.NullOnly {
			if c == 0 {
				// "$@"-style NUL is a terminator, not a separator: it
				// always ends a field, even an empty one, since each
				// positional parameter (including "") got exactly one.
				fields = append(fields, cur.String())
				cur.Reset()
				inField = false
				i++
				continue
			}
			cur.WriteByte(c)
			inField = true
			i++
			continue
		}
		if strings.IndexByte(ifs, c) < 0 {
			cur.WriteByte(c)
			inField = true
			i++
			continue
		}
		if isWhitespace(rune(c)) {
			for i < len(word) && regionAt(regions, i) != nil && isWhitespace(rune(word[i])) && strings.IndexByte(ifs, word[i]) >= 0 {
				i++
			}
			if inField || len(fields) > 0 || cur.Len() > 0 {
				emit()
			}
			continue
		}
		emit()
		i++
	}
	if inField || cur.Len() > 0 {
		emit()
	}
	if len(fields) == 0 {
		if hasNullOnlyRegion(regions) {
			// "$@" with zero positional parameters: the whole field
			// disappears rather than expanding to one empty string.
			return nil
		}
		return []string{""}
	}
	return fields
}

func hasNullOnlyRegion(regions []ifsRegion) bool {
	for _, r := range regions {
		if r.NullOnly {
			return true
		}
	}
	return false
}

func regionAt(regions []ifsRegion, i int) *ifsRegion {
	for idx := range regions {
		if i >= regions[idx].Begin && i < regions[idx].End {
			return &regions[idx]
		}
	}
	return nil
}

// lookupUserHome resolves ~name via the system user database, spec.md
// §4.8 item 2's "other user" tilde form.
func lookupUserHome(name string) (string, bool) {
	u, err := user.Lookup(name)
	if err != nil {
		return "", false
	}
	return u.HomeDir, true
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

// quoteRemove strips the CTLQUOTEMARK/CTLESC bookkeeping bytes,
// spec.md §4.8 item 8, leaving plain text.
func quoteRemove(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case CTLQUOTEMARK:
			continue
		case CTLESC:
			i++
			if i < len(s) {
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
