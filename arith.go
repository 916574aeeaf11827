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

// arithLexer tokenizes an arithmetic expression, spec.md §4.9. There
// is no pack example of a hand-rolled expression evaluator (kati has
// no arithmetic; Make's $(shell expr ...) delegates to the external
// `expr`), so this is grounded directly on spec.md's precedence table
// and on _examples/original_source/src/arith_yacc.c's operator
// precedence / overflow / division rules, implemented as the textbook
// precedence-climbing loop rather than a generated parser (stdlib
// only — no pack dependency fits a grammar this small).
type arithLexer struct {
	s   string
	pos int
	tok string
	num int64
	isNum bool
}

func newArithLexer(s string) *arithLexer {
	l := &arithLexer{s: s}
	l.next()
	return l
}

var arithOps = []string{
	"<<=", ">>=",
	"<<", ">>", "<=", ">=", "==", "!=", "&&", "||", "+=", "-=", "*=", "/=", "%=", "&=", "^=", "|=",
	"+", "-", "*", "/", "%", "<", ">", "=", "!", "~", "&", "^", "|", "?", ":", "(", ")",
}

func (l *arithLexer) next() {
	for l.pos < len(l.s) && (l.s[l.pos] == ' ' || l.s[l.pos] == '\t') {
		l.pos++
	}
	if l.pos >= len(l.s) {
		l.tok = ""
		return
	}
	c := l.s[l.pos]
	if isDigit(c) {
		start := l.pos
		base := 10
		if c == '0' && l.pos+1 < len(l.s) && (l.s[l.pos+1] == 'x' || l.s[l.pos+1] == 'X') {
			base = 16
			l.pos += 2
			start = l.pos
		} else if c == '0' {
			base = 8
		}
		for l.pos < len(l.s) && isAlnumByte(l.s[l.pos]) {
			l.pos++
		}
		n, err := strconv.ParseInt(l.s[start:l.pos], base, 64)
		if err != nil {
			n = 0
		}
		l.num, l.isNum = n, true
		l.tok = "num"
		return
	}
	if isAlpha(c) || c == '_' {
		start := l.pos
		for l.pos < len(l.s) && (isAlnumByte(l.s[l.pos]) || l.s[l.pos] == '_') {
			l.pos++
		}
		l.tok = "name:" + l.s[start:l.pos]
		l.isNum = false
		return
	}
	for _, op := range arithOps {
		if strings.HasPrefix(l.s[l.pos:], op) {
			l.tok = op
			l.pos += len(op)
			l.isNum = false
			return
		}
	}
	l.tok = string(c)
	l.pos++
}

func isAlnumByte(c byte) bool { return isAlpha(c) || isDigit(c) }

// arithEval evaluates a $(( ... )) body against the variable store,
// per spec.md §4.9: assignment family writes back through Set,
// division/modulus by zero is EX_ERROR, overflow wraps via unsigned
// arithmetic, shift counts >= 64 produce 0, short-circuit operators
// evaluate the unused side in no-eval mode so assignments are skipped
// but syntax is validated.
func arithEval(ev *Evaluator, expr string) (int64, error) {
	p := &arithParser{l: newArithLexer(expr), ev: ev}
	v, err := p.parseAssign(true)
	if err != nil {
		return 0, err
	}
	if p.l.tok != "" {
		return 0, newError("", 0, 2, "arithmetic syntax error near %q", p.l.tok)
	}
	return v, nil
}

type arithParser struct {
	l  *arithLexer
	ev *Evaluator
}

func (p *arithParser) err(f string, a ...interface{}) error {
	return newError("", 0, 2, f, a...)
}

// parseAssign handles the lowest-precedence assignment family
// (= *= /= %= += -= <<= >>= &= ^= |=), right-associative.
func (p *arithParser) parseAssign(eval bool) (int64, error) {
	// Lookahead: only a bare name can be an assignment target.
	if strings.HasPrefix(p.l.tok, "name:") {
		name := p.l.tok[len("name:"):]
		save := *p.l
		p.l.next()
		op := p.l.tok
		switch op {
		case "=", "+=", "-=", "*=", "/=", "%=", "<<=", ">>=", "&=", "^=", "|=":
			p.l.next()
			rhs, err := p.parseAssign(eval)
			if err != nil {
				return 0, err
			}
			if !eval {
				return rhs, nil
			}
			var nv int64
			if op == "=" {
				nv = rhs
			} else {
				cur, _ := p.ev.Vars.LookupInt(name, false)
				nv = applyCompound(op, cur, rhs)
			}
			p.ev.Vars.Set(p.ev, name, strconv.FormatInt(nv, 10), 0)
			return nv, nil
		default:
			*p.l = save
		}
	}
	return p.parseTernary(eval)
}

func applyCompound(op string, cur, rhs int64) int64 {
	switch op {
	case "+=":
		return cur + rhs
	case "-=":
		return cur - rhs
	case "*=":
		return cur * rhs
	case "/=":
		return arithDiv(cur, rhs)
	case "%=":
		return arithMod(cur, rhs)
	case "<<=":
		return shiftLeft(cur, rhs)
	case ">>=":
		return shiftRight(cur, rhs)
	case "&=":
		return cur & rhs
	case "^=":
		return cur ^ rhs
	case "|=":
		return cur | rhs
	}
	return rhs
}

func (p *arithParser) parseTernary(eval bool) (int64, error) {
	cond, err := p.parseOr(eval)
	if err != nil {
		return 0, err
	}
	if p.l.tok == "?" {
		p.l.next()
		a, err := p.parseAssign(eval && cond != 0)
		if err != nil {
			return 0, err
		}
		if p.l.tok != ":" {
			return 0, p.err("expected ':' in ternary")
		}
		p.l.next()
		b, err := p.parseAssign(eval && cond == 0)
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return a, nil
		}
		return b, nil
	}
	return cond, nil
}

// binLevel is one precedence tier, tightest to loosest matching
// spec.md §4.9's listed order.
type binLevel struct {
	ops  []string
	next func(*arithParser, bool) (int64, error)
}

func (p *arithParser) parseOr(eval bool) (int64, error) {
	v, err := p.parseAnd(eval)
	if err != nil {
		return 0, err
	}
	for p.l.tok == "||" {
		p.l.next()
		rhs, err := p.parseAnd(eval && v == 0)
		if err != nil {
			return 0, err
		}
		if v != 0 || rhs != 0 {
			v = 1
		} else {
			v = 0
		}
	}
	return v, nil
}

func (p *arithParser) parseAnd(eval bool) (int64, error) {
	v, err := p.parseBitOr(eval)
	if err != nil {
		return 0, err
	}
	for p.l.tok == "&&" {
		p.l.next()
		rhs, err := p.parseBitOr(eval && v != 0)
		if err != nil {
			return 0, err
		}
		if v != 0 && rhs != 0 {
			v = 1
		} else {
			v = 0
		}
	}
	return v, nil
}

func (p *arithParser) parseBitOr(eval bool) (int64, error)  { return p.binop([]string{"|"}, p.parseBitXor, eval) }
func (p *arithParser) parseBitXor(eval bool) (int64, error) { return p.binop([]string{"^"}, p.parseBitAnd, eval) }
func (p *arithParser) parseBitAnd(eval bool) (int64, error) { return p.binop([]string{"&"}, p.parseEq, eval) }
func (p *arithParser) parseEq(eval bool) (int64, error)     { return p.binop([]string{"==", "!="}, p.parseRel, eval) }
func (p *arithParser) parseRel(eval bool) (int64, error) {
	return p.binop([]string{"<=", ">=", "<", ">"}, p.parseShift, eval)
}
func (p *arithParser) parseShift(eval bool) (int64, error) { return p.binop([]string{"<<", ">>"}, p.parseAdd, eval) }
func (p *arithParser) parseAdd(eval bool) (int64, error)   { return p.binop([]string{"+", "-"}, p.parseMul, eval) }
func (p *arithParser) parseMul(eval bool) (int64, error)   { return p.binop([]string{"*", "/", "%"}, p.parseUnary, eval) }

func (p *arithParser) binop(ops []string, next func(bool) (int64, error), eval bool) (int64, error) {
	v, err := next(eval)
	if err != nil {
		return 0, err
	}
	for contains(ops, p.l.tok) {
		op := p.l.tok
		p.l.next()
		rhs, err := next(eval)
		if err != nil {
			return 0, err
		}
		if !eval {
			continue
		}
		v, err = applyBinop(op, v, rhs)
		if err != nil {
			return 0, err
		}
	}
	return v, nil
}

func contains(ops []string, tok string) bool {
	for _, o := range ops {
		if o == tok {
			return true
		}
	}
	return false
}

func applyBinop(op string, a, b int64) (int64, error) {
	switch op {
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "==":
		return boolInt(a == b), nil
	case "!=":
		return boolInt(a != b), nil
	case "<=":
		return boolInt(a <= b), nil
	case ">=":
		return boolInt(a >= b), nil
	case "<":
		return boolInt(a < b), nil
	case ">":
		return boolInt(a > b), nil
	case "<<":
		return shiftLeft(a, b), nil
	case ">>":
		return shiftRight(a, b), nil
	case "+":
		return int64(uint64(a) + uint64(b)), nil
	case "-":
		return int64(uint64(a) - uint64(b)), nil
	case "*":
		return int64(uint64(a) * uint64(b)), nil
	case "/":
		return arithDiv(a, b), nil
	case "%":
		return arithMod(a, b), nil
	}
	return 0, newError("", 0, 2, "unknown arithmetic operator %q", op)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// arithDiv/arithMod: division and remainder by zero is EX_ERROR;
// division and modulus by -1 are defined as 0/negation (spec.md §4.9),
// the one case that would otherwise overflow intmax_t's MinInt64/-1.
func arithDiv(a, b int64) int64 {
	if b == 0 {
		panic(&ShellError{Kind: ExError, Message: "division by zero", Status: 2})
	}
	if b == -1 {
		return -a
	}
	return a / b
}

func arithMod(a, b int64) int64 {
	if b == 0 {
		panic(&ShellError{Kind: ExError, Message: "division by zero", Status: 2})
	}
	if b == -1 {
		return 0
	}
	return a % b
}

// shiftLeft/shiftRight: shift counts >= 64 produce 0 (logical) or
// sign-fill (arithmetic right shift), per spec.md §4.9.
func shiftLeft(a, n int64) int64 {
	if n < 0 || n >= 64 {
		return 0
	}
	return int64(uint64(a) << uint(n))
}

func shiftRight(a, n int64) int64 {
	if n < 0 || n >= 64 {
		if a < 0 {
			return -1
		}
		return 0
	}
	return a >> uint(n)
}

func (p *arithParser) parseUnary(eval bool) (int64, error) {
	switch p.l.tok {
	case "+":
		p.l.next()
		return p.parseUnary(eval)
	case "-":
		p.l.next()
		v, err := p.parseUnary(eval)
		return -v, err
	case "!":
		p.l.next()
		v, err := p.parseUnary(eval)
		if err != nil {
			return 0, err
		}
		return boolInt(v == 0), nil
	case "~":
		p.l.next()
		v, err := p.parseUnary(eval)
		return ^v, err
	}
	return p.parsePrimary(eval)
}

func (p *arithParser) parsePrimary(eval bool) (int64, error) {
	switch {
	case p.l.tok == "(":
		p.l.next()
		v, err := p.parseAssign(eval)
		if err != nil {
			return 0, err
		}
		if p.l.tok != ")" {
			return 0, p.err("expected ')'")
		}
		p.l.next()
		return v, nil
	case p.l.tok == "num":
		v := p.l.num
		p.l.next()
		return v, nil
	case strings.HasPrefix(p.l.tok, "name:"):
		name := p.l.tok[len("name:"):]
		p.l.next()
		if !eval {
			return 0, nil
		}
		return p.ev.Vars.LookupInt(name, p.ev.Opts.NoUnset)
	default:
		return 0, p.err("arithmetic syntax error near %q", p.l.tok)
	}
}
