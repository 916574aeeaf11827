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

// Parser is the recursive-descent engine of spec.md §4.7, grounded on
// the teacher's parser.go `parser` struct shape (an input cursor plus
// accumulated `err`), generalized from Makefile directive dispatch to
// the POSIX grammar productions list/and-or/pipeline/command/simple.
type Parser struct {
	lx       *Lexer
	aliases  *AliasStore
	filename string
	tok      *Token
	err      error
}

func newParserFromLexer(lx *Lexer, aliases *AliasStore, filename string) *Parser {
	return &Parser{lx: lx, aliases: aliases, filename: filename}
}

// NewParser builds a Parser reading from in, with alias expansion
// wired through the lexer per spec.md §4.1/§4.5.
func NewParser(in *InputStream, aliases *AliasStore, filename string) *Parser {
	return newParserFromLexer(NewLexer(in, aliases), aliases, filename)
}

// ParseString parses a whole program from an in-memory string —
// used by command substitution, `eval`, and `.` to re-enter the
// parser over a pushed string frame, per spec.md §4.6/§4.7.
func ParseString(src, filename string) (AST, error) {
	in := NewInputStream()
	in.SetString(src)
	p := NewParser(in, NewAliasStore(), filename)
	return p.ParseProgram()
}

func (p *Parser) advance() error {
	t, err := p.lx.ReadToken()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *Parser) syntaxErr(f string, a ...interface{}) error {
	return newSyntaxError(p.filename, p.tok.Line, f, a...)
}

// ParseProgram parses a whole input stream into one sequence node,
// the top-level entry spec.md §4.7 describes as `list`.
func (p *Parser) ParseProgram() (AST, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseList(true)
}

// ParseOne parses a single top-level command (one prompt's worth, in
// an interactive loop) and leaves the cursor ready for the next call.
func (p *Parser) ParseOne() (AST, error) {
	if p.tok == nil {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	for p.tok.Kind == TNL {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.tok.Kind == TEOF {
		return nil, nil
	}
	node, err := p.parseAndOr()
	if err != nil {
		return nil, err
	}
	node = p.wrapTerminator(node)
	return node, nil
}

func (p *Parser) wrapTerminator(node AST) AST {
	switch p.tok.Kind {
	case TSemi, TNL:
		p.advance()
	case TBackground:
		node = &BackgroundAST{Body: node}
		p.advance()
	}
	return node
}

// parseList → and-or { (";" | "&" | NL) and-or } [terminator]
func (p *Parser) parseList(topLevel bool) (AST, error) {
	var result AST
	for {
		for p.tok.Kind == TNL {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if p.tok.Kind == TEOF {
			break
		}
		if topLevel == false && p.atListEnd() {
			break
		}
		node, err := p.parseAndOr()
		if err != nil {
			return nil, err
		}
		switch p.tok.Kind {
		case TBackground:
			node = &BackgroundAST{Body: node}
			p.advance()
		case TSemi:
			p.advance()
		case TNL:
			// handled at loop top
		}
		if result == nil {
			result = node
		} else {
			result = &BinaryAST{Op: BinSemi, Left: result, Right: node}
		}
		if p.tok.Kind == TEOF {
			break
		}
	}
	if result == nil {
		result = &CommandAST{}
	}
	return result, nil
}

func (p *Parser) atListEnd() bool {
	switch p.tok.Kind {
	case TFi, TThen, TElse, TElif, TDone, TEsac, TEnd, TRParen, TEndCase, TEndCaseFallthrough:
		return true
	}
	return false
}

// parseAndOr → pipeline { ("&&"|"||") pipeline }
func (p *Parser) parseAndOr() (AST, error) {
	left, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	for {
		var op BinOp
		switch p.tok.Kind {
		case TAnd:
			op = BinAnd
		case TOr:
			op = BinOr
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.tok.Kind == TNL {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		right, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		left = &BinaryAST{Op: op, Left: left, Right: right}
	}
}

// parsePipeline → ["!"] command { "|" command }
func (p *Parser) parsePipeline() (AST, error) {
	negate := false
	if p.tok.Kind == TBang {
		negate = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	first, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	cmds := []AST{first}
	for p.tok.Kind == TPipe {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.tok.Kind == TNL {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		next, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, next)
	}
	if len(cmds) == 1 && !negate {
		return cmds[0], nil
	}
	var node AST = &PipeAST{Commands: cmds}
	if negate {
		node = &NotAST{Body: node}
	}
	return node, nil
}

// parseCommand → if | while | until | for | case | subshell |
// brace-group | function-def | simple
func (p *Parser) parseCommand() (AST, error) {
	switch p.tok.Kind {
	case TIf:
		return p.parseIf()
	case TWhile:
		return p.parseWhileUntil(false)
	case TUntil:
		return p.parseWhileUntil(true)
	case TFor:
		return p.parseFor()
	case TCase:
		return p.parseCase()
	case TLParen:
		return p.parseSubshell()
	case TBegin:
		return p.parseBraceGroup()
	case TWord:
		if fn, ok, err := p.tryFunctionDef(); err != nil {
			return nil, err
		} else if ok {
			return fn, nil
		}
		return p.parseSimple()
	default:
		return p.parseSimple()
	}
}

func (p *Parser) expect(k TokenKind, what string) error {
	if p.tok.Kind != k {
		return p.syntaxErr("expected %s", what)
	}
	return p.advance()
}

func (p *Parser) parseIf() (AST, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.parseList(false)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TThen, "'then'"); err != nil {
		return nil, err
	}
	then, err := p.parseList(false)
	if err != nil {
		return nil, err
	}
	node := &IfAST{Cond: cond, Then: then}
	for p.tok.Kind == TElif {
		if err := p.advance(); err != nil {
			return nil, err
		}
		econd, err := p.parseList(false)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TThen, "'then'"); err != nil {
			return nil, err
		}
		ethen, err := p.parseList(false)
		if err != nil {
			return nil, err
		}
		node.Elifs = append(node.Elifs, struct{ Cond, Then AST }{econd, ethen})
	}
	if p.tok.Kind == TElse {
		if err := p.advance(); err != nil {
			return nil, err
		}
		els, err := p.parseList(false)
		if err != nil {
			return nil, err
		}
		node.Else = els
	}
	if err := p.expect(TFi, "'fi'"); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseWhileUntil(until bool) (AST, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.parseList(false)
	if err != nil {
		return nil, err
	}
	body, err := p.parseDoDone()
	if err != nil {
		return nil, err
	}
	return &WhileAST{Cond: cond, Body: body, Until: until}, nil
}

func (p *Parser) parseDoDone() (AST, error) {
	if err := p.expect(TDo, "'do'"); err != nil {
		return nil, err
	}
	body, err := p.parseList(false)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TDone, "'done'"); err != nil {
		return nil, err
	}
	return body, nil
}

func (p *Parser) parseFor() (AST, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Kind != TWord {
		return nil, p.syntaxErr("expected name after 'for'")
	}
	name := p.tok.Text
	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.tok.Kind == TNL {
		p.advance()
	}
	node := &ForAST{Name: name}
	if p.tok.Kind == TIn {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.tok.Kind == TWord {
			node.Words = append(node.Words, &ArgWord{Text: p.tok.Text, Backquote: p.tok.Backquote})
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if p.tok.Kind == TSemi || p.tok.Kind == TNL {
			p.advance()
		}
	} else if p.tok.Kind == TSemi {
		p.advance()
	}
	for p.tok.Kind == TNL {
		p.advance()
	}
	body, err := p.parseDoDone()
	if err != nil {
		return nil, err
	}
	node.Body = body
	return node, nil
}

func (p *Parser) parseCase() (AST, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Kind != TWord {
		return nil, p.syntaxErr("expected word after 'case'")
	}
	word := &ArgWord{Text: p.tok.Text, Backquote: p.tok.Backquote}
	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.tok.Kind == TNL {
		p.advance()
	}
	if err := p.expect(TIn, "'in'"); err != nil {
		return nil, err
	}
	for p.tok.Kind == TNL {
		p.advance()
	}
	node := &CaseAST{Word: word}
	for p.tok.Kind != TEsac && p.tok.Kind != TEOF {
		item := CaseItem{}
		if p.tok.Kind == TLParen {
			p.advance()
		}
		for {
			if p.tok.Kind != TWord {
				return nil, p.syntaxErr("expected case pattern")
			}
			item.Patterns = append(item.Patterns, &ArgWord{Text: p.tok.Text})
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.Kind == TPipe {
				p.advance()
				continue
			}
			break
		}
		if err := p.expect(TRParen, "')'"); err != nil {
			return nil, err
		}
		for p.tok.Kind == TNL {
			p.advance()
		}
		if p.tok.Kind != TEndCase && p.tok.Kind != TEndCaseFallthrough && p.tok.Kind != TEsac {
			body, err := p.parseList(false)
			if err != nil {
				return nil, err
			}
			item.Body = body
		}
		if p.tok.Kind == TEndCaseFallthrough {
			item.Fallthru = true
			p.advance()
		} else if p.tok.Kind == TEndCase {
			p.advance()
		}
		for p.tok.Kind == TNL {
			p.advance()
		}
		node.Items = append(node.Items, item)
	}
	if err := p.expect(TEsac, "'esac'"); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseSubshell() (AST, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	body, err := p.parseList(false)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TRParen, "')'"); err != nil {
		return nil, err
	}
	node := AST(&SubshellAST{Body: body})
	return p.parseTrailingRedirs(node)
}

func (p *Parser) parseBraceGroup() (AST, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	body, err := p.parseList(false)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TEnd, "'}'"); err != nil {
		return nil, err
	}
	return p.parseTrailingRedirs(body)
}

func (p *Parser) parseTrailingRedirs(node AST) (AST, error) {
	var redirs []*FileRedir
	for p.tok.Kind == TRedir {
		r, err := p.finishRedir()
		if err != nil {
			return nil, err
		}
		redirs = append(redirs, r)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if len(redirs) == 0 {
		return node, nil
	}
	return &RedirWrapAST{Body: node, Redirs: redirs}, nil
}

// tryFunctionDef recognizes "NAME ( )" with empty argv and no
// redirections, followed by a command — spec.md §4.7. Lookahead is at
// most one token deep (the '(' immediately after a bare NAME), so a
// failed match only needs the lexer's single-token pushback
// (UngetToken), not a full parser-state snapshot.
func (p *Parser) tryFunctionDef() (AST, bool, error) {
	name := p.tok.Text
	if !validVarName(name) {
		return nil, false, nil
	}
	nameTok := p.tok
	if err := p.advance(); err != nil {
		return nil, false, err
	}
	if p.tok.Kind != TLParen {
		p.lx.UngetToken(p.tok)
		p.tok = nameTok
		return nil, false, nil
	}
	lparenTok := p.tok
	if err := p.advance(); err != nil {
		return nil, false, err
	}
	if p.tok.Kind != TRParen {
		return nil, false, p.syntaxErr("expected ')' to close function definition %q", name)
	}
	_ = lparenTok
	if err := p.advance(); err != nil {
		return nil, false, err
	}
	for p.tok.Kind == TNL {
		if err := p.advance(); err != nil {
			return nil, false, err
		}
	}
	body, err := p.parseCommand()
	if err != nil {
		return nil, false, err
	}
	return &DefunAST{Name: name, Body: body}, true, nil
}

// parseSimple → { assign | word | redir }, per spec.md §4.7: a leading
// run of NAME=value words are assignments; the first non-assignment
// word starts argv; thereafter every further word is an argument (not
// re-checked for '=').
func (p *Parser) parseSimple() (AST, error) {
	node := &CommandAST{}
	sawArgv := false
	for {
		switch p.tok.Kind {
		case TWord:
			if !sawArgv && isAssignWord(p.tok.Text) {
				node.Assigns = append(node.Assigns, &ArgWord{Text: p.tok.Text, Backquote: p.tok.Backquote})
			} else {
				sawArgv = true
				node.Argv = append(node.Argv, &ArgWord{Text: p.tok.Text, Backquote: p.tok.Backquote})
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		case TRedir:
			r, err := p.finishRedir()
			if err != nil {
				return nil, err
			}
			node.Redirs = append(node.Redirs, r)
			if err := p.advance(); err != nil {
				return nil, err
			}
		default:
			if len(node.Argv) == 0 && len(node.Assigns) == 0 && len(node.Redirs) == 0 {
				return nil, p.syntaxErr("unexpected token")
			}
			return node, nil
		}
	}
}

// isAssignWord reports whether text's leading run matches NAME=,
// spec.md §4.7.
func isAssignWord(text string) bool {
	i := strings.IndexByte(text, '=')
	if i <= 0 {
		return false
	}
	return validVarName(text[:i])
}

// finishRedir consumes the word following a TRedir token (the target
// filename, dup-fd digits, or "-") and builds the FileRedir, including
// scheduling a here-doc read via the lexer when Text encodes one.
func (p *Parser) finishRedir() (*FileRedir, error) {
	kindCode := p.tok.Text
	fd := p.tok.RedirFD
	if kindCode == "heredoc" || kindCode == "heredoc-strip" {
		return p.finishHeredoc(fd, kindCode == "heredoc-strip")
	}
	n, err := strconv.Atoi(kindCode)
	if err != nil {
		return nil, p.syntaxErr("bad redirection")
	}
	kind := RedirKind(n)
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Kind != TWord {
		return nil, p.syntaxErr("expected redirection target")
	}
	r := &FileRedir{FD: fd, Kind: kind}
	switch kind {
	case RedirToFD, RedirFromFD:
		if p.tok.Text == "-" {
			r.DupClose = true
		} else if n, err := strconv.Atoi(p.tok.Text); err == nil {
			r.DupFD = n
		} else {
			r.Fname = &ArgWord{Text: p.tok.Text}
		}
	default:
		r.Fname = &ArgWord{Text: p.tok.Text}
	}
	// finishRedir leaves the cursor ON the target word; parseSimple's
	// caller advances past it afterward, matching the redir-then-word
	// token pairing the lexer produces.
	return r, nil
}

func (p *Parser) finishHeredoc(fd int, stripTab bool) (*FileRedir, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Kind != TWord {
		return nil, p.syntaxErr("expected here-doc delimiter")
	}
	marker := p.tok.Text
	quoted := p.tok.Quoted
	r := &FileRedir{FD: fd, Kind: RedirHere, HereTabs: stripTab}
	if quoted {
		r.Kind = RedirHere
	} else {
		r.Kind = RedirHereX
	}
	plainMarker := stripQuoteMarks(marker)
	p.lx.scheduleHeredoc(r, plainMarker, quoted, stripTab)
	return r, nil
}

// stripQuoteMarks removes the CTLQUOTEMARK/CTLESC control bytes from a
// here-doc delimiter word so its comparison is byte-for-byte plain
// text, per spec.md §4.6.
func stripQuoteMarks(s string) string {
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
