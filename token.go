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

// Control bytes used to encode word structure inline, in a reserved
// code-unit range disjoint from ordinary text bytes — spec.md §3
// "Word-encoding". Naming cross-checked against the real production
// Go shell mvdan/sh's quoteState enum
// (_examples/other_examples/24d4812a_mvdan-sh__syntax-parser.go.go)
// for idiomatic constant naming, though the encoding scheme itself —
// inline control bytes inside the word text rather than a separate
// WordPart tree — is the original dash-lineage approach recast per
// spec.md §3, not mvdan/sh's tree-of-nodes approach.
const (
	CTLESC       = 0201 // escapes the next byte
	CTLQUOTEMARK = 0202 // toggles quoted state within the word
	CTLVAR       = 0203 // begins a parameter expansion
	CTLENDVAR    = 0204 // ends a parameter expansion
	CTLBACKQ     = 0205 // stands in for the next pending command-sub AST
	CTLARI       = 0206 // begins an arithmetic expansion
	CTLENDARI    = 0207 // ends an arithmetic expansion
)

// Parameter-expansion subtypes, the one-byte prefix following CTLVAR.
type varSubtype byte

const (
	varNormal varSubtype = iota
	varMinus             // ${v-w}
	varPlus              // ${v+w}
	varQuestion          // ${v?w}
	varAssign            // ${v=w}
	varLength            // ${#v}
	varTrimLeft          // ${v#pat}
	varTrimLeftMax       // ${v##pat}
	varTrimRight         // ${v%pat}
	varTrimRightMax      // ${v%%pat}
)

// varFlagNullTest is or'd into the subtype byte when a `:` modifier
// requests the null-test variant (${v:-w} vs ${v-w}).
const varFlagNullTest varSubtype = 0x80

// TokenKind enumerates the lexer's output alphabet, per spec.md §4.6.
type TokenKind int

const (
	TNL TokenKind = iota
	TEOF
	TAnd  // &&
	TOr   // ||
	TPipe // |
	TSemi // ;
	TEndCase
	TEndCaseFallthrough // ;;&
	TLParen
	TRParen
	TBackground // &
	TWord
	TRedir
	// reserved words
	TIf
	TThen
	TElse
	TElif
	TFi
	TDo
	TDone
	TCase
	TEsac
	TWhile
	TUntil
	TFor
	TBegin // "{"
	TEnd   // "}"
	TBang  // "!"
	TIn
)

var reservedWords = map[string]TokenKind{
	"if": TIf, "then": TThen, "else": TElse, "elif": TElif, "fi": TFi,
	"do": TDo, "done": TDone, "case": TCase, "esac": TEsac,
	"while": TWhile, "until": TUntil, "for": TFor,
	"{": TBegin, "}": TEnd, "!": TBang, "in": TIn,
}

// checkKwdFlag bits control lexer context, per spec.md §4.6.
type checkKwdFlag uint

const (
	kwdNLEat checkKwdFlag = 1 << iota
	kwdKeyword
	kwdAlias
	kwdEOFMark
	kwdCmdPosition
)

// Token is the discriminated lexer output unit of spec.md §3.
type Token struct {
	Kind      TokenKind
	Text      string // raw word text, control-byte encoded
	Backquote []AST  // embedded back-quote command-substitution ASTs
	Quoted    bool
	RedirFD   int    // explicit fd prefix on a redirection operator, or -1
	Line      int
}
