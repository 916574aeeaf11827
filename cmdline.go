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
	"fmt"
	"os"
	"strings"
)

// StartupConfig is the resolved result of parsing spec.md §4.2's
// invocation line ("sh [-abCEefIimnpsuVvx] [-o option] [-c cmd] [arg...]"),
// grounded on the teacher's parseFlags/parseCommandLine split (main.go):
// one pass turns argv into typed fields, a second decides what source
// the interpreter reads from.
type StartupConfig struct {
	Opts        ShellOpts
	CommandStr  string   // -c CMD operand, "" if not given
	HasCommand  bool
	ScriptPath  string   // first non-option operand when not -c/-s
	Args        []string // remaining operands: $0 (script or argv0) then positionals
	ReadStdin   bool      // -s, or no script operand and not -c
}

var longOptionLetters = map[string]byte{
	"allexport": 'a',
	"notify":    'b',
	"noclobber": 'C',
	"errexit":   'e',
	"noglob":    'f',
	"monitor":   'm',
	"noexec":    'n',
	"nounset":   'u',
	"verbose":   'v',
	"xtrace":    'x',
}

// ParseArgs parses argv (excluding argv[0], which is supplied
// separately as it may carry the leading "-" that signals a login
// shell) into a StartupConfig. Grounded on _examples/original_source/
// src/main.c's getopt loop, generalized from libc getopt to a small
// hand-rolled scanner so "-c cmd" and "+o option" forms both work
// without pulling in the flag package's GNU-only long-option model.
func ParseArgs(argv0 string, argv []string) (*StartupConfig, error) {
	cfg := &StartupConfig{}
	cfg.Opts.Login = strings.HasPrefix(argv0, "-")

	i := 0
	for i < len(argv) {
		a := argv[i]
		if a == "--" {
			i++
			break
		}
		if len(a) < 2 || (a[0] != '-' && a[0] != '+') {
			break
		}
		on := a[0] == '-'
		body := a[1:]
		if body == "o" || body == "-o" {
			i++
			if i >= len(argv) {
				return nil, fmt.Errorf("-o: option argument required")
			}
			name := argv[i]
			letter, ok := longOptionLetters[name]
			if !ok {
				return nil, fmt.Errorf("-o %s: unknown option", name)
			}
			applyOptLetter(&cfg.Opts, rune(letter), on)
			i++
			continue
		}
		if body == "c" {
			cfg.HasCommand = true
			i++
			if i >= len(argv) {
				return nil, fmt.Errorf("-c: command string required")
			}
			cfg.CommandStr = argv[i]
			i++
			continue
		}
		if body == "s" {
			cfg.ReadStdin = true
			i++
			continue
		}
		if body == "i" {
			cfg.Opts.Interactive = true
			i++
			continue
		}
		for _, c := range body {
			applyOptLetter(&cfg.Opts, c, on)
		}
		i++
	}

	rest := argv[i:]
	switch {
	case cfg.HasCommand:
		if len(rest) > 0 {
			cfg.Args = rest
		} else {
			cfg.Args = []string{"sh"}
		}
	case cfg.ReadStdin:
		cfg.Args = append([]string{"sh"}, rest...)
	case len(rest) > 0:
		cfg.ScriptPath = rest[0]
		cfg.Args = rest
	default:
		cfg.ReadStdin = true
		cfg.Args = []string{"sh"}
	}

	if !cfg.Opts.Interactive && !cfg.HasCommand && cfg.ScriptPath == "" && cfg.ReadStdin {
		cfg.Opts.Interactive = isTerminalStdin()
	}
	return cfg, nil
}

// isTerminalStdin reports whether stdin is a character device, the
// cheap substitute for isatty(3) spec.md §4.2's "interactive shell"
// determination needs when neither -i nor a script/-c operand was
// given.
func isTerminalStdin() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
