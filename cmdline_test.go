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

import "testing"

func TestParseArgsCommandString(t *testing.T) {
	cfg, err := ParseArgs("gosh", []string{"-c", "echo hi", "scriptname", "a1", "a2"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if !cfg.HasCommand || cfg.CommandStr != "echo hi" {
		t.Fatalf("cfg=%+v, want HasCommand with CommandStr=echo hi", cfg)
	}
	if len(cfg.Args) != 3 || cfg.Args[0] != "scriptname" {
		t.Errorf("Args=%v, want [scriptname a1 a2]", cfg.Args)
	}
}

func TestParseArgsScriptOperand(t *testing.T) {
	cfg, err := ParseArgs("gosh", []string{"-e", "myscript.sh", "foo"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.ScriptPath != "myscript.sh" {
		t.Errorf("ScriptPath=%q, want myscript.sh", cfg.ScriptPath)
	}
	if !cfg.Opts.ErrExit {
		t.Error("ParseArgs(-e) did not set ErrExit")
	}
	if len(cfg.Args) != 2 || cfg.Args[1] != "foo" {
		t.Errorf("Args=%v, want [myscript.sh foo]", cfg.Args)
	}
}

func TestParseArgsLongOption(t *testing.T) {
	cfg, err := ParseArgs("gosh", []string{"-o", "xtrace", "-c", "true"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if !cfg.Opts.XTrace {
		t.Error("-o xtrace did not set XTrace")
	}
}

func TestParseArgsPlusNegatesOption(t *testing.T) {
	cfg, err := ParseArgs("gosh", []string{"-e", "+e", "-c", "true"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.Opts.ErrExit {
		t.Error("+e after -e should clear ErrExit")
	}
}

func TestParseArgsLoginShell(t *testing.T) {
	cfg, err := ParseArgs("-gosh", nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if !cfg.Opts.Login {
		t.Error("argv0 with leading '-' should set Opts.Login")
	}
}

func TestParseArgsDashDashStopsOptions(t *testing.T) {
	cfg, err := ParseArgs("gosh", []string{"--", "-notascript"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.ScriptPath != "-notascript" {
		t.Errorf("ScriptPath=%q, want -notascript (treated as operand after --)", cfg.ScriptPath)
	}
}

func TestParseArgsUnknownLongOption(t *testing.T) {
	if _, err := ParseArgs("gosh", []string{"-o", "nosuchoption"}); err == nil {
		t.Error("ParseArgs with unknown -o name should fail")
	}
}

func TestParseArgsDashSReadsStdin(t *testing.T) {
	cfg, err := ParseArgs("gosh", []string{"-s", "a", "b"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if !cfg.ReadStdin {
		t.Error("-s should set ReadStdin")
	}
	if len(cfg.Args) != 3 || cfg.Args[0] != "sh" {
		t.Errorf("Args=%v, want [sh a b]", cfg.Args)
	}
}
