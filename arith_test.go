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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArithEvalBasic(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	for _, tc := range []struct {
		expr string
		want int64
	}{
		{"1 + 2", 3},
		{"2 * (3 + 4)", 14},
		{"10 / 3", 3},
		{"10 % 3", 1},
		{"1 << 4", 16},
		{"-5 + 3", -2},
		{"1 == 1", 1},
		{"1 != 1", 0},
		{"1 && 0", 0},
		{"1 || 0", 1},
		{"1 ? 2 : 3", 2},
		{"0 ? 2 : 3", 3},
		{"5 & 3", 1},
		{"5 | 2", 7},
		{"5 ^ 1", 4},
	} {
		got, err := arithEval(ev, tc.expr)
		require.NoError(t, err, "arithEval(%q)", tc.expr)
		require.Equal(t, tc.want, got, "arithEval(%q)", tc.expr)
	}
}

func TestArithEvalVariables(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	ev.Vars.Set(ev, "x", "5", 0)
	got, err := arithEval(ev, "x + 1")
	require.NoError(t, err)
	require.Equal(t, int64(6), got)

	_, err = arithEval(ev, "x = 10")
	require.NoError(t, err)
	v, _ := ev.Vars.Lookup("x")
	require.Equal(t, "10", v, "x after x=10")
}

func TestArithEvalCompoundAssign(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	ev.Vars.Set(ev, "x", "5", 0)
	_, err := arithEval(ev, "x += 3")
	require.NoError(t, err)
	v, _ := ev.Vars.Lookup("x")
	require.Equal(t, "8", v, "x after x+=3")
}

func TestArithEvalDivideByZero(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	defer func() {
		r := recover()
		require.NotNil(t, r, "arithEval(1/0) should raise a ShellError")
		se, ok := r.(*ShellError)
		require.True(t, ok, "panic value should be a *ShellError, got %T", r)
		require.Equal(t, 2, se.Status)
	}()
	arithEval(ev, "1 / 0")
}

func TestArithEvalSyntaxError(t *testing.T) {
	ev := NewEvaluator("sh", nil)
	_, err := arithEval(ev, "1 +")
	require.Error(t, err, `arithEval("1 +") should report a syntax error`)
	_, err = arithEval(ev, "1 2")
	require.Error(t, err, `arithEval("1 2") should report a syntax error for trailing tokens`)
}
