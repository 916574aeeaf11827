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
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"strings"
	"syscall"
	"time"
)

// ShellOpts is the `set -o`/single-letter option vector of spec.md
// §4.2/§6, generalized from the teacher's single global
// `katiFlags`-style option struct (main.go) into a per-evaluator
// value, so that `set` inside a subshell does not leak option changes
// to its parent (a function body shares its caller's options).
type ShellOpts struct {
	AllExport bool // -a
	Notify    bool // -b
	NoClobber bool // -C
	ErrExit   bool // -e
	NoGlob    bool // -f
	Monitor   bool // -m (job control / terminal ownership)
	NoExec    bool // -n
	NoUnset   bool // -u
	Verbose   bool // -v
	XTrace    bool // -x
	Interactive bool
	Login       bool
}

// String renders the flag letters "$-" reports, per spec.md §4.4.
func (o *ShellOpts) String() string {
	var b strings.Builder
	add := func(on bool, c byte) {
		if on {
			b.WriteByte(c)
		}
	}
	add(o.AllExport, 'a')
	add(o.Notify, 'b')
	add(o.NoClobber, 'C')
	add(o.ErrExit, 'e')
	add(o.NoGlob, 'f')
	add(o.Monitor, 'm')
	add(o.NoExec, 'n')
	add(o.NoUnset, 'u')
	add(o.Verbose, 'v')
	add(o.XTrace, 'x')
	add(o.Interactive, 'i')
	return b.String()
}

// function is a user-defined shell function, spec.md §4.4 "function
// table": a name bound to a compound command body, invoked with its
// own positional parameters and local-variable scope but sharing the
// caller's global variables, traps and open files.
type function struct {
	Name string
	Body AST
}

// Evaluator is the tree-walking interpreter of spec.md §4.13,
// grounded on the teacher's eval.go `Evaluator` struct (vars, funcs,
// current directory, dispatch-by-node-kind) generalized from Make's
// single-pass rule evaluation to a full command language: loop control
// flow, traps, jobs, redirections and positional parameters the
// teacher has no equivalent of.
type Evaluator struct {
	Vars    *VarStore
	Aliases *AliasStore
	Cache   *CmdCache
	Jobs    *JobTable
	Traps   *TrapTable
	Redirs  *RedirStack
	In      *InputStream
	Hist    *History

	Opts *ShellOpts

	Funcs map[string]*function

	Positional []string // [0] is $0, [1:] are $1..$#
	LastStatus int
	LastBgPID  int
	ShellPID   int

	Name string // $0

	loopDepth  int
	funcDepth  int
	background bool
	errexitOff int
}

// control-flow signals propagated as ordinary Go errors through eval,
// per spec.md §4.13's break/continue/return contract: they unwind
// exactly as many enclosing loop/function levels as requested, then
// are absorbed.
type breakSignal struct{ n int }
type continueSignal struct{ n int }
type returnSignal struct{ status int }

func (breakSignal) Error() string    { return "break" }
func (continueSignal) Error() string { return "continue" }
func (returnSignal) Error() string   { return "return" }

// NewEvaluator builds a fresh top-level evaluator, spec.md §6 "startup".
func NewEvaluator(name string, args []string) *Evaluator {
	ev := &Evaluator{
		Vars:       NewVarStore(),
		Aliases:    NewAliasStore(),
		Cache:      NewCmdCache(),
		Jobs:       NewJobTable(),
		Traps:      NewTrapTable(),
		Redirs:     NewRedirStack(),
		In:         NewInputStream(),
		Hist:       NewHistory(),
		Opts:       &ShellOpts{},
		Funcs:      make(map[string]*function),
		Positional: append([]string{name}, args...),
		Name:       name,
		ShellPID:   os.Getpid(),
	}
	ev.Vars.ImportEnviron(ev, os.Environ())
	ev.installBuiltinSetters()
	ev.Vars.Set(ev, "PWD", mustGetwd(), VarExported)
	ev.Vars.Set(ev, "IFS", " \t\n", 0)
	ev.Vars.Set(ev, "PS1", "$ ", 0)
	ev.Vars.Set(ev, "PS2", "> ", 0)
	ev.Vars.Set(ev, "OPTIND", "1", 0)
	return ev
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// installBuiltinSetters registers the special-variable callbacks of
// spec.md §4.4, in the teacher's "register once, dispatch by name"
// style (func.go's funcMap init). PATH is the only variable with a
// callback: assigning it invalidates the command cache.
func (ev *Evaluator) installBuiltinSetters() {
	ev.Vars.RegisterSetter("PATH", func(ev *Evaluator, name, value string) {
		ev.Cache.Flush()
	})
}

// Run evaluates one parsed program at top level, draining pending
// traps and reaping finished background jobs at each statement
// boundary, per spec.md §4.13/§5.
func (ev *Evaluator) Run(ast AST) error {
	err := ev.runTopLevel(ast)
	ev.runExitTrap()
	return err
}

func (ev *Evaluator) runTopLevel(ast AST) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(*ShellError); ok {
				err = se
				return
			}
			panic(r)
		}
	}()
	err = ast.eval(ev)
	ev.Jobs.Reap()
	ev.drainTraps()
	return err
}

// checkErrExit implements `set -e`, spec.md §4.2: a failing simple
// command aborts the shell, except while ev.errexitOff is nonzero —
// the && / || operand, negated-pipeline, and if/while/until-condition
// contexts POSIX exempts, which evalBinary/evalIf/evalWhile/evalNot
// bracket with suppressErrExit/restoreErrExit below.
func (ev *Evaluator) checkErrExit() error {
	if ev.errexitOff == 0 && ev.Opts.ErrExit && ev.LastStatus != 0 {
		ev.runExitTrap()
		return exitError(ev.LastStatus)
	}
	return nil
}

func (ev *Evaluator) suppressErrExit() { ev.errexitOff++ }
func (ev *Evaluator) restoreErrExit()  { ev.errexitOff-- }

func (n *ASTBase) pos() (string, int) { return n.filename, n.lineno }

// evalBinary dispatches && / || / ; per spec.md §4.13 NAND/NOR/NSEMI.
func (ev *Evaluator) evalBinary(n *BinaryAST) error {
	switch n.Op {
	case BinSemi:
		if err := n.Left.eval(ev); err != nil {
			return err
		}
		if err := ev.checkErrExit(); err != nil {
			return err
		}
		ev.Jobs.Reap()
		ev.drainTraps()
		return n.Right.eval(ev)
	case BinAnd:
		ev.suppressErrExit()
		err := n.Left.eval(ev)
		ev.restoreErrExit()
		if err != nil {
			return err
		}
		if ev.LastStatus != 0 {
			return nil
		}
		return n.Right.eval(ev)
	case BinOr:
		ev.suppressErrExit()
		err := n.Left.eval(ev)
		ev.restoreErrExit()
		if err != nil {
			return err
		}
		if ev.LastStatus == 0 {
			return nil
		}
		return n.Right.eval(ev)
	}
	return nil
}

func (ev *Evaluator) evalNot(n *NotAST) error {
	ev.suppressErrExit()
	err := n.Body.eval(ev)
	ev.restoreErrExit()
	if err != nil {
		return err
	}
	if ev.LastStatus == 0 {
		ev.LastStatus = 1
	} else {
		ev.LastStatus = 0
	}
	return nil
}

func (ev *Evaluator) evalIf(n *IfAST) error {
	ev.suppressErrExit()
	err := n.Cond.eval(ev)
	ev.restoreErrExit()
	if err != nil {
		return err
	}
	if ev.LastStatus == 0 {
		return n.Then.eval(ev)
	}
	for _, e := range n.Elifs {
		ev.suppressErrExit()
		err := e.Cond.eval(ev)
		ev.restoreErrExit()
		if err != nil {
			return err
		}
		if ev.LastStatus == 0 {
			return e.Then.eval(ev)
		}
	}
	if n.Else != nil {
		return n.Else.eval(ev)
	}
	ev.LastStatus = 0
	return nil
}

func (ev *Evaluator) evalWhile(n *WhileAST) error {
	ev.loopDepth++
	defer func() { ev.loopDepth-- }()
	status := 0
	for {
		ev.suppressErrExit()
		err := n.Cond.eval(ev)
		ev.restoreErrExit()
		if err != nil {
			return err
		}
		truth := ev.LastStatus == 0
		if n.Until {
			truth = !truth
		}
		if !truth {
			break
		}
		err = n.Body.eval(ev)
		status = ev.LastStatus
		if err != nil {
			if bs, ok := err.(breakSignal); ok {
				if bs.n > 1 {
					return breakSignal{bs.n - 1}
				}
				break
			}
			if cs, ok := err.(continueSignal); ok {
				if cs.n > 1 {
					return continueSignal{cs.n - 1}
				}
				continue
			}
			return err
		}
		if err := ev.checkErrExit(); err != nil {
			return err
		}
		ev.Jobs.Reap()
		ev.drainTraps()
	}
	ev.LastStatus = status
	return nil
}

func (ev *Evaluator) evalFor(n *ForAST) error {
	ev.loopDepth++
	defer func() { ev.loopDepth-- }()
	var words []string
	if n.Words == nil {
		words = ev.Positional[1:]
	} else {
		for _, w := range n.Words {
			vals, err := ev.ExpandArg(w, ExpFull)
			if err != nil {
				return err
			}
			words = append(words, vals...)
		}
	}
	status := 0
	for _, w := range words {
		if err := ev.Vars.Set(ev, n.Name, w, 0); err != nil {
			return err
		}
		err := n.Body.eval(ev)
		status = ev.LastStatus
		if err != nil {
			if bs, ok := err.(breakSignal); ok {
				if bs.n > 1 {
					return breakSignal{bs.n - 1}
				}
				break
			}
			if cs, ok := err.(continueSignal); ok {
				if cs.n > 1 {
					return continueSignal{cs.n - 1}
				}
				continue
			}
			return err
		}
		ev.Jobs.Reap()
		ev.drainTraps()
	}
	ev.LastStatus = status
	return nil
}

func (ev *Evaluator) evalCase(n *CaseAST) error {
	words, err := ev.ExpandArg(n.Word, ExpFull|ExpCase)
	if err != nil {
		return err
	}
	word := strings.Join(words, " ")
	for idx := 0; idx < len(n.Items); idx++ {
		item := n.Items[idx]
		matched := false
		for _, pat := range item.Patterns {
			pvals, err := ev.ExpandArg(pat, ExpCase)
			if err != nil {
				return err
			}
			if ok, _ := pmatch(pvals[0], word, matchWhole); ok {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for {
			if item.Body != nil {
				if err := item.Body.eval(ev); err != nil {
					return err
				}
			} else {
				ev.LastStatus = 0
			}
			if item.Fallthru && idx+1 < len(n.Items) {
				idx++
				item = n.Items[idx]
				continue
			}
			return nil
		}
	}
	ev.LastStatus = 0
	return nil
}

func (ev *Evaluator) evalSubshell(n *SubshellAST) error {
	child := ev.forkState()
	err := n.Body.eval(child)
	ev.LastStatus = child.LastStatus
	return err
}

func (ev *Evaluator) evalBackground(n *BackgroundAST) error {
	saved := ev.background
	ev.background = true
	err := n.Body.eval(ev)
	ev.background = saved
	return err
}

// forkState produces the subshell-local copy of evaluator state spec.md
// §4.13 "subshell" describes: a fresh VarStore snapshot (so writes
// never propagate back to the parent) sharing traps/cache/jobs by
// reference where POSIX says a subshell inherits but does not need
// independence (redirections are independent via RedirStack's own
// push/pop discipline already).
func (ev *Evaluator) forkState() *Evaluator {
	child := *ev
	vs := *ev.Vars
	vs.table = newSymtab()
	ev.Vars.table.each(func(name string, v interface{}) {
		cp := *v.(*Var)
		vs.table.set(name, &cp)
	})
	vs.locals = nil
	for _, f := range ev.Vars.locals {
		nf := &localFrame{saved: make(map[string]*Var), names: append([]string(nil), f.names...)}
		for k, v := range f.saved {
			nf.saved[k] = v
		}
		vs.locals = append(vs.locals, nf)
	}
	child.Vars = &vs
	opts := *ev.Opts
	child.Opts = &opts
	child.Redirs = ev.Redirs.clone()
	return &child
}

// Stdout/Stderr/Stdin resolve the evaluator's current fd 1/2/0, for
// builtins to write/read through instead of the package-level
// os.Stdout/os.Stderr/os.Stdin — spec.md §4.11's "every command sees
// the redirection table as it stood when it was launched".
func (ev *Evaluator) Stdout() io.Writer {
	if f := ev.Redirs.FileFor(1); f != nil {
		return f
	}
	return ioutil.Discard
}

func (ev *Evaluator) Stderr() io.Writer {
	if f := ev.Redirs.FileFor(2); f != nil {
		return f
	}
	return ioutil.Discard
}

func (ev *Evaluator) Stdin() io.Reader {
	if f := ev.Redirs.FileFor(0); f != nil {
		return f
	}
	return bytes.NewReader(nil)
}

func (ev *Evaluator) evalRedirWrap(n *RedirWrapAST) error {
	if err := ev.Redirs.Push(ev, n.Redirs); err != nil {
		ev.LastStatus = 1
		return nil
	}
	defer ev.Redirs.Pop()
	return n.Body.eval(ev)
}

func (ev *Evaluator) evalDefun(n *DefunAST) error {
	ev.Funcs[n.Name] = &function{Name: n.Name, Body: n.Body}
	ev.LastStatus = 0
	return nil
}

// evalPipe runs a pipeline, spec.md §4.13 NPIPE: stages are connected
// stdin-to-stdout via os.Pipe, all started together, and waited for as
// one job (job.go's StartPipeline/Wait), grounded on the teacher's
// worker.go concurrent-command-group shape generalized to real
// processes joined by a shared process group rather than goroutines.
func (ev *Evaluator) evalPipe(n *PipeAST) error {
	if len(n.Commands) == 1 {
		if err := n.Commands[0].eval(ev); err != nil {
			return err
		}
		if n.Negate {
			if ev.LastStatus == 0 {
				ev.LastStatus = 1
			} else {
				ev.LastStatus = 0
			}
		}
		if n.Background {
			ev.LastBgPID = ev.ShellPID
		}
		return nil
	}
	var last int
	if prepped, pipeFiles, ok := ev.tryPrepareExternalPipeline(n.Commands); ok {
		job, err := ev.Jobs.StartPipeline(prepped, ev.background)
		for _, f := range pipeFiles {
			f.Close()
		}
		if err != nil {
			return err
		}
		if ev.background {
			ev.LastBgPID = job.PGID
			last = 0
		} else {
			status, err := ev.Jobs.Wait(ev, job)
			if err != nil {
				return err
			}
			last = status
		}
	} else {
		// A stage is a builtin, function, or carries its own
		// redirections beyond the pipe itself: fall back to the
		// uniform in-process pipeline runner.
		statuses, err := ev.runExternalPipeline(n.Commands)
		if err != nil {
			return err
		}
		last = statuses[len(statuses)-1]
	}
	ev.LastStatus = last
	if n.Negate {
		if ev.LastStatus == 0 {
			ev.LastStatus = 1
		} else {
			ev.LastStatus = 0
		}
	}
	return nil
}

// tryPrepareExternalPipeline builds a []*prepared for a pipeline whose
// every stage is a plain external simple command with no redirections
// of its own and no prefix assignments — the common case, which can
// run as real forked processes sharing one process group instead of
// the generic in-process fallback. It reports ok=false (no error) if
// any stage doesn't qualify, so the caller can fall back.
func (ev *Evaluator) tryPrepareExternalPipeline(stages []AST) ([]*prepared, []*os.File, bool) {
	n := len(stages)
	out := make([]*prepared, n)
	for i, st := range stages {
		cmd, ok := st.(*CommandAST)
		if !ok || len(cmd.Redirs) != 0 || len(cmd.Assigns) != 0 || len(cmd.Argv) == 0 {
			return nil, nil, false
		}
		var argv []string
		for _, w := range cmd.Argv {
			vals, err := ev.ExpandArg(w, ExpFull)
			if err != nil {
				return nil, nil, false
			}
			argv = append(argv, vals...)
		}
		if len(argv) == 0 {
			return nil, nil, false
		}
		if _, isFn := ev.Funcs[argv[0]]; isFn {
			return nil, nil, false
		}
		if _, isBuiltin := LookupBuiltin(argv[0]); isBuiltin {
			return nil, nil, false
		}
		path, err := ev.Cache.Lookup(ev, argv[0])
		if err != nil {
			return nil, nil, false
		}
		out[i] = &prepared{path: path, argv: argv, env: ev.Vars.Exported()}
	}
	base := ev.stdioFiles()
	var pipeFiles []*os.File
	readers := make([]*os.File, n)
	writers := make([]*os.File, n)
	for i := 0; i < n-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			for _, f := range pipeFiles {
				f.Close()
			}
			return nil, nil, false
		}
		readers[i+1], writers[i] = r, w
		pipeFiles = append(pipeFiles, r, w)
	}
	for i, p := range out {
		p.files = base
		if readers[i] != nil {
			p.files[0] = readers[i]
		}
		if writers[i] != nil {
			p.files[1] = writers[i]
		}
	}
	// The caller closes pipeFiles once StartPipeline has forked every
	// stage: the children inherit the fds via ProcAttr.Files, so the
	// parent's copies must stay open until fork time but no longer.
	return out, pipeFiles, true
}

// runExternalPipeline runs every stage of a multi-command pipeline
// concurrently, each in its own forkState with fd 0/1 bound directly
// to its neighbours' pipe ends in its own RedirStack table — no real
// process-wide descriptor is ever touched, so stages that are
// builtins or functions run safely alongside stages that are external
// processes, all at once, spec.md §4.13 NPIPE. Grounded on the
// teacher's para.go concurrent-task-group shape, generalized from
// "N independent build actions" to "N stages joined by a byte stream".
func (ev *Evaluator) runExternalPipeline(stages []AST) ([]int, error) {
	n := len(stages)
	readers := make([]*os.File, n)
	writers := make([]*os.File, n)
	for i := 0; i < n-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, err
		}
		readers[i+1], writers[i] = r, w
	}
	statuses := make([]int, n)
	done := make(chan struct{}, n)
	for i, stage := range stages {
		i, stage := i, stage
		go func() {
			defer func() { recover(); done <- struct{}{} }()
			child := ev.forkState()
			if readers[i] != nil {
				child.Redirs.table[0] = fdSlot{file: readers[i]}
			}
			if writers[i] != nil {
				child.Redirs.table[1] = fdSlot{file: writers[i]}
			}
			stage.eval(child)
			statuses[i] = child.LastStatus
			if writers[i] != nil {
				writers[i].Close()
			}
			if readers[i] != nil {
				readers[i].Close()
			}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}
	return statuses, nil
}

// evalCommand expands and runs one simple command, spec.md §4.13 NCMD:
// assignment-only commands install variables and return; otherwise
// expand argv, look up function/builtin/external in that order, apply
// redirections for the command's duration, and run it.
func (ev *Evaluator) evalCommand(n *CommandAST) error {
	if len(n.Argv) == 0 {
		for _, a := range n.Assigns {
			if err := ev.Vars.SetEq(ev, expandAssignWord(ev, a), 0); err != nil {
				return err
			}
		}
		ev.LastStatus = 0
		return nil
	}

	var argv []string
	for _, w := range n.Argv {
		vals, err := ev.ExpandArg(w, ExpFull)
		if err != nil {
			return err
		}
		argv = append(argv, vals...)
	}
	if len(argv) == 0 {
		ev.LastStatus = 0
		return nil
	}

	if ev.Opts.XTrace {
		Xtrace("+ " + strings.Join(argv, " "))
	}

	if err := ev.Redirs.Push(ev, n.Redirs); err != nil {
		ev.LastStatus = 1
		return ev.afterCommand()
	}
	defer ev.Redirs.Pop()

	// Temporary (command-prefix) assignments are visible to the
	// command's own environment only when it is external; for
	// builtins/functions POSIX says they persist for the duration of
	// the call and are then restored.
	var savedVars []func()
	for _, a := range n.Assigns {
		buf := expandAssignWord(ev, a)
		i := strings.IndexByte(buf, '=')
		name, val := buf[:i], buf[i+1:]
		old, had := ev.Vars.Lookup(name)
		savedVars = append(savedVars, func() {
			if had {
				ev.Vars.Set(ev, name, old, 0)
			} else {
				ev.Vars.Unset(name)
			}
		})
		ev.Vars.Set(ev, name, val, VarExported)
	}
	restore := func() {
		for i := len(savedVars) - 1; i >= 0; i-- {
			savedVars[i]()
		}
	}

	name := argv[0]
	if fn, ok := ev.Funcs[name]; ok {
		err := ev.callFunction(fn, argv)
		restore()
		if err != nil {
			return err
		}
		return ev.afterCommand()
	}
	if b, ok := LookupBuiltin(name); ok {
		err := b(ev, argv)
		restore()
		if err != nil {
			return err
		}
		return ev.afterCommand()
	}
	err := ev.runExternal(argv)
	restore()
	return err
}

func (ev *Evaluator) afterCommand() error {
	if err := ev.checkErrExit(); err != nil {
		return err
	}
	if ev.LastStatus != 0 {
		ev.runErrTrap()
	}
	return nil
}

func expandAssignWord(ev *Evaluator, a *ArgWord) string {
	st := &expandState{}
	ev.expandInto(st, a, ExpQuoted)
	return string(st.out)
}

// callFunction invokes a user-defined function, spec.md §4.13 NDEFUN
// call semantics: positional parameters are replaced for the
// function's duration, `local` variables pushed as a fresh scope, and
// a `return` unwinds only to the function boundary.
func (ev *Evaluator) callFunction(fn *function, argv []string) (err error) {
	savedPositional := ev.Positional
	ev.Positional = argv
	ev.Vars.PushLocalScope()
	ev.funcDepth++
	defer func() {
		ev.funcDepth--
		ev.Vars.PopLocalScope()
		ev.Positional = savedPositional
		if r := recover(); r != nil {
			if rs, ok := r.(returnSignal); ok {
				ev.LastStatus = rs.status
				err = nil
				return
			}
			panic(r)
		}
	}()
	bodyErr := fn.Body.eval(ev)
	if rs, ok := bodyErr.(returnSignal); ok {
		ev.LastStatus = rs.status
		return nil
	}
	return bodyErr
}

// runCommandSub executes a parsed command-substitution AST and returns
// its stdout with trailing newlines trimmed, spec.md §4.8 item 4.
// Grounded on the teacher's func.go `funcShell.Eval` (exec.Cmd,
// capture stdout, trim trailing newline, log on failure).
func (ev *Evaluator) runCommandSub(ast AST) ([]byte, error) {
	start := time.Now()
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	child := ev.forkState()
	child.Redirs.table[1] = fdSlot{file: w}
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()
	func() {
		defer func() { recover() }()
		child.Run(ast)
	}()
	w.Close()
	<-done
	r.Close()
	out := buf.Bytes()
	out = bytes.TrimRight(out, "\n")
	commandSubStats.add(time.Since(start))
	return out, nil
}

// prepared is one external command ready to exec: resolved path,
// final argv/envp, and the files the child gets as fds 0, 1 and 2.
type prepared struct {
	path  string
	argv  []string
	env   []string
	files [3]*os.File
}

func (p *prepared) display() string { return strings.Join(p.argv, " ") }

// stdioFiles snapshots the evaluator's current fd 0/1/2 bindings for
// handing to a child process at fork time.
func (ev *Evaluator) stdioFiles() [3]*os.File {
	return [3]*os.File{ev.Redirs.FileFor(0), ev.Redirs.FileFor(1), ev.Redirs.FileFor(2)}
}

// runExternal resolves argv[0] via the command cache and execs it as a
// child process, waiting for and reporting its exit status — spec.md
// §4.13's NCMD leaf case.
func (ev *Evaluator) runExternal(argv []string) error {
	path, err := ev.Cache.Lookup(ev, argv[0])
	if err != nil {
		ev.LastStatus = 127
		Warn(ev.In.Filename(), ev.In.Lineno(), "%s: command not found", argv[0])
		return ev.afterCommand()
	}
	p := &prepared{path: path, argv: argv, env: ev.Vars.Exported(), files: ev.stdioFiles()}
	pid, err := forkExec(p, 0)
	if err != nil {
		ev.LastStatus = 126
		Warn(ev.In.Filename(), ev.In.Lineno(), "%s: %v", argv[0], err)
		return ev.afterCommand()
	}
	job := &Job{PGID: pid, Command: p.display(), Foreground: !ev.background,
		Procs: []*Proc{{PID: pid, Cmd: p.display()}}}
	ev.Jobs.Register(job)
	if ev.background {
		ev.LastBgPID = pid
		ev.LastStatus = 0
		return ev.afterCommand()
	}
	status, err := ev.Jobs.Wait(ev, job)
	if err != nil {
		return err
	}
	ev.LastStatus = status
	return ev.afterCommand()
}

// forkExec starts p as a child process, optionally joining the
// process group pgid (0 means "start a new group, become its
// leader") — the primitive job.go's StartPipeline and runExternal both
// build on, grounded on _examples/original_source/src/jobs.c's
// fork+setpgid+execve sequence.
func forkExec(p *prepared, pgid int) (int, error) {
	start := time.Now()
	files := make([]uintptr, 3)
	for i, f := range p.files {
		if f != nil {
			files[i] = f.Fd()
		} else {
			files[i] = invalidFd
		}
	}
	attr := &syscall.ProcAttr{
		Env:   p.env,
		Files: files,
		Sys:   &syscall.SysProcAttr{Setpgid: true, Pgid: pgid},
	}
	pid, err := syscall.ForkExec(p.path, p.argv, attr)
	if err != nil {
		return 0, err
	}
	externalForkStats.add(time.Since(start))
	return pid, nil
}

// invalidFd passed in ProcAttr.Files tells the runtime to leave that
// child descriptor closed, for a stage whose neighbour pipe end this
// evaluator does not hold (FileFor returned nil because a prior
// >&- closed it).
const invalidFd = ^uintptr(0)

// evalIncludeSource runs a script's parsed program in the CURRENT
// evaluator (no subshell), spec.md §4.13/§6. Nothing in the package
// calls it: `.` and cmd/gosh's script runner evaluate their parsed
// programs directly.
func (ev *Evaluator) evalIncludeSource(ast AST) error {
	return ast.eval(ev)
}
