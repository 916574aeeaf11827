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
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"syscall"
)

// BuiltinFunc is one builtin's implementation: it receives the already
// word-expanded argv (argv[0] is its own name) and reports the
// command's result by setting ev.LastStatus, returning an error only
// for a nonlocal exit: a ShellError{Kind: ExExit}, or the breakSignal /
// continueSignal values of `break`/`continue` (`return` unwinds by
// panicking with a returnSignal instead). Grounded on the teacher's func.go funcMap dispatch table,
// generalized from Make's ~20 built-in functions to POSIX's built-in
// utilities.
type BuiltinFunc func(ev *Evaluator, argv []string) error

var builtins map[string]BuiltinFunc

func init() {
	builtins = map[string]BuiltinFunc{
		":":        builtinTrue,
		"true":     builtinTrue,
		"false":    builtinFalse,
		"echo":     builtinEcho,
		"cd":       builtinCd,
		"pwd":      builtinPwd,
		"exit":     builtinExit,
		"export":   builtinExport,
		"readonly": builtinReadonly,
		"unset":    builtinUnset,
		"set":      builtinSet,
		"shift":    builtinShift,
		"return":   builtinReturn,
		"break":    builtinBreak,
		"continue": builtinContinue,
		"eval":     builtinEval,
		".":        builtinDot,
		"exec":     builtinExec,
		"read":     builtinRead,
		"local":    builtinLocal,
		"alias":    builtinAlias,
		"unalias":  builtinUnalias,
		"trap":     builtinTrap,
		"type":     builtinType,
		"command":  builtinCommand,
		"hash":     builtinHash,
		"umask":    builtinUmask,
		"getopts":  builtinGetopts,
		"times":    builtinTimes,
		"jobs":     builtinJobs,
		"fg":       builtinFg,
		"bg":       builtinBg,
		"wait":     builtinWait,
		"kill":     builtinKill,
		"fc":       builtinFc,
	}
}

// LookupBuiltin reports whether name is a recognized builtin utility.
func LookupBuiltin(name string) (BuiltinFunc, bool) {
	b, ok := builtins[name]
	return b, ok
}

func statusOK(ev *Evaluator) error   { ev.LastStatus = 0; return nil }
func statusFail(ev *Evaluator, status int) error { ev.LastStatus = status; return nil }

func builtinTrue(ev *Evaluator, argv []string) error  { return statusOK(ev) }
func builtinFalse(ev *Evaluator, argv []string) error { return statusFail(ev, 1) }

// builtinEcho implements spec.md §4.14's `echo`: -n suppresses the
// trailing newline, -e enables backslash escapes (the original's
// XSI-echo behaviour, which original_source/src/bltin/echo.c always
// applies and which spec.md's supplement carries forward).
func builtinEcho(ev *Evaluator, argv []string) error {
	args := argv[1:]
	nflag := false
	eflag := false
	for len(args) > 0 {
		a := args[0]
		if a == "--" {
			args = args[1:]
			break
		}
		if len(a) < 2 || a[0] != '-' {
			break
		}
		valid := true
		for _, c := range a[1:] {
			if c != 'n' && c != 'e' && c != 'E' {
				valid = false
				break
			}
		}
		if !valid {
			break
		}
		for _, c := range a[1:] {
			switch c {
			case 'n':
				nflag = true
			case 'e':
				eflag = true
			case 'E':
				eflag = false
			}
		}
		args = args[1:]
	}
	out := strings.Join(args, " ")
	if eflag {
		out = expandEchoEscapes(out)
	}
	fmt.Fprint(ev.Stdout(), out)
	if !nflag {
		fmt.Fprintln(ev.Stdout())
	}
	return statusOK(ev)
}

func expandEchoEscapes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'c':
			return b.String()
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// builtinCd implements spec.md §4.14's CDPATH-aware `cd`, recovered
// from _examples/original_source/src/cd.c: CDPATH is searched only
// for a relative non-"."/".."-leading operand. A directory found via
// CDPATH search, or the OLDPWD target of `cd -`, echoes the resolved
// path to stdout; the bare HOME default does not.
func builtinCd(ev *Evaluator, argv []string) error {
	args := argv[1:]
	physical := false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") && args[0] != "-" {
		switch args[0] {
		case "-P":
			physical = true
		case "-L":
			physical = false
		default:
			return statusFail(ev, 2)
		}
		args = args[1:]
	}
	_ = physical
	var target string
	echoPath := false
	switch {
	case len(args) == 0:
		home, _ := ev.Vars.Lookup("HOME")
		if home == "" {
			Warn("cd", 0, "HOME not set")
			return statusFail(ev, 1)
		}
		target = home
	case args[0] == "-":
		oldpwd, ok := ev.Vars.Lookup("OLDPWD")
		if !ok {
			Warn("cd", 0, "OLDPWD not set")
			return statusFail(ev, 1)
		}
		target = oldpwd
		echoPath = true
	default:
		target = args[0]
		if !strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "./") && !strings.HasPrefix(target, "../") && target != "." && target != ".." {
			if found, ok := searchCDPATH(ev, target); ok {
				target = found
				echoPath = true
			}
		}
	}
	pwd, _ := ev.Vars.Lookup("PWD")
	if err := os.Chdir(target); err != nil {
		Warn("cd", 0, "%s: %v", target, err)
		return statusFail(ev, 1)
	}
	newwd, err := os.Getwd()
	if err != nil {
		newwd = target
	}
	ev.Vars.Set(ev, "OLDPWD", pwd, VarExported)
	ev.Vars.Set(ev, "PWD", newwd, VarExported)
	ev.Cache.Flush()
	if echoPath {
		fmt.Fprintln(ev.Stdout(), newwd)
	}
	return statusOK(ev)
}

func searchCDPATH(ev *Evaluator, rel string) (string, bool) {
	cdpath, has := ev.Vars.Lookup("CDPATH")
	if !has || cdpath == "" {
		return "", false
	}
	for _, dir := range strings.Split(cdpath, ":") {
		if dir == "" {
			dir = "."
		}
		candidate := dir + "/" + rel
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func builtinPwd(ev *Evaluator, argv []string) error {
	wd, err := os.Getwd()
	if err != nil {
		Warn("pwd", 0, "%v", err)
		return statusFail(ev, 1)
	}
	fmt.Fprintln(ev.Stdout(), wd)
	return statusOK(ev)
}

func builtinExit(ev *Evaluator, argv []string) error {
	status := ev.LastStatus
	if len(argv) > 1 {
		n, err := strconv.Atoi(argv[1])
		if err != nil {
			Warn("exit", 0, "%s: numeric argument required", argv[1])
			status = 2
		} else {
			status = n & 0xff
		}
	}
	ev.LastStatus = status
	return exitError(status)
}

func builtinExport(ev *Evaluator, argv []string) error {
	if len(argv) == 1 {
		for _, v := range ev.Vars.List(VarExported, 0) {
			fmt.Fprintf(ev.Stdout(), "export %s=%s\n", v.Name, shellQuote(v.Value))
		}
		return statusOK(ev)
	}
	for _, a := range argv[1:] {
		if a == "-p" {
			continue
		}
		name, val, hasVal := strings.Cut(a, "=")
		if hasVal {
			if err := ev.Vars.Set(ev, name, val, VarExported); err != nil {
				Warn("export", 0, "%v", err)
				return statusFail(ev, 1)
			}
			continue
		}
		if cur, had := ev.Vars.Lookup(name); had {
			ev.Vars.Set(ev, name, cur, VarExported)
		} else {
			ev.Vars.Set(ev, name, "", VarExported|VarUnset)
		}
	}
	return statusOK(ev)
}

func builtinReadonly(ev *Evaluator, argv []string) error {
	if len(argv) == 1 {
		for _, v := range ev.Vars.List(VarReadonly, 0) {
			fmt.Fprintf(ev.Stdout(), "readonly %s=%s\n", v.Name, shellQuote(v.Value))
		}
		return statusOK(ev)
	}
	for _, a := range argv[1:] {
		name, val, hasVal := strings.Cut(a, "=")
		flags := VarReadonly
		if !hasVal {
			if cur, had := ev.Vars.Lookup(name); had {
				val = cur
			}
		}
		if err := ev.Vars.Set(ev, name, val, flags); err != nil {
			Warn("readonly", 0, "%v", err)
			return statusFail(ev, 1)
		}
	}
	return statusOK(ev)
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"$`\\") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func builtinUnset(ev *Evaluator, argv []string) error {
	funcMode := false
	args := argv[1:]
	if len(args) > 0 && args[0] == "-f" {
		funcMode = true
		args = args[1:]
	} else if len(args) > 0 && args[0] == "-v" {
		args = args[1:]
	}
	for _, name := range args {
		if funcMode {
			delete(ev.Funcs, name)
		} else {
			ev.Vars.Unset(name)
		}
	}
	return statusOK(ev)
}

// builtinSet implements spec.md §4.2's option-letter toggling and
// positional-parameter replacement.
func builtinSet(ev *Evaluator, argv []string) error {
	args := argv[1:]
	i := 0
	for i < len(args) {
		a := args[i]
		if a == "--" {
			i++
			break
		}
		if len(a) < 2 || (a[0] != '-' && a[0] != '+') {
			break
		}
		on := a[0] == '-'
		for _, c := range a[1:] {
			applyOptLetter(ev.Opts, c, on)
		}
		i++
	}
	if i == 0 && len(args) == 0 {
		for _, v := range ev.Vars.List(0, 0) {
			fmt.Fprintf(ev.Stdout(), "%s=%s\n", v.Name, shellQuote(v.Value))
		}
		return statusOK(ev)
	}
	if i < len(args) {
		ev.Positional = append([]string{ev.Positional[0]}, args[i:]...)
	}
	return statusOK(ev)
}

func applyOptLetter(o *ShellOpts, c rune, on bool) {
	switch c {
	case 'a':
		o.AllExport = on
	case 'b':
		o.Notify = on
	case 'C':
		o.NoClobber = on
	case 'e':
		o.ErrExit = on
	case 'f':
		o.NoGlob = on
	case 'm':
		o.Monitor = on
	case 'n':
		o.NoExec = on
	case 'u':
		o.NoUnset = on
	case 'v':
		o.Verbose = on
	case 'x':
		o.XTrace = on
		SetXtrace(on)
	}
}

func builtinShift(ev *Evaluator, argv []string) error {
	n := 1
	if len(argv) > 1 {
		v, err := strconv.Atoi(argv[1])
		if err != nil || v < 0 {
			Warn("shift", 0, "bad shift count")
			return statusFail(ev, 1)
		}
		n = v
	}
	if n > len(ev.Positional)-1 {
		return statusFail(ev, 1)
	}
	ev.Positional = append([]string{ev.Positional[0]}, ev.Positional[1+n:]...)
	return statusOK(ev)
}

func builtinReturn(ev *Evaluator, argv []string) error {
	status := ev.LastStatus
	if len(argv) > 1 {
		if n, err := strconv.Atoi(argv[1]); err == nil {
			status = n & 0xff
		}
	}
	panic(returnSignal{status})
}

func builtinBreak(ev *Evaluator, argv []string) error {
	n := 1
	if len(argv) > 1 {
		if v, err := strconv.Atoi(argv[1]); err == nil && v > 0 {
			n = v
		}
	}
	return breakSignal{n}
}

func builtinContinue(ev *Evaluator, argv []string) error {
	n := 1
	if len(argv) > 1 {
		if v, err := strconv.Atoi(argv[1]); err == nil && v > 0 {
			n = v
		}
	}
	return continueSignal{n}
}

// builtinEval re-lexes and runs its arguments as a new command line in
// the current scope, spec.md §4.14.
func builtinEval(ev *Evaluator, argv []string) error {
	src := strings.Join(argv[1:], " ")
	ast, err := ParseString(src, "eval")
	if err != nil {
		Warn("eval", 0, "%v", err)
		return statusFail(ev, 2)
	}
	if err := ast.eval(ev); err != nil {
		return err
	}
	return nil
}

// builtinDot implements `.`/`source`: read and run a file's program in
// the current scope, searching PATH when the name has no slash.
func builtinDot(ev *Evaluator, argv []string) error {
	if len(argv) < 2 {
		Warn(".", 0, "filename argument required")
		return statusFail(ev, 2)
	}
	path := argv[1]
	if !strings.Contains(path, "/") {
		if p, err := ev.Cache.Lookup(ev, path); err == nil {
			path = p
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		Warn(".", 0, "%s: %v", path, err)
		return statusFail(ev, 1)
	}
	ast, err := ParseString(string(data), path)
	if err != nil {
		Warn(".", 0, "%v", err)
		return statusFail(ev, 2)
	}
	savedPositional := ev.Positional
	if len(argv) > 2 {
		ev.Positional = append([]string{ev.Positional[0]}, argv[2:]...)
	}
	err = ast.eval(ev)
	ev.Positional = savedPositional
	return err
}

// builtinExec implements spec.md §4.14's `exec`: with arguments it
// replaces the shell process image (redirections applied with exec
// have no scope to unwind). With no arguments it only sets status 0;
// its redirections are undone like any other command's when it
// finishes, so they do not persist in the current shell.
func builtinExec(ev *Evaluator, argv []string) error {
	if len(argv) == 1 {
		return statusOK(ev)
	}
	path, err := ev.Cache.Lookup(ev, argv[1])
	if err != nil {
		ev.LastStatus = 127
		Warn("exec", 0, "%s: not found", argv[1])
		return nil
	}
	env := ev.Vars.Exported()
	files := ev.stdioFiles()
	fds := []uintptr{0, 1, 2}
	for i, f := range files {
		if f != nil {
			fds[i] = f.Fd()
		}
	}
	for i, fd := range fds {
		if int(fd) != i {
			syscall.Dup2(int(fd), i)
		}
	}
	if err := syscall.Exec(path, argv[1:], env); err != nil {
		Warn("exec", 0, "%v", err)
		return statusFail(ev, 126)
	}
	return nil // unreachable: Exec only returns on error
}

// builtinRead implements spec.md §4.14's `read`: split one input line
// on IFS into the named variables, the trailing variable absorbing any
// remainder.
func builtinRead(ev *Evaluator, argv []string) error {
	names := argv[1:]
	if len(names) == 0 {
		names = []string{"REPLY"}
	}
	r := bufio.NewReader(ev.Stdin())
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return statusFail(ev, 1)
	}
	line = strings.TrimSuffix(line, "\n")
	ifs, hasIFS := ev.Vars.Lookup("IFS")
	if !hasIFS {
		ifs = " \t\n"
	}
	fields := splitOnIFS(line, ifs, len(names))
	for i, name := range names {
		val := ""
		if i < len(fields) {
			val = fields[i]
		}
		if err := ev.Vars.Set(ev, name, val, 0); err != nil {
			Warn("read", 0, "%v", err)
			return statusFail(ev, 1)
		}
	}
	return statusOK(ev)
}

func splitOnIFS(line, ifs string, maxFields int) []string {
	var fields []string
	cur := strings.Builder{}
	inField := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if strings.IndexByte(ifs, c) >= 0 {
			if len(fields) == maxFields-1 {
				if !inField && isWhitespace(rune(c)) {
					continue
				}
				cur.WriteByte(c)
				inField = true
				continue
			}
			if inField {
				fields = append(fields, cur.String())
				cur.Reset()
				inField = false
			}
			continue
		}
		cur.WriteByte(c)
		inField = true
	}
	if inField {
		last := cur.String()
		if len(fields) == maxFields-1 {
			last = strings.TrimRightFunc(last, func(r rune) bool {
				return isWhitespace(r) && strings.ContainsRune(ifs, r)
			})
		}
		fields = append(fields, last)
	}
	return fields
}

func builtinLocal(ev *Evaluator, argv []string) error {
	for _, a := range argv[1:] {
		name, val, hasVal := strings.Cut(a, "=")
		if !hasVal {
			val, _ = ev.Vars.Lookup(name)
		}
		if err := ev.Vars.Set(ev, name, val, VarStack); err != nil {
			Warn("local", 0, "%v", err)
			return statusFail(ev, 1)
		}
	}
	return statusOK(ev)
}

func builtinAlias(ev *Evaluator, argv []string) error {
	if len(argv) == 1 {
		list := ev.Aliases.List()
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		for _, a := range list {
			fmt.Fprintf(ev.Stdout(), "alias %s=%s\n", a.Name, shellQuote(a.Replacement))
		}
		return statusOK(ev)
	}
	status := 0
	for _, a := range argv[1:] {
		name, val, hasVal := strings.Cut(a, "=")
		if !hasVal {
			if al, ok := ev.Aliases.Lookup(name, false); ok {
				fmt.Fprintf(ev.Stdout(), "alias %s=%s\n", al.Name, shellQuote(al.Replacement))
			} else {
				Warn("alias", 0, "%s: not found", name)
				status = 1
			}
			continue
		}
		ev.Aliases.Set(name, val)
	}
	return statusFail(ev, status)
}

func builtinUnalias(ev *Evaluator, argv []string) error {
	if len(argv) > 1 && argv[1] == "-a" {
		ev.Aliases.ClearAll()
		return statusOK(ev)
	}
	for _, name := range argv[1:] {
		ev.Aliases.Unset(name)
	}
	return statusOK(ev)
}

// builtinTrap implements spec.md §4.13's `trap`: with no operands,
// lists registered actions; "trap -- ACTION SIG..." installs ACTION
// ("-" resets to default, "" ignores); "trap SIG..." whose operands
// are all valid signal names resets each of them to the default.
func builtinTrap(ev *Evaluator, argv []string) error {
	args := argv[1:]
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	if len(args) == 0 {
		for name, action := range ev.Traps.List() {
			fmt.Fprintf(ev.Stdout(), "trap -- %s %s\n", shellQuote(action), name)
		}
		return statusOK(ev)
	}
	action := args[0]
	if looksLikeSignalList(args) {
		action = "-"
		for _, s := range args {
			name, valid := ResolveName(s)
			if !valid {
				Warn("trap", 0, "%s: bad trap", s)
				return statusFail(ev, 1)
			}
			ev.Traps.Set(name, action)
		}
		return statusOK(ev)
	}
	for _, s := range args[1:] {
		name, valid := ResolveName(s)
		if !valid {
			Warn("trap", 0, "%s: bad trap", s)
			return statusFail(ev, 1)
		}
		ev.Traps.Set(name, action)
	}
	return statusOK(ev)
}

func looksLikeSignalList(args []string) bool {
	for _, a := range args {
		if _, valid := ResolveName(a); !valid {
			return false
		}
	}
	return true
}

func builtinType(ev *Evaluator, argv []string) error {
	status := 0
	for _, name := range argv[1:] {
		switch {
		case func() bool { _, ok := ev.Funcs[name]; return ok }():
			fmt.Fprintf(ev.Stdout(), "%s is a function\n", name)
		case func() bool { _, ok := LookupBuiltin(name); return ok }():
			fmt.Fprintf(ev.Stdout(), "%s is a shell builtin\n", name)
		default:
			if path, err := ev.Cache.Lookup(ev, name); err == nil {
				fmt.Fprintf(ev.Stdout(), "%s is %s\n", name, path)
			} else {
				Warn("type", 0, "%s: not found", name)
				status = 1
			}
		}
	}
	return statusFail(ev, status)
}

// builtinCommand implements spec.md §4.14's `command`: -v/-V report
// what would run instead of running it, through the same lookup as
// `type` (so a function of that name is reported); otherwise the named
// builtin or external command runs, bypassing any function of the same
// name. -p is accepted and ignored: the lookup uses the current PATH.
func builtinCommand(ev *Evaluator, argv []string) error {
	args := argv[1:]
	report := false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "-v", "-V":
			report = true
		case "-p":
		default:
		}
		args = args[1:]
	}
	if len(args) == 0 {
		return statusOK(ev)
	}
	if report {
		return builtinType(ev, append([]string{"type"}, args...))
	}
	if b, isBuiltin := LookupBuiltin(args[0]); isBuiltin {
		err := b(ev, args)
		return err
	}
	return ev.runExternal(args)
}

func builtinHash(ev *Evaluator, argv []string) error {
	args := argv[1:]
	if len(args) == 0 {
		for name, path := range ev.Cache.Entries() {
			fmt.Fprintf(ev.Stdout(), "%s=%s\n", name, path)
		}
		return statusOK(ev)
	}
	if args[0] == "-r" {
		ev.Cache.Flush()
		return statusOK(ev)
	}
	for _, name := range args {
		if path, err := ev.Cache.Lookup(ev, name); err != nil {
			Warn("hash", 0, "%s: not found", name)
			return statusFail(ev, 1)
		} else {
			ev.Cache.Remember(name, path)
		}
	}
	return statusOK(ev)
}

func builtinUmask(ev *Evaluator, argv []string) error {
	if len(argv) == 1 {
		old := syscall.Umask(0)
		syscall.Umask(old)
		fmt.Fprintf(ev.Stdout(), "%04o\n", old)
		return statusOK(ev)
	}
	v, err := strconv.ParseInt(argv[1], 8, 32)
	if err != nil {
		Warn("umask", 0, "%s: bad mask", argv[1])
		return statusFail(ev, 1)
	}
	syscall.Umask(int(v))
	return statusOK(ev)
}

// builtinGetopts implements spec.md §4.14's `getopts`, using OPTIND to
// track position across repeated calls within the same command loop.
func builtinGetopts(ev *Evaluator, argv []string) error {
	if len(argv) < 3 {
		Warn("getopts", 0, "usage: getopts optstring name [arg...]")
		return statusFail(ev, 2)
	}
	optstring := argv[1]
	name := argv[2]
	args := argv[3:]
	if len(args) == 0 {
		args = ev.Positional[1:]
	}
	optindStr, _ := ev.Vars.Lookup("OPTIND")
	optind, _ := strconv.Atoi(optindStr)
	if optind < 1 {
		optind = 1
	}
	if optind-1 >= len(args) {
		ev.Vars.Set(ev, name, "?", 0)
		return statusFail(ev, 1)
	}
	arg := args[optind-1]
	if len(arg) < 2 || arg[0] != '-' || arg == "-" {
		ev.Vars.Set(ev, name, "?", 0)
		return statusFail(ev, 1)
	}
	c := arg[1]
	idx := strings.IndexByte(optstring, c)
	if idx < 0 {
		ev.Vars.Set(ev, name, "?", 0)
		ev.Vars.Set(ev, "OPTARG", string(c), 0)
		ev.Vars.Set(ev, "OPTIND", strconv.Itoa(optind+1), 0)
		return statusOK(ev)
	}
	ev.Vars.Set(ev, name, string(c), 0)
	if idx+1 < len(optstring) && optstring[idx+1] == ':' {
		if len(arg) > 2 {
			ev.Vars.Set(ev, "OPTARG", arg[2:], 0)
			optind++
		} else if optind < len(args) {
			ev.Vars.Set(ev, "OPTARG", args[optind], 0)
			optind += 2
		}
	} else {
		optind++
	}
	ev.Vars.Set(ev, "OPTIND", strconv.Itoa(optind), 0)
	return statusOK(ev)
}

func builtinTimes(ev *Evaluator, argv []string) error {
	var ru syscall.Rusage
	syscall.Getrusage(syscall.RUSAGE_SELF, &ru)
	fmt.Fprintf(ev.Stdout(), "%dm%.3fs %dm%.3fs\n", 0, float64(ru.Utime.Sec), 0, float64(ru.Stime.Sec))
	return statusOK(ev)
}

func builtinJobs(ev *Evaluator, argv []string) error {
	for _, j := range ev.Jobs.List() {
		fmt.Fprintln(ev.Stdout(), ShowJob(j))
	}
	return statusOK(ev)
}

func builtinFg(ev *Evaluator, argv []string) error {
	spec := "%+"
	if len(argv) > 1 {
		spec = argv[1]
	}
	job, err := ev.Jobs.Lookup(spec)
	if err != nil {
		Warn("fg", 0, "%v", err)
		return statusFail(ev, 1)
	}
	ev.Jobs.SetForeground(job)
	status, err := ev.Jobs.Wait(ev, job)
	if err != nil {
		return err
	}
	return statusFail(ev, status)
}

func builtinBg(ev *Evaluator, argv []string) error {
	spec := "%+"
	if len(argv) > 1 {
		spec = argv[1]
	}
	job, err := ev.Jobs.Lookup(spec)
	if err != nil {
		Warn("bg", 0, "%v", err)
		return statusFail(ev, 1)
	}
	syscall.Kill(-job.PGID, syscall.SIGCONT)
	job.State = JobRunning
	return statusOK(ev)
}

func builtinWait(ev *Evaluator, argv []string) error {
	if len(argv) == 1 {
		for _, j := range ev.Jobs.List() {
			ev.Jobs.Wait(ev, j)
		}
		return statusOK(ev)
	}
	status := 0
	for _, spec := range argv[1:] {
		job, err := ev.Jobs.Lookup(spec)
		if err != nil {
			continue
		}
		status, _ = ev.Jobs.Wait(ev, job)
	}
	return statusFail(ev, status)
}

func builtinKill(ev *Evaluator, argv []string) error {
	args := argv[1:]
	sig := syscall.SIGTERM
	if len(args) > 0 && strings.HasPrefix(args[0], "-") {
		spec := strings.TrimPrefix(args[0], "-")
		if n, err := strconv.Atoi(spec); err == nil {
			sig = syscall.Signal(n)
		} else if s, ok := namesig[strings.ToUpper(spec)]; ok {
			sig = s
		}
		args = args[1:]
	}
	for _, target := range args {
		if strings.HasPrefix(target, "%") {
			job, err := ev.Jobs.Lookup(target)
			if err != nil {
				Warn("kill", 0, "%v", err)
				return statusFail(ev, 1)
			}
			syscall.Kill(-job.PGID, sig)
			continue
		}
		pid, err := strconv.Atoi(target)
		if err != nil {
			Warn("kill", 0, "%s: arguments must be process or job IDs", target)
			return statusFail(ev, 1)
		}
		if err := syscall.Kill(pid, sig); err != nil {
			Warn("kill", 0, "(%d): %v", pid, err)
			return statusFail(ev, 1)
		}
	}
	return statusOK(ev)
}
