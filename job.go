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
	"strconv"
	"strings"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sync/errgroup"
)

// JobState is one job's run state, spec.md §4.12.
type JobState int

const (
	JobRunning JobState = iota
	JobStopped
	JobDone
)

func (s JobState) String() string {
	switch s {
	case JobRunning:
		return "Running"
	case JobStopped:
		return "Stopped"
	default:
		return "Done"
	}
}

// Proc is one process within a job (a pipeline stage).
type Proc struct {
	PID    int
	Cmd    string
	Status syscall.WaitStatus
	Done   bool
}

// Job is one pipeline submitted to the background, or the foreground
// job being waited on, per spec.md §4.12 "job table".
type Job struct {
	ID       int
	PGID     int
	Procs    []*Proc
	State    JobState
	Notified bool
	Command  string
	Foreground bool
}

// LastStatus reports the exit status that "$?" should take after this
// job finishes or stops: the last process's, per POSIX pipeline rules
// (pipefail is not in spec.md's scope, so it is always the last stage).
func (j *Job) LastStatus() int {
	if len(j.Procs) == 0 {
		return 0
	}
	p := j.Procs[len(j.Procs)-1]
	return waitStatusToExit(p.Status)
}

func waitStatusToExit(ws syscall.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	default:
		return 0
	}
}

// JobTable is the evaluator's job list, spec.md §4.12. Grounded on the
// teacher's worker.go goroutine-pool shape (a bounded set of concurrent
// workers with a join-all barrier), generalized from "run N build
// commands" to "run N pipeline stages that must be pgid-grouped and
// individually waitable" — real job control the teacher never needed.
// Cross-stage wait fan-in uses golang.org/x/sync/errgroup exactly as
// the teacher's para.go fans multiple command results back together.
type JobTable struct {
	mu       sync.Mutex
	jobs     []*Job
	nextID   int
	fgPGID   int
}

func NewJobTable() *JobTable {
	return &JobTable{nextID: 1}
}

// Register adds an already-started job (e.g. a single external
// process forkExec just launched) to the table, assigning it the next
// job number.
func (jt *JobTable) Register(j *Job) {
	jt.mu.Lock()
	j.ID = jt.nextID
	jt.nextID++
	jt.jobs = append(jt.jobs, j)
	jt.mu.Unlock()
}

// StartPipeline forks one process per already-prepared stage (each
// cmds[i].files must already have its stdin/stdout wired to the
// previous/next stage's pipe ends by the caller), places them all in
// one new process group, and returns the Job handle. The first stage
// is forked alone to learn the process-group id; the remaining stages
// fork concurrently via errgroup and join it, mirroring the teacher's
// para.go "first result seeds the rest" fan-out shape.
func (jt *JobTable) StartPipeline(cmds []*prepared, background bool) (*Job, error) {
	if len(cmds) == 0 {
		return nil, newError("", 0, 2, "empty pipeline")
	}
	job := &Job{Foreground: !background}
	pid0, err := forkExec(cmds[0], 0)
	if err != nil {
		return nil, err
	}
	job.PGID = pid0
	job.Procs = make([]*Proc, len(cmds))
	job.Procs[0] = &Proc{PID: pid0, Cmd: cmds[0].display()}
	if len(cmds) > 1 {
		var g errgroup.Group
		for i, c := range cmds[1:] {
			i, c := i+1, c
			g.Go(func() error {
				pid, err := forkExec(c, job.PGID)
				if err != nil {
					return err
				}
				job.Procs[i] = &Proc{PID: pid, Cmd: c.display()}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	job.Command = cmds[len(cmds)-1].display()
	jt.Register(job)
	return job, nil
}

// Wait blocks (reaping via wait4) until every process in job has
// exited or the whole job has stopped, per spec.md §4.12 "waitforjob".
func (jt *JobTable) Wait(ev *Evaluator, job *Job) (int, error) {
	for {
		if jobAllDone(job) {
			jt.remove(job)
			return job.LastStatus(), nil
		}
		pid, ws, err := syscall.Wait4(-job.PGID, nil, syscall.WUNTRACED, nil)
		if err == syscall.EINTR {
			ev.drainTraps()
			continue
		}
		if err != nil {
			jt.remove(job)
			return job.LastStatus(), nil
		}
		jt.record(job, pid, ws)
		if ws.Stopped() {
			job.State = JobStopped
			return 128 + int(ws.StopSignal()), nil
		}
	}
}

func (jt *JobTable) record(job *Job, pid int, ws syscall.WaitStatus) {
	for _, p := range job.Procs {
		if p.PID == pid {
			p.Status = ws
			p.Done = ws.Exited() || ws.Signaled()
		}
	}
}

func jobAllDone(job *Job) bool {
	for _, p := range job.Procs {
		if !p.Done {
			return false
		}
	}
	return true
}

func (jt *JobTable) remove(job *Job) {
	jt.mu.Lock()
	defer jt.mu.Unlock()
	for i, j := range jt.jobs {
		if j == job {
			jt.jobs = append(jt.jobs[:i], jt.jobs[i+1:]...)
			return
		}
	}
}

// Reap performs a non-blocking sweep of finished background jobs, the
// cooperative drain spec.md §4.12 runs "after each command, before
// each prompt".
func (jt *JobTable) Reap() {
	for {
		var ws syscall.WaitStatus
		pid, err := syscall.Wait4(-1, &ws, syscall.WNOHANG|syscall.WUNTRACED, nil)
		if err != nil || pid <= 0 {
			return
		}
		jt.mu.Lock()
		for _, j := range jt.jobs {
			jt.record(j, pid, ws)
			if jobAllDone(j) {
				j.State = JobDone
			}
		}
		jt.mu.Unlock()
	}
}

// Lookup resolves a %-job-spec per spec.md §4.12: %+/%% current, %-
// previous, %N by number, %string/%?string by name prefix/substring.
func (jt *JobTable) Lookup(spec string) (*Job, error) {
	jt.mu.Lock()
	defer jt.mu.Unlock()
	if len(jt.jobs) == 0 {
		return nil, newError("", 0, 1, "no such job")
	}
	spec = strings.TrimPrefix(spec, "%")
	switch {
	case spec == "" || spec == "+" || spec == "%":
		return jt.jobs[len(jt.jobs)-1], nil
	case spec == "-":
		if len(jt.jobs) < 2 {
			return jt.jobs[len(jt.jobs)-1], nil
		}
		return jt.jobs[len(jt.jobs)-2], nil
	}
	if n, err := strconv.Atoi(spec); err == nil {
		for _, j := range jt.jobs {
			if j.ID == n {
				return j, nil
			}
		}
		return nil, newError("", 0, 1, "%%%d: no such job", n)
	}
	if strings.HasPrefix(spec, "?") {
		needle := spec[1:]
		for _, j := range jt.jobs {
			if strings.Contains(j.Command, needle) {
				return j, nil
			}
		}
	} else {
		for _, j := range jt.jobs {
			if strings.HasPrefix(j.Command, spec) {
				return j, nil
			}
		}
	}
	return nil, newError("", 0, 1, "%%%s: no such job", spec)
}

// List returns every tracked job, for the `jobs` builtin.
func (jt *JobTable) List() []*Job {
	jt.mu.Lock()
	defer jt.mu.Unlock()
	out := make([]*Job, len(jt.jobs))
	copy(out, jt.jobs)
	return out
}

// ShowJob formats one job the way `jobs` prints it.
func ShowJob(j *Job) string {
	return fmt.Sprintf("[%d]  %-8s %s", j.ID, j.State, j.Command)
}

// SetForeground moves the terminal's controlling process group to
// job.PGID (job control's tcsetpgrp). It does not restore the shell's
// own group afterwards; a PGID of 0 leaves the terminal unchanged.
func (jt *JobTable) SetForeground(job *Job) {
	if job.PGID == 0 {
		return
	}
	tcsetpgrp(int(os.Stdin.Fd()), job.PGID)
}

func tcsetpgrp(fd, pgid int) {
	p := int32(pgid)
	_, _, _ = syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), syscall.TIOCSPGRP, uintptr(unsafe.Pointer(&p)))
}
