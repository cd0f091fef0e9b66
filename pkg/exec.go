package cutarelease

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command is an external command line.
type Command struct {
	Dir  string
	Env  []string // extra KEY=VALUE pairs on top of the current environment
	Name string
	Args []string
}

// Cmd builds a Command running name with args in dir.
func Cmd(dir, name string, args ...string) Command {
	return Command{Dir: dir, Name: name, Args: args}
}

func (c Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\"'") {
			parts[i] = fmt.Sprintf("%q", p)
		}
	}
	s := strings.Join(parts, " ")
	if len(c.Env) > 0 {
		s = strings.Join(c.Env, " ") + " " + s
	}
	return s
}

// Runner executes external commands. Both methods block until the command
// exits and fail with a *CommandError on a non-zero exit status.
type Runner interface {
	// Run executes c with its output streamed to the user.
	Run(ctx context.Context, c Command) error
	// Output executes c and returns its standard output.
	Output(ctx context.Context, c Command) (string, error)
}

// CommandError reports an external command that could not be run or exited
// non-zero. It matches ErrProcess.
type CommandError struct {
	Command Command
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("error running '%s': %v", e.Command, e.Err)
	if detail := strings.TrimSpace(e.Stderr); detail != "" {
		msg += ", detail: " + detail
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

func (e *CommandError) Is(target error) bool { return target == ErrProcess }

// ExitCode returns the exit status of the command, or -1 if it did not run.
func (e *CommandError) ExitCode() int {
	var ee *exec.ExitError
	if errors.As(e.Err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner streaming to the process's stdout/stderr.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *ExecRunner) command(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := r.command(ctx, c)
	var stderr bytes.Buffer
	cmd.Stdout = r.Stdout
	cmd.Stderr = &stderr
	if r.Stderr != nil {
		cmd.Stderr = io.MultiWriter(r.Stderr, &stderr)
	}
	if err := cmd.Run(); err != nil {
		return &CommandError{Command: c, Stderr: stderr.String(), Err: err}
	}
	return nil
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, c Command) (string, error) {
	cmd := r.command(ctx, c)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &CommandError{Command: c, Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}
