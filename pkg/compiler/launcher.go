package compiler

import (
	"bytes"
	"errors"
	"io/fs"
	"log"
	"os/exec"
	"strings"
	"time"
)

// Result captures one external process invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Launcher spawns external processes with captured output. Tests substitute
// a fake to record invocations without spawning anything.
type Launcher interface {
	Run(bin string, args ...string) (*Result, error)
}

// ExecLauncher runs processes via os/exec. Stdout and stderr are buffered
// rather than inherited from the caller.
type ExecLauncher struct{}

// NewExecLauncher returns the process-spawning launcher.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{}
}

// Run executes bin with args, blocking until it exits.
func (l *ExecLauncher) Run(bin string, args ...string) (*Result, error) {
	log.Printf("executing command: %s %s", bin, strings.Join(args, " "))

	cmd := exec.Command(bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, err
		}
	}

	return &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: duration,
	}, nil
}

// runTool invokes the named binary and maps failures into the compiler
// error family.
func runTool(l Launcher, name, bin string, args ...string) (*Result, error) {
	res, err := l.Run(bin, args...)
	if err != nil {
		// $PATH lookup misses and dangling absolute paths (env or config
		// overrides) both mean the tool is not there.
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, &ToolNotFoundError{Tool: name}
		}
		return nil, err
	}
	if res.ExitCode != 0 {
		return res, &ToolInvocationError{
			Tool:     name,
			ExitCode: res.ExitCode,
			Detail:   firstLine(res.Stderr),
		}
	}
	return res, nil
}
