package compiler

import (
	"fmt"
	"strings"

	"github.com/zen-systems/guppyrun/pkg/stage"
)

// CompilerError is the common family for stage-transition failures, so the
// pipeline driver can treat them uniformly.
type CompilerError interface {
	error
	compilerError()
}

// UnsupportedEncodingError reports a stage/encoding combination that is
// structurally impossible, such as textual object code. It is raised before
// any external process is spawned.
type UnsupportedEncodingError struct {
	Stage    stage.Stage
	Encoding stage.EncodingMode
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("%s encoding is not supported for %s artifacts", e.Encoding, e.Stage)
}

func (e *UnsupportedEncodingError) compilerError() {}

// ToolNotFoundError reports that an external binary could not be located.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("could not find %q binary in your $PATH", e.Tool)
}

func (e *ToolNotFoundError) compilerError() {}

// ToolInvocationError reports a non-zero exit from an external binary,
// carrying the first line of its captured stderr.
type ToolInvocationError struct {
	Tool     string
	ExitCode int
	Detail   string
}

func (e *ToolInvocationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%q exited with status %d", e.Tool, e.ExitCode)
	}
	return fmt.Sprintf("%q exited with status %d: %s", e.Tool, e.ExitCode, e.Detail)
}

func (e *ToolInvocationError) compilerError() {}

// firstLine trims diagnostic output down to its first non-empty line.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
