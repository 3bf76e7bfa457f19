package compiler

import (
	"github.com/zen-systems/guppyrun/pkg/stage"
	"github.com/zen-systems/guppyrun/pkg/toolchain"
)

// DefaultExecutablePath is the linker output when no destination is given.
const DefaultExecutablePath = "a.out"

// LinkCompiler links an object file against the qir-runner runtime to
// produce the runnable artifact.
type LinkCompiler struct {
	tool     toolchain.Tool
	launcher Launcher
}

func (c *LinkCompiler) InputStage() stage.Stage  { return stage.Object }
func (c *LinkCompiler) OutputStage() stage.Stage { return stage.Executable }
func (c *LinkCompiler) Tool() string             { return c.tool.Name }

func (c *LinkCompiler) ProcessStage(req Request) (string, error) {
	if req.InputEncoding == stage.Textual {
		return "", &UnsupportedEncodingError{Stage: stage.Object, Encoding: req.InputEncoding}
	}
	if req.OutputEncoding == stage.Textual {
		return "", &UnsupportedEncodingError{Stage: stage.Executable, Encoding: req.OutputEncoding}
	}

	outputPath, err := resolveOutput(req, DefaultExecutablePath, "guppyrun-*")
	if err != nil {
		return "", err
	}

	args := []string{req.InputPath, "-lqir_runner", "-o", outputPath}

	if _, err := runTool(c.launcher, c.tool.Name, c.tool.Path, args...); err != nil {
		return "", err
	}
	return outputPath, nil
}
