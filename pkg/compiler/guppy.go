package compiler

import (
	"github.com/zen-systems/guppyrun/pkg/stage"
	"github.com/zen-systems/guppyrun/pkg/toolchain"
)

// GuppyCompiler compiles a guppy source program into a Hugr, textual (json)
// or bitcode (msgpack).
type GuppyCompiler struct {
	tool     toolchain.Tool
	launcher Launcher
}

func (c *GuppyCompiler) InputStage() stage.Stage  { return stage.Guppy }
func (c *GuppyCompiler) OutputStage() stage.Stage { return stage.Hugr }
func (c *GuppyCompiler) Tool() string             { return c.tool.Name }

// ProcessStage invokes the guppy front-end on the source file.
func (c *GuppyCompiler) ProcessStage(req Request) (string, error) {
	if req.InputEncoding != stage.Textual {
		return "", &UnsupportedEncodingError{Stage: stage.Guppy, Encoding: req.InputEncoding}
	}

	outputPath, err := resolveOutput(req, "out.msgpack", "guppyrun-*.msgpack")
	if err != nil {
		return "", err
	}

	format := "msgpack"
	if req.OutputEncoding == stage.Textual {
		format = "json"
	}

	args := []string{req.InputPath, "--format", format, "-o", outputPath}
	if req.ModuleName != "" {
		args = append(args, "--module", req.ModuleName)
	}

	if _, err := runTool(c.launcher, c.tool.Name, c.tool.Path, args...); err != nil {
		return "", err
	}
	return outputPath, nil
}
