package compiler

import (
	"github.com/zen-systems/guppyrun/pkg/stage"
	"github.com/zen-systems/guppyrun/pkg/toolchain"
)

// DefaultObjectPath is where llc output lands when no destination is given.
// The name is fixed, not unique: concurrent invocations in the same working
// directory will collide.
// TODO: switch to a cleaned-up temporary file once the default-name
// behaviour is no longer relied on.
const DefaultObjectPath = "a.o"

// LLVMCompiler compiles LLVMIR into an object file with llc.
type LLVMCompiler struct {
	tool     toolchain.Tool
	launcher Launcher
}

func (c *LLVMCompiler) InputStage() stage.Stage  { return stage.LLVM }
func (c *LLVMCompiler) OutputStage() stage.Stage { return stage.Object }
func (c *LLVMCompiler) Tool() string             { return c.tool.Name }

// ProcessStage runs llc over the LLVMIR artifact. Object code has no textual
// form; requesting one fails before any process is spawned.
func (c *LLVMCompiler) ProcessStage(req Request) (string, error) {
	if req.OutputEncoding == stage.Textual {
		return "", &UnsupportedEncodingError{Stage: stage.Object, Encoding: req.OutputEncoding}
	}

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = DefaultObjectPath
	}

	args := []string{req.InputPath, "--filetype=obj", "-o", outputPath}

	if _, err := runTool(c.launcher, c.tool.Name, c.tool.Path, args...); err != nil {
		return "", err
	}
	return outputPath, nil
}
