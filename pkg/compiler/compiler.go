// Package compiler implements the per-transition stage compilers. Each
// compiler shells out to one external tool and covers exactly one adjacent
// stage transition.
package compiler

import (
	"fmt"
	"os"

	"github.com/zen-systems/guppyrun/pkg/stage"
	"github.com/zen-systems/guppyrun/pkg/toolchain"
)

// Request describes one stage transformation.
type Request struct {
	InputPath      string
	InputEncoding  stage.EncodingMode
	OutputPath     string
	OutputEncoding stage.EncodingMode
	// TempFile requests a temporary output location when OutputPath is
	// empty.
	TempFile bool
	// ModuleName selects the entry module when compiling from source.
	ModuleName string
}

// StageCompiler transforms an artifact from its input stage to its output
// stage. Implementations are stateless; identical requests produce identical
// outputs.
type StageCompiler interface {
	InputStage() stage.Stage
	OutputStage() stage.Stage
	Tool() string
	ProcessStage(req Request) (string, error)
}

// Chain returns the compilers covering every adjacent transition, in
// pipeline order.
func Chain(tc *toolchain.Toolchain, l Launcher) []StageCompiler {
	return []StageCompiler{
		&GuppyCompiler{tool: tc.GuppyCompile, launcher: l},
		&HugrCompiler{tool: tc.HugrMLIRTranslate, launcher: l},
		&MLIRLoweringCompiler{tool: tc.HugrMLIROpt, launcher: l},
		&LLVMTranslateCompiler{tool: tc.MLIRTranslate, launcher: l},
		&LLVMCompiler{tool: tc.LLC, launcher: l},
		&LinkCompiler{tool: tc.Clang, launcher: l},
	}
}

// For returns the compiler whose input stage matches s.
func For(compilers []StageCompiler, s stage.Stage) (StageCompiler, bool) {
	for _, c := range compilers {
		if c.InputStage() == s {
			return c, true
		}
	}
	return nil, false
}

// resolveOutput picks the output location: the requested path, else a
// temporary file when asked for one, else the compiler's fixed default name
// in the working directory.
func resolveOutput(req Request, defaultName, tempPattern string) (string, error) {
	if req.OutputPath != "" {
		return req.OutputPath, nil
	}
	if req.TempFile {
		f, err := os.CreateTemp("", tempPattern)
		if err != nil {
			return "", fmt.Errorf("create temporary output: %w", err)
		}
		f.Close()
		return f.Name(), nil
	}
	return defaultName, nil
}
