package compiler

import (
	"github.com/zen-systems/guppyrun/pkg/stage"
	"github.com/zen-systems/guppyrun/pkg/toolchain"
)

// HugrCompiler translates an encoded Hugr into hugr-dialect MLIR.
type HugrCompiler struct {
	tool     toolchain.Tool
	launcher Launcher
}

func (c *HugrCompiler) InputStage() stage.Stage  { return stage.Hugr }
func (c *HugrCompiler) OutputStage() stage.Stage { return stage.HugrMLIR }
func (c *HugrCompiler) Tool() string             { return c.tool.Name }

func (c *HugrCompiler) ProcessStage(req Request) (string, error) {
	outputPath, err := resolveOutput(req, "out.mlir", "guppyrun-*.mlir")
	if err != nil {
		return "", err
	}

	args := []string{req.InputPath, "-o", outputPath}
	if req.InputEncoding == stage.Textual {
		args = append(args, "--hugr-json")
	}
	if req.OutputEncoding == stage.Bitcode {
		args = append(args, "--emit-bytecode")
	}

	if _, err := runTool(c.launcher, c.tool.Name, c.tool.Path, args...); err != nil {
		return "", err
	}
	return outputPath, nil
}

// MLIRLoweringCompiler lowers hugr-dialect MLIR to the llvm dialect.
type MLIRLoweringCompiler struct {
	tool     toolchain.Tool
	launcher Launcher
}

func (c *MLIRLoweringCompiler) InputStage() stage.Stage  { return stage.HugrMLIR }
func (c *MLIRLoweringCompiler) OutputStage() stage.Stage { return stage.LoweredMLIR }
func (c *MLIRLoweringCompiler) Tool() string             { return c.tool.Name }

func (c *MLIRLoweringCompiler) ProcessStage(req Request) (string, error) {
	outputPath, err := resolveOutput(req, "out.lowered.mlir", "guppyrun-*.mlir")
	if err != nil {
		return "", err
	}

	args := []string{req.InputPath, "--lower-hugr", "-o", outputPath}
	if req.OutputEncoding == stage.Bitcode {
		args = append(args, "--emit-bytecode")
	}

	if _, err := runTool(c.launcher, c.tool.Name, c.tool.Path, args...); err != nil {
		return "", err
	}
	return outputPath, nil
}

// LLVMTranslateCompiler translates llvm-dialect MLIR into LLVMIR.
type LLVMTranslateCompiler struct {
	tool     toolchain.Tool
	launcher Launcher
}

func (c *LLVMTranslateCompiler) InputStage() stage.Stage  { return stage.LoweredMLIR }
func (c *LLVMTranslateCompiler) OutputStage() stage.Stage { return stage.LLVM }
func (c *LLVMTranslateCompiler) Tool() string             { return c.tool.Name }

func (c *LLVMTranslateCompiler) ProcessStage(req Request) (string, error) {
	outputPath, err := resolveOutput(req, "out.ll", "guppyrun-*.ll")
	if err != nil {
		return "", err
	}

	args := []string{req.InputPath, "--mlir-to-llvmir", "-o", outputPath}
	if req.OutputEncoding == stage.Bitcode {
		args = append(args, "--emit-bitcode")
	}

	if _, err := runTool(c.launcher, c.tool.Name, c.tool.Path, args...); err != nil {
		return "", err
	}
	return outputPath, nil
}
