package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zen-systems/guppyrun/pkg/compiler"
	"github.com/zen-systems/guppyrun/pkg/stage"
)

// fakeCompiler records its invocations and writes a recognizable artifact.
type fakeCompiler struct {
	in, out stage.Stage
	calls   *[]stage.Stage
	fail    bool
}

func (c *fakeCompiler) InputStage() stage.Stage  { return c.in }
func (c *fakeCompiler) OutputStage() stage.Stage { return c.out }
func (c *fakeCompiler) Tool() string             { return "fake-" + c.out.String() }

func (c *fakeCompiler) ProcessStage(req compiler.Request) (string, error) {
	*c.calls = append(*c.calls, c.out)
	if c.fail {
		return "", &compiler.ToolInvocationError{Tool: c.Tool(), ExitCode: 1, Detail: "boom"}
	}
	out := req.OutputPath
	if out == "" {
		f, err := os.CreateTemp("", "fake-*")
		if err != nil {
			return "", err
		}
		f.Close()
		out = f.Name()
	}
	content := fmt.Sprintf("%s artifact", c.out)
	if err := os.WriteFile(out, []byte(content), 0644); err != nil {
		return "", err
	}
	return out, nil
}

// fakeLauncher stands in for executing the final artifact.
type fakeLauncher struct {
	calls    []string
	exitCode int
	stdout   string
}

func (l *fakeLauncher) Run(bin string, args ...string) (*compiler.Result, error) {
	l.calls = append(l.calls, bin)
	return &compiler.Result{Stdout: l.stdout, ExitCode: l.exitCode}, nil
}

func fakeChain(calls *[]stage.Stage) []compiler.StageCompiler {
	chain := []compiler.StageCompiler{}
	transitions := []stage.Stage{stage.Guppy, stage.Hugr, stage.HugrMLIR, stage.LoweredMLIR, stage.LLVM, stage.Object, stage.Executable}
	for i := 1; i < len(transitions); i++ {
		chain = append(chain, &fakeCompiler{in: transitions[i-1], out: transitions[i], calls: calls})
	}
	return chain
}

func guppyInput(t *testing.T) stage.Data {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.py")
	if err := os.WriteFile(path, []byte("def main(): ..."), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	data, err := stage.FromPath(stage.Guppy, path, stage.Textual)
	if err != nil {
		t.Fatalf("from path: %v", err)
	}
	return data
}

func TestFullPipelineRunsEveryStageInOrder(t *testing.T) {
	var calls []stage.Stage
	launcher := &fakeLauncher{stdout: "hello from qir\n"}
	var stdout bytes.Buffer

	err := RunWith(guppyInput(t), fakeChain(&calls), Options{
		Launcher: launcher,
		Stdout:   &stdout,
		Stderr:   &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []stage.Stage{stage.Hugr, stage.HugrMLIR, stage.LoweredMLIR, stage.LLVM, stage.Object, stage.Executable}
	if len(calls) != len(want) {
		t.Fatalf("ran %d stages, want %d: %v", len(calls), len(want), calls)
	}
	for i, s := range want {
		if calls[i] != s {
			t.Fatalf("stage %d = %s, want %s", i, calls[i], s)
		}
	}
	if len(launcher.calls) != 1 {
		t.Fatalf("expected one execution, got %d", len(launcher.calls))
	}
	if stdout.String() != "hello from qir\n" {
		t.Fatalf("program output not relayed: %q", stdout.String())
	}
}

func TestFailedExecutionReportsStatus(t *testing.T) {
	var calls []stage.Stage
	launcher := &fakeLauncher{exitCode: 3}

	err := RunWith(guppyInput(t), fakeChain(&calls), Options{
		Launcher: launcher,
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
	})
	if err == nil || !strings.Contains(err.Error(), "status 3") {
		t.Fatalf("expected execution failure, got %v", err)
	}
}

func TestLLVMInputStoresObjectAndStops(t *testing.T) {
	var calls []stage.Stage
	launcher := &fakeLauncher{}

	path := filepath.Join(t.TempDir(), "prog.ll")
	if err := os.WriteFile(path, []byte("define i64 @main() {}"), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	data, err := stage.FromPath(stage.LLVM, path, stage.Textual)
	if err != nil {
		t.Fatalf("from path: %v", err)
	}

	objOut := filepath.Join(t.TempDir(), "out.o")
	err = RunWith(data, fakeChain(&calls), Options{
		ObjOut:   objOut,
		NoRun:    true,
		Launcher: launcher,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(calls) != 1 || calls[0] != stage.Object {
		t.Fatalf("expected only the object stage to run, got %v", calls)
	}
	if _, err := os.Stat(objOut); err != nil {
		t.Fatalf("object artifact missing: %v", err)
	}
	if len(launcher.calls) != 0 {
		t.Fatalf("execution should be suppressed, got %d calls", len(launcher.calls))
	}
}

func TestStoreAtOrBeforeInputIsUsageError(t *testing.T) {
	var calls []stage.Stage

	path := filepath.Join(t.TempDir(), "prog.o")
	if err := os.WriteFile(path, []byte{0x7f}, 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	data, err := stage.FromPath(stage.Object, path, stage.Bitcode)
	if err != nil {
		t.Fatalf("from path: %v", err)
	}

	err = RunWith(data, fakeChain(&calls), Options{
		HugrOut: filepath.Join(t.TempDir(), "out.json"),
		NoRun:   true,
	})

	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("expected UsageError, got %v", err)
	}
	if usage.Stage != stage.Hugr {
		t.Fatalf("error names %s, want %s", usage.Stage, stage.Hugr)
	}
	if len(calls) != 0 {
		t.Fatalf("expected zero stage invocations, got %v", calls)
	}
}

func TestValidateRejectsStoreAtInputStage(t *testing.T) {
	err := Validate(stage.LLVM, Options{LLVMOut: "out.ll"})
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("expected UsageError, got %v", err)
	}
}

func TestFailureHaltsPipelineAndKeepsEarlierArtifacts(t *testing.T) {
	var calls []stage.Stage
	chain := fakeChain(&calls)
	// Hugr -> HugrMLIR fails.
	chain[1] = &fakeCompiler{in: stage.Hugr, out: stage.HugrMLIR, calls: &calls, fail: true}

	hugrOut := filepath.Join(t.TempDir(), "out.json")
	launcher := &fakeLauncher{}

	err := RunWith(guppyInput(t), chain, Options{
		HugrOut:  hugrOut,
		Launcher: launcher,
	})
	if err == nil {
		t.Fatalf("expected pipeline failure")
	}
	if !strings.Contains(err.Error(), "hugr-mlir") {
		t.Fatalf("error does not name the failed stage: %v", err)
	}

	var invocation *compiler.ToolInvocationError
	if !errors.As(err, &invocation) {
		t.Fatalf("expected wrapped ToolInvocationError, got %v", err)
	}

	want := []stage.Stage{stage.Hugr, stage.HugrMLIR}
	if len(calls) != len(want) {
		t.Fatalf("stages after the failure were attempted: %v", calls)
	}
	if _, err := os.Stat(hugrOut); err != nil {
		t.Fatalf("earlier requested intermediary missing: %v", err)
	}
	if len(launcher.calls) != 0 {
		t.Fatalf("execution attempted after failure")
	}
}

func TestNoRunWithoutStoresDoesNothing(t *testing.T) {
	var calls []stage.Stage

	err := RunWith(guppyInput(t), fakeChain(&calls), Options{NoRun: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no stage invocations, got %v", calls)
	}
}

func TestOutputPathStillBuildsUnderNoRun(t *testing.T) {
	var calls []stage.Stage
	launcher := &fakeLauncher{}
	binOut := filepath.Join(t.TempDir(), "prog")

	err := RunWith(guppyInput(t), fakeChain(&calls), Options{
		OutputPath: binOut,
		NoRun:      true,
		Launcher:   launcher,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls[len(calls)-1] != stage.Executable {
		t.Fatalf("executable stage not reached: %v", calls)
	}
	if _, err := os.Stat(binOut); err != nil {
		t.Fatalf("executable artifact missing: %v", err)
	}
	if len(launcher.calls) != 0 {
		t.Fatalf("execution should be suppressed")
	}
}

func TestStoreBinCopiesExecutable(t *testing.T) {
	var calls []stage.Stage
	launcher := &fakeLauncher{}
	outPath := filepath.Join(t.TempDir(), "prog")
	binPath := filepath.Join(t.TempDir(), "copy")

	err := RunWith(guppyInput(t), fakeChain(&calls), Options{
		OutputPath: outPath,
		BinOut:     binPath,
		NoRun:      true,
		Launcher:   launcher,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, path := range []string{outPath, binPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("missing executable at %s: %v", path, err)
		}
	}

	info, err := os.Stat(binPath)
	if err != nil {
		t.Fatalf("stat stored binary: %v", err)
	}
	if info.Mode()&0111 == 0 {
		t.Fatalf("stored binary is not executable: mode %v", info.Mode())
	}
}
