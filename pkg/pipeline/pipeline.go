// Package pipeline drives artifacts through the compilation stage chain.
package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zen-systems/guppyrun/pkg/compiler"
	"github.com/zen-systems/guppyrun/pkg/report"
	"github.com/zen-systems/guppyrun/pkg/stage"
	"github.com/zen-systems/guppyrun/pkg/toolchain"
)

// Options configures a pipeline run.
type Options struct {
	// Per-stage intermediary store paths. Empty means the artifact is not
	// persisted.
	HugrOut        string
	HugrMLIROut    string
	LoweredMLIROut string
	LLVMOut        string
	ObjOut         string
	BinOut         string

	// OutputPath is the runnable artifact destination (-o).
	OutputPath string
	// NoRun stops the pipeline after the furthest requested artifact
	// instead of executing the result.
	NoRun bool
	// ModuleName selects the entry module when compiling from source.
	ModuleName string

	// Report, when set, records the run under its directory.
	Report *report.Writer
	// Launcher runs the final executable (and, via Run, every tool).
	// Defaults to the process-spawning launcher.
	Launcher compiler.Launcher
	// Stdout and Stderr receive the executed program's captured output.
	// Default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// UsageError reports a request for an artifact that is not reachable from
// the input stage. It is detected before any external process runs.
type UsageError struct {
	Stage stage.Stage
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("cannot produce a %s artifact from the given input", e.Stage)
}

type storeRequest struct {
	stage stage.Stage
	path  string
}

func (o *Options) stores() []storeRequest {
	return []storeRequest{
		{stage.Hugr, o.HugrOut},
		{stage.HugrMLIR, o.HugrMLIROut},
		{stage.LoweredMLIR, o.LoweredMLIROut},
		{stage.LLVM, o.LLVMOut},
		{stage.Object, o.ObjOut},
		{stage.Executable, o.BinOut},
		{stage.Executable, o.OutputPath},
	}
}

// Validate rejects store requests at or before the input stage. Producing an
// already-available artifact is a usage error, not a pipeline failure.
func Validate(input stage.Stage, opts Options) error {
	for _, store := range opts.stores() {
		if store.path != "" && input >= store.stage {
			return &UsageError{Stage: store.stage}
		}
	}
	return nil
}

// Run drives the artifact through the stage chain using the resolved
// toolchain, then executes the result unless suppressed.
func Run(data stage.Data, tc *toolchain.Toolchain, opts Options) error {
	launcher := opts.Launcher
	if launcher == nil {
		launcher = compiler.NewExecLauncher()
		opts.Launcher = launcher
	}
	return RunWith(data, compiler.Chain(tc, launcher), opts)
}

// RunWith is Run with an explicit compiler chain, so tests can substitute
// fakes without spawning processes.
func RunWith(data stage.Data, compilers []compiler.StageCompiler, opts Options) error {
	if err := Validate(data.Stage, opts); err != nil {
		return err
	}
	if err := writeRunRecord(data, opts); err != nil {
		return err
	}

	target := targetStage(data.Stage, opts)

	cur := data
	for cur.Stage < target {
		next, err := advance(cur, compilers, opts)
		if err != nil {
			return err
		}
		cur = next
	}

	// -o and --store-bin may both name the executable; the linker wrote to
	// one, copy to the other.
	if cur.Stage == stage.Executable && opts.BinOut != "" && opts.BinOut != cur.Path {
		if err := cur.Persist(opts.BinOut); err != nil {
			return err
		}
	}

	if opts.NoRun || cur.Stage < stage.Executable {
		return nil
	}
	return execute(cur, opts)
}

// advance applies the unique compiler accepting the current stage and
// returns the produced artifact.
func advance(cur stage.Data, compilers []compiler.StageCompiler, opts Options) (stage.Data, error) {
	comp, ok := compiler.For(compilers, cur.Stage)
	if !ok {
		return stage.Data{}, fmt.Errorf("no compiler accepts %s artifacts", cur.Stage)
	}
	out := comp.OutputStage()

	inputPath, err := cur.Materialize("")
	if err != nil {
		return stage.Data{}, err
	}

	outPath := storePathFor(out, opts)
	outEnc := outputEncoding(out, outPath)

	moduleName := ""
	if cur.Stage == stage.Guppy {
		moduleName = opts.ModuleName
	}

	start := time.Now()
	producedPath, err := comp.ProcessStage(compiler.Request{
		InputPath:      inputPath,
		InputEncoding:  cur.Encoding,
		OutputPath:     outPath,
		OutputEncoding: outEnc,
		TempFile:       outPath == "",
		ModuleName:     moduleName,
	})
	writeStageRecord(opts, comp, producedPath, outEnc, outPath != "", time.Since(start), err)
	if err != nil {
		return stage.Data{}, fmt.Errorf("%s stage: %w", out, err)
	}

	return stage.FromFile(out, producedPath, outEnc), nil
}

// execute runs the final artifact and relays its captured output.
func execute(data stage.Data, opts Options) error {
	launcher := opts.Launcher
	if launcher == nil {
		launcher = compiler.NewExecLauncher()
	}

	binPath, err := filepath.Abs(data.Path)
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}

	res, err := launcher.Run(binPath)
	if err != nil {
		return fmt.Errorf("run %s: %w", binPath, err)
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	fmt.Fprint(stdout, res.Stdout)
	fmt.Fprint(stderr, res.Stderr)

	if res.ExitCode != 0 {
		return fmt.Errorf("program exited with status %d", res.ExitCode)
	}
	return nil
}

// targetStage is the furthest stage the run has to reach.
func targetStage(input stage.Stage, opts Options) stage.Stage {
	if !opts.NoRun || opts.OutputPath != "" {
		return stage.Executable
	}
	target := input
	for _, store := range opts.stores() {
		if store.path != "" && store.stage > target {
			target = store.stage
		}
	}
	return target
}

func storePathFor(s stage.Stage, opts Options) string {
	if s == stage.Executable && opts.OutputPath != "" {
		return opts.OutputPath
	}
	for _, store := range opts.stores() {
		if store.stage == s && store.path != "" {
			return store.path
		}
	}
	return ""
}

// outputEncoding picks the encoding for a transition's output: detected from
// the requested path when the artifact is persisted, else the stage's
// natural default. Executables have no extension table.
func outputEncoding(s stage.Stage, outPath string) stage.EncodingMode {
	if s == stage.Executable || outPath == "" {
		return stage.DefaultEncoding(s)
	}
	return stage.DetectEncoding(outPath, s)
}

func writeRunRecord(data stage.Data, opts Options) error {
	if opts.Report == nil {
		return nil
	}
	return opts.Report.WriteRun(report.RunRecord{
		ID:         filepath.Base(opts.Report.RunDir()),
		Timestamp:  time.Now().UTC(),
		Input:      data.Path,
		InputStage: data.Stage.String(),
		NoRun:      opts.NoRun,
	})
}

func writeStageRecord(opts Options, comp compiler.StageCompiler, producedPath string, enc stage.EncodingMode, persisted bool, duration time.Duration, runErr error) {
	if opts.Report == nil {
		return
	}
	record := report.StageRecord{
		Stage:          comp.OutputStage().String(),
		Tool:           comp.Tool(),
		OutputPath:     producedPath,
		Encoding:       enc.String(),
		Persisted:      persisted,
		DurationMillis: duration.Milliseconds(),
	}
	if runErr != nil {
		record.Error = runErr.Error()
	}
	// Reporting is best effort; a failed record write never fails the run.
	_ = opts.Report.WriteStage(record)
}
