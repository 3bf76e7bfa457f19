package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zen-systems/guppyrun/pkg/pipeline"
	"github.com/zen-systems/guppyrun/pkg/report"
	"github.com/zen-systems/guppyrun/pkg/stage"
	"github.com/zen-systems/guppyrun/pkg/toolchain"
)

var toolchainFile string

func main() {
	root := newRootCmd()
	root.AddCommand(toolsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		moduleName string

		hugrIn      bool
		hugrMLIRIn  bool
		llvmMLIRIn  bool
		llvmIn      bool
		forceText   bool
		forceBinary bool

		opts      pipeline.Options
		reportDir string
	)

	cmd := &cobra.Command{
		Use:   "guppyrun [INPUT]",
		Short: "Execute a guppy program using the qir-runner backend",
		Long: `Guppyrun compiles a guppy program down to a runnable artifact and
executes it. The input may enter the pipeline at any stage; every stage
after it can be stored as an intermediary artifact.

Unless otherwise specified, the input is a guppy program (.py) defining a
main GuppyModule. When no input file is given, the artifact is read from
stdin in textual mode.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				log.SetOutput(io.Discard)
			}

			inputStage := inputStageOf(hugrIn, hugrMLIRIn, llvmMLIRIn, llvmIn)

			input := ""
			if len(args) == 1 {
				input = args[0]
			}

			if err := pipeline.Validate(inputStage, opts); err != nil {
				return err
			}

			tc, err := toolchain.Load(toolchainFile)
			if err != nil {
				return err
			}

			encoding := inputEncoding(input, inputStage, forceText, forceBinary)

			var data stage.Data
			if input != "" {
				data, err = stage.FromPath(inputStage, input, encoding)
			} else {
				data, err = stage.FromStdin(inputStage, encoding)
			}
			if err != nil {
				return err
			}

			opts.ModuleName = moduleName
			if reportDir != "" {
				writer, err := report.NewWriter(reportDir)
				if err != nil {
					return err
				}
				opts.Report = writer
			}

			return pipeline.Run(data, tc, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&toolchainFile, "toolchain", "", "path to toolchain config file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().StringVar(&moduleName, "module", "", "name of the GuppyModule exported by the program; it must contain a main function")

	cmd.Flags().BoolVar(&hugrIn, "hugr", false, "read the input as an encoded Hugr (.msgpack or .json)")
	cmd.Flags().BoolVar(&hugrMLIRIn, "hugr-mlir", false, "read the input as a hugr-dialect mlir file")
	cmd.Flags().BoolVar(&llvmMLIRIn, "llvm-mlir", false, "read the input as an llvm-dialect mlir file")
	cmd.Flags().BoolVar(&llvmIn, "llvm", false, "read the input as an LLVMIR file")
	cmd.MarkFlagsMutuallyExclusive("hugr", "hugr-mlir", "llvm-mlir", "llvm")

	cmd.Flags().BoolVar(&forceBinary, "bitcode", false, "parse the input in binary mode instead of detecting from the file extension")
	cmd.Flags().BoolVar(&forceText, "textual", false, "parse the input in human-readable textual mode instead of detecting from the file extension")
	cmd.MarkFlagsMutuallyExclusive("bitcode", "textual")

	cmd.Flags().StringVar(&opts.HugrOut, "store-hugr", "", "store the intermediary Hugr object (.msgpack or .json)")
	cmd.Flags().StringVar(&opts.HugrMLIROut, "store-hugr-mlir", "", "store the intermediary hugr-dialect MLIR object (.mlir or .mlirbc)")
	cmd.Flags().StringVar(&opts.LoweredMLIROut, "store-llvm-mlir", "", "store the intermediary llvm-dialect MLIR object (.mlir or .mlirbc)")
	cmd.Flags().StringVar(&opts.LLVMOut, "store-llvm", "", "store the intermediary LLVMIR object (.ll or .bc)")
	cmd.Flags().StringVar(&opts.ObjOut, "store-obj", "", "store the intermediary object file")
	cmd.Flags().StringVar(&opts.BinOut, "store-bin", "", "store the executable binary")

	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "runnable artifact output file")
	cmd.Flags().BoolVar(&opts.NoRun, "no-run", false, "do not run the compiled artifact; produce any required intermediary files and terminate early")
	cmd.Flags().StringVar(&reportDir, "report", "", "write a JSON run report under this directory")

	return cmd
}

func inputStageOf(hugr, hugrMLIR, llvmMLIR, llvm bool) stage.Stage {
	switch {
	case hugr:
		return stage.Hugr
	case hugrMLIR:
		return stage.HugrMLIR
	case llvmMLIR:
		return stage.LoweredMLIR
	case llvm:
		return stage.LLVM
	default:
		return stage.Guppy
	}
}

// inputEncoding applies explicit overrides, then extension detection for
// files, then the stream default.
func inputEncoding(input string, s stage.Stage, forceText, forceBinary bool) stage.EncodingMode {
	switch {
	case forceText:
		return stage.Textual
	case forceBinary:
		return stage.Bitcode
	case input == "":
		return stage.Textual
	default:
		return stage.DetectEncoding(input, s)
	}
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Show the resolved toolchain binaries",
		Long: `Lists the external binary used for each stage transition, where it
resolved from (environment variable, toolchain config file, or $PATH), and
the environment variable that overrides it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := toolchain.Load(toolchainFile)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOOL\tBINARY\tSOURCE\tOVERRIDE")
			for _, tool := range tc.Tools() {
				fmt.Fprintf(w, "%s\t%s\t%s\t$%s\n", tool.Name, tool.Path, tool.From, tool.EnvVar)
			}
			return w.Flush()
		},
	}
}
