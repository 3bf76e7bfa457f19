// Package stage models the positions of the compilation pipeline and the
// artifacts that move between them.
package stage

import (
	"log"
	"path/filepath"
	"strings"
)

// Stage is a position in the compilation pipeline. Stages are totally
// ordered: a later stage can only be produced from an equal-or-earlier one.
type Stage int

const (
	// Guppy is the python-embedded source program.
	Guppy Stage = iota
	// Hugr is the hierarchical unified graph representation emitted by the
	// guppy front-end.
	Hugr
	// HugrMLIR is the hugr-dialect MLIR form.
	HugrMLIR
	// LoweredMLIR is the llvm-dialect MLIR form.
	LoweredMLIR
	// LLVM is the LLVMIR form, textual or bitcode.
	LLVM
	// Object is compiled object code.
	Object
	// Executable is the final runnable artifact.
	Executable
)

func (s Stage) String() string {
	switch s {
	case Guppy:
		return "guppy"
	case Hugr:
		return "hugr"
	case HugrMLIR:
		return "hugr-mlir"
	case LoweredMLIR:
		return "lowered-mlir"
	case LLVM:
		return "llvm"
	case Object:
		return "object"
	case Executable:
		return "executable"
	default:
		return "unknown"
	}
}

// EncodingMode is the physical encoding of an artifact.
type EncodingMode int

const (
	// Textual is a human-readable encoding.
	Textual EncodingMode = iota
	// Bitcode is an opaque binary encoding.
	Bitcode
)

func (e EncodingMode) String() string {
	if e == Textual {
		return "textual"
	}
	return "bitcode"
}

// encodingByExtension maps a known (stage, extension) pair to its encoding.
// MLIR stages share the .mlir/.mlirbc pair.
var encodingByExtension = map[Stage]map[string]EncodingMode{
	Guppy: {
		".py": Textual,
	},
	Hugr: {
		".json":    Textual,
		".msgpack": Bitcode,
	},
	HugrMLIR: {
		".mlir":   Textual,
		".mlirbc": Bitcode,
	},
	LoweredMLIR: {
		".mlir":   Textual,
		".mlirbc": Bitcode,
	},
	LLVM: {
		".ll": Textual,
		".bc": Bitcode,
	},
	Object: {
		".o": Bitcode,
	},
}

// EncodingFromExtension looks up the encoding for a file at the given stage.
// The second return is false when the extension is not recognized for the
// stage.
func EncodingFromExtension(path string, s Stage) (EncodingMode, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	enc, ok := encodingByExtension[s][ext]
	return enc, ok
}

// DefaultEncoding is the natural encoding used for an intermediary artifact
// when no destination path constrains it.
func DefaultEncoding(s Stage) EncodingMode {
	switch s {
	case Guppy, HugrMLIR, LoweredMLIR, LLVM:
		return Textual
	default:
		return Bitcode
	}
}

// DetectEncoding infers the encoding of the file at path for the given
// stage. It is total: when the extension is unrecognized it defaults to
// Bitcode and logs an informational notice.
func DetectEncoding(path string, s Stage) EncodingMode {
	if enc, ok := EncodingFromExtension(path, s); ok {
		return enc
	}
	log.Printf("cannot detect the encoding mode of %s from its extension, defaulting to %s", path, Bitcode)
	return Bitcode
}
