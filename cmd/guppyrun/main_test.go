package main

import (
	"testing"

	"github.com/zen-systems/guppyrun/pkg/stage"
)

func TestInputStageDefaultsToGuppy(t *testing.T) {
	if s := inputStageOf(false, false, false, false); s != stage.Guppy {
		t.Fatalf("default input stage = %s, want %s", s, stage.Guppy)
	}
	if s := inputStageOf(false, false, true, false); s != stage.LoweredMLIR {
		t.Fatalf("llvm-mlir input stage = %s, want %s", s, stage.LoweredMLIR)
	}
}

func TestInputEncoding(t *testing.T) {
	// Explicit overrides win over everything.
	if enc := inputEncoding("prog.msgpack", stage.Hugr, true, false); enc != stage.Textual {
		t.Fatalf("forced textual ignored: %s", enc)
	}
	if enc := inputEncoding("prog.py", stage.Guppy, false, true); enc != stage.Bitcode {
		t.Fatalf("forced bitcode ignored: %s", enc)
	}

	// Stdin defaults to textual, no extension to detect.
	if enc := inputEncoding("", stage.Hugr, false, false); enc != stage.Textual {
		t.Fatalf("stdin default = %s, want %s", enc, stage.Textual)
	}

	// Files fall back to extension detection.
	if enc := inputEncoding("prog.msgpack", stage.Hugr, false, false); enc != stage.Bitcode {
		t.Fatalf("msgpack detection = %s, want %s", enc, stage.Bitcode)
	}
	if enc := inputEncoding("prog.mystery", stage.Hugr, false, false); enc != stage.Bitcode {
		t.Fatalf("unknown extension default = %s, want %s", enc, stage.Bitcode)
	}
}
