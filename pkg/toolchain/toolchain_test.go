package toolchain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xyproto/env/v2"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toolchain.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestEnvOverrideTakesPrecedence(t *testing.T) {
	path := writeConfig(t, "llc: /opt/llvm/bin/llc\n")
	t.Setenv("LLC", "/custom/llc")
	env.Unload()
	t.Cleanup(env.Unload)

	tc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tc.LLC.Path != "/custom/llc" {
		t.Fatalf("llc path = %s, want env override", tc.LLC.Path)
	}
	if tc.LLC.From != SourceEnv {
		t.Fatalf("llc source = %s, want %s", tc.LLC.From, SourceEnv)
	}
}

func TestConfigFileSuppliesPath(t *testing.T) {
	path := writeConfig(t, "llc: /opt/llvm/bin/llc\nclang: /opt/llvm/bin/clang\n")

	tc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tc.LLC.Path != "/opt/llvm/bin/llc" || tc.LLC.From != SourceConfig {
		t.Fatalf("llc = %+v, want config path", tc.LLC)
	}
	if tc.Clang.Path != "/opt/llvm/bin/clang" {
		t.Fatalf("clang = %+v, want config path", tc.Clang)
	}
}

func TestBareNameFallsThroughToPath(t *testing.T) {
	path := writeConfig(t, "llc: /opt/llvm/bin/llc\n")

	tc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tc.MLIRTranslate.Path != "mlir-translate" || tc.MLIRTranslate.From != SourcePath {
		t.Fatalf("mlir-translate = %+v, want bare name", tc.MLIRTranslate)
	}
}

func TestExplicitMissingConfigFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestMalformedConfigFails(t *testing.T) {
	path := writeConfig(t, "llc: [broken\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed config")
	}
}

func TestToolsListsPipelineOrder(t *testing.T) {
	path := writeConfig(t, "")
	tc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tools := tc.Tools()
	want := []string{"guppy-compile", "hugr-mlir-translate", "hugr-mlir-opt", "mlir-translate", "llc", "clang"}
	if len(tools) != len(want) {
		t.Fatalf("got %d tools, want %d", len(tools), len(want))
	}
	for i, name := range want {
		if tools[i].Name != name {
			t.Fatalf("tool %d = %s, want %s", i, tools[i].Name, name)
		}
	}
}
