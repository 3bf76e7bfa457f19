// Package toolchain resolves the external tool binaries used by the
// pipeline. Resolution happens once at startup; the pipeline only ever sees
// the resolved paths.
package toolchain

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

// Source records where a tool path came from.
type Source string

const (
	// SourceEnv means a tool-specific environment variable was set.
	SourceEnv Source = "env"
	// SourceConfig means the toolchain config file supplied the path.
	SourceConfig Source = "config"
	// SourcePath means the conventional binary name is left to $PATH lookup.
	SourcePath Source = "path"
)

// Tool is one resolved external binary.
type Tool struct {
	// Name is the conventional binary name.
	Name string
	// EnvVar overrides the binary path when set.
	EnvVar string
	// Path is the resolved binary path or bare name.
	Path string
	// From records which resolution step supplied Path.
	From Source
}

// Toolchain holds the resolved binary for every stage transition.
type Toolchain struct {
	GuppyCompile      Tool
	HugrMLIRTranslate Tool
	HugrMLIROpt       Tool
	MLIRTranslate     Tool
	LLC               Tool
	Clang             Tool
}

// FileConfig is the on-disk toolchain file (--toolchain flag, else
// ~/.guppyrun/toolchain.yaml).
type FileConfig struct {
	GuppyCompile      string `yaml:"guppy_compile"`
	HugrMLIRTranslate string `yaml:"hugr_mlir_translate"`
	HugrMLIROpt       string `yaml:"hugr_mlir_opt"`
	MLIRTranslate     string `yaml:"mlir_translate"`
	LLC               string `yaml:"llc"`
	Clang             string `yaml:"clang"`
}

// Load resolves the full toolchain. The environment variable for a tool
// takes absolute precedence, then the config file at configPath (or the
// default location when configPath is empty), then the conventional name
// looked up on $PATH at spawn time.
func Load(configPath string) (*Toolchain, error) {
	fileCfg, err := loadFileConfig(configPath)
	if err != nil {
		return nil, err
	}

	return &Toolchain{
		GuppyCompile:      resolve("guppy-compile", "GUPPY_COMPILE", fileCfg.GuppyCompile),
		HugrMLIRTranslate: resolve("hugr-mlir-translate", "HUGR_MLIR_TRANSLATE", fileCfg.HugrMLIRTranslate),
		HugrMLIROpt:       resolve("hugr-mlir-opt", "HUGR_MLIR_OPT", fileCfg.HugrMLIROpt),
		MLIRTranslate:     resolve("mlir-translate", "MLIR_TRANSLATE", fileCfg.MLIRTranslate),
		LLC:               resolve("llc", "LLC", fileCfg.LLC),
		Clang:             resolve("clang", "CLANG", fileCfg.Clang),
	}, nil
}

// Tools lists the toolchain in pipeline order.
func (t *Toolchain) Tools() []Tool {
	return []Tool{
		t.GuppyCompile,
		t.HugrMLIRTranslate,
		t.HugrMLIROpt,
		t.MLIRTranslate,
		t.LLC,
		t.Clang,
	}
}

func resolve(name, envVar, configured string) Tool {
	tool := Tool{Name: name, EnvVar: envVar}
	if env.Has(envVar) {
		tool.Path = env.Str(envVar)
		tool.From = SourceEnv
		return tool
	}
	if configured != "" {
		tool.Path = configured
		tool.From = SourceConfig
		return tool
	}
	tool.Path = name
	tool.From = SourcePath
	return tool
}

// loadFileConfig reads the toolchain file. A missing default file is not an
// error; an explicitly requested file must exist.
func loadFileConfig(path string) (*FileConfig, error) {
	cfg := &FileConfig{}

	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".guppyrun", "toolchain.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read toolchain config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse toolchain config %s: %w", path, err)
	}
	return cfg, nil
}
