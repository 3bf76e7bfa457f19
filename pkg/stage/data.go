package stage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Data is an immutable artifact at a known pipeline stage. The payload is
// either file-backed (Path set) or held in memory (payload set); each
// pipeline step produces a fresh Data rather than mutating the previous one.
type Data struct {
	Stage    Stage
	Encoding EncodingMode
	// Path is the file holding the artifact, empty for in-memory payloads.
	Path    string
	payload []byte
}

// FromPath reads the full artifact at path and wraps it. The whole artifact
// is materialized before compilation begins; downstream tools require a
// complete, self-contained input.
func FromPath(s Stage, path string, enc EncodingMode) (Data, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("input artifact %s: %w", path, err)
	}
	return Data{Stage: s, Encoding: enc, Path: path, payload: payload}, nil
}

// FromStdin reads standard input to completion and wraps it. The whole
// artifact is materialized in memory before any compilation begins.
func FromStdin(s Stage, enc EncodingMode) (Data, error) {
	return FromReader(s, os.Stdin, enc)
}

// FromReader reads r to completion and wraps it.
func FromReader(s Stage, r io.Reader, enc EncodingMode) (Data, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return Data{}, fmt.Errorf("read input artifact: %w", err)
	}
	return Data{Stage: s, Encoding: enc, payload: payload}, nil
}

// FromFile wraps an artifact file produced by a compiler without reading it.
func FromFile(s Stage, path string, enc EncodingMode) Data {
	return Data{Stage: s, Encoding: enc, Path: path}
}

// Bytes returns the artifact contents, reading the backing file for
// artifacts produced mid-pipeline.
func (d Data) Bytes() ([]byte, error) {
	if d.payload != nil || d.Path == "" {
		return d.payload, nil
	}
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s artifact %s: %w", d.Stage, d.Path, err)
	}
	return data, nil
}

// Materialize returns a path holding the artifact, writing the payload to a
// temporary file in dir when it is not already file-backed. External tools
// consume artifacts by path, so in-memory payloads are flushed first.
func (d Data) Materialize(dir string) (string, error) {
	if d.Path != "" {
		return d.Path, nil
	}
	f, err := os.CreateTemp(dir, "guppyrun-*"+d.preferredExt())
	if err != nil {
		return "", fmt.Errorf("materialize %s artifact: %w", d.Stage, err)
	}
	defer f.Close()
	if _, err := f.Write(d.payload); err != nil {
		return "", fmt.Errorf("materialize %s artifact: %w", d.Stage, err)
	}
	return f.Name(), nil
}

// Persist writes the artifact to path.
func (d Data) Persist(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("persist %s artifact: %w", d.Stage, err)
		}
	}
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	mode := os.FileMode(0644)
	if d.Stage == Executable {
		mode = 0755
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("persist %s artifact to %s: %w", d.Stage, path, err)
	}
	return nil
}

// preferredExt picks a representative extension for temp files so that
// extension-sniffing tools behave.
func (d Data) preferredExt() string {
	for ext, enc := range encodingByExtension[d.Stage] {
		if enc == d.Encoding {
			return ext
		}
	}
	return ""
}
