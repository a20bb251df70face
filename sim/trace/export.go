package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// compressedSuffix selects zstd compression for trace files.
const compressedSuffix = ".zst"

// WriteFile encodes st as YAML to path, zstd-compressed when path ends in ".zst".
func WriteFile(path string, st *SimulationTrace) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("closing trace file: %w", closeErr)
		}
	}()

	if !strings.HasSuffix(path, compressedSuffix) {
		return Encode(f, st)
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if err := Encode(enc, st); err != nil {
		_ = enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flushing zstd stream: %w", err)
	}
	return nil
}

// Encode writes st as YAML to w.
func Encode(w io.Writer, st *SimulationTrace) error {
	bw := bufio.NewWriter(w)
	ye := yaml.NewEncoder(bw)
	ye.SetIndent(2)
	if err := ye.Encode(st); err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	if err := ye.Close(); err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	return bw.Flush()
}

// ReadFile decodes a trace written by WriteFile.
func ReadFile(path string) (*SimulationTrace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, compressedSuffix) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	var st SimulationTrace
	decoder := yaml.NewDecoder(bufio.NewReader(r))
	decoder.KnownFields(true)
	if err := decoder.Decode(&st); err != nil {
		return nil, fmt.Errorf("parsing trace file: %w", err)
	}
	return &st, nil
}
