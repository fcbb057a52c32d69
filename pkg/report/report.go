// Package report provides the final run summary's JSON encoding and the
// persisted-array helpers backing the core's load/save/random(poly=...)
// debug instructions.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sapphirecore/coresim/pkg/power"
)

// Summary is the top-level JSON document written at the end of a run.
type Summary struct {
	Program      string       `json:"program"`
	N            int          `json:"n"`
	Q            int64        `json:"q"`
	VddVolts     float64      `json:"vdd_volts"`
	FreqMHz      float64      `json:"freq_mhz"`
	Power        power.Report `json:"power"`
	Instructions int          `json:"instructions_executed"`
	Warnings     []string     `json:"warnings,omitempty"`
}

// Write marshals a Summary as indented JSON to path.
func Write(path string, s Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("writing report file %s: %w", path, err)
	}
	return nil
}

// Read loads a Summary previously written by Write.
func Read(path string) (Summary, error) {
	var s Summary
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading report file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing report file %s: %w", path, err)
	}
	return s, nil
}

// SavePoly persists a polynomial's coefficients as a JSON array of decimal
// integers, backing the core's save(poly=...) debug instruction.
func SavePoly(path string, coeffs []int64) error {
	data, err := json.Marshal(coeffs)
	if err != nil {
		return fmt.Errorf("marshaling polynomial: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing polynomial file %s: %w", path, err)
	}
	return nil
}

// LoadPoly reads a polynomial previously written by SavePoly, backing the
// core's load(poly=...) debug instruction. The caller is responsible for
// checking the returned length matches the configured n.
func LoadPoly(path string) ([]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading polynomial file %s: %w", path, err)
	}
	var coeffs []int64
	if err := json.Unmarshal(data, &coeffs); err != nil {
		return nil, fmt.Errorf("parsing polynomial file %s: %w", path, err)
	}
	return coeffs, nil
}
