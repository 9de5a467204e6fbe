// Package decode turns raw step payloads into measurement statistics:
// probabilities, expectation values, variances, samples and reduced
// density matrices. Everything here is local math over the payload; no
// remote calls.
//
// Bit order convention: the first declared wire is the most significant
// bit of every bitstring, sample row and basis-state index. Payloads
// from backends that report the opposite order are flipped once, at
// Normalize time, so every consumer downstream shares one convention.
package decode

import (
	"encoding/json"
	"fmt"
)

// SchemaResult identifies the payload dialect the workflow steps emit.
const SchemaResult = "qweave-v1-result"

// ComplexPair is one amplitude as [re, im].
type ComplexPair [2]float64

// Payload is the raw per-circuit result exactly as a step produced it.
// Exactly one of Counts, Samples or Statevector is set: Counts for
// per-bitstring shot tallies, Samples for per-shot bit rows, and
// Statevector for analytic amplitudes.
type Payload struct {
	Schema      string           `json:"schema"`
	StepName    string           `json:"stepName,omitempty"`
	Counts      map[string]int64 `json:"counts,omitempty"`
	Samples     [][]uint8        `json:"samples,omitempty"`
	Statevector []ComplexPair    `json:"statevector,omitempty"`
	Shots       int              `json:"n_samples,omitempty"`
}

// ParsePayload decodes a raw step payload.
func ParsePayload(raw []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	return &p, nil
}

// Normalize validates the payload shape against the circuit's wire
// count and rewrites it into canonical bit order. Backends flagged
// reversedBits report bitstrings least-significant-qubit first; their
// count keys, sample rows and state indices are flipped here.
func (p *Payload) Normalize(reversedBits bool, numWires int) error {
	if err := p.validate(numWires); err != nil {
		return err
	}
	if !reversedBits {
		return nil
	}

	if p.Counts != nil {
		flipped := make(map[string]int64, len(p.Counts))
		for key, n := range p.Counts {
			flipped[reverseString(key)] += n
		}
		p.Counts = flipped
	}

	for _, row := range p.Samples {
		reverseRow(row)
	}

	if p.Statevector != nil {
		flipped := make([]ComplexPair, len(p.Statevector))
		for i, amp := range p.Statevector {
			flipped[reverseIndex(i, numWires)] = amp
		}
		p.Statevector = flipped
	}

	return nil
}

func (p *Payload) validate(numWires int) error {
	if numWires <= 0 {
		return fmt.Errorf("payload: wire count %d is not positive", numWires)
	}

	for key := range p.Counts {
		if _, err := keyIndex(key, numWires); err != nil {
			return fmt.Errorf("payload: %w", err)
		}
	}

	for i, row := range p.Samples {
		if len(row) != numWires {
			return fmt.Errorf("payload: sample row %d has %d bits, want %d", i, len(row), numWires)
		}
		for _, b := range row {
			if b > 1 {
				return fmt.Errorf("payload: sample row %d has non-binary entry %d", i, b)
			}
		}
	}

	if p.Statevector != nil && len(p.Statevector) != 1<<numWires {
		return fmt.Errorf("payload: statevector has %d amplitudes, want %d", len(p.Statevector), 1<<numWires)
	}

	return nil
}

func keyIndex(key string, numWires int) (int, error) {
	if len(key) != numWires {
		return 0, fmt.Errorf("count key %q is not %d bits", key, numWires)
	}
	idx := 0
	for _, c := range key {
		switch c {
		case '0':
			idx <<= 1
		case '1':
			idx = idx<<1 | 1
		default:
			return 0, fmt.Errorf("count key %q has a non-binary digit", key)
		}
	}
	return idx, nil
}

func reverseString(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func reverseRow(row []uint8) {
	for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
		row[i], row[j] = row[j], row[i]
	}
}

// reverseIndex reverses the low numWires bits of a basis index.
func reverseIndex(index, numWires int) int {
	out := 0
	for w := 0; w < numWires; w++ {
		out = out<<1 | (index>>w)&1
	}
	return out
}
