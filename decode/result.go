package decode

import (
	"fmt"
	"math/cmplx"
	"math/rand"
	"sort"
	"strconv"

	"github.com/qweave/qweave/circuit"
)

// Result binds a normalized payload to the circuit's wire count and
// answers measurement queries locally. Analytic payloads keep the
// amplitude vector; measured payloads keep per-shot rows, with count
// tallies expanded into rows deterministically.
type Result struct {
	numWires int
	shots    int
	state    []complex128
	probs    []float64
	samples  [][]uint8
}

// FromPayload builds a Result for a circuit on numWires wires. The
// payload must already be normalized.
func FromPayload(p *Payload, numWires int) (*Result, error) {
	if numWires <= 0 {
		return nil, fmt.Errorf("result: wire count %d is not positive", numWires)
	}
	dim := 1 << numWires
	r := &Result{numWires: numWires, shots: p.Shots, probs: make([]float64, dim)}

	switch {
	case p.Statevector != nil:
		if len(p.Statevector) != dim {
			return nil, fmt.Errorf("result: statevector has %d amplitudes, want %d", len(p.Statevector), dim)
		}
		r.state = make([]complex128, dim)
		for i, amp := range p.Statevector {
			c := complex(amp[0], amp[1])
			r.state[i] = c
			r.probs[i] = real(c)*real(c) + imag(c)*imag(c)
		}

	case p.Samples != nil:
		if len(p.Samples) == 0 {
			return nil, fmt.Errorf("result: payload has an empty sample list")
		}
		r.samples = make([][]uint8, len(p.Samples))
		for i, row := range p.Samples {
			if len(row) != numWires {
				return nil, fmt.Errorf("result: sample row %d has %d bits, want %d", i, len(row), numWires)
			}
			r.samples[i] = append([]uint8(nil), row...)
			r.probs[bitsToIndex(row)]++
		}
		r.shots = len(r.samples)
		for i := range r.probs {
			r.probs[i] /= float64(r.shots)
		}

	case p.Counts != nil:
		keys := make([]string, 0, len(p.Counts))
		total := int64(0)
		for key, n := range p.Counts {
			if n < 0 {
				return nil, fmt.Errorf("result: count for %q is negative", key)
			}
			keys = append(keys, key)
			total += n
		}
		if total == 0 {
			return nil, fmt.Errorf("result: payload counts are empty")
		}
		sort.Strings(keys)
		r.samples = make([][]uint8, 0, total)
		for _, key := range keys {
			idx, err := keyIndex(key, numWires)
			if err != nil {
				return nil, fmt.Errorf("result: %w", err)
			}
			r.probs[idx] += float64(p.Counts[key]) / float64(total)
			row := indexToBits(idx, numWires)
			for i := int64(0); i < p.Counts[key]; i++ {
				r.samples = append(r.samples, row)
			}
		}
		r.shots = int(total)

	default:
		return nil, fmt.Errorf("result: payload has no statevector, samples or counts")
	}

	return r, nil
}

// NumWires returns the circuit's wire count.
func (r *Result) NumWires() int { return r.numWires }

// Shots returns the number of shots behind the result, zero for a
// purely analytic one.
func (r *Result) Shots() int { return r.shots }

// Analytic reports whether the result carries exact amplitudes.
func (r *Result) Analytic() bool { return r.state != nil }

// Probability returns the distribution over the requested wires in the
// requested order, marginalizing out the rest. A nil slice means every
// wire in declared order.
func (r *Result) Probability(wires []int) ([]float64, error) {
	if wires == nil {
		out := make([]float64, len(r.probs))
		copy(out, r.probs)
		return out, nil
	}
	if err := r.checkWires(wires); err != nil {
		return nil, err
	}

	k := len(wires)
	out := make([]float64, 1<<k)
	for i, p := range r.probs {
		if p == 0 {
			continue
		}
		j := 0
		for b, w := range wires {
			bit := (i >> (r.numWires - 1 - w)) & 1
			j |= bit << (k - 1 - b)
		}
		out[j] += p
	}
	return out, nil
}

// AccessState returns a copy of the amplitude vector.
func (r *Result) AccessState() ([]complex128, error) {
	if r.state == nil {
		return nil, &StateNotAvailableError{Reason: "the result carries no statevector"}
	}
	out := make([]complex128, len(r.state))
	copy(out, r.state)
	return out, nil
}

// DensityMatrix traces out every wire not requested and returns the
// reduced density matrix over the requested wires, in the requested
// order. A nil slice means every wire in declared order.
func (r *Result) DensityMatrix(wires []int) ([][]complex128, error) {
	if r.state == nil {
		return nil, &StateNotAvailableError{Reason: "a density matrix needs an analytic statevector"}
	}
	if wires == nil {
		wires = make([]int, r.numWires)
		for i := range wires {
			wires[i] = i
		}
	}
	if err := r.checkWires(wires); err != nil {
		return nil, err
	}

	kept := make(map[int]bool, len(wires))
	for _, w := range wires {
		kept[w] = true
	}
	env := make([]int, 0, r.numWires-len(wires))
	for w := 0; w < r.numWires; w++ {
		if !kept[w] {
			env = append(env, w)
		}
	}

	k := len(wires)
	// assemble assembles a full basis index from the kept-subsystem
	// bits and the traced-out environment bits.
	assemble := func(sub, envBits int) int {
		idx := 0
		for j, w := range wires {
			idx |= ((sub >> (k - 1 - j)) & 1) << (r.numWires - 1 - w)
		}
		for j, w := range env {
			idx |= ((envBits >> (len(env) - 1 - j)) & 1) << (r.numWires - 1 - w)
		}
		return idx
	}

	dim := 1 << k
	rho := make([][]complex128, dim)
	for a := 0; a < dim; a++ {
		rho[a] = make([]complex128, dim)
		for b := 0; b < dim; b++ {
			var sum complex128
			for e := 0; e < 1<<len(env); e++ {
				sum += r.state[assemble(a, e)] * cmplx.Conj(r.state[assemble(b, e)])
			}
			rho[a][b] = sum
		}
	}
	return rho, nil
}

// GenerateSamples returns per-shot bit rows. Measured results return
// their own rows; analytic results draw a multinomial sample of the
// given size from the exact distribution.
func (r *Result) GenerateSamples(rng *rand.Rand, shots int) ([][]uint8, error) {
	if r.samples != nil {
		return r.samples, nil
	}
	if shots <= 0 {
		return nil, fmt.Errorf("result: sampling an analytic distribution needs a positive shot count")
	}
	rows := make([][]uint8, shots)
	for i := range rows {
		rows[i] = indexToBits(r.drawIndex(rng), r.numWires)
	}
	return rows, nil
}

func (r *Result) drawIndex(rng *rand.Rand) int {
	u := rng.Float64()
	acc := 0.0
	last := 0
	for i, p := range r.probs {
		if p <= 0 {
			continue
		}
		acc += p
		last = i
		if u < acc {
			return i
		}
	}
	return last
}

func (r *Result) checkWires(wires []int) error {
	if len(wires) == 0 {
		return &circuit.InvalidWireError{Wire: "", Reason: "at least one wire is required"}
	}
	seen := make(map[int]bool, len(wires))
	for _, w := range wires {
		if w < 0 || w >= r.numWires {
			return &circuit.InvalidWireError{Wire: strconv.Itoa(w), Reason: "not on the device"}
		}
		if seen[w] {
			return &circuit.InvalidWireError{Wire: strconv.Itoa(w), Reason: "requested twice"}
		}
		seen[w] = true
	}
	return nil
}

// GenerateBasisStates lists every basis-state index on numWires wires.
func GenerateBasisStates(numWires int) []int {
	states := make([]int, 1<<numWires)
	for i := range states {
		states[i] = i
	}
	return states
}

// StatesToBinary converts basis-state indices to bit rows, first wire
// first.
func StatesToBinary(states []int, numWires int) [][]uint8 {
	rows := make([][]uint8, len(states))
	for i, s := range states {
		rows[i] = indexToBits(s, numWires)
	}
	return rows
}

func indexToBits(index, numWires int) []uint8 {
	row := make([]uint8, numWires)
	for w := 0; w < numWires; w++ {
		row[w] = uint8((index >> (numWires - 1 - w)) & 1)
	}
	return row
}

func bitsToIndex(row []uint8) int {
	idx := 0
	for _, b := range row {
		idx = idx<<1 | int(b)
	}
	return idx
}
