package decode

import (
	"fmt"
	"math/cmplx"
	"sort"
	"strconv"

	"github.com/qweave/qweave/circuit"
	"github.com/qweave/qweave/observable"
)

// ExpVal evaluates the expectation value of a sum of Pauli terms.
// Analytic results contract the terms against the exact amplitudes;
// measured results average the per-shot eigenvalues, which requires
// every factor to be diagonal. The submission path appends the
// diagonalizing rotations to the circuit in sampled mode, so measured
// terms arrive Z-only.
func (r *Result) ExpVal(terms []observable.Term) (float64, error) {
	if r.state != nil {
		total := 0.0
		for _, term := range terms {
			if err := r.checkFactors(term.Factors); err != nil {
				return 0, err
			}
			total += term.Coeff * real(r.pauliInner(term.Factors))
		}
		return total, nil
	}

	values, err := r.shotValues(terms)
	if err != nil {
		return 0, err
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	return mean / float64(len(values)), nil
}

// Var evaluates the variance of a sum of Pauli terms. Analytic results
// compute the exact second moment by multiplying out term pairs in the
// Pauli algebra; measured results take the population variance of the
// per-shot eigenvalues.
func (r *Result) Var(terms []observable.Term) (float64, error) {
	if r.state != nil {
		mean := 0.0
		for _, term := range terms {
			if err := r.checkFactors(term.Factors); err != nil {
				return 0, err
			}
			mean += term.Coeff * real(r.pauliInner(term.Factors))
		}

		var second complex128
		for _, s := range terms {
			for _, t := range terms {
				factors, phase := mulTerms(s.Factors, t.Factors)
				second += complex(s.Coeff*t.Coeff, 0) * phase * r.pauliInner(factors)
			}
		}
		return real(second) - mean*mean, nil
	}

	values, err := r.shotValues(terms)
	if err != nil {
		return 0, err
	}
	mean, meanSq := 0.0, 0.0
	for _, v := range values {
		mean += v
		meanSq += v * v
	}
	n := float64(len(values))
	mean /= n
	meanSq /= n
	return meanSq - mean*mean, nil
}

// Sample returns the observable's eigenvalue for every shot.
func (r *Result) Sample(terms []observable.Term) ([]float64, error) {
	return r.shotValues(terms)
}

// pauliInner contracts a single Pauli string against the amplitudes:
// sum over i of conj(psi[i^m]) * c(i) * psi[i], where m flips the X
// and Y wires and c(i) carries the Z signs and Y phases.
func (r *Result) pauliInner(factors []observable.Factor) complex128 {
	mask := 0
	for _, f := range factors {
		if f.Axis == observable.AxisX || f.Axis == observable.AxisY {
			mask |= 1 << (r.numWires - 1 - f.Wire)
		}
	}

	var sum complex128
	for i, amp := range r.state {
		if amp == 0 {
			continue
		}
		c := complex(1, 0)
		for _, f := range factors {
			bit := (i >> (r.numWires - 1 - f.Wire)) & 1
			switch f.Axis {
			case observable.AxisZ:
				if bit == 1 {
					c = -c
				}
			case observable.AxisY:
				if bit == 0 {
					c *= complex(0, 1)
				} else {
					c *= complex(0, -1)
				}
			}
		}
		sum += cmplx.Conj(r.state[i^mask]) * c * amp
	}
	return sum
}

// shotValues evaluates the term sum on every shot. All factors must be
// diagonal.
func (r *Result) shotValues(terms []observable.Term) ([]float64, error) {
	if r.samples == nil {
		return nil, fmt.Errorf("result: no shots to evaluate, the result is analytic")
	}
	for _, term := range terms {
		if err := r.checkFactors(term.Factors); err != nil {
			return nil, err
		}
		for _, f := range term.Factors {
			if f.Axis != observable.AxisZ {
				return nil, fmt.Errorf("result: per-shot evaluation needs diagonal terms, got %c on wire %d", f.Axis, f.Wire)
			}
		}
	}

	values := make([]float64, len(r.samples))
	for s, row := range r.samples {
		v := 0.0
		for _, term := range terms {
			t := term.Coeff
			for _, f := range term.Factors {
				t *= 1 - 2*float64(row[f.Wire])
			}
			v += t
		}
		values[s] = v
	}
	return values, nil
}

func (r *Result) checkFactors(factors []observable.Factor) error {
	for _, f := range factors {
		if f.Wire < 0 || f.Wire >= r.numWires {
			return &circuit.InvalidWireError{Wire: strconv.Itoa(f.Wire), Reason: "not on the device"}
		}
	}
	return nil
}

// mulTerms multiplies two Pauli strings wire by wire and returns the
// product string together with the accumulated phase.
func mulTerms(a, b []observable.Factor) ([]observable.Factor, complex128) {
	byWire := make(map[int]observable.Axis, len(a)+len(b))
	for _, f := range a {
		byWire[f.Wire] = f.Axis
	}

	phase := complex(1, 0)
	for _, f := range b {
		cur, ok := byWire[f.Wire]
		if !ok {
			byWire[f.Wire] = f.Axis
			continue
		}
		axis, ph := mulPauli(cur, f.Axis)
		phase *= ph
		if axis == 0 {
			delete(byWire, f.Wire)
		} else {
			byWire[f.Wire] = axis
		}
	}

	wires := make([]int, 0, len(byWire))
	for w := range byWire {
		wires = append(wires, w)
	}
	sort.Ints(wires)
	factors := make([]observable.Factor, 0, len(wires))
	for _, w := range wires {
		factors = append(factors, observable.Factor{Axis: byWire[w], Wire: w})
	}
	return factors, phase
}

// mulPauli multiplies two single-qubit Paulis on the same wire. The
// zero axis stands for identity.
func mulPauli(a, b observable.Axis) (observable.Axis, complex128) {
	if a == b {
		return 0, 1
	}
	switch {
	case a == observable.AxisX && b == observable.AxisY:
		return observable.AxisZ, complex(0, 1)
	case a == observable.AxisY && b == observable.AxisX:
		return observable.AxisZ, complex(0, -1)
	case a == observable.AxisY && b == observable.AxisZ:
		return observable.AxisX, complex(0, 1)
	case a == observable.AxisZ && b == observable.AxisY:
		return observable.AxisX, complex(0, -1)
	case a == observable.AxisZ && b == observable.AxisX:
		return observable.AxisY, complex(0, 1)
	case a == observable.AxisX && b == observable.AxisZ:
		return observable.AxisY, complex(0, -1)
	}
	return 0, 1
}
