// Package observable models the measurable operators of a circuit and
// serializes them to the operator strings the remote workflow engine
// expects: weighted Pauli sums in analytic mode, Ising Z-strings in
// sampled mode.
package observable

// Observable is a measurable operator. It is one of:
//
//   - a named single-qubit basis observable (PauliX, PauliY, PauliZ,
//     Identity, Hadamard) on one wire,
//   - an explicit Hermitian matrix on one or more wires,
//   - a tensor product of the above (Factors),
//   - a real-weighted sum of the above (Coeffs and Terms).
//
// Wire references are user labels; they resolve to register indices
// through the device wire map at serialization time.
type Observable struct {
	Name    string
	Wires   []string
	Matrix  [][]complex128 // Hermitian only
	Factors []*Observable  // Tensor only
	Coeffs  []float64      // Hamiltonian only
	Terms   []*Observable  // Hamiltonian only
}

// PauliX returns the Pauli-X observable on the given wire.
func PauliX(wire string) *Observable {
	return &Observable{Name: "PauliX", Wires: []string{wire}}
}

// PauliY returns the Pauli-Y observable on the given wire.
func PauliY(wire string) *Observable {
	return &Observable{Name: "PauliY", Wires: []string{wire}}
}

// PauliZ returns the Pauli-Z observable on the given wire.
func PauliZ(wire string) *Observable {
	return &Observable{Name: "PauliZ", Wires: []string{wire}}
}

// Identity returns the identity observable on the given wire.
func Identity(wire string) *Observable {
	return &Observable{Name: "Identity", Wires: []string{wire}}
}

// Hadamard returns the Hadamard observable on the given wire.
// Its eigenvalues are +1 and -1, like the Pauli observables.
func Hadamard(wire string) *Observable {
	return &Observable{Name: "Hadamard", Wires: []string{wire}}
}

// Hermitian returns an explicit matrix observable on the given wires.
// The matrix must be Hermitian and sized 2^len(wires); both are checked
// when the observable is decomposed.
func Hermitian(matrix [][]complex128, wires ...string) *Observable {
	return &Observable{Name: "Hermitian", Wires: wires, Matrix: matrix}
}

// Tensor returns the tensor product of the given factors.
// Factors must act on distinct wires; overlap is rejected at
// decomposition time.
func Tensor(factors ...*Observable) *Observable {
	return &Observable{Name: "Tensor", Factors: factors}
}

// Hamiltonian returns the weighted sum sum_i coeffs[i] * terms[i].
// len(coeffs) must equal len(terms); checked at decomposition time.
func Hamiltonian(coeffs []float64, terms []*Observable) *Observable {
	return &Observable{Name: "Hamiltonian", Coeffs: coeffs, Terms: terms}
}

// IsIdentity reports whether measuring the observable is a constant:
// a plain Identity, or a tensor product made only of identities.
// Such observables are answered locally with expectation 1 and
// variance 0, without touching the remote engine.
func (o *Observable) IsIdentity() bool {
	switch o.Name {
	case "Identity":
		return true
	case "Tensor":
		if len(o.Factors) == 0 {
			return false
		}
		for _, f := range o.Factors {
			if !f.IsIdentity() {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ObservedWires returns the wires of the non-identity parts of the
// observable, unique, in first-appearance order. For a plain Identity
// the result is empty.
func (o *Observable) ObservedWires() []string {
	var wires []string
	seen := make(map[string]struct{})

	var walk func(obs *Observable)
	walk = func(obs *Observable) {
		switch obs.Name {
		case "Identity":
			return
		case "Tensor":
			for _, f := range obs.Factors {
				walk(f)
			}
		case "Hamiltonian":
			for _, term := range obs.Terms {
				walk(term)
			}
		default:
			for _, w := range obs.Wires {
				if _, ok := seen[w]; !ok {
					seen[w] = struct{}{}
					wires = append(wires, w)
				}
			}
		}
	}
	walk(o)

	return wires
}
