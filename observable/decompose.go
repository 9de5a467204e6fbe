package observable

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strings"

	"github.com/qweave/qweave/circuit"
)

// Axis identifies a Pauli basis.
type Axis byte

// Pauli axes. Identity factors are represented by absence: a term with
// no factors is a multiple of the identity.
const (
	AxisX Axis = 'X'
	AxisY Axis = 'Y'
	AxisZ Axis = 'Z'
)

// Factor is a single Pauli operator on one register index.
type Factor struct {
	Axis Axis
	Wire int
}

// Term is one weighted Pauli string of a decomposed observable.
// Factors are sorted by wire and act on distinct wires.
type Term struct {
	Coeff   float64
	Factors []Factor
}

const (
	// hermTol bounds the allowed deviation from exact hermiticity.
	hermTol = 1e-10
	// coeffTol prunes negligible Pauli coefficients after projection.
	coeffTol = 1e-12
)

// Decompose expands the observable into a sum of Pauli strings over
// register indices. The expansion is exact: named bases map directly,
// Hermitian matrices are projected onto the Pauli basis with
// coefficient Tr(P*H)/2^n, tensor products multiply out, and sums add.
// Like terms are combined and the result is deterministic.
func Decompose(o *Observable, wires *circuit.WireMap) ([]Term, error) {
	terms, err := decompose(o, wires)
	if err != nil {
		return nil, err
	}
	return combine(terms), nil
}

func decompose(o *Observable, wires *circuit.WireMap) ([]Term, error) {
	switch o.Name {
	case "PauliX", "PauliY", "PauliZ":
		idx, err := wires.Index(o.Wires[0])
		if err != nil {
			return nil, err
		}
		axis := Axis(o.Name[len(o.Name)-1])
		return []Term{{Coeff: 1, Factors: []Factor{{Axis: axis, Wire: idx}}}}, nil

	case "Identity":
		if _, err := wires.Index(o.Wires[0]); err != nil {
			return nil, err
		}
		return []Term{{Coeff: 1}}, nil

	case "Hadamard":
		idx, err := wires.Index(o.Wires[0])
		if err != nil {
			return nil, err
		}
		// H = (X + Z) / sqrt(2)
		c := 1 / math.Sqrt2
		return []Term{
			{Coeff: c, Factors: []Factor{{Axis: AxisX, Wire: idx}}},
			{Coeff: c, Factors: []Factor{{Axis: AxisZ, Wire: idx}}},
		}, nil

	case "Hermitian":
		return hermitianTerms(o, wires)

	case "Tensor":
		return tensorTerms(o, wires)

	case "Hamiltonian":
		if len(o.Coeffs) != len(o.Terms) {
			return nil, fmt.Errorf("hamiltonian has %d coefficients for %d terms", len(o.Coeffs), len(o.Terms))
		}
		var out []Term
		for i, sub := range o.Terms {
			subTerms, err := decompose(sub, wires)
			if err != nil {
				return nil, err
			}
			for _, t := range subTerms {
				t.Coeff *= o.Coeffs[i]
				out = append(out, t)
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown observable %q", o.Name)
	}
}

// tensorTerms multiplies out the factor decompositions.
// Non-identity factors must act on distinct wires.
func tensorTerms(o *Observable, wires *circuit.WireMap) ([]Term, error) {
	used := make(map[string]struct{})
	terms := []Term{{Coeff: 1}}

	for _, f := range o.Factors {
		if f.Name == "Hamiltonian" {
			return nil, fmt.Errorf("hamiltonian cannot appear inside a tensor product")
		}
		for _, w := range f.ObservedWires() {
			if _, clash := used[w]; clash {
				return nil, &circuit.InvalidWireError{Wire: w, Reason: "appears in more than one tensor factor"}
			}
			used[w] = struct{}{}
		}

		fTerms, err := decompose(f, wires)
		if err != nil {
			return nil, err
		}

		next := make([]Term, 0, len(terms)*len(fTerms))
		for _, a := range terms {
			for _, b := range fTerms {
				factors := make([]Factor, 0, len(a.Factors)+len(b.Factors))
				factors = append(factors, a.Factors...)
				factors = append(factors, b.Factors...)
				next = append(next, Term{Coeff: a.Coeff * b.Coeff, Factors: factors})
			}
		}
		terms = next
	}

	return terms, nil
}

// hermitianTerms projects a matrix observable onto the Pauli basis.
// The coefficient of Pauli string P is Tr(P*H) / 2^n.
func hermitianTerms(o *Observable, wires *circuit.WireMap) ([]Term, error) {
	n := len(o.Wires)
	if n == 0 {
		return nil, fmt.Errorf("hermitian observable has no wires")
	}
	dim := 1 << n

	if len(o.Matrix) != dim {
		return nil, fmt.Errorf("hermitian matrix has %d rows, want %d for %d wire(s)", len(o.Matrix), dim, n)
	}
	for i, row := range o.Matrix {
		if len(row) != dim {
			return nil, fmt.Errorf("hermitian matrix row %d has %d columns, want %d", i, len(row), dim)
		}
	}

	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			if cmplx.Abs(o.Matrix[i][j]-cmplx.Conj(o.Matrix[j][i])) > hermTol {
				return nil, &NonHermitianError{Wires: o.Wires}
			}
		}
	}

	idx, err := wires.Indices(o.Wires)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]struct{}, n)
	for i, w := range idx {
		if _, dup := seen[w]; dup {
			return nil, &circuit.InvalidWireError{Wire: o.Wires[i], Reason: "repeated in Hermitian observable"}
		}
		seen[w] = struct{}{}
	}

	var terms []Term
	letters := make([]byte, n)
	// Pauli strings are enumerated as base-4 numbers, one digit per wire.
	for code := 0; code < 1<<(2*n); code++ {
		for k := 0; k < n; k++ {
			letters[k] = "IXYZ"[(code>>(2*(n-1-k)))&3]
		}

		p := pauliKron(letters)
		var tr complex128
		for r := 0; r < dim; r++ {
			for c := 0; c < dim; c++ {
				tr += p[r][c] * o.Matrix[c][r]
			}
		}
		coeff := tr / complex(float64(dim), 0)

		if math.Abs(imag(coeff)) > hermTol {
			return nil, &NonHermitianError{Wires: o.Wires}
		}
		if math.Abs(real(coeff)) < coeffTol {
			continue
		}

		var factors []Factor
		for k, letter := range letters {
			if letter != 'I' {
				factors = append(factors, Factor{Axis: Axis(letter), Wire: idx[k]})
			}
		}
		terms = append(terms, Term{Coeff: real(coeff), Factors: factors})
	}

	return terms, nil
}

var pauli2 = map[byte][2][2]complex128{
	'I': {{1, 0}, {0, 1}},
	'X': {{0, 1}, {1, 0}},
	'Y': {{0, complex(0, -1)}, {complex(0, 1), 0}},
	'Z': {{1, 0}, {0, -1}},
}

// pauliKron builds the matrix of a Pauli string. The first letter is the
// most significant factor, matching the bitstring convention.
func pauliKron(letters []byte) [][]complex128 {
	out := [][]complex128{{1}}
	for _, letter := range letters {
		b := pauli2[letter]
		size := len(out)
		next := make([][]complex128, size*2)
		for i := range next {
			next[i] = make([]complex128, size*2)
		}
		for i := 0; i < size; i++ {
			for j := 0; j < size; j++ {
				if out[i][j] == 0 {
					continue
				}
				for bi := 0; bi < 2; bi++ {
					for bj := 0; bj < 2; bj++ {
						next[i*2+bi][j*2+bj] = out[i][j] * b[bi][bj]
					}
				}
			}
		}
		out = next
	}
	return out
}

// combine merges like Pauli strings, prunes negligible coefficients, and
// orders the result deterministically.
func combine(terms []Term) []Term {
	type bucket struct {
		coeff   float64
		factors []Factor
	}
	buckets := make(map[string]*bucket)

	for _, t := range terms {
		factors := make([]Factor, len(t.Factors))
		copy(factors, t.Factors)
		sort.Slice(factors, func(i, j int) bool { return factors[i].Wire < factors[j].Wire })

		key := termKey(factors)
		if b, ok := buckets[key]; ok {
			b.coeff += t.Coeff
		} else {
			buckets[key] = &bucket{coeff: t.Coeff, factors: factors}
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Term, 0, len(buckets))
	for _, k := range keys {
		b := buckets[k]
		if math.Abs(b.coeff) < coeffTol {
			continue
		}
		out = append(out, Term{Coeff: b.coeff, Factors: b.factors})
	}
	return out
}

func termKey(factors []Factor) string {
	var b strings.Builder
	for _, f := range factors {
		fmt.Fprintf(&b, "%c%d;", f.Axis, f.Wire)
	}
	return b.String()
}
