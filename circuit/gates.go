package circuit

// gateSpec describes one entry of the supported gate set.
//
// Gates with a non-empty qasm name map 1:1 onto a qelib1 gate. Compound
// gates (empty qasm name) are lowered to exact qelib1 sequences during
// serialization.
type gateSpec struct {
	qasm   string // qelib1 gate name, empty for compound gates
	wires  int    // required wire count, -1 for variadic
	params int    // required parameter count (BasisState is special-cased)
}

// gates is the backend-neutral gate set: every entry serializes to QASM
// that all supported backend families accept.
var gates = map[string]gateSpec{
	"BasisState": {wires: -1},
	"CNOT":       {qasm: "cx", wires: 2},
	"CRX":        {qasm: "crx", wires: 2, params: 1},
	"CRY":        {qasm: "cry", wires: 2, params: 1},
	"CRZ":        {qasm: "crz", wires: 2, params: 1},
	"CRot":       {wires: 2, params: 3},
	"CSWAP":      {qasm: "cswap", wires: 3},
	"CY":         {qasm: "cy", wires: 2},
	"CZ":         {qasm: "cz", wires: 2},
	"Hadamard":   {qasm: "h", wires: 1},
	"MultiRZ":    {wires: -1, params: 1},
	"PauliX":     {qasm: "x", wires: 1},
	"PauliY":     {qasm: "y", wires: 1},
	"PauliZ":     {qasm: "z", wires: 1},
	"PhaseShift": {qasm: "u1", wires: 1, params: 1},
	"RX":         {qasm: "rx", wires: 1, params: 1},
	"RY":         {qasm: "ry", wires: 1, params: 1},
	"RZ":         {qasm: "rz", wires: 1, params: 1},
	"Rot":        {wires: 1, params: 3},
	"S":          {qasm: "s", wires: 1},
	"SWAP":       {qasm: "swap", wires: 2},
	"SX":         {qasm: "sx", wires: 1},
	"T":          {qasm: "t", wires: 1},
	"Toffoli":    {qasm: "ccx", wires: 3},
}

// SupportedOperations returns the names of the supported gate set.
// The result is a fresh slice in map order; callers sort if they care.
func SupportedOperations() []string {
	names := make([]string, 0, len(gates))
	for name := range gates {
		names = append(names, name)
	}
	return names
}

// Supported reports whether the operation name is in the gate set.
func Supported(name string) bool {
	_, ok := gates[name]
	return ok
}
