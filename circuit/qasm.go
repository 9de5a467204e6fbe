package circuit

import (
	"fmt"
	"strconv"
	"strings"
)

// Serialize emits the OpenQASM 2.0 program for the operation list.
//
// rotations carries the diagonalizing gates for sampled-mode measurement;
// they are appended after ops, and validated the same way. Pass nil in
// analytic mode.
//
// The program declares a quantum and a classical register sized to the
// full device register, and contains no measure instructions.
func Serialize(ops []Operation, wires *WireMap, rotations []Operation) (string, error) {
	var b strings.Builder
	n := wires.Size()
	fmt.Fprintf(&b, "OPENQASM 2.0;\ninclude \"qelib1.inc\";\nqreg q[%d];\ncreg c[%d];\n", n, n)

	for i, op := range ops {
		if op.Name == "BasisState" && i != 0 {
			return "", &UnsupportedOperationError{
				Name:   op.Name,
				Reason: "only supported as the first operation",
			}
		}
		if err := writeOperation(&b, op, wires); err != nil {
			return "", err
		}
	}

	for _, op := range rotations {
		if op.Name == "BasisState" {
			return "", &UnsupportedOperationError{
				Name:   op.Name,
				Reason: "not a valid diagonalizing rotation",
			}
		}
		if err := writeOperation(&b, op, wires); err != nil {
			return "", err
		}
	}

	return b.String(), nil
}

// writeOperation validates op, resolves its wires, and emits one or more
// QASM instructions. Compound gates are lowered here.
func writeOperation(b *strings.Builder, op Operation, wires *WireMap) error {
	if err := Validate(op); err != nil {
		return err
	}

	idx, err := wires.Indices(op.Wires)
	if err != nil {
		return err
	}

	g := gates[op.Name]
	if g.qasm != "" {
		writeInstruction(b, g.qasm, op.Params, idx)
		return nil
	}

	switch op.Name {
	case "Rot":
		// Rot(phi, theta, omega) = RZ(phi) RY(theta) RZ(omega), applied
		// left to right in circuit order.
		writeInstruction(b, "rz", op.Params[0:1], idx)
		writeInstruction(b, "ry", op.Params[1:2], idx)
		writeInstruction(b, "rz", op.Params[2:3], idx)
	case "CRot":
		writeInstruction(b, "crz", op.Params[0:1], idx)
		writeInstruction(b, "cry", op.Params[1:2], idx)
		writeInstruction(b, "crz", op.Params[2:3], idx)
	case "MultiRZ":
		// CNOT ladder onto the first wire, RZ, then the ladder undone.
		for i := len(idx) - 1; i > 0; i-- {
			writeInstruction(b, "cx", nil, []int{idx[i], idx[i-1]})
		}
		writeInstruction(b, "rz", op.Params, idx[0:1])
		for i := 1; i < len(idx); i++ {
			writeInstruction(b, "cx", nil, []int{idx[i], idx[i-1]})
		}
	case "BasisState":
		for i, bit := range op.Params {
			if bit == 1 {
				writeInstruction(b, "x", nil, idx[i:i+1])
			}
		}
	default:
		return &UnsupportedOperationError{Name: op.Name, Reason: "no lowering defined"}
	}

	return nil
}

// writeInstruction emits a single QASM instruction line.
// Format: name(p1,p2) q[i],q[j];
func writeInstruction(b *strings.Builder, name string, params []float64, idx []int) {
	b.WriteString(name)
	if len(params) > 0 {
		b.WriteByte('(')
		for i, p := range params {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(formatParam(p))
		}
		b.WriteByte(')')
	}
	b.WriteByte(' ')
	for i, w := range idx {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(b, "q[%d]", w)
	}
	b.WriteString(";\n")
}

// formatParam renders a gate parameter with the shortest representation
// that round-trips, matching how the backend components parse angles.
func formatParam(p float64) string {
	return strconv.FormatFloat(p, 'g', -1, 64)
}
