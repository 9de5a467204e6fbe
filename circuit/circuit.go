// Package circuit models quantum operations on labelled wires and
// serializes them to the OpenQASM 2.0 dialect accepted by the remote
// workflow engine's backend components.
//
// The serialized program never contains measure instructions: the
// observable to measure travels separately on the wire format, and the
// engine appends its own measurement stage.
package circuit

import "fmt"

// Operation is a single gate application: a name from the supported gate
// set, the wire labels it acts on, and its real parameters.
type Operation struct {
	Name   string
	Wires  []string
	Params []float64
}

// String returns a compact human-readable form, used in logs and errors.
func (op Operation) String() string {
	if len(op.Params) == 0 {
		return fmt.Sprintf("%s%v", op.Name, op.Wires)
	}
	return fmt.Sprintf("%s%v%v", op.Name, op.Wires, op.Params)
}

// Validate checks the operation against the gate table: known name,
// correct wire arity, correct parameter arity, distinct wires.
// BasisState placement (first operation only) is checked during
// serialization, since it depends on position.
func Validate(op Operation) error {
	g, ok := gates[op.Name]
	if !ok {
		if op.Name == "QubitStateVector" {
			return &UnsupportedOperationError{
				Name:   op.Name,
				Reason: "amplitude initialization cannot be expressed in OpenQASM 2.0",
			}
		}
		return &UnsupportedOperationError{Name: op.Name, Reason: "not in the supported gate set"}
	}

	if g.wires >= 0 && len(op.Wires) != g.wires {
		return &UnsupportedOperationError{
			Name:   op.Name,
			Reason: fmt.Sprintf("expects %d wire(s), got %d", g.wires, len(op.Wires)),
		}
	}
	if g.wires < 0 && len(op.Wires) == 0 {
		return &UnsupportedOperationError{Name: op.Name, Reason: "expects at least one wire"}
	}

	wantParams := g.params
	if op.Name == "BasisState" {
		// One bit per wire.
		wantParams = len(op.Wires)
	}
	if len(op.Params) != wantParams {
		return &UnsupportedOperationError{
			Name:   op.Name,
			Reason: fmt.Sprintf("expects %d parameter(s), got %d", wantParams, len(op.Params)),
		}
	}

	seen := make(map[string]struct{}, len(op.Wires))
	for _, w := range op.Wires {
		if _, dup := seen[w]; dup {
			return &InvalidWireError{Wire: w, Reason: fmt.Sprintf("repeated in %s", op.Name)}
		}
		seen[w] = struct{}{}
	}

	if op.Name == "BasisState" {
		for _, bit := range op.Params {
			if bit != 0 && bit != 1 {
				return &UnsupportedOperationError{
					Name:   op.Name,
					Reason: fmt.Sprintf("basis state bits must be 0 or 1, got %v", bit),
				}
			}
		}
	}

	return nil
}
