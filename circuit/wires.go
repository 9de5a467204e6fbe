package circuit

import "fmt"

// WireMap is the bijection between user-facing wire labels and the
// contiguous qubit register indices used on the wire format.
//
// The register order is the declaration order: the first declared label
// maps to index 0, which is the most significant bit in bitstring keys.
type WireMap struct {
	labels  []string
	indices map[string]int
}

// NewWireMap builds a wire map from the declared labels.
// Labels must be non-empty and unique.
func NewWireMap(labels []string) (*WireMap, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("at least one wire is required")
	}

	m := &WireMap{
		labels:  make([]string, len(labels)),
		indices: make(map[string]int, len(labels)),
	}
	copy(m.labels, labels)

	for i, label := range labels {
		if label == "" {
			return nil, &InvalidWireError{Wire: label, Reason: "empty wire label"}
		}
		if _, ok := m.indices[label]; ok {
			return nil, &InvalidWireError{Wire: label, Reason: "duplicate wire label"}
		}
		m.indices[label] = i
	}

	return m, nil
}

// Size returns the number of wires in the register.
func (m *WireMap) Size() int {
	return len(m.labels)
}

// Labels returns the declared wire labels in register order.
func (m *WireMap) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

// Index resolves a wire label to its register index.
func (m *WireMap) Index(label string) (int, error) {
	idx, ok := m.indices[label]
	if !ok {
		return 0, &InvalidWireError{Wire: label, Reason: "not declared on the device"}
	}
	return idx, nil
}

// Indices resolves a list of wire labels to register indices, in order.
func (m *WireMap) Indices(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, label := range labels {
		idx, err := m.Index(label)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

// Contains reports whether the label is declared on the device.
func (m *WireMap) Contains(label string) bool {
	_, ok := m.indices[label]
	return ok
}
