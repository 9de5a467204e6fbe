package qweave

import (
	"github.com/qweave/qweave/circuit"
	"github.com/qweave/qweave/observable"
)

// MeasurementKind selects the statistic a measurement extracts from the
// final state.
type MeasurementKind int

const (
	// ExpVal is the expectation value of an observable.
	ExpVal MeasurementKind = iota
	// Variance is the variance of an observable.
	Variance
	// Probability is the probability distribution over a wire subset in
	// the computational basis.
	Probability
	// Sample is the per-shot eigenvalue sequence of an observable. It
	// needs a finite shot count.
	Sample
)

// String returns the kind's conventional short name for logs and errors.
func (k MeasurementKind) String() string {
	switch k {
	case ExpVal:
		return "expval"
	case Variance:
		return "var"
	case Probability:
		return "probs"
	case Sample:
		return "sample"
	default:
		return "unknown"
	}
}

// Measurement is one requested statistic. ExpVal, Variance and Sample
// take an observable; Probability takes a wire subset instead, with nil
// meaning the full register.
type Measurement struct {
	Kind       MeasurementKind
	Observable *observable.Observable
	Wires      []string
}

// Circuit pairs a gate sequence with the measurements to perform on the
// state it prepares. Wire references are the labels the device was
// declared with.
type Circuit struct {
	Operations   []circuit.Operation
	Measurements []Measurement
}

// MeasurementValue is one measurement's decoded result. The field
// matching the kind is set: Value for ExpVal and Variance, Distribution
// for Probability, Samples for Sample.
type MeasurementValue struct {
	Kind         MeasurementKind
	Value        float64
	Distribution []float64
	Samples      []float64
}
