package decode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qweave/qweave/circuit"
	"github.com/qweave/qweave/observable"
)

func pauliTerm(coeff float64, factors ...observable.Factor) observable.Term {
	return observable.Term{Coeff: coeff, Factors: factors}
}

func onWire(axis observable.Axis, wire int) observable.Factor {
	return observable.Factor{Axis: axis, Wire: wire}
}

func TestExpValAnalyticPauliZ(t *testing.T) {
	ground := analyticResult(t, 1, []ComplexPair{{1, 0}, {0, 0}})
	excited := analyticResult(t, 1, []ComplexPair{{0, 0}, {1, 0}})
	z := []observable.Term{pauliTerm(1, onWire(observable.AxisZ, 0))}

	v, err := ground.ExpVal(z)
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-12)

	v, err = excited.ExpVal(z)
	require.NoError(t, err)
	assert.InDelta(t, -1, v, 1e-12)
}

func TestExpValAnalyticPauliX(t *testing.T) {
	inv := 1 / math.Sqrt2
	plus := analyticResult(t, 1, []ComplexPair{{inv, 0}, {inv, 0}})

	v, err := plus.ExpVal([]observable.Term{pauliTerm(1, onWire(observable.AxisX, 0))})
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-12)

	v, err = plus.ExpVal([]observable.Term{pauliTerm(1, onWire(observable.AxisZ, 0))})
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1e-12)
}

func TestExpValAnalyticPauliY(t *testing.T) {
	inv := 1 / math.Sqrt2
	plusI := analyticResult(t, 1, []ComplexPair{{inv, 0}, {0, inv}})

	v, err := plusI.ExpVal([]observable.Term{pauliTerm(1, onWire(observable.AxisY, 0))})
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-12)
}

func TestExpValAnalyticHamiltonian(t *testing.T) {
	ground := analyticResult(t, 1, []ComplexPair{{1, 0}, {0, 0}})
	terms := []observable.Term{
		pauliTerm(0.5, onWire(observable.AxisZ, 0)),
		pauliTerm(0.3, onWire(observable.AxisX, 0)),
	}

	v, err := ground.ExpVal(terms)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-12)
}

func TestExpValAnalyticBellCorrelations(t *testing.T) {
	bell := bellResult(t)

	zz := []observable.Term{pauliTerm(1, onWire(observable.AxisZ, 0), onWire(observable.AxisZ, 1))}
	v, err := bell.ExpVal(zz)
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-12)

	xx := []observable.Term{pauliTerm(1, onWire(observable.AxisX, 0), onWire(observable.AxisX, 1))}
	v, err = bell.ExpVal(xx)
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-12)

	z0 := []observable.Term{pauliTerm(1, onWire(observable.AxisZ, 0))}
	v, err = bell.ExpVal(z0)
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1e-12)
}

func TestExpValIdentityTerm(t *testing.T) {
	bell := bellResult(t)

	v, err := bell.ExpVal([]observable.Term{pauliTerm(1)})
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-12)
}

func TestExpValWireOutOfRange(t *testing.T) {
	ground := analyticResult(t, 1, []ComplexPair{{1, 0}, {0, 0}})

	_, err := ground.ExpVal([]observable.Term{pauliTerm(1, onWire(observable.AxisZ, 3))})
	assert.True(t, circuit.IsInvalidWire(err))
}

func TestExpValSampled(t *testing.T) {
	r, err := FromPayload(&Payload{Counts: map[string]int64{"00": 500, "11": 500}}, 2)
	require.NoError(t, err)

	zz := []observable.Term{pauliTerm(1, onWire(observable.AxisZ, 0), onWire(observable.AxisZ, 1))}
	v, err := r.ExpVal(zz)
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-12)

	z0 := []observable.Term{pauliTerm(1, onWire(observable.AxisZ, 0))}
	v, err = r.ExpVal(z0)
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1e-12)
}

func TestExpValSampledNeedsDiagonalTerms(t *testing.T) {
	r, err := FromPayload(&Payload{Counts: map[string]int64{"0": 1}}, 1)
	require.NoError(t, err)

	_, err = r.ExpVal([]observable.Term{pauliTerm(1, onWire(observable.AxisX, 0))})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diagonal")
}

func TestVarAnalytic(t *testing.T) {
	inv := 1 / math.Sqrt2
	plus := analyticResult(t, 1, []ComplexPair{{inv, 0}, {inv, 0}})
	ground := analyticResult(t, 1, []ComplexPair{{1, 0}, {0, 0}})
	z := []observable.Term{pauliTerm(1, onWire(observable.AxisZ, 0))}

	v, err := plus.Var(z)
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-12)

	v, err = ground.Var(z)
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1e-12)
}

func TestVarAnalyticCrossTerms(t *testing.T) {
	// H = Z + X on |0>: <H> = 1 and <H^2> = 2 because the ZX and XZ
	// cross terms cancel, so the variance is exactly 1.
	ground := analyticResult(t, 1, []ComplexPair{{1, 0}, {0, 0}})
	terms := []observable.Term{
		pauliTerm(1, onWire(observable.AxisZ, 0)),
		pauliTerm(1, onWire(observable.AxisX, 0)),
	}

	v, err := ground.Var(terms)
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-12)
}

func TestVarAnalyticBell(t *testing.T) {
	bell := bellResult(t)
	zz := []observable.Term{pauliTerm(1, onWire(observable.AxisZ, 0), onWire(observable.AxisZ, 1))}

	v, err := bell.Var(zz)
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1e-12)
}

func TestVarSampled(t *testing.T) {
	r, err := FromPayload(&Payload{Samples: [][]uint8{{0}, {0}, {1}, {1}}}, 1)
	require.NoError(t, err)
	z := []observable.Term{pauliTerm(1, onWire(observable.AxisZ, 0))}

	v, err := r.Var(z)
	require.NoError(t, err)
	assert.InDelta(t, 1, v, 1e-12)

	skewed, err := FromPayload(&Payload{Counts: map[string]int64{"0": 3, "1": 1}}, 1)
	require.NoError(t, err)
	v, err = skewed.Var(z)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, v, 1e-12)
}

func TestSamplePerShotValues(t *testing.T) {
	r, err := FromPayload(&Payload{Samples: [][]uint8{{0}, {1}, {0}}}, 1)
	require.NoError(t, err)

	values, err := r.Sample([]observable.Term{pauliTerm(1, onWire(observable.AxisZ, 0))})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -1, 1}, values)
}

func TestSampleParity(t *testing.T) {
	r, err := FromPayload(&Payload{Samples: [][]uint8{{0, 0}, {0, 1}, {1, 1}}}, 2)
	require.NoError(t, err)

	zz := []observable.Term{pauliTerm(1, onWire(observable.AxisZ, 0), onWire(observable.AxisZ, 1))}
	values, err := r.Sample(zz)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -1, 1}, values)
}

func TestSampleAnalyticUnsupported(t *testing.T) {
	bell := bellResult(t)

	_, err := bell.Sample([]observable.Term{pauliTerm(1, onWire(observable.AxisZ, 0))})
	assert.Error(t, err)
}

func TestMulPauli(t *testing.T) {
	tests := []struct {
		a, b  observable.Axis
		want  observable.Axis
		phase complex128
	}{
		{observable.AxisX, observable.AxisY, observable.AxisZ, complex(0, 1)},
		{observable.AxisY, observable.AxisX, observable.AxisZ, complex(0, -1)},
		{observable.AxisY, observable.AxisZ, observable.AxisX, complex(0, 1)},
		{observable.AxisZ, observable.AxisY, observable.AxisX, complex(0, -1)},
		{observable.AxisZ, observable.AxisX, observable.AxisY, complex(0, 1)},
		{observable.AxisX, observable.AxisZ, observable.AxisY, complex(0, -1)},
		{observable.AxisX, observable.AxisX, 0, 1},
		{observable.AxisZ, observable.AxisZ, 0, 1},
	}
	for _, tt := range tests {
		axis, phase := mulPauli(tt.a, tt.b)
		assert.Equal(t, tt.want, axis, "%c * %c", tt.a, tt.b)
		assert.Equal(t, tt.phase, phase, "%c * %c", tt.a, tt.b)
	}
}

func TestMulTerms(t *testing.T) {
	factors, phase := mulTerms(
		[]observable.Factor{onWire(observable.AxisX, 0)},
		[]observable.Factor{onWire(observable.AxisZ, 0)},
	)
	assert.Equal(t, []observable.Factor{onWire(observable.AxisY, 0)}, factors)
	assert.Equal(t, complex(0, -1), phase)

	factors, phase = mulTerms(
		[]observable.Factor{onWire(observable.AxisX, 0)},
		[]observable.Factor{onWire(observable.AxisY, 1)},
	)
	assert.Equal(t, []observable.Factor{onWire(observable.AxisX, 0), onWire(observable.AxisY, 1)}, factors)
	assert.Equal(t, complex(1, 0), phase)

	factors, phase = mulTerms(
		[]observable.Factor{onWire(observable.AxisZ, 0)},
		[]observable.Factor{onWire(observable.AxisZ, 0)},
	)
	assert.Empty(t, factors)
	assert.Equal(t, complex(1, 0), phase)
}
