package quantization

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantizeVector_RoundTripBound(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 20; trial++ {
		v := make([]float32, 64)
		maxAbs := float64(0)
		for i := range v {
			v[i] = rng.Float32()*4 - 2
			if a := math.Abs(float64(v[i])); a > maxAbs {
				maxAbs = a
			}
		}

		q := QuantizeVector(v)
		require.Equal(t, len(v), q.Dim)
		got := Dequantize(q)

		// Error per dimension is bounded by one quantization step.
		bound := maxAbs / 127
		for i := range v {
			assert.LessOrEqual(t, math.Abs(float64(v[i]-got[i])), bound+1e-6,
				"dimension %d out of bound", i)
		}
	}
}

func TestQuantizeVector_ZeroVector(t *testing.T) {
	q := QuantizeVector([]float32{0, 0, 0})
	assert.Equal(t, float32(1), q.Scale)
	assert.Equal(t, []int8{0, 0, 0}, q.Codes)
	assert.Equal(t, []float32{0, 0, 0}, Dequantize(q))
}

func TestQuantizeResidual_NarrowRange(t *testing.T) {
	r := []float32{-0.3, 0.1, 0.3}
	q := QuantizeResidual(r)

	for _, c := range q.Codes {
		assert.LessOrEqual(t, int(c), ResidualRange)
		assert.GreaterOrEqual(t, int(c), -ResidualRange)
	}

	got := Dequantize(q)
	bound := 0.3 / float64(ResidualRange)
	for i := range r {
		assert.LessOrEqual(t, math.Abs(float64(r[i]-got[i])), bound+1e-6)
	}
}

func TestComputeCentroid(t *testing.T) {
	centroid := ComputeCentroid([][]float32{
		{1, 0, 2},
		{3, 2, 4},
	})
	assert.Equal(t, []float32{2, 1, 3}, centroid)

	assert.Nil(t, ComputeCentroid(nil))
}
