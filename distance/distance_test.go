package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1.0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1.0},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0.0},
		{name: "scaled", a: []float32{1, 2, 3}, b: []float32{2, 4, 6}, want: 1.0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-6)
		})
	}
}

func TestDot(t *testing.T) {
	assert.InDelta(t, 32.0, Dot([]float32{1, 2, 3}, []float32{4, 5, 6}), 1e-6)
	assert.InDelta(t, 0.0, Dot(nil, nil), 1e-6)
}

func TestNormalizeL2(t *testing.T) {
	v := []float32{3, 4}
	ok := NormalizeL2InPlace(v)
	require.True(t, ok)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.InDelta(t, 1.0, Norm(v), 1e-6)

	require.False(t, NormalizeL2InPlace([]float32{0, 0}))

	src := []float32{0, 5}
	dst, ok := NormalizeL2Copy(src)
	require.True(t, ok)
	assert.Equal(t, []float32{0, 5}, src)
	assert.InDelta(t, 1.0, dst[1], 1e-6)
}
