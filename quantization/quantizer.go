package quantization

import (
	"math"

	"github.com/hupe1980/vecmesh/model"
)

const (
	// VectorRange is the target code range for full vectors (int8).
	VectorRange = 127
	// ResidualRange is the target code range for cluster residuals.
	// Narrower than VectorRange to model 4-bit residual precision.
	ResidualRange = 15
)

// QuantizeVector quantizes a float32 vector to signed 8-bit codes.
//
// scale = 127 / max(|v_i|) (1 if the vector is all-zero); each code is
// round(v_i * scale) clamped to the int8 range. Reconstruction:
// v_i ~= codes_i / scale.
func QuantizeVector(v []float32) model.QuantizedVector {
	return quantize(v, VectorRange)
}

// QuantizeResidual quantizes a residual vector to the narrower +-15 code
// range used inside compressed clusters.
func QuantizeResidual(r []float32) model.QuantizedVector {
	return quantize(r, ResidualRange)
}

func quantize(v []float32, codeRange float32) model.QuantizedVector {
	maxAbs := float32(0)
	for _, x := range v {
		if a := float32(math.Abs(float64(x))); a > maxAbs {
			maxAbs = a
		}
	}

	scale := float32(1)
	if maxAbs > 0 {
		scale = codeRange / maxAbs
	}

	codes := make([]int8, len(v))
	for i, x := range v {
		c := math.Round(float64(x * scale))
		if c > float64(codeRange) {
			c = float64(codeRange)
		} else if c < -float64(codeRange) {
			c = -float64(codeRange)
		}
		codes[i] = int8(c)
	}

	return model.QuantizedVector{Codes: codes, Scale: scale, Dim: len(v)}
}

// Dequantize reconstructs the float32 vector approximated by q.
func Dequantize(q model.QuantizedVector) []float32 {
	v := make([]float32, len(q.Codes))
	if q.Scale == 0 {
		return v
	}
	for i, c := range q.Codes {
		v[i] = float32(c) / q.Scale
	}
	return v
}

// ComputeCentroid returns the element-wise mean of the given vectors.
// Returns nil for an empty input.
func ComputeCentroid(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	centroid := make([]float32, dim)
	for _, v := range vectors {
		for i := range centroid {
			centroid[i] += v[i]
		}
	}
	n := float32(len(vectors))
	for i := range centroid {
		centroid[i] /= n
	}
	return centroid
}
