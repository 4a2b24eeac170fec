package ai

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
	}{
		{"simple vector", []float32{3, 4}},
		{"negative components", []float32{-1, 2, -2}},
		{"already unit", []float32{1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input)
			require.Len(t, result, len(tt.input))

			var sumSquares float64
			for _, v := range result {
				sumSquares += float64(v) * float64(v)
			}
			assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5)
		})
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	result := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, result)

	assert.Empty(t, Normalize([]float32{}))
}

func TestCosineSimilarity(t *testing.T) {
	identical, err := CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, identical, 1e-6)

	orthogonal, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, orthogonal, 1e-6)

	opposite, err := CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, opposite, 1e-6)

	zero, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	require.NoError(t, err)
	assert.Zero(t, zero)

	_, err = CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero([]float32{0, 0, 0}))
	assert.True(t, IsZero(nil))
	assert.False(t, IsZero([]float32{0, 0.001, 0}))
}
