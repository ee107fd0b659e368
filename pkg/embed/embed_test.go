package embed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.InDelta(t, 1.0, norm(v), 1e-6)
}

func TestNormalizeUnitVectorUnchanged(t *testing.T) {
	v := []float32{1, 0, 0}
	Normalize(v)
	assert.Equal(t, []float32{1, 0, 0}, v)
}

func TestNormalizeZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	Normalize(v)
	assert.Equal(t, []float32{0, 0, 0}, v)
}
