package features

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShannonEntropyBounds(t *testing.T) {
	assert.Equal(t, 0.0, ShannonEntropy(nil))
	assert.Equal(t, 0.0, ShannonEntropy(bytes.Repeat([]byte{0x41}, 512)))

	uniform := make([]byte, 256)
	for i := range uniform {
		uniform[i] = byte(i)
	}
	assert.InDelta(t, 8.0, ShannonEntropy(uniform), 1e-9)
}

func TestByteDistributionNormalized(t *testing.T) {
	dist := ByteDistribution([]byte("abba"))
	assert.Len(t, dist, 256)
	assert.InDelta(t, 0.5, dist['a'], 1e-9)
	assert.InDelta(t, 0.5, dist['b'], 1e-9)

	var sum float64
	for _, v := range dist {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	empty := ByteDistribution(nil)
	for _, v := range empty {
		assert.Equal(t, 0.0, v)
	}
}

func TestChunkEntropiesDropsRemainder(t *testing.T) {
	data := make([]byte, 25)
	entropies := ChunkEntropies(data, 10)
	assert.Len(t, entropies, 10)

	// 25/10 leaves chunk size 2; the trailing 5 bytes are ignored.
	for _, e := range entropies {
		assert.Equal(t, 0.0, e)
	}

	assert.Nil(t, ChunkEntropies([]byte{1, 2, 3}, 10))
	assert.Nil(t, ChunkEntropies(data, 0))
}

func TestEntropyStats(t *testing.T) {
	variance, spread := EntropyStats([]float64{1, 2, 3})
	assert.InDelta(t, 2.0/3.0, variance, 1e-9)
	assert.InDelta(t, 2.0, spread, 1e-9)

	variance, spread = EntropyStats(nil)
	assert.Equal(t, 0.0, variance)
	assert.Equal(t, 0.0, spread)
}
