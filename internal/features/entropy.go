package features

import (
	"math"

	"github.com/grd/stat"
)

// ShannonEntropy computes the byte-level Shannon entropy of data in bits
// per byte. Ranges from 0.0 (single repeated byte) to 8.0 (uniform use of
// all 256 byte values).
func ShannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0.0
	}

	var counts [256]int
	for _, b := range data {
		counts[b]++
	}

	total := float64(len(data))
	entropy := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// ByteDistribution returns the normalized 256-bin byte frequency vector.
func ByteDistribution(data []byte) []float64 {
	dist := make([]float64, 256)
	if len(data) == 0 {
		return dist
	}
	for _, b := range data {
		dist[b]++
	}
	total := float64(len(data))
	for i := range dist {
		dist[i] /= total
	}
	return dist
}

// ChunkEntropies splits data into n equal chunks (trailing remainder bytes
// are dropped) and returns the Shannon entropy of each chunk.
func ChunkEntropies(data []byte, n int) []float64 {
	if n <= 0 || len(data) < n {
		return nil
	}
	chunkSize := len(data) / n
	entropies := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		chunk := data[i*chunkSize : (i+1)*chunkSize]
		entropies = append(entropies, ShannonEntropy(chunk))
	}
	return entropies
}

// EntropyStats returns the population variance and the max-min spread of a
// set of chunk entropies.
func EntropyStats(entropies []float64) (variance, spread float64) {
	if len(entropies) == 0 {
		return 0, 0
	}
	values := stat.Float64Slice(entropies)
	mean := stat.Mean(values)
	variance = stat.VarianceWithFixedMean(values, mean)
	maxVal, _ := stat.Max(values)
	minVal, _ := stat.Min(values)
	spread = maxVal - minVal
	return variance, spread
}
