package ngram

import "math"

// QuantizeWeights log-scales a descending-by-count successor list into
// u16 weights per §4.2: the top entry lands at (approximately) 65535 and
// the tail is log-scaled, preserving relative order up to log-scale ties.
//
// counts must already be sorted descending; counts[0] is treated as max.
func QuantizeWeights(counts []uint64) []uint16 {
	weights := make([]uint16, len(counts))
	if len(counts) == 0 {
		return weights
	}
	max := counts[0]
	if max == 0 {
		return weights
	}
	logMax := math.Log(float64(max))
	if logMax < 1 {
		logMax = 1
	}
	for i, c := range counts {
		if c == 0 {
			weights[i] = 0
			continue
		}
		ratio := math.Log(float64(c)) / logMax
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		weights[i] = uint16(ratio * 65535)
	}
	return weights
}
