package fs

import "strings"

// similarity returns a whitespace-normalized similarity ratio between two
// texts in [0,1]: 2.0 * common / (len(a) + len(b)) over whitespace-split
// tokens. Used to tolerate trivial drift between a patch's recorded
// original and the current on-disk content.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	aTokens := strings.Fields(a)
	bTokens := strings.Fields(b)
	if len(aTokens) == 0 && len(bTokens) == 0 {
		return 1.0
	}
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0.0
	}

	counts := make(map[string]int, len(aTokens))
	for _, t := range aTokens {
		counts[t]++
	}

	common := 0
	for _, t := range bTokens {
		if counts[t] > 0 {
			counts[t]--
			common++
		}
	}

	return float64(2*common) / float64(len(aTokens)+len(bTokens))
}
