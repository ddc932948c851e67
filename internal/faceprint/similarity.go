package faceprint

import "math"

// Weights of the combined score. They are a fixed compatibility policy.
const (
	SignatureWeight = 0.5
	HistogramWeight = 0.35
	SizeWeight      = 0.15
)

// Breakdown holds the sub-scores of one comparison.
type Breakdown struct {
	Signature float64 `json:"signature"`
	Histogram float64 `json:"histogram"`
	SizeRatio float64 `json:"sizeRatio"`
	Combined  float64 `json:"combined"`
}

// SignatureSimilarity compares two signatures by mean absolute difference,
// scaled so that a per-sample gap of 128 or more scores zero. Signatures of
// different or zero length score zero.
func SignatureSimilarity(a, b Signature) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var totalDiff float64
	for i := range a {
		totalDiff += math.Abs(a[i] - b[i])
	}
	maxDiff := float64(len(a) * maxSampleDiff)
	return clamp01(1 - totalDiff/maxDiff)
}

// HistogramSimilarity returns the cosine correlation of two histograms, or
// zero when either is all zero.
func HistogramSimilarity(a, b Histogram) float64 {
	var dot, sumA, sumB float64
	for i := range a {
		dot += a[i] * b[i]
		sumA += a[i] * a[i]
		sumB += b[i] * b[i]
	}
	denom := math.Sqrt(sumA * sumB)
	if denom == 0 {
		return 0
	}
	return clamp01(dot / denom)
}

// SizeRatio returns min(a, b) / max(a, b). Two empty payloads carry no size
// evidence and score zero.
func SizeRatio(a, b int) float64 {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi <= 0 || lo < 0 {
		return 0
	}
	return float64(lo) / float64(hi)
}

// Combine weights the three sub-scores into one value in [0, 1].
func Combine(signature, histogram, sizeRatio float64) float64 {
	return clamp01(signature*SignatureWeight + histogram*HistogramWeight + sizeRatio*SizeWeight)
}

// Compare scores a candidate against a reference whose signature has
// already been extracted.
func Compare(reference Payload, referenceSig Signature, candidate Payload) Breakdown {
	b := Breakdown{
		Signature: SignatureSimilarity(referenceSig, Extract(candidate)),
		Histogram: HistogramSimilarity(BuildHistogram(reference), BuildHistogram(candidate)),
		SizeRatio: SizeRatio(reference.Len(), candidate.Len()),
	}
	b.Combined = Combine(b.Signature, b.Histogram, b.SizeRatio)
	return b
}

// Round2 rounds a score to two decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
