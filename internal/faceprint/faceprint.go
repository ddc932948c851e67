// Package faceprint derives coarse statistical features from an encoded
// image payload and scores how alike two payloads are.
//
// A payload is never decoded into pixels. It is read as a sequence of 8-bit
// code units, which matches base64 and other single-byte-per-unit text
// encodings. Multi-byte encodings are not anticipated: a UTF-8 payload is
// scored over its raw bytes.
package faceprint

const (
	// SignatureLength is the number of samples taken across a payload.
	SignatureLength = 100
	// SampleWidth is the number of consecutive code units averaged per sample.
	SampleWidth = 3
	// HistogramBuckets is the number of buckets in a Histogram.
	HistogramBuckets = 16
	// HistogramStride is the distance between code units counted by BuildHistogram.
	HistogramStride = 10

	maxSampleDiff = 128
)

// Payload is an opaque text-encoded image.
type Payload []byte

// PayloadFromString converts an encoded image string into a Payload.
func PayloadFromString(s string) Payload {
	return Payload(s)
}

// Len returns the number of code units in the payload.
func (p Payload) Len() int {
	return len(p)
}

// at returns the code unit at idx, or 0 past the end.
func (p Payload) at(idx int) float64 {
	if idx < 0 || idx >= len(p) {
		return 0
	}
	return float64(p[idx])
}

// Signature is a fingerprint of uniformly spaced samples.
type Signature []float64

// Histogram is a normalized distribution of sampled code units.
type Histogram [HistogramBuckets]float64

// Extract samples the payload at a uniform stride. Each sample is the mean of
// the code units at idx, idx+1 and idx+2, missing units counting as zero.
//
// Payloads shorter than SignatureLength have a stride of zero, so every
// sample is taken at index 0. An empty payload yields an empty signature.
func Extract(p Payload) Signature {
	step := len(p) / SignatureLength
	sig := make(Signature, 0, SignatureLength)
	for i := 0; i < SignatureLength; i++ {
		idx := i * step
		if idx >= len(p) {
			continue
		}
		var sum float64
		for k := 0; k < SampleWidth; k++ {
			sum += p.at(idx + k)
		}
		sig = append(sig, sum/SampleWidth)
	}
	return sig
}

// BuildHistogram counts every HistogramStride-th code unit into 16 buckets
// and normalizes the counts to sum to one. An empty payload yields the zero
// histogram.
func BuildHistogram(p Payload) Histogram {
	var h Histogram
	var total float64
	for i := 0; i < len(p); i += HistogramStride {
		code := int(p.at(i))
		h[(code%256)/16]++
		total++
	}
	if total == 0 {
		return h
	}
	for i := range h {
		h[i] /= total
	}
	return h
}

// Sum returns the total mass of the histogram.
func (h Histogram) Sum() float64 {
	var s float64
	for _, v := range h {
		s += v
	}
	return s
}
