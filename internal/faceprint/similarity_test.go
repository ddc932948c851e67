package faceprint

import (
	"math"
	"strings"
	"testing"
)

func TestSignatureSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b Signature
		want float64
	}{
		{name: "identical", a: Signature{10, 20, 30}, b: Signature{10, 20, 30}, want: 1},
		{name: "length mismatch", a: Signature{1, 2}, b: Signature{1}, want: 0},
		{name: "both empty", a: Signature{}, b: Signature{}, want: 0},
		{name: "half gap", a: Signature{0, 0}, b: Signature{64, 64}, want: 0.5},
		{name: "clamped", a: Signature{0}, b: Signature{255}, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SignatureSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > epsilon {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestHistogramSimilarity(t *testing.T) {
	var a, b, zero Histogram
	a[1], a[2] = 0.5, 0.5
	b[3] = 1

	if got := HistogramSimilarity(a, a); got != 1 {
		t.Fatalf("expected self correlation 1, got %v", got)
	}
	if got := HistogramSimilarity(a, b); got != 0 {
		t.Fatalf("expected orthogonal histograms to score 0, got %v", got)
	}
	if got := HistogramSimilarity(a, zero); got != 0 {
		t.Fatalf("expected zero histogram to score 0, got %v", got)
	}
}

func TestSizeRatio(t *testing.T) {
	cases := []struct {
		a, b int
		want float64
	}{
		{a: 1000, b: 2000, want: 0.5},
		{a: 2000, b: 1000, want: 0.5},
		{a: 1500, b: 1500, want: 1},
		{a: 0, b: 1000, want: 0},
		{a: 0, b: 0, want: 0},
	}
	for _, tc := range cases {
		if got := SizeRatio(tc.a, tc.b); got != tc.want {
			t.Fatalf("SizeRatio(%d, %d): expected %v, got %v", tc.a, tc.b, tc.want, got)
		}
	}
}

func TestCompareSelfIsExactlyOne(t *testing.T) {
	payload := Payload(strings.Repeat("/9j/4AAQSkZJRgABAQ", 120))
	b := Compare(payload, Extract(payload), payload)
	if b.Combined != 1 {
		t.Fatalf("expected combined 1, got %+v", b)
	}
}

func TestCompareNeighbouringCharacters(t *testing.T) {
	ref := Payload(strings.Repeat("A", 2000))
	b := Compare(ref, Extract(ref), Payload(strings.Repeat("B", 2000)))

	// one code unit apart on every sample, same histogram bucket
	if math.Abs(b.Signature-(1-1.0/128)) > epsilon {
		t.Fatalf("unexpected signature similarity %v", b.Signature)
	}
	if b.Histogram != 1 || b.SizeRatio != 1 {
		t.Fatalf("unexpected breakdown %+v", b)
	}
}

func TestCompareDivergentCharacters(t *testing.T) {
	ref := Payload(strings.Repeat("A", 2000))
	b := Compare(ref, Extract(ref), Payload(strings.Repeat("z", 2000)))

	if b.Histogram != 0 {
		t.Fatalf("expected disjoint buckets, got %v", b.Histogram)
	}
	if b.Combined >= 0.75 {
		t.Fatalf("expected combined below match threshold, got %v", b.Combined)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(0.8349); got != 0.83 {
		t.Fatalf("expected 0.83, got %v", got)
	}
	if got := Round2(0.996); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
}
