package faceprint

import (
	"math"
	"strings"
	"testing"
)

const epsilon = 1e-9

func TestExtractLength(t *testing.T) {
	cases := []struct {
		name   string
		length int
		want   int
	}{
		{name: "empty", length: 0, want: 0},
		{name: "single unit", length: 1, want: SignatureLength},
		{name: "below stride", length: 99, want: SignatureLength},
		{name: "exact stride", length: 100, want: SignatureLength},
		{name: "three per sample", length: 300, want: SignatureLength},
		{name: "large", length: 12345, want: SignatureLength},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sig := Extract(Payload(strings.Repeat("x", tc.length)))
			if len(sig) != tc.want {
				t.Fatalf("expected %d samples, got %d", tc.want, len(sig))
			}
		})
	}
}

func TestExtractZeroStrideSamplesFirstUnit(t *testing.T) {
	sig := Extract(Payload("abcd"))
	want := float64('a'+'b'+'c') / 3
	for i, v := range sig {
		if v != want {
			t.Fatalf("sample %d: expected %v, got %v", i, want, v)
		}
	}
}

func TestExtractPadsPastEndWithZero(t *testing.T) {
	sig := Extract(Payload("A"))
	want := float64('A') / 3
	if sig[0] != want {
		t.Fatalf("expected %v, got %v", want, sig[0])
	}
}

func TestExtractUsesUniformStride(t *testing.T) {
	payload := make(Payload, 200)
	for i := range payload {
		payload[i] = byte(i)
	}
	sig := Extract(payload)
	// stride 2: sample i averages units 2i, 2i+1, 2i+2
	for i, v := range sig {
		idx := 2 * i
		want := (payload.at(idx) + payload.at(idx+1) + payload.at(idx+2)) / 3
		if v != want {
			t.Fatalf("sample %d: expected %v, got %v", i, want, v)
		}
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	payload := Payload(strings.Repeat("iVBORw0KGgoAAAANSUhEUgAA", 80))
	a, b := Extract(payload), Extract(payload)
	if len(a) != len(b) {
		t.Fatalf("length changed between calls")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestBuildHistogramIsDeterministic(t *testing.T) {
	payload := Payload(strings.Repeat("iVBORw0KGgoAAAANSUhEUgAA", 80))
	before := append(Payload(nil), payload...)

	a, b := BuildHistogram(payload), BuildHistogram(payload)
	if a != b {
		t.Fatalf("histogram differs between calls: %v vs %v", a, b)
	}
	if string(payload) != string(before) {
		t.Fatal("histogram must not modify its input")
	}
}

func TestBuildHistogramNormalizes(t *testing.T) {
	payloads := []string{
		"a",
		"data:image/jpeg;base64,/9j/4AAQSkZJRgABAQAAAQABAAD",
		strings.Repeat("Zm9vYmFy+/=", 300),
	}
	for _, p := range payloads {
		h := BuildHistogram(Payload(p))
		if math.Abs(h.Sum()-1) > epsilon {
			t.Fatalf("expected histogram of %q to sum to 1, got %v", p, h.Sum())
		}
		for i, v := range h {
			if v < 0 {
				t.Fatalf("bucket %d negative: %v", i, v)
			}
		}
	}
}

func TestBuildHistogramEmptyIsZero(t *testing.T) {
	h := BuildHistogram(nil)
	if h != (Histogram{}) {
		t.Fatalf("expected zero histogram, got %v", h)
	}
}

func TestBuildHistogramBuckets(t *testing.T) {
	// units at 0 and 10 are counted; 'A' (65) lands in bucket 4, 'z' (122) in bucket 7
	payload := Payload("AAAAAAAAAAzzzzz")
	h := BuildHistogram(payload)
	if h[4] != 0.5 || h[7] != 0.5 {
		t.Fatalf("unexpected buckets: %v", h)
	}
}

func TestBuildHistogramHighBytes(t *testing.T) {
	h := BuildHistogram(Payload{0xff})
	if h[15] != 1 {
		t.Fatalf("expected 0xff in last bucket, got %v", h)
	}
}
