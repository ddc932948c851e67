package enrollment

import (
	"strings"
	"sync"
	"testing"

	"github.com/example/faceunlock/internal/faceprint"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	if s.IsEnrolled() {
		t.Fatal("new store must be empty")
	}
	if _, ok := s.Current(); ok {
		t.Fatal("expected no current profile")
	}

	first, prev := s.Enroll(faceprint.Payload("first"))
	if prev != nil {
		t.Fatalf("expected no previous profile, got %+v", prev)
	}
	if !s.IsEnrolled() {
		t.Fatal("expected store to be enrolled")
	}

	second, prev := s.Enroll(faceprint.Payload("second"))
	if prev != first {
		t.Fatal("expected enroll to return the replaced profile")
	}
	if got, _ := s.Current(); got != second {
		t.Fatal("expected latest profile to be current")
	}

	if cleared := s.Clear(); cleared != second {
		t.Fatal("expected clear to return the removed profile")
	}
	if s.IsEnrolled() {
		t.Fatal("expected store to be empty after clear")
	}
}

func TestEnrollCopiesPayload(t *testing.T) {
	s := NewStore()
	payload := faceprint.Payload("abcdef")
	s.Enroll(payload)
	payload[0] = 'z'

	p, _ := s.Current()
	if string(p.Payload) != "abcdef" {
		t.Fatalf("profile payload aliased caller buffer: %q", p.Payload)
	}
}

func TestConcurrentEnrollKeepsPairConsistent(t *testing.T) {
	s := NewStore()
	payloads := []faceprint.Payload{
		faceprint.Payload(strings.Repeat("A", 1500)),
		faceprint.Payload(strings.Repeat("q", 2500)),
	}
	expected := map[int]faceprint.Signature{
		len(payloads[0]): faceprint.Extract(payloads[0]),
		len(payloads[1]): faceprint.Extract(payloads[1]),
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.Enroll(payloads[(w+i)%2])
			}
		}(w)
	}

	errs := make(chan string, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			p, ok := s.Current()
			if !ok {
				continue
			}
			want := expected[len(p.Payload)]
			if len(want) != len(p.Signature) || want[0] != p.Signature[0] {
				select {
				case errs <- "signature does not belong to payload":
				default:
				}
				return
			}
		}
	}()
	wg.Wait()

	select {
	case msg := <-errs:
		t.Fatal(msg)
	default:
	}
}

func TestRollbackOnlyReplacesExpected(t *testing.T) {
	s := NewStore()
	first, _ := s.Enroll(faceprint.Payload("first"))
	second, _ := s.Enroll(faceprint.Payload("second"))

	if s.Rollback(first, nil) {
		t.Fatal("rollback must not apply when expected is not current")
	}
	if !s.Rollback(second, first) {
		t.Fatal("expected rollback to apply")
	}
	if got, _ := s.Current(); got != first {
		t.Fatal("expected previous profile to be reinstated")
	}
}
