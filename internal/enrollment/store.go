package enrollment

import (
	"sync/atomic"
	"time"

	"github.com/example/faceunlock/internal/faceprint"
)

// Profile is the enrolled reference identity. It is never mutated after
// construction.
type Profile struct {
	Payload    faceprint.Payload
	Signature  faceprint.Signature
	EnrolledAt time.Time
}

// NewProfile copies the payload and precomputes its signature.
func NewProfile(payload faceprint.Payload, enrolledAt time.Time) *Profile {
	owned := make(faceprint.Payload, len(payload))
	copy(owned, payload)
	return &Profile{
		Payload:    owned,
		Signature:  faceprint.Extract(owned),
		EnrolledAt: enrolledAt.UTC(),
	}
}

// Store holds at most one Profile. Payload and signature are published
// together through a single pointer swap, so readers never see a torn pair.
type Store struct {
	current atomic.Pointer[Profile]
	now     func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Enroll replaces the current profile and returns the one it replaced, if any.
func (s *Store) Enroll(payload faceprint.Payload) (enrolled, previous *Profile) {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	p := NewProfile(payload, now())
	return p, s.current.Swap(p)
}

// Restore installs an already-built profile, for example one loaded from
// persistent storage. A nil profile clears the store.
func (s *Store) Restore(p *Profile) (previous *Profile) {
	return s.current.Swap(p)
}

// Rollback reinstates previous only if expected is still current. It
// reports whether the swap happened.
func (s *Store) Rollback(expected, previous *Profile) bool {
	return s.current.CompareAndSwap(expected, previous)
}

// Clear removes the current profile and returns it.
func (s *Store) Clear() (previous *Profile) {
	return s.current.Swap(nil)
}

// IsEnrolled reports whether a profile is present.
func (s *Store) IsEnrolled() bool {
	return s.current.Load() != nil
}

// Current returns the enrolled profile and whether one exists.
func (s *Store) Current() (*Profile, bool) {
	p := s.current.Load()
	return p, p != nil
}
