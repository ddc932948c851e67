// Package verification decides whether a candidate payload shows the same
// subject as the enrolled profile.
package verification

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/example/faceunlock/internal/enrollment"
	"github.com/example/faceunlock/internal/faceprint"
)

const (
	// MinPayloadSize is the shortest candidate that is scored at all.
	MinPayloadSize = 1000
	// MatchThreshold is the lowest combined score accepted as the same person.
	MatchThreshold = 0.75
	// PartialThreshold is the lowest combined score reported as a partial match.
	PartialThreshold = 0.5
)

// Classify maps an unrounded combined score to an outcome.
func Classify(combined float64) Outcome {
	switch {
	case combined >= MatchThreshold:
		return OutcomeMatch
	case combined >= PartialThreshold:
		return OutcomePartial
	default:
		return OutcomeNoMatch
	}
}

type compareFunc func(p *enrollment.Profile, candidate faceprint.Payload) faceprint.Breakdown

func compareProfile(p *enrollment.Profile, candidate faceprint.Payload) faceprint.Breakdown {
	return faceprint.Compare(p.Payload, p.Signature, candidate)
}

// Service runs the verification pipeline against a Store.
type Service struct {
	store   *enrollment.Store
	compare compareFunc
	logger  *zap.Logger
}

// NewService builds a Service reading profiles from store.
func NewService(store *enrollment.Store, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		compare: compareProfile,
		logger:  logger.Named("verification"),
	}
}

// Verify scores candidate against the enrolled profile. Every failure mode
// is reported through the returned Result.
func (s *Service) Verify(candidate faceprint.Payload) Result {
	profile, ok := s.store.Current()
	if !ok {
		return notEnrolled()
	}
	if candidate.Len() < MinPayloadSize {
		return noFaceDetected()
	}
	return s.score(profile, candidate)
}

func (s *Service) score(profile *enrollment.Profile, candidate faceprint.Payload) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("face comparison panicked", zap.Any("panic", r))
			result = processingFailure(panicCause(r))
		}
	}()

	b := s.compare(profile, candidate)
	s.logger.Info("face comparison",
		zap.Float64("signature", b.Signature),
		zap.Float64("histogram", b.Histogram),
		zap.Float64("size", b.SizeRatio),
		zap.Float64("combined", b.Combined),
	)
	return scored(b)
}

func panicCause(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
