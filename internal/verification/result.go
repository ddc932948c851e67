package verification

import (
	"fmt"

	"github.com/example/faceunlock/internal/faceprint"
)

// Outcome classifies how a verification call ended.
type Outcome int

const (
	// OutcomeNotEnrolled means no reference profile exists. Not a successful call.
	OutcomeNotEnrolled Outcome = iota
	// OutcomeNoFaceDetected means the candidate was too small to score.
	OutcomeNoFaceDetected
	// OutcomeMatch means the candidate scored at or above MatchThreshold.
	OutcomeMatch
	// OutcomePartial means the candidate scored between the two thresholds.
	OutcomePartial
	// OutcomeNoMatch means the candidate scored below PartialThreshold.
	OutcomeNoMatch
	// OutcomeProcessingFailure means scoring failed unexpectedly.
	OutcomeProcessingFailure
)

var outcomeNames = map[Outcome]string{
	OutcomeNotEnrolled:       "not_enrolled",
	OutcomeNoFaceDetected:    "no_face_detected",
	OutcomeMatch:             "match",
	OutcomePartial:           "partial",
	OutcomeNoMatch:           "no_match",
	OutcomeProcessingFailure: "processing_failure",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(text []byte) error {
	for k, v := range outcomeNames {
		if v == string(text) {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// Result is the structured answer to a verification call. Success is false
// only for NotEnrolled and ProcessingFailure.
type Result struct {
	Success      bool                 `json:"success"`
	IsSamePerson bool                 `json:"isSamePerson"`
	Similarity   float64              `json:"similarity"`
	Message      string               `json:"message"`
	Outcome      Outcome              `json:"outcome"`
	Scores       *faceprint.Breakdown `json:"scores,omitempty"`
}

const (
	msgNotEnrolled = "No face enrolled. Please enroll your face first."
	msgNoFace      = "Could not detect a face. Please position your face in the center of the camera."
	msgMatch       = "Face verified successfully!"
	msgPartial     = "Face partially recognized. Please try again with better lighting or position."
	msgNoMatch     = "Face not recognized. This does not match the enrolled face."
	msgFailed      = "Verification failed: %s"
)

func notEnrolled() Result {
	return Result{Outcome: OutcomeNotEnrolled, Message: msgNotEnrolled}
}

func noFaceDetected() Result {
	return Result{Success: true, Similarity: 0.1, Outcome: OutcomeNoFaceDetected, Message: msgNoFace}
}

func processingFailure(cause string) Result {
	if cause == "" {
		cause = "Unknown error"
	}
	return Result{Outcome: OutcomeProcessingFailure, Message: fmt.Sprintf(msgFailed, cause)}
}

func scored(b faceprint.Breakdown) Result {
	r := Result{
		Success:    true,
		Similarity: faceprint.Round2(b.Combined),
		Outcome:    Classify(b.Combined),
		Scores:     &b,
	}
	switch r.Outcome {
	case OutcomeMatch:
		r.IsSamePerson = true
		r.Message = msgMatch
	case OutcomePartial:
		r.Message = msgPartial
	default:
		r.Message = msgNoMatch
	}
	return r
}
