package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/faceunlock/internal/auth"
	"github.com/example/faceunlock/internal/enrollment"
	"github.com/example/faceunlock/internal/faceprint"
	"github.com/example/faceunlock/internal/logging"
	"github.com/example/faceunlock/internal/repository"
	"github.com/example/faceunlock/internal/verification"
)

var (
	// ErrEmptyPayload is returned when enrolling an empty image.
	ErrEmptyPayload = errors.New("image payload is empty")
	// ErrCacheMiss is returned by a Cache when the key does not exist.
	ErrCacheMiss = errors.New("cache miss")
	// ErrResultPending means the request is still being scored.
	ErrResultPending = errors.New("verification still processing")
)

const processingMarker = "processing"

// Repository defines the persistence operations needed by the use case.
type Repository interface {
	SaveLog(ctx context.Context, log *repository.VerificationLog) error
	FindByRequestID(ctx context.Context, requestID string) (*repository.VerificationLog, error)
	AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error)
	SaveEnrollment(ctx context.Context, payload []byte, enrolledAt time.Time) error
	LoadEnrollment(ctx context.Context) (*repository.EnrolledFace, error)
	DeleteEnrollment(ctx context.Context) error
}

// Verifier scores a candidate against the enrolled profile.
type Verifier interface {
	Verify(candidate faceprint.Payload) verification.Result
}

// TokenIssuer signs unlock tokens.
type TokenIssuer interface {
	Issue(subject, requestID string) (string, time.Time, error)
}

// MetricsRecorder observes finished verifications.
type MetricsRecorder interface {
	ObserveVerification(outcome string, similarity float64, took time.Duration)
}

// EnrollmentObserver is told whenever a profile appears or disappears.
type EnrollmentObserver interface {
	SetEnrolled(enrolled bool)
}

// EnrollmentSyncer is implemented by observers that distinguish the state
// found at startup from a change made through the API.
type EnrollmentSyncer interface {
	SyncEnrolled(enrolled bool)
}

// Deps collects the collaborators of FaceUseCase.
type Deps struct {
	Store     *enrollment.Store
	Verifier  Verifier
	Repo      Repository
	Cache     Cache
	Tokens    TokenIssuer
	Metrics   MetricsRecorder
	Observers []EnrollmentObserver
	Workers   int
	ResultTTL time.Duration
	Logger    *zap.Logger
}

// FaceUseCase coordinates enrollment, verification and their side effects.
type FaceUseCase struct {
	store     *enrollment.Store
	verifier  Verifier
	repo      Repository
	cache     Cache
	tokens    TokenIssuer
	metrics   MetricsRecorder
	observers []EnrollmentObserver
	pool      *pool
	resultTTL time.Duration
	logger    *zap.Logger

	// enrollMu orders enrollment changes so the stored snapshot follows
	// the in-memory profile. Verification does not take it.
	enrollMu sync.Mutex

	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// VerifyOutput is the outcome of one verification request.
type VerifyOutput struct {
	RequestID      string
	Result         verification.Result
	UnlockToken    string
	TokenExpiresAt time.Time
}

// StoredResult is a verification outcome retrieved after the fact.
type StoredResult struct {
	RequestID string              `json:"requestId"`
	Result    verification.Result `json:"result"`
	CreatedAt time.Time           `json:"createdAt"`
}

// Status describes the current enrollment.
type Status struct {
	Enrolled    bool       `json:"enrolled"`
	EnrolledAt  *time.Time `json:"enrolledAt,omitempty"`
	PayloadSize int        `json:"payloadSize"`
}

// NewFaceUseCase constructs a new use case instance.
func NewFaceUseCase(d Deps) *FaceUseCase {
	ttl := d.ResultTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	metrics := d.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &FaceUseCase{
		store:          d.Store,
		verifier:       d.Verifier,
		repo:           d.Repo,
		cache:          d.Cache,
		tokens:         d.Tokens,
		metrics:        metrics,
		observers:      d.Observers,
		pool:           newPool(d.Workers),
		resultTTL:      ttl,
		logger:         d.Logger.Named("face_usecase"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// IsEnrolled reports whether a profile is currently enrolled.
func (uc *FaceUseCase) IsEnrolled() bool {
	return uc.store.IsEnrolled()
}

// Status reports the current enrollment.
func (uc *FaceUseCase) Status() Status {
	p, ok := uc.store.Current()
	if !ok {
		return Status{}
	}
	at := p.EnrolledAt
	return Status{Enrolled: true, EnrolledAt: &at, PayloadSize: p.Payload.Len()}
}

// EnrollFace makes payload the reference identity and persists it. If the
// snapshot cannot be stored the previous profile is reinstated.
func (uc *FaceUseCase) EnrollFace(ctx context.Context, payload faceprint.Payload) (Status, error) {
	if payload.Len() == 0 {
		return Status{}, ErrEmptyPayload
	}
	uc.enrollMu.Lock()
	defer uc.enrollMu.Unlock()

	opLogger := logging.WithOperation(uc.logger, "usecase.enroll_face", "")
	profile, previous := uc.store.Enroll(payload)
	if err := uc.repo.SaveEnrollment(ctx, profile.Payload, profile.EnrolledAt); err != nil {
		uc.store.Rollback(profile, previous)
		wrapped := logging.NewOperationError("usecase.enroll_face", "", err)
		opLogger.Error("failed to persist enrollment", logging.ErrorField(wrapped))
		return Status{}, wrapped
	}

	opLogger.Info("face enrolled", zap.Int("payload_size", payload.Len()), zap.Bool("replaced", previous != nil))
	uc.notify(true)
	return uc.Status(), nil
}

// ClearFace removes the enrolled profile and its snapshot.
func (uc *FaceUseCase) ClearFace(ctx context.Context) error {
	uc.enrollMu.Lock()
	defer uc.enrollMu.Unlock()

	opLogger := logging.WithOperation(uc.logger, "usecase.clear_face", "")
	previous := uc.store.Clear()
	if err := uc.repo.DeleteEnrollment(ctx); err != nil {
		uc.store.Rollback(nil, previous)
		wrapped := logging.NewOperationError("usecase.clear_face", "", err)
		opLogger.Error("failed to delete enrollment", logging.ErrorField(wrapped))
		return wrapped
	}

	opLogger.Info("enrollment cleared", zap.Bool("was_enrolled", previous != nil))
	uc.notify(false)
	return nil
}

// RestoreEnrollment loads a persisted profile into the store. A missing
// snapshot leaves the store empty.
func (uc *FaceUseCase) RestoreEnrollment(ctx context.Context) error {
	uc.enrollMu.Lock()
	defer uc.enrollMu.Unlock()

	face, err := uc.repo.LoadEnrollment(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		uc.sync(false)
		return nil
	}
	if err != nil {
		return logging.NewOperationError("usecase.restore_enrollment", "", err)
	}

	uc.store.Restore(enrollment.NewProfile(face.Payload, face.EnrolledAt))
	uc.logger.Info("enrollment restored", zap.Time("enrolled_at", face.EnrolledAt), zap.Int("payload_size", len(face.Payload)))
	uc.sync(true)
	return nil
}

// VerifyFace scores payload against the enrolled profile. The engine result
// is logged and cached before any error is returned; an error means ctx
// ended before scoring could start or an unlock token could not be signed
// for a match. Audit logging and result caching are best-effort.
func (uc *FaceUseCase) VerifyFace(ctx context.Context, payload faceprint.Payload) (*VerifyOutput, error) {
	requestID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.verify_face", requestID)
	cacheKey := resultKey(requestID)

	start := time.Now()
	var result verification.Result
	err := uc.pool.run(ctx, func() {
		// The flag is only written once scoring is certain to finish.
		if err := uc.withRedisRetry(ctx, requestID, "cache.set.processing", func() error {
			return uc.cache.Set(ctx, cacheKey, processingMarker, time.Minute)
		}); err != nil {
			opLogger.Warn("failed to set processing flag", zap.Error(err))
		}
		result = uc.verifier.Verify(payload)
	})
	if err != nil {
		wrapped := logging.NewOperationError("usecase.verify_face", requestID, err)
		opLogger.Warn("verification abandoned while waiting for a worker", logging.ErrorField(wrapped))
		return nil, wrapped
	}
	took := time.Since(start)
	uc.metrics.ObserveVerification(result.Outcome.String(), result.Similarity, took)

	createdAt := time.Now().UTC()
	uc.persist(ctx, opLogger, requestID, payload, result, took, createdAt)
	uc.cacheResult(ctx, opLogger, StoredResult{RequestID: requestID, Result: result, CreatedAt: createdAt})

	out := &VerifyOutput{RequestID: requestID, Result: result}
	if result.IsSamePerson {
		token, expires, err := uc.tokens.Issue(auth.UnlockSubject, requestID)
		if err != nil {
			wrapped := logging.NewOperationError("usecase.issue_unlock_token", requestID, err)
			opLogger.Error("failed to issue unlock token", logging.ErrorField(wrapped))
			return nil, wrapped
		}
		out.UnlockToken = token
		out.TokenExpiresAt = expires
	}

	opLogger.Info("verification finished",
		zap.Stringer("outcome", result.Outcome),
		zap.Float64("similarity", result.Similarity),
		zap.Duration("took", took),
	)
	return out, nil
}

// GetResult returns a past verification, from cache when possible.
func (uc *FaceUseCase) GetResult(ctx context.Context, requestID string) (*StoredResult, error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.get_result", requestID)

	pending := false
	cached, err := uc.withRedisGet(ctx, requestID, "cache.get.result", resultKey(requestID))
	switch {
	case err == nil && cached == processingMarker:
		// The result write may have failed after the log was saved.
		pending = true
	case err == nil:
		var stored StoredResult
		decodeErr := json.Unmarshal([]byte(cached), &stored)
		if decodeErr == nil {
			return &stored, nil
		}
		opLogger.Warn("failed to decode cached result", zap.Error(decodeErr))
	case !errors.Is(err, ErrCacheMiss):
		opLogger.Warn("failed to read cache", zap.Error(err))
	}

	log, err := uc.repo.FindByRequestID(ctx, requestID)
	if pending && errors.Is(err, repository.ErrNotFound) {
		return nil, ErrResultPending
	}
	if err != nil {
		return nil, err
	}
	return storedFromLog(log), nil
}

func (uc *FaceUseCase) persist(ctx context.Context, opLogger *zap.Logger, requestID string, payload faceprint.Payload, result verification.Result, took time.Duration, createdAt time.Time) {
	hash := sha1.Sum(payload)
	log := &repository.VerificationLog{
		RequestID:    requestID,
		Outcome:      result.Outcome.String(),
		Success:      result.Success,
		IsSamePerson: result.IsSamePerson,
		Similarity:   result.Similarity,
		Message:      result.Message,
		PayloadHash:  hex.EncodeToString(hash[:]),
		PayloadSize:  payload.Len(),
		LatencyMs:    float64(took.Microseconds()) / 1000,
		CreatedAt:    createdAt,
	}
	if err := uc.repo.SaveLog(ctx, log); err != nil {
		opLogger.Error("failed to persist verification log", zap.Error(err))
	}
}

func (uc *FaceUseCase) cacheResult(ctx context.Context, opLogger *zap.Logger, stored StoredResult) {
	serialized, err := json.Marshal(stored)
	if err != nil {
		opLogger.Error("failed to serialize verification result", zap.Error(err))
		return
	}
	if err := uc.withRedisRetry(ctx, stored.RequestID, "cache.set.result", func() error {
		return uc.cache.Set(ctx, resultKey(stored.RequestID), string(serialized), uc.resultTTL)
	}); err != nil {
		opLogger.Warn("failed to cache verification result", zap.Error(err))
	}
}

func (uc *FaceUseCase) notify(enrolled bool) {
	for _, o := range uc.observers {
		o.SetEnrolled(enrolled)
	}
}

// sync reports restored state. Observers without SyncEnrolled get SetEnrolled.
func (uc *FaceUseCase) sync(enrolled bool) {
	for _, o := range uc.observers {
		if s, ok := o.(EnrollmentSyncer); ok {
			s.SyncEnrolled(enrolled)
			continue
		}
		o.SetEnrolled(enrolled)
	}
}

func storedFromLog(log *repository.VerificationLog) *StoredResult {
	var outcome verification.Outcome
	if err := outcome.UnmarshalText([]byte(log.Outcome)); err != nil {
		outcome = verification.OutcomeProcessingFailure
	}
	return &StoredResult{
		RequestID: log.RequestID,
		Result: verification.Result{
			Success:      log.Success,
			IsSamePerson: log.IsSamePerson,
			Similarity:   log.Similarity,
			Message:      log.Message,
			Outcome:      outcome,
		},
		CreatedAt: log.CreatedAt,
	}
}

type nopMetrics struct{}

func (nopMetrics) ObserveVerification(string, float64, time.Duration) {}
