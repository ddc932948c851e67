package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/faceunlock/internal/logging"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// VerificationRepository persists verification logs and the enrolled profile.
type VerificationRepository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewVerificationRepository creates a repository with the default retry policy.
func NewVerificationRepository(db *gorm.DB, logger *zap.Logger) *VerificationRepository {
	return &VerificationRepository{
		db:             db,
		logger:         logger.Named("verification_repository"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// AutoMigrate ensures the schema is available.
func (r *VerificationRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&VerificationLog{}, &EnrolledFace{})
}

// SaveLog persists a verification log entry.
func (r *VerificationRepository) SaveLog(ctx context.Context, log *VerificationLog) error {
	return r.executeWithRetry(ctx, "repository.save_log", log.RequestID, func() error {
		return r.db.WithContext(ctx).Create(log).Error
	})
}

// FindByRequestID loads the log for one verification request.
func (r *VerificationRepository) FindByRequestID(ctx context.Context, requestID string) (*VerificationLog, error) {
	var log VerificationLog
	err := r.executeWithRetry(ctx, "repository.find_by_request_id", requestID, func() error {
		return translate(r.db.WithContext(ctx).First(&log, "request_id = ?", requestID).Error)
	})
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// AggregateMetrics summarizes every stored verification log.
func (r *VerificationRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var row struct {
		TotalCount        int64
		SuccessCount      int64
		MatchCount        int64
		AverageSimilarity *float64
		AverageLatencyMs  *float64
	}
	err := r.executeWithRetry(ctx, "repository.aggregate_metrics", "", func() error {
		return r.db.WithContext(ctx).
			Model(&VerificationLog{}).
			Select(`COUNT(*) AS total_count,
				COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS success_count,
				COALESCE(SUM(CASE WHEN is_same_person THEN 1 ELSE 0 END), 0) AS match_count,
				AVG(similarity) AS average_similarity,
				AVG(latency_ms) AS average_latency_ms`).
			Scan(&row).Error
	})
	if err != nil {
		return nil, err
	}

	agg := &MetricsAggregation{
		TotalCount:   row.TotalCount,
		SuccessCount: row.SuccessCount,
		MatchCount:   row.MatchCount,
	}
	if row.AverageSimilarity != nil {
		agg.AverageSimilarity = *row.AverageSimilarity
	}
	if row.AverageLatencyMs != nil {
		agg.AverageLatencyMs = *row.AverageLatencyMs
	}
	return agg, nil
}

// SaveEnrollment upserts the single enrolled profile snapshot.
func (r *VerificationRepository) SaveEnrollment(ctx context.Context, payload []byte, enrolledAt time.Time) error {
	face := &EnrolledFace{ID: enrolledFaceID, Payload: payload, EnrolledAt: enrolledAt}
	return r.executeWithRetry(ctx, "repository.save_enrollment", "", func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"payload", "enrolled_at", "updated_at"}),
			}).
			Create(face).Error
	})
}

// LoadEnrollment returns the stored snapshot, or ErrNotFound.
func (r *VerificationRepository) LoadEnrollment(ctx context.Context) (*EnrolledFace, error) {
	var face EnrolledFace
	err := r.executeWithRetry(ctx, "repository.load_enrollment", "", func() error {
		return translate(r.db.WithContext(ctx).First(&face, enrolledFaceID).Error)
	})
	if err != nil {
		return nil, err
	}
	return &face, nil
}

// DeleteEnrollment removes the stored snapshot. Deleting nothing is not an error.
func (r *VerificationRepository) DeleteEnrollment(ctx context.Context) error {
	return r.executeWithRetry(ctx, "repository.delete_enrollment", "", func() error {
		return r.db.WithContext(ctx).Delete(&EnrolledFace{}, enrolledFaceID).Error
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *VerificationRepository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	opLogger := logging.WithOperation(r.logger, operation, requestID)
	backoff := r.initialBackoff
	attempts := r.retryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("database operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}
		if !IsTransient(err) || attempt == attempts-1 {
			opLogger.Error("database operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, requestID, err)
		}
		opLogger.Warn("transient database error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

// IsTransient reports whether err looks like a timeout or temporary failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return true
	}
	var temporary interface{ Temporary() bool }
	return errors.As(err, &temporary) && temporary.Temporary()
}
