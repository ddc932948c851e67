package repository

import "time"

// VerificationLog is one persisted verification attempt.
type VerificationLog struct {
	ID           uint      `gorm:"primaryKey"`
	RequestID    string    `gorm:"column:request_id;uniqueIndex;size:64"`
	Outcome      string    `gorm:"column:outcome;size:32;index"`
	Success      bool      `gorm:"column:success"`
	IsSamePerson bool      `gorm:"column:is_same_person"`
	Similarity   float64   `gorm:"column:similarity"`
	Message      string    `gorm:"column:message;type:text"`
	PayloadHash  string    `gorm:"column:payload_sha1;size:40;index"`
	PayloadSize  int       `gorm:"column:payload_size"`
	LatencyMs    float64   `gorm:"column:latency_ms"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (VerificationLog) TableName() string {
	return "verification_logs"
}

// enrolledFaceID is the primary key of the only enrolled_faces row.
const enrolledFaceID = 1

// EnrolledFace is the persisted snapshot of the enrolled profile. The
// signature is not stored; it is recomputed from the payload on restore.
type EnrolledFace struct {
	ID         uint      `gorm:"primaryKey;autoIncrement:false"`
	Payload    []byte    `gorm:"column:payload;not null"`
	EnrolledAt time.Time `gorm:"column:enrolled_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (EnrolledFace) TableName() string {
	return "enrolled_faces"
}

// MetricsAggregation is the raw aggregate over all verification logs.
type MetricsAggregation struct {
	TotalCount        int64
	SuccessCount      int64
	MatchCount        int64
	AverageSimilarity float64
	AverageLatencyMs  float64
}
