package repositories

import (
	"context"
	"time"

	domain "github.com/janseva/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CheckRecordRepository persists guarantee check records and their lifecycle transitions.
type CheckRecordRepository interface {
	Insert(ctx context.Context, record domain.CheckRecord) error
	FindByID(ctx context.Context, recordID string) (domain.CheckRecord, error)
	// MarkAcknowledged sets the acknowledgment flag; returns a conflict error
	// when the record is already acknowledged.
	MarkAcknowledged(ctx context.Context, recordID string, at time.Time) (domain.CheckRecord, error)
	// MarkSubmitted records the submission link; returns a conflict error when
	// the record is unacknowledged or already submitted.
	MarkSubmitted(ctx context.Context, recordID string, linkedRequestID string, at time.Time) (domain.CheckRecord, error)
}

// RequestLockRepository persists keyed, TTL-bounded submission locks.
// Create must behave as an atomic test-and-set per lock key: when a live lock
// with the same key exists it returns a conflict error without writing.
type RequestLockRepository interface {
	Create(ctx context.Context, lock domain.RequestLock) (domain.RequestLock, error)
	FindLiveByKey(ctx context.Context, lockKey string, now time.Time) (domain.RequestLock, error)
}

// CitizenDocumentRepository lists uploaded document kinds for a citizen.
type CitizenDocumentRepository interface {
	ListKindsByUser(ctx context.Context, userID string) ([]string, error)
}

// SystemAlertRepository queries active operational alerts per service.
type SystemAlertRepository interface {
	FindActiveCritical(ctx context.Context, service domain.ServiceType) ([]domain.SystemAlert, error)
}

// ConnectionApplicationRepository queries pending utility connection applications.
type ConnectionApplicationRepository interface {
	CountPendingByRegion(ctx context.Context, service domain.ServiceType, region string) (int, error)
	FindPendingByAddress(ctx context.Context, userID string, service domain.ServiceType, normalizedAddress string, since time.Time) (domain.ConnectionApplication, error)
}

// GrievanceRepository queries registered complaints.
type GrievanceRepository interface {
	CountOpenByService(ctx context.Context, service domain.ServiceType) (int, error)
	FindOpenByCategory(ctx context.Context, userID string, service domain.ServiceType, category string, since time.Time) (domain.Grievance, error)
}

// PaymentRepository queries bill payment attempts.
type PaymentRepository interface {
	FindLiveByBill(ctx context.Context, userID string, billID string, since time.Time) (domain.Payment, error)
}

// HealthRepository aggregates dependency probes into a readiness report.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
