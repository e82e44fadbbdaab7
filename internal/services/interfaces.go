package services

import (
	"context"
	"time"

	domain "github.com/janseva/api/internal/domain"
)

// CheckOutcome pairs the persisted record ID with the full check result.
type CheckOutcome struct {
	RecordID string
	Result   domain.GuaranteeCheckResult
}

// GuaranteeService runs the pre-submission guarantee check for a citizen request.
type GuaranteeService interface {
	// RunCheck evaluates the request, persists the check record, and dispatches
	// any compiled backend actions. It is a point-in-time advisory check and
	// performs no retries.
	RunCheck(ctx context.Context, request domain.CheckRequest) (CheckOutcome, error)
}

// CheckRecordService advances a persisted check record through its lifecycle.
type CheckRecordService interface {
	// Acknowledge marks the record as acknowledged by its owner. Repeated
	// acknowledgment is rejected, not absorbed.
	Acknowledge(ctx context.Context, userID, recordID string) (domain.CheckRecord, error)
	// RecordSubmission links the record to the real business entity created by
	// the caller. Requires prior acknowledgment.
	RecordSubmission(ctx context.Context, userID, recordID, linkedRequestID string) (domain.CheckRecord, error)
}

// LockQuery identifies one logical, deduplicatable request instance.
type LockQuery struct {
	UserID      string
	ServiceType domain.ServiceType
	RequestType domain.RequestType
	Identifier  string
}

// LockStatus is the result of consulting the lock manager for a key.
type LockStatus struct {
	IsLocked          bool
	LockKey           string
	ExistingRequestID string
	ExpiresAt         *time.Time
}

// LockRequest asks for a new submission lock. TTL falls back to the request
// type's configured lock duration when zero.
type LockRequest struct {
	UserID          string
	ServiceType     domain.ServiceType
	RequestType     domain.RequestType
	Identifier      string
	TTL             time.Duration
	LinkedRequestID string
}

// LockService manages the keyed, TTL-bounded submission locks.
type LockService interface {
	CheckLock(ctx context.Context, query LockQuery) (LockStatus, error)
	CreateLock(ctx context.Context, request LockRequest) (domain.RequestLock, error)
}

// ActionDispatcher hands compiled backend actions to the back office.
type ActionDispatcher interface {
	DispatchAction(ctx context.Context, checkID string, request domain.CheckRequest, action domain.BackendAction) (string, error)
}
