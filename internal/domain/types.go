package domain

import (
	"strings"
	"time"
)

// RequestType identifies the kind of citizen request being checked.
type RequestType string

const (
	RequestTypeBillPayment           RequestType = "BILL_PAYMENT"
	RequestTypeNewConnection         RequestType = "NEW_CONNECTION"
	RequestTypeComplaintRegistration RequestType = "COMPLAINT_REGISTRATION"
	RequestTypeDocumentRequest       RequestType = "DOCUMENT_REQUEST"
	RequestTypeMeterReading          RequestType = "METER_READING"
)

// ServiceType identifies the utility a request targets.
type ServiceType string

const (
	ServiceTypeElectricity ServiceType = "ELECTRICITY"
	ServiceTypeGas         ServiceType = "GAS"
	ServiceTypeWater       ServiceType = "WATER"
	ServiceTypeMunicipal   ServiceType = "MUNICIPAL"
)

// GuaranteeStatus is the tri-state verdict of a guarantee check.
type GuaranteeStatus string

const (
	GuaranteeStatusGuaranteed    GuaranteeStatus = "GUARANTEED"
	GuaranteeStatusNotGuaranteed GuaranteeStatus = "NOT_GUARANTEED"
	GuaranteeStatusBlocked       GuaranteeStatus = "BLOCKED"
)

// ReasonCategory classifies a blocking reason by the evaluator family that raised it.
type ReasonCategory string

const (
	ReasonCategoryDocument  ReasonCategory = "DOCUMENT"
	ReasonCategoryService   ReasonCategory = "SERVICE"
	ReasonCategoryBackend   ReasonCategory = "BACKEND"
	ReasonCategoryDuplicate ReasonCategory = "DUPLICATE"
	ReasonCategoryOther     ReasonCategory = "OTHER"
)

// ReasonSeverity distinguishes hard failures from advisory warnings.
type ReasonSeverity string

const (
	SeverityWarning ReasonSeverity = "WARNING"
	SeverityError   ReasonSeverity = "ERROR"
)

// BilingualText carries the English and Hindi variants of a citizen-facing string.
// Both variants travel end-to-end; neither is derived from the other at runtime.
type BilingualText struct {
	En string
	Hi string
}

// IsZero reports whether both variants are empty.
func (t BilingualText) IsZero() bool {
	return strings.TrimSpace(t.En) == "" && strings.TrimSpace(t.Hi) == ""
}

// PaymentDetails is the typed payload for BILL_PAYMENT checks.
type PaymentDetails struct {
	BillID string
	Amount int64
}

// ConnectionDetails is the typed payload for NEW_CONNECTION checks.
type ConnectionDetails struct {
	Pincode string
	Address string
}

// ComplaintDetails is the typed payload for COMPLAINT_REGISTRATION checks.
type ComplaintDetails struct {
	Category    string
	Description string
}

// CheckRequest is the immutable input to a guarantee check. Exactly one payload
// pointer matching RequestType is set; the others stay nil.
type CheckRequest struct {
	RequestType RequestType
	ServiceType ServiceType
	UserID      string
	KioskID     string

	Payment    *PaymentDetails
	Connection *ConnectionDetails
	Complaint  *ComplaintDetails
}

// ValidationResult is the outcome of a single criteria evaluator.
// Invariant: Passed == (len(Issues) == 0).
type ValidationResult struct {
	Passed  bool
	Details []string
	Issues  []string
}

// BlockingReason is a structured, bilingual explanation of a failing criterion.
type BlockingReason struct {
	Code           string
	Message        BilingualText
	Category       ReasonCategory
	Severity       ReasonSeverity
	ResolutionHint *BilingualText
}

// BackendAction is work the backend commits to performing so the citizen
// need not resubmit. Priority orders downstream queues only.
type BackendAction struct {
	ActionType          string
	Description         BilingualText
	Priority            int
	ScheduledFor        *time.Time
	EstimatedCompletion BilingualText
}

// CheckDetails bundles the four raw evaluator results with the check timestamp.
type CheckDetails struct {
	Documents    ValidationResult
	Availability ValidationResult
	Dependency   ValidationResult
	Duplicates   ValidationResult
	CheckedAt    time.Time
}

// CitizenMessage is the composed bilingual summary shown to the citizen.
type CitizenMessage struct {
	Title   BilingualText
	Message BilingualText
}

// GuaranteeCheckResult is the sole return value of a guarantee check.
type GuaranteeCheckResult struct {
	GuaranteeStatus GuaranteeStatus
	RequestType     RequestType
	ServiceType     ServiceType
	BlockingReasons []BlockingReason
	BackendActions  []BackendAction
	CheckDetails    CheckDetails
	CitizenMessage  CitizenMessage
}

// CheckRecord is the persisted lifecycle record of a guarantee check.
// It advances CREATED -> ACKNOWLEDGED -> SUBMITTED and is owned exclusively
// by the check record service after creation.
type CheckRecord struct {
	ID                  string
	UserID              string
	KioskID             string
	RequestType         RequestType
	ServiceType         ServiceType
	GuaranteeStatus     GuaranteeStatus
	BlockingReasons     []BlockingReason
	CheckDetails        CheckDetails
	CitizenAcknowledged bool
	AcknowledgedAt      *time.Time
	RequestSubmitted    bool
	SubmittedAt         *time.Time
	LinkedRequestID     string
	CreatedAt           time.Time
}

// RequestLock is the persisted short-lived exclusivity record suppressing
// duplicate submissions of one logical request. Expiry is a read-time
// predicate on ExpiresAt; locks are never deleted by this subsystem.
type RequestLock struct {
	ID              string
	LockKey         string
	UserID          string
	ServiceType     ServiceType
	RequestType     RequestType
	IsActive        bool
	ExpiresAt       time.Time
	LinkedRequestID string
	CreatedAt       time.Time
}

// Live reports whether the lock still suppresses submissions at the given instant.
func (l RequestLock) Live(now time.Time) bool {
	return l.IsActive && l.ExpiresAt.After(now)
}

// SystemAlert is an operational alert raised against a utility service.
type SystemAlert struct {
	ID          string
	ServiceType ServiceType
	Severity    string
	Message     string
	Active      bool
	RaisedAt    time.Time
}

// AlertSeverityCritical marks alerts that make a service unavailable for new requests.
const AlertSeverityCritical = "critical"

// CitizenDocument records an uploaded document kind for a citizen.
// Verification is a presence flag; file content lives elsewhere.
type CitizenDocument struct {
	ID         string
	UserID     string
	Kind       string
	UploadedAt time.Time
}

// ConnectionApplication is the read-side projection of a pending utility connection.
type ConnectionApplication struct {
	ID          string
	UserID      string
	ServiceType ServiceType
	Pincode     string
	Address     string
	Status      string
	CreatedAt   time.Time
}

// Grievance is the read-side projection of a registered complaint.
type Grievance struct {
	ID          string
	UserID      string
	ServiceType ServiceType
	Category    string
	Status      string
	CreatedAt   time.Time
}

// Payment is the read-side projection of a bill payment attempt.
type Payment struct {
	ID        string
	UserID    string
	BillID    string
	Status    string
	CreatedAt time.Time
}

// Payment statuses that make a later payment on the same bill redundant.
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusSuccess = "SUCCESS"
)

// Application/grievance statuses considered in-flight for duplicate detection.
const (
	ApplicationStatusPending = "PENDING"
	GrievanceStatusOpen      = "OPEN"
)

// ValidRequestType reports whether the value is a known request type.
func ValidRequestType(t RequestType) bool {
	switch t {
	case RequestTypeBillPayment, RequestTypeNewConnection, RequestTypeComplaintRegistration,
		RequestTypeDocumentRequest, RequestTypeMeterReading:
		return true
	}
	return false
}

// ValidServiceType reports whether the value is a known service type.
func ValidServiceType(t ServiceType) bool {
	switch t {
	case ServiceTypeElectricity, ServiceTypeGas, ServiceTypeWater, ServiceTypeMunicipal:
		return true
	}
	return false
}
