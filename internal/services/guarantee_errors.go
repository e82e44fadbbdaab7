package services

import "errors"

var (
	// ErrGuaranteeInvalidInput indicates a malformed or mismatched check request.
	ErrGuaranteeInvalidInput = errors.New("guarantee: invalid input")
	// ErrGuaranteeCheckFailed indicates an evaluator or store failure; the check
	// produced no partial result.
	ErrGuaranteeCheckFailed = errors.New("guarantee: check failed")

	// ErrCheckRecordNotFound indicates the record does not exist or belongs to
	// another citizen.
	ErrCheckRecordNotFound = errors.New("check record: not found")
	// ErrCheckRecordAlreadyAcknowledged indicates a repeated acknowledgment.
	ErrCheckRecordAlreadyAcknowledged = errors.New("check record: already acknowledged")
	// ErrCheckRecordNotAcknowledged indicates a submission attempt before acknowledgment.
	ErrCheckRecordNotAcknowledged = errors.New("check record: acknowledgment required")
	// ErrCheckRecordAlreadySubmitted indicates the record already links a submission.
	ErrCheckRecordAlreadySubmitted = errors.New("check record: already submitted")

	// ErrLockInvalidInput indicates malformed lock parameters.
	ErrLockInvalidInput = errors.New("request lock: invalid input")
	// ErrLockAlreadyHeld indicates a live lock exists for the derived key.
	ErrLockAlreadyHeld = errors.New("request lock: already held")
)
