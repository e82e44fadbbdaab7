package repositories

import "errors"

var (
	// ErrCheckRecordAlreadyAcknowledged indicates a repeated acknowledgment of the same record.
	ErrCheckRecordAlreadyAcknowledged = errors.New("check record repository: already acknowledged")
	// ErrCheckRecordNotAcknowledged indicates a submission attempt before acknowledgment.
	ErrCheckRecordNotAcknowledged = errors.New("check record repository: not acknowledged")
	// ErrCheckRecordAlreadySubmitted indicates the record already links a submitted request.
	ErrCheckRecordAlreadySubmitted = errors.New("check record repository: already submitted")
	// ErrLockAlreadyHeld indicates a live lock exists for the requested lock key.
	ErrLockAlreadyHeld = errors.New("request lock repository: lock already held")
)
