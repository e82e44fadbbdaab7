package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/janseva/api/internal/domain"
	"github.com/janseva/api/internal/repositories"
)

// CheckRecordServiceDeps bundles collaborators for the lifecycle service.
type CheckRecordServiceDeps struct {
	Records repositories.CheckRecordRepository
	Clock   func() time.Time
}

type checkRecordService struct {
	records repositories.CheckRecordRepository
	clock   func() time.Time
}

// NewCheckRecordService constructs the lifecycle service owning acknowledgment
// and submission transitions.
func NewCheckRecordService(deps CheckRecordServiceDeps) (CheckRecordService, error) {
	if deps.Records == nil {
		return nil, errors.New("check record service: repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &checkRecordService{
		records: deps.Records,
		clock: func() time.Time {
			return clock().UTC()
		},
	}, nil
}

func (s *checkRecordService) Acknowledge(ctx context.Context, userID, recordID string) (domain.CheckRecord, error) {
	if err := s.authorize(ctx, userID, recordID); err != nil {
		return domain.CheckRecord{}, err
	}

	record, err := s.records.MarkAcknowledged(ctx, recordID, s.clock())
	if err != nil {
		if errors.Is(err, repositories.ErrCheckRecordAlreadyAcknowledged) {
			return domain.CheckRecord{}, ErrCheckRecordAlreadyAcknowledged
		}
		if isNotFound(err) {
			return domain.CheckRecord{}, ErrCheckRecordNotFound
		}
		return domain.CheckRecord{}, fmt.Errorf("acknowledge check record: %w", err)
	}
	return record, nil
}

func (s *checkRecordService) RecordSubmission(ctx context.Context, userID, recordID, linkedRequestID string) (domain.CheckRecord, error) {
	linkedRequestID = strings.TrimSpace(linkedRequestID)
	if linkedRequestID == "" {
		return domain.CheckRecord{}, fmt.Errorf("%w: linked request id is required", ErrGuaranteeInvalidInput)
	}
	if err := s.authorize(ctx, userID, recordID); err != nil {
		return domain.CheckRecord{}, err
	}

	record, err := s.records.MarkSubmitted(ctx, recordID, linkedRequestID, s.clock())
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrCheckRecordNotAcknowledged):
			return domain.CheckRecord{}, ErrCheckRecordNotAcknowledged
		case errors.Is(err, repositories.ErrCheckRecordAlreadySubmitted):
			return domain.CheckRecord{}, ErrCheckRecordAlreadySubmitted
		case isNotFound(err):
			return domain.CheckRecord{}, ErrCheckRecordNotFound
		}
		return domain.CheckRecord{}, fmt.Errorf("record submission: %w", err)
	}
	return record, nil
}

// authorize resolves the record and hides foreign records behind NotFound so a
// citizen cannot probe for other citizens' check IDs.
func (s *checkRecordService) authorize(ctx context.Context, userID, recordID string) error {
	userID = strings.TrimSpace(userID)
	recordID = strings.TrimSpace(recordID)
	if userID == "" || recordID == "" {
		return ErrCheckRecordNotFound
	}

	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if isNotFound(err) {
			return ErrCheckRecordNotFound
		}
		return fmt.Errorf("find check record: %w", err)
	}
	if record.UserID != userID {
		return ErrCheckRecordNotFound
	}
	return nil
}
