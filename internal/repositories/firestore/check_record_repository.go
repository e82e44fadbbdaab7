package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/janseva/api/internal/domain"
	pfirestore "github.com/janseva/api/internal/platform/firestore"
	"github.com/janseva/api/internal/repositories"
)

const checkRecordsCollection = "guarantee_checks"

// CheckRecordRepository persists guarantee check records in Firestore.
type CheckRecordRepository struct {
	provider *pfirestore.Provider
}

// NewCheckRecordRepository constructs a Firestore-backed check record repository.
func NewCheckRecordRepository(provider *pfirestore.Provider) (*CheckRecordRepository, error) {
	if provider == nil {
		return nil, errors.New("check record repository: firestore provider is required")
	}
	return &CheckRecordRepository{provider: provider}, nil
}

// Insert creates a new check record document. The record ID must be unique.
func (r *CheckRecordRepository) Insert(ctx context.Context, record domain.CheckRecord) error {
	docRef, err := r.document(ctx, record.ID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodeCheckRecord(record)); err != nil {
		return pfirestore.WrapError("check_record.insert", err)
	}
	return nil
}

// FindByID loads a check record by its identifier.
func (r *CheckRecordRepository) FindByID(ctx context.Context, recordID string) (domain.CheckRecord, error) {
	docRef, err := r.document(ctx, recordID)
	if err != nil {
		return domain.CheckRecord{}, err
	}
	snap, err := docRef.Get(ctx)
	if err != nil {
		return domain.CheckRecord{}, pfirestore.WrapError("check_record.find", err)
	}
	var doc checkRecordDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.CheckRecord{}, fmt.Errorf("check record repository: decode document %s: %w", snap.Ref.ID, err)
	}
	return decodeCheckRecord(snap.Ref.ID, doc), nil
}

// MarkAcknowledged transitions the record to the acknowledged state exactly once.
func (r *CheckRecordRepository) MarkAcknowledged(ctx context.Context, recordID string, at time.Time) (domain.CheckRecord, error) {
	docRef, err := r.document(ctx, recordID)
	if err != nil {
		return domain.CheckRecord{}, err
	}
	at = at.UTC()

	var updated domain.CheckRecord
	txErr := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var doc checkRecordDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("check record repository: decode document %s: %w", snap.Ref.ID, err)
		}
		if doc.CitizenAcknowledged {
			return repositories.ErrCheckRecordAlreadyAcknowledged
		}
		doc.CitizenAcknowledged = true
		doc.AcknowledgedAt = &at
		if err := tx.Set(docRef, doc); err != nil {
			return err
		}
		updated = decodeCheckRecord(snap.Ref.ID, doc)
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, repositories.ErrCheckRecordAlreadyAcknowledged) {
			return domain.CheckRecord{}, repositories.ErrCheckRecordAlreadyAcknowledged
		}
		return domain.CheckRecord{}, pfirestore.WrapError("check_record.acknowledge", txErr)
	}
	return updated, nil
}

// MarkSubmitted links the real request to the record. Requires prior acknowledgment.
func (r *CheckRecordRepository) MarkSubmitted(ctx context.Context, recordID string, linkedRequestID string, at time.Time) (domain.CheckRecord, error) {
	docRef, err := r.document(ctx, recordID)
	if err != nil {
		return domain.CheckRecord{}, err
	}
	linkedRequestID = strings.TrimSpace(linkedRequestID)
	if linkedRequestID == "" {
		return domain.CheckRecord{}, errors.New("check record repository: linked request id is required")
	}
	at = at.UTC()

	var updated domain.CheckRecord
	txErr := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var doc checkRecordDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("check record repository: decode document %s: %w", snap.Ref.ID, err)
		}
		if !doc.CitizenAcknowledged {
			return repositories.ErrCheckRecordNotAcknowledged
		}
		if doc.RequestSubmitted {
			return repositories.ErrCheckRecordAlreadySubmitted
		}
		doc.RequestSubmitted = true
		doc.SubmittedAt = &at
		doc.LinkedRequestID = linkedRequestID
		if err := tx.Set(docRef, doc); err != nil {
			return err
		}
		updated = decodeCheckRecord(snap.Ref.ID, doc)
		return nil
	})
	if txErr != nil {
		switch {
		case errors.Is(txErr, repositories.ErrCheckRecordNotAcknowledged):
			return domain.CheckRecord{}, repositories.ErrCheckRecordNotAcknowledged
		case errors.Is(txErr, repositories.ErrCheckRecordAlreadySubmitted):
			return domain.CheckRecord{}, repositories.ErrCheckRecordAlreadySubmitted
		}
		return domain.CheckRecord{}, pfirestore.WrapError("check_record.submit", txErr)
	}
	return updated, nil
}

func (r *CheckRecordRepository) document(ctx context.Context, recordID string) (*firestore.DocumentRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("check record repository not initialised")
	}
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return nil, errors.New("check record repository: record id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(checkRecordsCollection).Doc(recordID), nil
}

type checkRecordDocument struct {
	UserID              string                   `firestore:"userId"`
	KioskID             string                   `firestore:"kioskId,omitempty"`
	RequestType         string                   `firestore:"requestType"`
	ServiceType         string                   `firestore:"serviceType"`
	GuaranteeStatus     string                   `firestore:"guaranteeStatus"`
	BlockingReasons     []blockingReasonDocument `firestore:"blockingReasons"`
	CheckDetails        checkDetailsDocument     `firestore:"checkDetails"`
	CitizenAcknowledged bool                     `firestore:"citizenAcknowledged"`
	AcknowledgedAt      *time.Time               `firestore:"acknowledgedAt,omitempty"`
	RequestSubmitted    bool                     `firestore:"requestSubmitted"`
	SubmittedAt         *time.Time               `firestore:"submittedAt,omitempty"`
	LinkedRequestID     string                   `firestore:"linkedRequestId,omitempty"`
	CreatedAt           time.Time                `firestore:"createdAt"`
}

type blockingReasonDocument struct {
	Code             string `firestore:"code"`
	Message          string `firestore:"message"`
	MessageHi        string `firestore:"messageHi"`
	Category         string `firestore:"category"`
	Severity         string `firestore:"severity"`
	ResolutionHint   string `firestore:"resolutionHint,omitempty"`
	ResolutionHintHi string `firestore:"resolutionHintHi,omitempty"`
}

type checkDetailsDocument struct {
	Documents    validationResultDocument `firestore:"documents"`
	Availability validationResultDocument `firestore:"availability"`
	Dependency   validationResultDocument `firestore:"dependency"`
	Duplicates   validationResultDocument `firestore:"duplicates"`
	CheckedAt    time.Time                `firestore:"checkedAt"`
}

type validationResultDocument struct {
	Passed  bool     `firestore:"passed"`
	Details []string `firestore:"details"`
	Issues  []string `firestore:"issues"`
}

func encodeCheckRecord(record domain.CheckRecord) checkRecordDocument {
	doc := checkRecordDocument{
		UserID:              strings.TrimSpace(record.UserID),
		KioskID:             strings.TrimSpace(record.KioskID),
		RequestType:         string(record.RequestType),
		ServiceType:         string(record.ServiceType),
		GuaranteeStatus:     string(record.GuaranteeStatus),
		BlockingReasons:     make([]blockingReasonDocument, 0, len(record.BlockingReasons)),
		CheckDetails:        encodeCheckDetails(record.CheckDetails),
		CitizenAcknowledged: record.CitizenAcknowledged,
		RequestSubmitted:    record.RequestSubmitted,
		LinkedRequestID:     strings.TrimSpace(record.LinkedRequestID),
		CreatedAt:           record.CreatedAt.UTC(),
	}
	for _, reason := range record.BlockingReasons {
		doc.BlockingReasons = append(doc.BlockingReasons, encodeBlockingReason(reason))
	}
	if record.AcknowledgedAt != nil && !record.AcknowledgedAt.IsZero() {
		at := record.AcknowledgedAt.UTC()
		doc.AcknowledgedAt = &at
	}
	if record.SubmittedAt != nil && !record.SubmittedAt.IsZero() {
		at := record.SubmittedAt.UTC()
		doc.SubmittedAt = &at
	}
	return doc
}

func decodeCheckRecord(recordID string, doc checkRecordDocument) domain.CheckRecord {
	record := domain.CheckRecord{
		ID:                  recordID,
		UserID:              doc.UserID,
		KioskID:             doc.KioskID,
		RequestType:         domain.RequestType(doc.RequestType),
		ServiceType:         domain.ServiceType(doc.ServiceType),
		GuaranteeStatus:     domain.GuaranteeStatus(doc.GuaranteeStatus),
		BlockingReasons:     make([]domain.BlockingReason, 0, len(doc.BlockingReasons)),
		CheckDetails:        decodeCheckDetails(doc.CheckDetails),
		CitizenAcknowledged: doc.CitizenAcknowledged,
		RequestSubmitted:    doc.RequestSubmitted,
		LinkedRequestID:     doc.LinkedRequestID,
		CreatedAt:           doc.CreatedAt.UTC(),
	}
	for _, reason := range doc.BlockingReasons {
		record.BlockingReasons = append(record.BlockingReasons, decodeBlockingReason(reason))
	}
	if doc.AcknowledgedAt != nil {
		at := doc.AcknowledgedAt.UTC()
		record.AcknowledgedAt = &at
	}
	if doc.SubmittedAt != nil {
		at := doc.SubmittedAt.UTC()
		record.SubmittedAt = &at
	}
	return record
}

func encodeBlockingReason(reason domain.BlockingReason) blockingReasonDocument {
	doc := blockingReasonDocument{
		Code:      reason.Code,
		Message:   reason.Message.En,
		MessageHi: reason.Message.Hi,
		Category:  string(reason.Category),
		Severity:  string(reason.Severity),
	}
	if reason.ResolutionHint != nil {
		doc.ResolutionHint = reason.ResolutionHint.En
		doc.ResolutionHintHi = reason.ResolutionHint.Hi
	}
	return doc
}

func decodeBlockingReason(doc blockingReasonDocument) domain.BlockingReason {
	reason := domain.BlockingReason{
		Code:     doc.Code,
		Message:  domain.BilingualText{En: doc.Message, Hi: doc.MessageHi},
		Category: domain.ReasonCategory(doc.Category),
		Severity: domain.ReasonSeverity(doc.Severity),
	}
	if doc.ResolutionHint != "" || doc.ResolutionHintHi != "" {
		reason.ResolutionHint = &domain.BilingualText{En: doc.ResolutionHint, Hi: doc.ResolutionHintHi}
	}
	return reason
}

func encodeCheckDetails(details domain.CheckDetails) checkDetailsDocument {
	return checkDetailsDocument{
		Documents:    encodeValidationResult(details.Documents),
		Availability: encodeValidationResult(details.Availability),
		Dependency:   encodeValidationResult(details.Dependency),
		Duplicates:   encodeValidationResult(details.Duplicates),
		CheckedAt:    details.CheckedAt.UTC(),
	}
}

func decodeCheckDetails(doc checkDetailsDocument) domain.CheckDetails {
	return domain.CheckDetails{
		Documents:    decodeValidationResult(doc.Documents),
		Availability: decodeValidationResult(doc.Availability),
		Dependency:   decodeValidationResult(doc.Dependency),
		Duplicates:   decodeValidationResult(doc.Duplicates),
		CheckedAt:    doc.CheckedAt.UTC(),
	}
}

func encodeValidationResult(result domain.ValidationResult) validationResultDocument {
	return validationResultDocument{
		Passed:  result.Passed,
		Details: copyStrings(result.Details),
		Issues:  copyStrings(result.Issues),
	}
}

func decodeValidationResult(doc validationResultDocument) domain.ValidationResult {
	return domain.ValidationResult{
		Passed:  doc.Passed,
		Details: copyStrings(doc.Details),
		Issues:  copyStrings(doc.Issues),
	}
}

func copyStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
