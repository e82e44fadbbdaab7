package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "github.com/janseva/api/internal/domain"
	"github.com/janseva/api/internal/repositories"
)

// GuaranteeServiceDeps bundles collaborators required to construct the guarantee service.
type GuaranteeServiceDeps struct {
	Documents   repositories.CitizenDocumentRepository
	Alerts      repositories.SystemAlertRepository
	Connections repositories.ConnectionApplicationRepository
	Grievances  repositories.GrievanceRepository
	Payments    repositories.PaymentRepository
	Records     repositories.CheckRecordRepository

	// Dispatcher is optional; without it compiled actions are logged only.
	Dispatcher ActionDispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
	IDGen      func() string
}

type guaranteeService struct {
	evaluators criteriaEvaluators
	records    repositories.CheckRecordRepository
	dispatcher ActionDispatcher
	logger     *zap.Logger
	clock      func() time.Time
	idGen      func() string
}

// NewGuaranteeService constructs the check engine on top of the read-side
// repositories and the check record store.
func NewGuaranteeService(deps GuaranteeServiceDeps) (GuaranteeService, error) {
	if deps.Documents == nil || deps.Alerts == nil || deps.Connections == nil || deps.Grievances == nil || deps.Payments == nil {
		return nil, errors.New("guarantee service: all evaluator repositories are required")
	}
	if deps.Records == nil {
		return nil, errors.New("guarantee service: check record repository is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGen
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &guaranteeService{
		evaluators: criteriaEvaluators{
			documents:   deps.Documents,
			alerts:      deps.Alerts,
			connections: deps.Connections,
			grievances:  deps.Grievances,
			payments:    deps.Payments,
		},
		records:    deps.Records,
		dispatcher: deps.Dispatcher,
		logger:     logger.Named("guarantee"),
		clock: func() time.Time {
			return clock().UTC()
		},
		idGen: idGen,
	}, nil
}

func (s *guaranteeService) RunCheck(ctx context.Context, request domain.CheckRequest) (CheckOutcome, error) {
	cfg, err := s.validateRequest(&request)
	if err != nil {
		return CheckOutcome{}, err
	}

	now := s.clock()
	details := domain.CheckDetails{CheckedAt: now}

	// The four evaluators read disjoint data; the Wait call is the
	// synchronization barrier before compilation.
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		result, err := s.evaluators.evaluateDocuments(groupCtx, request, cfg)
		if err != nil {
			return err
		}
		details.Documents = result
		return nil
	})
	group.Go(func() error {
		result, err := s.evaluators.evaluateAvailability(groupCtx, request, cfg)
		if err != nil {
			return err
		}
		details.Availability = result
		return nil
	})
	group.Go(func() error {
		result, err := s.evaluators.evaluateDependency(groupCtx, request, cfg)
		if err != nil {
			return err
		}
		details.Dependency = result
		return nil
	})
	group.Go(func() error {
		result, err := s.evaluators.evaluateDuplicates(groupCtx, request, cfg, now)
		if err != nil {
			return err
		}
		details.Duplicates = result
		return nil
	})
	if err := group.Wait(); err != nil {
		return CheckOutcome{}, fmt.Errorf("%w: %s", ErrGuaranteeCheckFailed, err)
	}

	reasons, actions := compileReasons(details)
	status := resolveStatus(reasons, actions)
	message := composeMessage(status, reasons, actions)

	result := domain.GuaranteeCheckResult{
		GuaranteeStatus: status,
		RequestType:     request.RequestType,
		ServiceType:     request.ServiceType,
		BlockingReasons: reasons,
		BackendActions:  actions,
		CheckDetails:    details,
		CitizenMessage:  message,
	}

	record := domain.CheckRecord{
		ID:              s.idGen(),
		UserID:          request.UserID,
		KioskID:         request.KioskID,
		RequestType:     request.RequestType,
		ServiceType:     request.ServiceType,
		GuaranteeStatus: status,
		BlockingReasons: reasons,
		CheckDetails:    details,
		CreatedAt:       now,
	}
	// Guaranteed checks need no citizen decision; persist them acknowledged so
	// the submission gate applies uniformly.
	if status == domain.GuaranteeStatusGuaranteed {
		acknowledgedAt := now
		record.CitizenAcknowledged = true
		record.AcknowledgedAt = &acknowledgedAt
	}
	if err := s.records.Insert(ctx, record); err != nil {
		return CheckOutcome{}, fmt.Errorf("%w: persist check record: %s", ErrGuaranteeCheckFailed, err)
	}

	s.dispatchActions(ctx, record.ID, request, status, actions)

	return CheckOutcome{RecordID: record.ID, Result: result}, nil
}

// dispatchActions hands compiled actions to the back office. Dispatch is
// advisory; failures are logged and never fail the check.
func (s *guaranteeService) dispatchActions(ctx context.Context, recordID string, request domain.CheckRequest, status domain.GuaranteeStatus, actions []domain.BackendAction) {
	if status != domain.GuaranteeStatusNotGuaranteed || len(actions) == 0 {
		return
	}
	if s.dispatcher == nil {
		s.logger.Info("no action dispatcher configured",
			zap.String("check_id", recordID),
			zap.Int("actions", len(actions)))
		return
	}
	for _, action := range actions {
		messageID, err := s.dispatcher.DispatchAction(ctx, recordID, request, action)
		if err != nil {
			s.logger.Warn("backend action dispatch failed",
				zap.String("check_id", recordID),
				zap.String("action_type", action.ActionType),
				zap.Error(err))
			continue
		}
		s.logger.Info("backend action dispatched",
			zap.String("check_id", recordID),
			zap.String("action_type", action.ActionType),
			zap.String("message_id", messageID))
	}
}

func (s *guaranteeService) validateRequest(request *domain.CheckRequest) (domain.RequestTypeConfig, error) {
	request.UserID = strings.TrimSpace(request.UserID)
	request.KioskID = strings.TrimSpace(request.KioskID)
	if request.UserID == "" {
		return domain.RequestTypeConfig{}, fmt.Errorf("%w: user id is required", ErrGuaranteeInvalidInput)
	}
	if !domain.ValidRequestType(request.RequestType) {
		return domain.RequestTypeConfig{}, fmt.Errorf("%w: unknown request type %q", ErrGuaranteeInvalidInput, request.RequestType)
	}
	if !domain.ValidServiceType(request.ServiceType) {
		return domain.RequestTypeConfig{}, fmt.Errorf("%w: unknown service type %q", ErrGuaranteeInvalidInput, request.ServiceType)
	}
	cfg, ok := domain.ConfigForRequestType(request.RequestType)
	if !ok {
		return domain.RequestTypeConfig{}, fmt.Errorf("%w: no configuration for request type %q", ErrGuaranteeInvalidInput, request.RequestType)
	}

	switch request.RequestType {
	case domain.RequestTypeBillPayment:
		if request.Connection != nil || request.Complaint != nil {
			return domain.RequestTypeConfig{}, fmt.Errorf("%w: payload does not match request type", ErrGuaranteeInvalidInput)
		}
		if request.Payment == nil || strings.TrimSpace(request.Payment.BillID) == "" {
			return domain.RequestTypeConfig{}, fmt.Errorf("%w: bill id is required", ErrGuaranteeInvalidInput)
		}
	case domain.RequestTypeNewConnection:
		if request.Payment != nil || request.Complaint != nil {
			return domain.RequestTypeConfig{}, fmt.Errorf("%w: payload does not match request type", ErrGuaranteeInvalidInput)
		}
		if request.Connection == nil || strings.TrimSpace(request.Connection.Pincode) == "" {
			return domain.RequestTypeConfig{}, fmt.Errorf("%w: pincode is required", ErrGuaranteeInvalidInput)
		}
	case domain.RequestTypeComplaintRegistration:
		if request.Payment != nil || request.Connection != nil {
			return domain.RequestTypeConfig{}, fmt.Errorf("%w: payload does not match request type", ErrGuaranteeInvalidInput)
		}
		if request.Complaint == nil || strings.TrimSpace(request.Complaint.Category) == "" {
			return domain.RequestTypeConfig{}, fmt.Errorf("%w: complaint category is required", ErrGuaranteeInvalidInput)
		}
	default:
		if request.Payment != nil || request.Connection != nil || request.Complaint != nil {
			return domain.RequestTypeConfig{}, fmt.Errorf("%w: payload does not match request type", ErrGuaranteeInvalidInput)
		}
	}
	return cfg, nil
}
