package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"

	domain "github.com/janseva/api/internal/domain"
	"github.com/janseva/api/internal/repositories"
)

// Issue code prefixes emitted by the evaluators. The reason compiler maps them
// to bilingual blocking reasons; new codes must be added to both places.
const (
	issueMissingDocument    = "MISSING_DOCUMENT"
	issueServiceDisruption  = "SERVICE_DISRUPTION"
	issueAreaNotServiceable = "AREA_NOT_SERVICEABLE"
	issueTechnicianQueue    = "TECHNICIAN_QUEUE_HIGH"
	issueSupportQueue       = "SUPPORT_QUEUE_HIGH"
	issueDuplicatePayment   = "DUPLICATE_PAYMENT"
	issueDuplicateConn      = "DUPLICATE_CONNECTION"
	issueDuplicateComplaint = "DUPLICATE_COMPLAINT"
)

// criteriaEvaluators holds the read-side collaborators of the four checks.
// Each evaluation is a pure function of the request, the static per-type
// configuration, and a single store read; the four run concurrently.
type criteriaEvaluators struct {
	documents   repositories.CitizenDocumentRepository
	alerts      repositories.SystemAlertRepository
	connections repositories.ConnectionApplicationRepository
	grievances  repositories.GrievanceRepository
	payments    repositories.PaymentRepository
}

func passedResult(details ...string) domain.ValidationResult {
	return domain.ValidationResult{Passed: true, Details: details}
}

func failedResult(details []string, issues []string) domain.ValidationResult {
	return domain.ValidationResult{Passed: len(issues) == 0, Details: details, Issues: issues}
}

// evaluateDocuments checks that every document kind required for the request
// type has been uploaded by the citizen.
func (e criteriaEvaluators) evaluateDocuments(ctx context.Context, request domain.CheckRequest, cfg domain.RequestTypeConfig) (domain.ValidationResult, error) {
	if len(cfg.RequiredDocuments) == 0 {
		return passedResult("no documents required"), nil
	}

	kinds, err := e.documents.ListKindsByUser(ctx, request.UserID)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("list citizen documents: %w", err)
	}
	uploaded := make(map[string]struct{}, len(kinds))
	for _, kind := range kinds {
		uploaded[kind] = struct{}{}
	}

	details := []string{fmt.Sprintf("%d of %d required documents uploaded", len(uploaded), len(cfg.RequiredDocuments))}
	var issues []string
	for _, required := range cfg.RequiredDocuments {
		if _, ok := uploaded[required]; !ok {
			issues = append(issues, issueMissingDocument+":"+required)
		}
	}
	return failedResult(details, issues), nil
}

// evaluateAvailability checks for service disruptions and, when configured,
// that the target pincode is inside the serviceable area.
func (e criteriaEvaluators) evaluateAvailability(ctx context.Context, request domain.CheckRequest, cfg domain.RequestTypeConfig) (domain.ValidationResult, error) {
	alerts, err := e.alerts.FindActiveCritical(ctx, request.ServiceType)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("find system alerts: %w", err)
	}

	var details []string
	var issues []string
	for _, alert := range alerts {
		issues = append(issues, issueServiceDisruption+":"+alert.ID)
		details = append(details, "active critical alert: "+alert.Message)
	}
	if len(alerts) == 0 {
		details = append(details, "no active critical alerts")
	}

	if cfg.ServiceAreaCheck && request.Connection != nil {
		pincode := strings.TrimSpace(request.Connection.Pincode)
		if domain.PincodeServiceable(pincode) {
			details = append(details, "pincode "+pincode+" is serviceable")
		} else {
			issues = append(issues, issueAreaNotServiceable+":"+pincode)
		}
	}
	return failedResult(details, issues), nil
}

// evaluateDependency runs the capacity checks relevant to the request type.
// Capacity pressure is advisory; it never blocks on its own.
func (e criteriaEvaluators) evaluateDependency(ctx context.Context, request domain.CheckRequest, cfg domain.RequestTypeConfig) (domain.ValidationResult, error) {
	var details []string
	var issues []string

	if cfg.TechnicianRequired && request.Connection != nil {
		region := domain.RegionForPincode(strings.TrimSpace(request.Connection.Pincode))
		pending, err := e.connections.CountPendingByRegion(ctx, request.ServiceType, region)
		if err != nil {
			return domain.ValidationResult{}, fmt.Errorf("count pending connections: %w", err)
		}
		details = append(details, fmt.Sprintf("%d pending connections in region %s", pending, region))
		if pending > domain.TechnicianQueueThreshold {
			issues = append(issues, issueTechnicianQueue)
		}
	}

	if request.RequestType == domain.RequestTypeComplaintRegistration {
		open, err := e.grievances.CountOpenByService(ctx, request.ServiceType)
		if err != nil {
			return domain.ValidationResult{}, fmt.Errorf("count open grievances: %w", err)
		}
		details = append(details, fmt.Sprintf("%d open grievances for service", open))
		if open > domain.SupportQueueThreshold {
			issues = append(issues, issueSupportQueue)
		}
	}

	if len(details) == 0 {
		details = append(details, "no capacity checks for request type")
	}
	return failedResult(details, issues), nil
}

// evaluateDuplicates looks for an existing record that would make the new
// request redundant, bounded by the configured lookback window.
func (e criteriaEvaluators) evaluateDuplicates(ctx context.Context, request domain.CheckRequest, cfg domain.RequestTypeConfig, now time.Time) (domain.ValidationResult, error) {
	since := now.Add(-cfg.DuplicateCheckWindow)

	switch request.RequestType {
	case domain.RequestTypeBillPayment:
		if request.Payment == nil {
			return passedResult("no payment details to compare"), nil
		}
		payment, err := e.payments.FindLiveByBill(ctx, request.UserID, request.Payment.BillID, since)
		if err != nil {
			if isNotFound(err) {
				return passedResult("no recent payment for bill"), nil
			}
			return domain.ValidationResult{}, fmt.Errorf("find payment for bill: %w", err)
		}
		return failedResult(
			[]string{fmt.Sprintf("payment %s on bill %s is %s", payment.ID, payment.BillID, payment.Status)},
			[]string{issueDuplicatePayment + ":" + payment.ID},
		), nil

	case domain.RequestTypeNewConnection:
		if request.Connection == nil {
			return passedResult("no connection details to compare"), nil
		}
		application, err := e.connections.FindPendingByAddress(ctx, request.UserID, request.ServiceType, normalizeAddress(request.Connection.Address), since)
		if err != nil {
			if isNotFound(err) {
				return passedResult("no pending connection at address"), nil
			}
			return domain.ValidationResult{}, fmt.Errorf("find pending connection: %w", err)
		}
		return failedResult(
			[]string{"pending connection application " + application.ID + " at same address"},
			[]string{issueDuplicateConn + ":" + application.ID},
		), nil

	case domain.RequestTypeComplaintRegistration:
		if request.Complaint == nil {
			return passedResult("no complaint details to compare"), nil
		}
		grievance, err := e.grievances.FindOpenByCategory(ctx, request.UserID, request.ServiceType, request.Complaint.Category, since)
		if err != nil {
			if isNotFound(err) {
				return passedResult("no open grievance in category"), nil
			}
			return domain.ValidationResult{}, fmt.Errorf("find open grievance: %w", err)
		}
		return failedResult(
			[]string{"open grievance " + grievance.ID + " in category " + grievance.Category},
			[]string{issueDuplicateComplaint + ":" + grievance.ID},
		), nil
	}

	return passedResult("no duplicate check for request type"), nil
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}

var addressFolder = cases.Fold()

// normalizeAddress folds case and collapses whitespace so that trivially
// different spellings of the same address compare equal.
func normalizeAddress(address string) string {
	folded := addressFolder.String(strings.TrimSpace(address))
	return strings.Join(strings.Fields(folded), " ")
}
