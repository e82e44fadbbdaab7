package services

import (
	"testing"

	domain "github.com/janseva/api/internal/domain"
)

func reasonOf(category domain.ReasonCategory, severity domain.ReasonSeverity) domain.BlockingReason {
	return domain.BlockingReason{Code: "X", Category: category, Severity: severity}
}

func TestResolveStatusGuaranteedWhenEmpty(t *testing.T) {
	if got := resolveStatus(nil, nil); got != domain.GuaranteeStatusGuaranteed {
		t.Fatalf("expected GUARANTEED, got %s", got)
	}
}

func TestResolveStatusDocumentErrorBlocks(t *testing.T) {
	reasons := []domain.BlockingReason{reasonOf(domain.ReasonCategoryDocument, domain.SeverityError)}
	if got := resolveStatus(reasons, nil); got != domain.GuaranteeStatusBlocked {
		t.Fatalf("expected BLOCKED, got %s", got)
	}
}

func TestResolveStatusBackendWarningDowngrades(t *testing.T) {
	reasons := []domain.BlockingReason{reasonOf(domain.ReasonCategoryBackend, domain.SeverityWarning)}
	actions := []domain.BackendAction{{ActionType: "SCHEDULE_TECHNICIAN"}}
	if got := resolveStatus(reasons, actions); got != domain.GuaranteeStatusNotGuaranteed {
		t.Fatalf("expected NOT_GUARANTEED, got %s", got)
	}
}

func TestResolveStatusBackendReasonWithoutActionsDowngrades(t *testing.T) {
	reasons := []domain.BlockingReason{reasonOf(domain.ReasonCategoryBackend, domain.SeverityWarning)}
	if got := resolveStatus(reasons, nil); got != domain.GuaranteeStatusNotGuaranteed {
		t.Fatalf("expected NOT_GUARANTEED, got %s", got)
	}
}

func TestResolveStatusDuplicateErrorOutranksBackendWarning(t *testing.T) {
	reasons := []domain.BlockingReason{
		reasonOf(domain.ReasonCategoryBackend, domain.SeverityWarning),
		reasonOf(domain.ReasonCategoryDuplicate, domain.SeverityError),
	}
	actions := []domain.BackendAction{{ActionType: "SCHEDULE_TECHNICIAN"}}
	if got := resolveStatus(reasons, actions); got != domain.GuaranteeStatusBlocked {
		t.Fatalf("expected BLOCKED, got %s", got)
	}
}

func TestResolveStatusBackendErrorDoesNotBlock(t *testing.T) {
	reasons := []domain.BlockingReason{reasonOf(domain.ReasonCategoryBackend, domain.SeverityError)}
	if got := resolveStatus(reasons, nil); got != domain.GuaranteeStatusNotGuaranteed {
		t.Fatalf("expected NOT_GUARANTEED, got %s", got)
	}
}

func TestResolveStatusNonBackendWarningStaysGuaranteed(t *testing.T) {
	reasons := []domain.BlockingReason{reasonOf(domain.ReasonCategoryDocument, domain.SeverityWarning)}
	if got := resolveStatus(reasons, nil); got != domain.GuaranteeStatusGuaranteed {
		t.Fatalf("expected GUARANTEED, got %s", got)
	}
}
