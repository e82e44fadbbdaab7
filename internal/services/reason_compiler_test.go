package services

import (
	"strings"
	"testing"

	domain "github.com/janseva/api/internal/domain"
)

func TestCompileReasonsEmptyForPassingResults(t *testing.T) {
	details := domain.CheckDetails{
		Documents:    domain.ValidationResult{Passed: true},
		Availability: domain.ValidationResult{Passed: true},
		Dependency:   domain.ValidationResult{Passed: true},
		Duplicates:   domain.ValidationResult{Passed: true},
	}
	reasons, actions := compileReasons(details)
	if len(reasons) != 0 || len(actions) != 0 {
		t.Fatalf("expected empty lists, got %d reasons and %d actions", len(reasons), len(actions))
	}
}

func TestCompileReasonsMissingDocument(t *testing.T) {
	details := domain.CheckDetails{
		Documents: domain.ValidationResult{Issues: []string{"MISSING_DOCUMENT:identity_proof"}},
	}
	reasons, actions := compileReasons(details)
	if len(reasons) != 1 {
		t.Fatalf("expected 1 reason, got %d", len(reasons))
	}
	if len(actions) != 0 {
		t.Fatalf("expected no actions, got %d", len(actions))
	}
	reason := reasons[0]
	if reason.Category != domain.ReasonCategoryDocument || reason.Severity != domain.SeverityError {
		t.Fatalf("unexpected classification: %s/%s", reason.Category, reason.Severity)
	}
	if reason.Code != "MISSING_DOCUMENT:identity_proof" {
		t.Fatalf("unexpected code: %s", reason.Code)
	}
	if reason.Message.En == "" || reason.Message.Hi == "" {
		t.Fatal("expected both message variants")
	}
	if reason.ResolutionHint == nil || reason.ResolutionHint.Hi == "" {
		t.Fatal("expected bilingual resolution hint")
	}
}

func TestCompileReasonsTechnicianQueueEmitsAction(t *testing.T) {
	details := domain.CheckDetails{
		Dependency: domain.ValidationResult{Issues: []string{"TECHNICIAN_QUEUE_HIGH"}},
	}
	reasons, actions := compileReasons(details)
	if len(reasons) != 1 || len(actions) != 1 {
		t.Fatalf("expected 1 reason and 1 action, got %d/%d", len(reasons), len(actions))
	}
	if reasons[0].Category != domain.ReasonCategoryBackend || reasons[0].Severity != domain.SeverityWarning {
		t.Fatalf("unexpected classification: %s/%s", reasons[0].Category, reasons[0].Severity)
	}
	action := actions[0]
	if action.ActionType != "SCHEDULE_TECHNICIAN" {
		t.Fatalf("unexpected action type: %s", action.ActionType)
	}
	if action.EstimatedCompletion.En != "7-10 days" || action.EstimatedCompletion.Hi != "7-10 दिन" {
		t.Fatalf("unexpected estimate: %+v", action.EstimatedCompletion)
	}
}

func TestCompileReasonsSupportQueueEmitsAction(t *testing.T) {
	details := domain.CheckDetails{
		Dependency: domain.ValidationResult{Issues: []string{"SUPPORT_QUEUE_HIGH"}},
	}
	_, actions := compileReasons(details)
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	if actions[0].ActionType != "QUEUE_FOR_REVIEW" {
		t.Fatalf("unexpected action type: %s", actions[0].ActionType)
	}
	if actions[0].EstimatedCompletion.En != "2-3 days" {
		t.Fatalf("unexpected estimate: %s", actions[0].EstimatedCompletion.En)
	}
}

func TestCompileReasonsDuplicateCarriesReference(t *testing.T) {
	details := domain.CheckDetails{
		Duplicates: domain.ValidationResult{Issues: []string{"DUPLICATE_PAYMENT:pay-42"}},
	}
	reasons, _ := compileReasons(details)
	if len(reasons) != 1 {
		t.Fatalf("expected 1 reason, got %d", len(reasons))
	}
	if reasons[0].Category != domain.ReasonCategoryDuplicate {
		t.Fatalf("unexpected category: %s", reasons[0].Category)
	}
	if want := "pay-42"; !contains(reasons[0].Message.En, want) || !contains(reasons[0].Message.Hi, want) {
		t.Fatalf("expected reference %q in both variants: %+v", want, reasons[0].Message)
	}
}

func TestCompileReasonsPreservesEvaluatorOrder(t *testing.T) {
	details := domain.CheckDetails{
		Documents:  domain.ValidationResult{Issues: []string{"MISSING_DOCUMENT:identity_proof", "MISSING_DOCUMENT:address_proof"}},
		Dependency: domain.ValidationResult{Issues: []string{"TECHNICIAN_QUEUE_HIGH"}},
		Duplicates: domain.ValidationResult{Issues: []string{"DUPLICATE_CONNECTION:app-7"}},
	}
	reasons, _ := compileReasons(details)
	want := []string{
		"MISSING_DOCUMENT:identity_proof",
		"MISSING_DOCUMENT:address_proof",
		"TECHNICIAN_QUEUE_HIGH",
		"DUPLICATE_CONNECTION:app-7",
	}
	if len(reasons) != len(want) {
		t.Fatalf("expected %d reasons, got %d", len(want), len(reasons))
	}
	for i, code := range want {
		if reasons[i].Code != code {
			t.Fatalf("reason %d: expected %s, got %s", i, code, reasons[i].Code)
		}
	}
}

func TestCompileReasonsUnknownIssueMapsToOther(t *testing.T) {
	details := domain.CheckDetails{
		Availability: domain.ValidationResult{Issues: []string{"SOMETHING_NEW:ref"}},
	}
	reasons, actions := compileReasons(details)
	if len(reasons) != 1 || len(actions) != 0 {
		t.Fatalf("expected 1 reason and no actions, got %d/%d", len(reasons), len(actions))
	}
	if reasons[0].Category != domain.ReasonCategoryOther || reasons[0].Severity != domain.SeverityError {
		t.Fatalf("unexpected classification: %s/%s", reasons[0].Category, reasons[0].Severity)
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
