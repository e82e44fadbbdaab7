package services

import (
	"strings"
	"testing"

	domain "github.com/janseva/api/internal/domain"
)

func TestComposeMessageGuaranteed(t *testing.T) {
	message := composeMessage(domain.GuaranteeStatusGuaranteed, nil, nil)
	if message.Title.En != "Request Guaranteed" {
		t.Fatalf("unexpected title: %s", message.Title.En)
	}
	if message.Title.Hi == "" || message.Message.Hi == "" {
		t.Fatal("expected both language variants")
	}
	if !strings.Contains(message.Message.En, "No resubmission") {
		t.Fatalf("unexpected message: %s", message.Message.En)
	}
}

func TestComposeMessageNotGuaranteedUsesFirstActionEstimate(t *testing.T) {
	actions := []domain.BackendAction{
		{ActionType: "SCHEDULE_TECHNICIAN", EstimatedCompletion: domain.BilingualText{En: "7-10 days", Hi: "7-10 दिन"}},
		{ActionType: "QUEUE_FOR_REVIEW", EstimatedCompletion: domain.BilingualText{En: "2-3 days", Hi: "2-3 दिन"}},
	}
	message := composeMessage(domain.GuaranteeStatusNotGuaranteed, nil, actions)
	if !strings.Contains(message.Message.En, "7-10 days") {
		t.Fatalf("expected first action estimate, got: %s", message.Message.En)
	}
	if !strings.Contains(message.Message.Hi, "7-10 दिन") {
		t.Fatalf("expected Hindi estimate, got: %s", message.Message.Hi)
	}
}

func TestComposeMessageNotGuaranteedFallsBackWithoutActions(t *testing.T) {
	message := composeMessage(domain.GuaranteeStatusNotGuaranteed, nil, nil)
	if !strings.Contains(message.Message.En, "a few days") {
		t.Fatalf("expected generic estimate, got: %s", message.Message.En)
	}
}

func TestComposeMessageBlockedUsesFirstErrorReason(t *testing.T) {
	reasons := []domain.BlockingReason{
		{Category: domain.ReasonCategoryBackend, Severity: domain.SeverityWarning,
			Message: domain.BilingualText{En: "queue is busy", Hi: "कतार व्यस्त है"}},
		{Category: domain.ReasonCategoryService, Severity: domain.SeverityError,
			Message: domain.BilingualText{En: "Pincode 781099 is outside the serviceable area.", Hi: "पिनकोड 781099 सेवा क्षेत्र से बाहर है।"}},
		{Category: domain.ReasonCategoryDuplicate, Severity: domain.SeverityError,
			Message: domain.BilingualText{En: "duplicate", Hi: "डुप्लिकेट"}},
	}
	message := composeMessage(domain.GuaranteeStatusBlocked, reasons, nil)
	if !strings.Contains(message.Message.En, "781099") {
		t.Fatalf("expected first error reason in message, got: %s", message.Message.En)
	}
	if strings.Contains(message.Message.En, "duplicate") {
		t.Fatalf("message should not aggregate reasons: %s", message.Message.En)
	}
}

func TestComposeMessageBlockedFallsBackWithoutErrorReason(t *testing.T) {
	message := composeMessage(domain.GuaranteeStatusBlocked, nil, nil)
	if !strings.Contains(message.Message.En, "resolve the issues") {
		t.Fatalf("expected generic fallback, got: %s", message.Message.En)
	}
}
