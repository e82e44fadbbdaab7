package jobs

import (
	"encoding/json"
	"testing"
	"time"

	domain "github.com/janseva/api/internal/domain"
)

func TestNewPubSubActionDispatcherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubActionDispatcher(nil); err == nil {
		t.Fatal("expected error for nil topic")
	}
}

func TestActionMessageEncoding(t *testing.T) {
	scheduled := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	message := ActionMessage{
		CheckID:               "chk_01",
		UserID:                "user-1",
		ServiceType:           string(domain.ServiceTypeElectricity),
		RequestType:           string(domain.RequestTypeNewConnection),
		ActionType:            "SCHEDULE_TECHNICIAN",
		Description:           "Schedule technician visit",
		DescriptionHi:         "तकनीशियन विज़िट शेड्यूल करें",
		Priority:              2,
		ScheduledFor:          &scheduled,
		EstimatedCompletion:   "7-10 days",
		EstimatedCompletionHi: "7-10 दिन",
	}

	data, err := json.Marshal(message)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["checkId"] != "chk_01" {
		t.Fatalf("unexpected checkId: %v", decoded["checkId"])
	}
	if decoded["actionType"] != "SCHEDULE_TECHNICIAN" {
		t.Fatalf("unexpected actionType: %v", decoded["actionType"])
	}
	if decoded["priority"] != float64(2) {
		t.Fatalf("unexpected priority: %v", decoded["priority"])
	}
}

func TestSetAttrSkipsBlankValues(t *testing.T) {
	attrs := make(map[string]string)
	setAttr(attrs, "checkId", "chk_01")
	setAttr(attrs, "estimatedCompletion", "  ")
	if len(attrs) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(attrs))
	}
	if attrs["checkId"] != "chk_01" {
		t.Fatalf("unexpected checkId attribute: %q", attrs["checkId"])
	}
}
