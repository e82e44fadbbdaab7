package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/janseva/api/internal/domain"
)

type guaranteeFixture struct {
	documents   *stubDocumentRepository
	alerts      *stubAlertRepository
	connections *stubConnectionRepository
	grievances  *stubGrievanceRepository
	payments    *stubPaymentRepository
	records     *stubCheckRecordRepository
	dispatcher  *stubActionDispatcher
	now         time.Time
}

func newGuaranteeFixture() *guaranteeFixture {
	return &guaranteeFixture{
		documents:   &stubDocumentRepository{},
		alerts:      &stubAlertRepository{},
		connections: &stubConnectionRepository{},
		grievances:  &stubGrievanceRepository{},
		payments:    &stubPaymentRepository{},
		records:     newStubCheckRecordRepository(),
		dispatcher:  &stubActionDispatcher{},
		now:         time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
	}
}

func (f *guaranteeFixture) service(t *testing.T) GuaranteeService {
	t.Helper()
	svc, err := NewGuaranteeService(GuaranteeServiceDeps{
		Documents:   f.documents,
		Alerts:      f.alerts,
		Connections: f.connections,
		Grievances:  f.grievances,
		Payments:    f.payments,
		Records:     f.records,
		Dispatcher:  f.dispatcher,
		Clock:       func() time.Time { return f.now },
		IDGen: func() string { return "chk-1" },
	})
	if err != nil {
		t.Fatalf("new guarantee service: %v", err)
	}
	return svc
}

func billPaymentRequest(billID string) domain.CheckRequest {
	return domain.CheckRequest{
		RequestType: domain.RequestTypeBillPayment,
		ServiceType: domain.ServiceTypeElectricity,
		UserID:      "user-1",
		Payment:     &domain.PaymentDetails{BillID: billID, Amount: 1250},
	}
}

func newConnectionRequest(pincode string) domain.CheckRequest {
	return domain.CheckRequest{
		RequestType: domain.RequestTypeNewConnection,
		ServiceType: domain.ServiceTypeElectricity,
		UserID:      "user-1",
		Connection:  &domain.ConnectionDetails{Pincode: pincode, Address: "12 Station Road"},
	}
}

func TestRunCheckCleanBillPaymentGuaranteed(t *testing.T) {
	fixture := newGuaranteeFixture()
	svc := fixture.service(t)

	outcome, err := svc.RunCheck(context.Background(), billPaymentRequest("B1"))
	if err != nil {
		t.Fatalf("run check: %v", err)
	}
	if outcome.Result.GuaranteeStatus != domain.GuaranteeStatusGuaranteed {
		t.Fatalf("expected GUARANTEED, got %s", outcome.Result.GuaranteeStatus)
	}
	if len(outcome.Result.BlockingReasons) != 0 || len(outcome.Result.BackendActions) != 0 {
		t.Fatalf("expected empty reason/action lists, got %d/%d",
			len(outcome.Result.BlockingReasons), len(outcome.Result.BackendActions))
	}
	if !outcome.Result.CheckDetails.CheckedAt.Equal(fixture.now) {
		t.Fatalf("unexpected check time: %v", outcome.Result.CheckDetails.CheckedAt)
	}

	record, err := fixture.records.FindByID(context.Background(), outcome.RecordID)
	if err != nil {
		t.Fatalf("find record: %v", err)
	}
	if !record.CitizenAcknowledged || record.AcknowledgedAt == nil {
		t.Fatal("expected guaranteed record persisted as acknowledged")
	}
	if len(fixture.dispatcher.calls) != 0 {
		t.Fatalf("expected no dispatched actions, got %d", len(fixture.dispatcher.calls))
	}
}

func TestRunCheckDuplicatePaymentBlocks(t *testing.T) {
	fixture := newGuaranteeFixture()
	fixture.payments.payment = domain.Payment{ID: "pay-9", BillID: "B1", Status: domain.PaymentStatusSuccess}
	svc := fixture.service(t)

	outcome, err := svc.RunCheck(context.Background(), billPaymentRequest("B1"))
	if err != nil {
		t.Fatalf("run check: %v", err)
	}
	if outcome.Result.GuaranteeStatus != domain.GuaranteeStatusBlocked {
		t.Fatalf("expected BLOCKED, got %s", outcome.Result.GuaranteeStatus)
	}
	if len(outcome.Result.BlockingReasons) != 1 {
		t.Fatalf("expected 1 reason, got %d", len(outcome.Result.BlockingReasons))
	}
	if got := outcome.Result.BlockingReasons[0].Code; got != "DUPLICATE_PAYMENT:pay-9" {
		t.Fatalf("unexpected reason code: %s", got)
	}

	record, err := fixture.records.FindByID(context.Background(), outcome.RecordID)
	if err != nil {
		t.Fatalf("find record: %v", err)
	}
	if record.CitizenAcknowledged {
		t.Fatal("blocked record must not be auto-acknowledged")
	}
}

func TestRunCheckUnserviceablePincodeBlocks(t *testing.T) {
	fixture := newGuaranteeFixture()
	fixture.documents.kinds = []string{
		domain.DocumentKindIdentityProof,
		domain.DocumentKindAddressProof,
		domain.DocumentKindOwnershipProof,
	}
	svc := fixture.service(t)

	outcome, err := svc.RunCheck(context.Background(), newConnectionRequest("781099"))
	if err != nil {
		t.Fatalf("run check: %v", err)
	}
	if outcome.Result.GuaranteeStatus != domain.GuaranteeStatusBlocked {
		t.Fatalf("expected BLOCKED, got %s", outcome.Result.GuaranteeStatus)
	}
	if got := outcome.Result.BlockingReasons[0].Code; got != "AREA_NOT_SERVICEABLE:781099" {
		t.Fatalf("unexpected reason code: %s", got)
	}
	if !strings.Contains(outcome.Result.CitizenMessage.Message.En, "781099") {
		t.Fatalf("expected area message, got: %s", outcome.Result.CitizenMessage.Message.En)
	}
}

func TestRunCheckMissingDocumentsBlock(t *testing.T) {
	fixture := newGuaranteeFixture()
	fixture.documents.kinds = []string{domain.DocumentKindIdentityProof}
	svc := fixture.service(t)

	outcome, err := svc.RunCheck(context.Background(), newConnectionRequest("781001"))
	if err != nil {
		t.Fatalf("run check: %v", err)
	}
	if outcome.Result.GuaranteeStatus != domain.GuaranteeStatusBlocked {
		t.Fatalf("expected BLOCKED, got %s", outcome.Result.GuaranteeStatus)
	}
	codes := make([]string, 0, len(outcome.Result.BlockingReasons))
	for _, reason := range outcome.Result.BlockingReasons {
		codes = append(codes, reason.Code)
	}
	want := []string{"MISSING_DOCUMENT:address_proof", "MISSING_DOCUMENT:ownership_proof"}
	if len(codes) != len(want) {
		t.Fatalf("expected %v, got %v", want, codes)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, codes)
		}
	}
}

func TestRunCheckTechnicianQueueNotGuaranteed(t *testing.T) {
	fixture := newGuaranteeFixture()
	fixture.documents.kinds = []string{
		domain.DocumentKindIdentityProof,
		domain.DocumentKindAddressProof,
		domain.DocumentKindOwnershipProof,
	}
	fixture.connections.pendingCount = 60
	svc := fixture.service(t)

	outcome, err := svc.RunCheck(context.Background(), newConnectionRequest("781001"))
	if err != nil {
		t.Fatalf("run check: %v", err)
	}
	if outcome.Result.GuaranteeStatus != domain.GuaranteeStatusNotGuaranteed {
		t.Fatalf("expected NOT_GUARANTEED, got %s", outcome.Result.GuaranteeStatus)
	}
	if len(outcome.Result.BackendActions) != 1 {
		t.Fatalf("expected 1 backend action, got %d", len(outcome.Result.BackendActions))
	}
	action := outcome.Result.BackendActions[0]
	if action.ActionType != "SCHEDULE_TECHNICIAN" || action.EstimatedCompletion.En != "7-10 days" {
		t.Fatalf("unexpected action: %+v", action)
	}
	if len(fixture.dispatcher.calls) != 1 {
		t.Fatalf("expected 1 dispatched action, got %d", len(fixture.dispatcher.calls))
	}
	if fixture.dispatcher.calls[0].CheckID != outcome.RecordID {
		t.Fatalf("dispatched action carries wrong check id: %s", fixture.dispatcher.calls[0].CheckID)
	}
}

func TestRunCheckDuplicateOutranksCapacityWarning(t *testing.T) {
	fixture := newGuaranteeFixture()
	fixture.documents.kinds = []string{
		domain.DocumentKindIdentityProof,
		domain.DocumentKindAddressProof,
		domain.DocumentKindOwnershipProof,
	}
	fixture.connections.pendingCount = 60
	fixture.connections.application = domain.ConnectionApplication{ID: "app-3", Status: domain.ApplicationStatusPending}
	svc := fixture.service(t)

	outcome, err := svc.RunCheck(context.Background(), newConnectionRequest("781001"))
	if err != nil {
		t.Fatalf("run check: %v", err)
	}
	if outcome.Result.GuaranteeStatus != domain.GuaranteeStatusBlocked {
		t.Fatalf("expected BLOCKED, got %s", outcome.Result.GuaranteeStatus)
	}
}

func TestRunCheckComplaintSupportQueue(t *testing.T) {
	fixture := newGuaranteeFixture()
	fixture.grievances.openCount = 150
	svc := fixture.service(t)

	request := domain.CheckRequest{
		RequestType: domain.RequestTypeComplaintRegistration,
		ServiceType: domain.ServiceTypeWater,
		UserID:      "user-1",
		Complaint:   &domain.ComplaintDetails{Category: "billing", Description: "wrong amount"},
	}
	outcome, err := svc.RunCheck(context.Background(), request)
	if err != nil {
		t.Fatalf("run check: %v", err)
	}
	if outcome.Result.GuaranteeStatus != domain.GuaranteeStatusNotGuaranteed {
		t.Fatalf("expected NOT_GUARANTEED, got %s", outcome.Result.GuaranteeStatus)
	}
	if outcome.Result.BackendActions[0].ActionType != "QUEUE_FOR_REVIEW" {
		t.Fatalf("unexpected action: %s", outcome.Result.BackendActions[0].ActionType)
	}
}

func TestRunCheckServiceDisruptionBlocks(t *testing.T) {
	fixture := newGuaranteeFixture()
	fixture.alerts.alerts = []domain.SystemAlert{{ID: "alert-1", Severity: domain.AlertSeverityCritical, Active: true, Message: "substation outage"}}
	svc := fixture.service(t)

	outcome, err := svc.RunCheck(context.Background(), billPaymentRequest("B1"))
	if err != nil {
		t.Fatalf("run check: %v", err)
	}
	if outcome.Result.GuaranteeStatus != domain.GuaranteeStatusBlocked {
		t.Fatalf("expected BLOCKED, got %s", outcome.Result.GuaranteeStatus)
	}
	if got := outcome.Result.BlockingReasons[0].Code; got != "SERVICE_DISRUPTION:alert-1" {
		t.Fatalf("unexpected reason code: %s", got)
	}
}

func TestRunCheckEvaluatorFailureIsFatal(t *testing.T) {
	fixture := newGuaranteeFixture()
	fixture.alerts.err = unavailableErr()
	svc := fixture.service(t)

	_, err := svc.RunCheck(context.Background(), billPaymentRequest("B1"))
	if !errors.Is(err, ErrGuaranteeCheckFailed) {
		t.Fatalf("expected check failure, got %v", err)
	}
	if len(fixture.records.records) != 0 {
		t.Fatal("no record must be persisted on evaluator failure")
	}
}

func TestRunCheckDispatchFailureDoesNotFailCheck(t *testing.T) {
	fixture := newGuaranteeFixture()
	fixture.grievances.openCount = 150
	fixture.dispatcher.err = errors.New("topic gone")
	svc := fixture.service(t)

	request := domain.CheckRequest{
		RequestType: domain.RequestTypeComplaintRegistration,
		ServiceType: domain.ServiceTypeWater,
		UserID:      "user-1",
		Complaint:   &domain.ComplaintDetails{Category: "billing"},
	}
	outcome, err := svc.RunCheck(context.Background(), request)
	if err != nil {
		t.Fatalf("run check: %v", err)
	}
	if outcome.Result.GuaranteeStatus != domain.GuaranteeStatusNotGuaranteed {
		t.Fatalf("expected NOT_GUARANTEED, got %s", outcome.Result.GuaranteeStatus)
	}
}

func TestRunCheckRejectsMismatchedPayload(t *testing.T) {
	fixture := newGuaranteeFixture()
	svc := fixture.service(t)

	request := domain.CheckRequest{
		RequestType: domain.RequestTypeBillPayment,
		ServiceType: domain.ServiceTypeElectricity,
		UserID:      "user-1",
		Connection:  &domain.ConnectionDetails{Pincode: "781001"},
	}
	if _, err := svc.RunCheck(context.Background(), request); !errors.Is(err, ErrGuaranteeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRunCheckRejectsUnknownRequestType(t *testing.T) {
	fixture := newGuaranteeFixture()
	svc := fixture.service(t)

	request := domain.CheckRequest{
		RequestType: domain.RequestType("TELEPORT"),
		ServiceType: domain.ServiceTypeElectricity,
		UserID:      "user-1",
	}
	if _, err := svc.RunCheck(context.Background(), request); !errors.Is(err, ErrGuaranteeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestNormalizeAddressFoldsCaseAndWhitespace(t *testing.T) {
	got := normalizeAddress("  12,  Station   ROAD ")
	want := normalizeAddress("12, station road")
	if got != want {
		t.Fatalf("expected %q == %q", got, want)
	}
}
