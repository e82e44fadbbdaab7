package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	domain "github.com/janseva/api/internal/domain"
	"github.com/janseva/api/internal/platform/auth"
	"github.com/janseva/api/internal/platform/httpx"
	"github.com/janseva/api/internal/services"
)

const maxCheckBodySize = 16 * 1024

var (
	errEmptyBody    = errors.New("request body is required")
	errBodyTooLarge = errors.New("request body exceeds allowed size")

	// freeTextPolicy strips all markup from citizen-supplied free text before it
	// reaches the services.
	freeTextPolicy = bluemonday.StrictPolicy()
)

// GuaranteeHandlers exposes the guarantee check endpoints.
type GuaranteeHandlers struct {
	authn      *auth.Authenticator
	guarantees services.GuaranteeService
	records    services.CheckRecordService
}

// NewGuaranteeHandlers constructs handlers enforcing Firebase authentication
// before invoking the check engine.
func NewGuaranteeHandlers(authn *auth.Authenticator, guarantees services.GuaranteeService, records services.CheckRecordService) *GuaranteeHandlers {
	return &GuaranteeHandlers{
		authn:      authn,
		guarantees: guarantees,
		records:    records,
	}
}

// Routes wires the /guarantee-checks endpoints onto the provided router.
func (h *GuaranteeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Post("/", h.runCheck)
	r.Post("/{checkId}:acknowledge", h.acknowledge)
	r.Post("/{checkId}:submit", h.recordSubmission)
}

type bilingualPayload struct {
	En string `json:"en"`
	Hi string `json:"hi"`
}

type checkRequestPayload struct {
	RequestType string `json:"requestType"`
	ServiceType string `json:"serviceType"`
	KioskID     string `json:"kioskId,omitempty"`

	Payment *struct {
		BillID string `json:"billId"`
		Amount int64  `json:"amount"`
	} `json:"payment,omitempty"`
	Connection *struct {
		Pincode string `json:"pincode"`
		Address string `json:"address"`
	} `json:"connection,omitempty"`
	Complaint *struct {
		Category    string `json:"category"`
		Description string `json:"description"`
	} `json:"complaint,omitempty"`
}

type validationResultPayload struct {
	Passed  bool     `json:"passed"`
	Details []string `json:"details,omitempty"`
	Issues  []string `json:"issues,omitempty"`
}

type blockingReasonPayload struct {
	Code           string            `json:"code"`
	Message        bilingualPayload  `json:"message"`
	Category       string            `json:"category"`
	Severity       string            `json:"severity"`
	ResolutionHint *bilingualPayload `json:"resolutionHint,omitempty"`
}

type backendActionPayload struct {
	ActionType          string           `json:"actionType"`
	Description         bilingualPayload `json:"description"`
	Priority            int              `json:"priority"`
	ScheduledFor        *time.Time       `json:"scheduledFor,omitempty"`
	EstimatedCompletion bilingualPayload `json:"estimatedCompletion"`
}

type checkDetailsPayload struct {
	Documents    validationResultPayload `json:"documents"`
	Availability validationResultPayload `json:"availability"`
	Dependency   validationResultPayload `json:"dependency"`
	Duplicates   validationResultPayload `json:"duplicates"`
	CheckedAt    time.Time               `json:"checkedAt"`
}

type checkResponse struct {
	CheckID         string                  `json:"checkId"`
	GuaranteeStatus string                  `json:"guaranteeStatus"`
	RequestType     string                  `json:"requestType"`
	ServiceType     string                  `json:"serviceType"`
	BlockingReasons []blockingReasonPayload `json:"blockingReasons"`
	BackendActions  []backendActionPayload  `json:"backendActions"`
	CheckDetails    checkDetailsPayload     `json:"checkDetails"`
	CitizenMessage  struct {
		Title   bilingualPayload `json:"title"`
		Message bilingualPayload `json:"message"`
	} `json:"citizenMessage"`
}

type recordResponse struct {
	CheckID             string     `json:"checkId"`
	GuaranteeStatus     string     `json:"guaranteeStatus"`
	CitizenAcknowledged bool       `json:"citizenAcknowledged"`
	AcknowledgedAt      *time.Time `json:"acknowledgedAt,omitempty"`
	RequestSubmitted    bool       `json:"requestSubmitted"`
	SubmittedAt         *time.Time `json:"submittedAt,omitempty"`
	LinkedRequestID     string     `json:"linkedRequestId,omitempty"`
}

func (h *GuaranteeHandlers) runCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.guarantees == nil {
		httpx.WriteError(ctx, w, httpx.NewError("guarantee_service_unavailable", "guarantee service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCheckBodySize)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	var payload checkRequestPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return
	}

	request := domain.CheckRequest{
		RequestType: domain.RequestType(strings.TrimSpace(payload.RequestType)),
		ServiceType: domain.ServiceType(strings.TrimSpace(payload.ServiceType)),
		UserID:      identity.UID,
		KioskID:     strings.TrimSpace(payload.KioskID),
	}
	if payload.Payment != nil {
		request.Payment = &domain.PaymentDetails{
			BillID: strings.TrimSpace(payload.Payment.BillID),
			Amount: payload.Payment.Amount,
		}
	}
	if payload.Connection != nil {
		request.Connection = &domain.ConnectionDetails{
			Pincode: strings.TrimSpace(payload.Connection.Pincode),
			Address: sanitizeFreeText(payload.Connection.Address),
		}
	}
	if payload.Complaint != nil {
		request.Complaint = &domain.ComplaintDetails{
			Category:    sanitizeFreeText(payload.Complaint.Category),
			Description: sanitizeFreeText(payload.Complaint.Description),
		}
	}

	outcome, err := h.guarantees.RunCheck(ctx, request)
	if err != nil {
		writeGuaranteeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildCheckResponse(outcome))
}

func (h *GuaranteeHandlers) acknowledge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.records == nil {
		httpx.WriteError(ctx, w, httpx.NewError("guarantee_service_unavailable", "check record service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	checkID := strings.TrimSpace(chi.URLParam(r, "checkId"))
	record, err := h.records.Acknowledge(ctx, identity.UID, checkID)
	if err != nil {
		writeGuaranteeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildRecordResponse(record))
}

type submitRequestPayload struct {
	LinkedRequestID string `json:"linkedRequestId"`
}

func (h *GuaranteeHandlers) recordSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.records == nil {
		httpx.WriteError(ctx, w, httpx.NewError("guarantee_service_unavailable", "check record service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxCheckBodySize)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	var payload submitRequestPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return
	}

	checkID := strings.TrimSpace(chi.URLParam(r, "checkId"))
	record, err := h.records.RecordSubmission(ctx, identity.UID, checkID, payload.LinkedRequestID)
	if err != nil {
		writeGuaranteeError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildRecordResponse(record))
}

func buildCheckResponse(outcome services.CheckOutcome) checkResponse {
	result := outcome.Result
	resp := checkResponse{
		CheckID:         outcome.RecordID,
		GuaranteeStatus: string(result.GuaranteeStatus),
		RequestType:     string(result.RequestType),
		ServiceType:     string(result.ServiceType),
		BlockingReasons: make([]blockingReasonPayload, 0, len(result.BlockingReasons)),
		BackendActions:  make([]backendActionPayload, 0, len(result.BackendActions)),
		CheckDetails: checkDetailsPayload{
			Documents:    buildValidationResult(result.CheckDetails.Documents),
			Availability: buildValidationResult(result.CheckDetails.Availability),
			Dependency:   buildValidationResult(result.CheckDetails.Dependency),
			Duplicates:   buildValidationResult(result.CheckDetails.Duplicates),
			CheckedAt:    result.CheckDetails.CheckedAt,
		},
	}
	resp.CitizenMessage.Title = buildBilingual(result.CitizenMessage.Title)
	resp.CitizenMessage.Message = buildBilingual(result.CitizenMessage.Message)

	for _, reason := range result.BlockingReasons {
		payload := blockingReasonPayload{
			Code:     reason.Code,
			Message:  buildBilingual(reason.Message),
			Category: string(reason.Category),
			Severity: string(reason.Severity),
		}
		if reason.ResolutionHint != nil {
			hint := buildBilingual(*reason.ResolutionHint)
			payload.ResolutionHint = &hint
		}
		resp.BlockingReasons = append(resp.BlockingReasons, payload)
	}
	for _, action := range result.BackendActions {
		resp.BackendActions = append(resp.BackendActions, backendActionPayload{
			ActionType:          action.ActionType,
			Description:         buildBilingual(action.Description),
			Priority:            action.Priority,
			ScheduledFor:        action.ScheduledFor,
			EstimatedCompletion: buildBilingual(action.EstimatedCompletion),
		})
	}
	return resp
}

func buildRecordResponse(record domain.CheckRecord) recordResponse {
	return recordResponse{
		CheckID:             record.ID,
		GuaranteeStatus:     string(record.GuaranteeStatus),
		CitizenAcknowledged: record.CitizenAcknowledged,
		AcknowledgedAt:      record.AcknowledgedAt,
		RequestSubmitted:    record.RequestSubmitted,
		SubmittedAt:         record.SubmittedAt,
		LinkedRequestID:     record.LinkedRequestID,
	}
}

func buildValidationResult(result domain.ValidationResult) validationResultPayload {
	return validationResultPayload{
		Passed:  result.Passed,
		Details: result.Details,
		Issues:  result.Issues,
	}
}

func buildBilingual(text domain.BilingualText) bilingualPayload {
	return bilingualPayload{En: text.En, Hi: text.Hi}
}

func writeGuaranteeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrGuaranteeInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrGuaranteeCheckFailed):
		httpx.WriteError(ctx, w, httpx.NewError("check_failed", "the guarantee check could not be completed", http.StatusServiceUnavailable))
	case errors.Is(err, services.ErrCheckRecordNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("check_not_found", "check record not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCheckRecordAlreadyAcknowledged):
		httpx.WriteError(ctx, w, httpx.NewError("already_acknowledged", "check record is already acknowledged", http.StatusConflict))
	case errors.Is(err, services.ErrCheckRecordNotAcknowledged):
		httpx.WriteError(ctx, w, httpx.NewError("acknowledgment_required", "check record must be acknowledged before submission", http.StatusPreconditionFailed))
	case errors.Is(err, services.ErrCheckRecordAlreadySubmitted):
		httpx.WriteError(ctx, w, httpx.NewError("already_submitted", "check record already links a submission", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

func sanitizeFreeText(value string) string {
	return strings.TrimSpace(freeTextPolicy.Sanitize(value))
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeBodyError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", errBodyTooLarge.Error(), http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
