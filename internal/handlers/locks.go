package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/janseva/api/internal/domain"
	"github.com/janseva/api/internal/platform/auth"
	"github.com/janseva/api/internal/platform/httpx"
	"github.com/janseva/api/internal/services"
)

const maxLockBodySize = 4 * 1024

// LockHandlers exposes the request lock endpoints consulted immediately before
// the real business submission.
type LockHandlers struct {
	authn *auth.Authenticator
	locks services.LockService
}

// NewLockHandlers constructs handlers enforcing Firebase authentication before
// invoking the lock manager.
func NewLockHandlers(authn *auth.Authenticator, locks services.LockService) *LockHandlers {
	return &LockHandlers{
		authn: authn,
		locks: locks,
	}
}

// Routes wires the /request-locks endpoints onto the provided router.
func (h *LockHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	register := func(group chi.Router) {
		group.Get("/request-locks:check", h.checkLock)
		group.Post("/request-locks", h.createLock)
	}
	if h.authn != nil {
		r.Group(func(group chi.Router) {
			group.Use(h.authn.RequireFirebaseAuth())
			register(group)
		})
		return
	}
	register(r)
}

type lockStatusResponse struct {
	IsLocked          bool       `json:"isLocked"`
	LockKey           string     `json:"lockKey"`
	ExistingRequestID string     `json:"existingRequestId,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
}

type createLockPayload struct {
	ServiceType     string `json:"serviceType"`
	RequestType     string `json:"requestType"`
	Identifier      string `json:"identifier"`
	TTLHours        int    `json:"ttlHours,omitempty"`
	LinkedRequestID string `json:"linkedRequestId,omitempty"`
}

type lockResponse struct {
	LockID    string    `json:"lockId"`
	LockKey   string    `json:"lockKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *LockHandlers) checkLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.locks == nil {
		httpx.WriteError(ctx, w, httpx.NewError("lock_service_unavailable", "lock service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	query := LockQueryFromRequest(identity.UID, r)
	status, err := h.locks.CheckLock(ctx, query)
	if err != nil {
		writeLockError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, lockStatusResponse{
		IsLocked:          status.IsLocked,
		LockKey:           status.LockKey,
		ExistingRequestID: status.ExistingRequestID,
		ExpiresAt:         status.ExpiresAt,
	})
}

// LockQueryFromRequest builds the lock query from URL parameters.
func LockQueryFromRequest(userID string, r *http.Request) services.LockQuery {
	values := r.URL.Query()
	return services.LockQuery{
		UserID:      userID,
		ServiceType: domain.ServiceType(strings.TrimSpace(values.Get("serviceType"))),
		RequestType: domain.RequestType(strings.TrimSpace(values.Get("requestType"))),
		Identifier:  strings.TrimSpace(values.Get("identifier")),
	}
}

func (h *LockHandlers) createLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.locks == nil {
		httpx.WriteError(ctx, w, httpx.NewError("lock_service_unavailable", "lock service is unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxLockBodySize)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}
	var payload createLockPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return
	}

	request := services.LockRequest{
		UserID:          identity.UID,
		ServiceType:     domain.ServiceType(strings.TrimSpace(payload.ServiceType)),
		RequestType:     domain.RequestType(strings.TrimSpace(payload.RequestType)),
		Identifier:      strings.TrimSpace(payload.Identifier),
		TTL:             time.Duration(payload.TTLHours) * time.Hour,
		LinkedRequestID: strings.TrimSpace(payload.LinkedRequestID),
	}

	lock, err := h.locks.CreateLock(ctx, request)
	if err != nil {
		if errors.Is(err, services.ErrLockAlreadyHeld) {
			h.writeAlreadyLocked(w, r, identity.UID, request)
			return
		}
		writeLockError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, lockResponse{
		LockID:    lock.ID,
		LockKey:   lock.LockKey,
		ExpiresAt: lock.ExpiresAt,
	})
}

// writeAlreadyLocked surfaces the losing side of a lock race with the winning
// lock's details so the client can show what is already in flight.
func (h *LockHandlers) writeAlreadyLocked(w http.ResponseWriter, r *http.Request, userID string, request services.LockRequest) {
	ctx := r.Context()
	details := map[string]any{}
	status, err := h.locks.CheckLock(ctx, services.LockQuery{
		UserID:      userID,
		ServiceType: request.ServiceType,
		RequestType: request.RequestType,
		Identifier:  request.Identifier,
	})
	if err == nil && status.IsLocked {
		details["lockKey"] = status.LockKey
		if status.ExistingRequestID != "" {
			details["existingRequestId"] = status.ExistingRequestID
		}
		if status.ExpiresAt != nil {
			details["expiresAt"] = status.ExpiresAt.UTC().Format(time.RFC3339)
		}
	}
	httpx.WriteError(ctx, w, httpx.NewError("already_locked", "a live lock already exists for this request", http.StatusConflict).WithDetails(details))
}

func writeLockError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrLockInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrLockAlreadyHeld):
		httpx.WriteError(ctx, w, httpx.NewError("already_locked", "a live lock already exists for this request", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
