package services

import (
	"context"
	"sync"
	"time"

	domain "github.com/janseva/api/internal/domain"
	"github.com/janseva/api/internal/repositories"
)

type stubRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *stubRepoError) Error() string      { return "stub repository error" }
func (e *stubRepoError) IsNotFound() bool   { return e.notFound }
func (e *stubRepoError) IsConflict() bool   { return e.conflict }
func (e *stubRepoError) IsUnavailable() bool { return e.unavailable }

func notFoundErr() error    { return &stubRepoError{notFound: true} }
func unavailableErr() error { return &stubRepoError{unavailable: true} }

type stubDocumentRepository struct {
	kinds []string
	err   error
}

func (s *stubDocumentRepository) ListKindsByUser(context.Context, string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.kinds, nil
}

type stubAlertRepository struct {
	alerts []domain.SystemAlert
	err    error
}

func (s *stubAlertRepository) FindActiveCritical(context.Context, domain.ServiceType) ([]domain.SystemAlert, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.alerts, nil
}

type stubConnectionRepository struct {
	pendingCount int
	countErr     error
	application  domain.ConnectionApplication
	findErr      error
	lastAddress  string
}

func (s *stubConnectionRepository) CountPendingByRegion(context.Context, domain.ServiceType, string) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.pendingCount, nil
}

func (s *stubConnectionRepository) FindPendingByAddress(_ context.Context, _ string, _ domain.ServiceType, address string, _ time.Time) (domain.ConnectionApplication, error) {
	s.lastAddress = address
	if s.findErr != nil {
		return domain.ConnectionApplication{}, s.findErr
	}
	if s.application.ID == "" {
		return domain.ConnectionApplication{}, notFoundErr()
	}
	return s.application, nil
}

type stubGrievanceRepository struct {
	openCount int
	countErr  error
	grievance domain.Grievance
	findErr   error
}

func (s *stubGrievanceRepository) CountOpenByService(context.Context, domain.ServiceType) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.openCount, nil
}

func (s *stubGrievanceRepository) FindOpenByCategory(context.Context, string, domain.ServiceType, string, time.Time) (domain.Grievance, error) {
	if s.findErr != nil {
		return domain.Grievance{}, s.findErr
	}
	if s.grievance.ID == "" {
		return domain.Grievance{}, notFoundErr()
	}
	return s.grievance, nil
}

type stubPaymentRepository struct {
	payment domain.Payment
	findErr error
}

func (s *stubPaymentRepository) FindLiveByBill(context.Context, string, string, time.Time) (domain.Payment, error) {
	if s.findErr != nil {
		return domain.Payment{}, s.findErr
	}
	if s.payment.ID == "" {
		return domain.Payment{}, notFoundErr()
	}
	return s.payment, nil
}

// stubCheckRecordRepository mimics the transition semantics of the real store.
type stubCheckRecordRepository struct {
	mu        sync.Mutex
	records   map[string]domain.CheckRecord
	insertErr error
}

func newStubCheckRecordRepository() *stubCheckRecordRepository {
	return &stubCheckRecordRepository{records: make(map[string]domain.CheckRecord)}
}

func (s *stubCheckRecordRepository) Insert(_ context.Context, record domain.CheckRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

func (s *stubCheckRecordRepository) FindByID(_ context.Context, recordID string) (domain.CheckRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[recordID]
	if !ok {
		return domain.CheckRecord{}, notFoundErr()
	}
	return record, nil
}

func (s *stubCheckRecordRepository) MarkAcknowledged(_ context.Context, recordID string, at time.Time) (domain.CheckRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[recordID]
	if !ok {
		return domain.CheckRecord{}, notFoundErr()
	}
	if record.CitizenAcknowledged {
		return domain.CheckRecord{}, repositories.ErrCheckRecordAlreadyAcknowledged
	}
	record.CitizenAcknowledged = true
	record.AcknowledgedAt = &at
	s.records[recordID] = record
	return record, nil
}

func (s *stubCheckRecordRepository) MarkSubmitted(_ context.Context, recordID, linkedRequestID string, at time.Time) (domain.CheckRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[recordID]
	if !ok {
		return domain.CheckRecord{}, notFoundErr()
	}
	if !record.CitizenAcknowledged {
		return domain.CheckRecord{}, repositories.ErrCheckRecordNotAcknowledged
	}
	if record.RequestSubmitted {
		return domain.CheckRecord{}, repositories.ErrCheckRecordAlreadySubmitted
	}
	record.RequestSubmitted = true
	record.SubmittedAt = &at
	record.LinkedRequestID = linkedRequestID
	s.records[recordID] = record
	return record, nil
}

// stubLockRepository enforces the one-live-lock-per-key contract in memory.
type stubLockRepository struct {
	mu    sync.Mutex
	locks map[string]domain.RequestLock
}

func newStubLockRepository() *stubLockRepository {
	return &stubLockRepository{locks: make(map[string]domain.RequestLock)}
}

func (s *stubLockRepository) Create(_ context.Context, lock domain.RequestLock) (domain.RequestLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.locks[lock.LockKey]; ok && existing.Live(lock.CreatedAt) {
		return domain.RequestLock{}, repositories.ErrLockAlreadyHeld
	}
	s.locks[lock.LockKey] = lock
	return lock, nil
}

func (s *stubLockRepository) FindLiveByKey(_ context.Context, lockKey string, now time.Time) (domain.RequestLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[lockKey]
	if !ok || !lock.Live(now) {
		return domain.RequestLock{}, notFoundErr()
	}
	return lock, nil
}

type dispatchedAction struct {
	CheckID string
	Action  domain.BackendAction
}

type stubActionDispatcher struct {
	mu      sync.Mutex
	calls   []dispatchedAction
	err     error
}

func (s *stubActionDispatcher) DispatchAction(_ context.Context, checkID string, _ domain.CheckRequest, action domain.BackendAction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.calls = append(s.calls, dispatchedAction{CheckID: checkID, Action: action})
	return "msg-1", nil
}
