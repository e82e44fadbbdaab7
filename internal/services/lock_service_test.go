package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain "github.com/janseva/api/internal/domain"
)

func newLockService(t *testing.T, repo *stubLockRepository, now time.Time) LockService {
	t.Helper()
	svc, err := NewLockService(LockServiceDeps{
		Locks: repo,
		Clock: func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new lock service: %v", err)
	}
	return svc
}

func paymentLockQuery() LockQuery {
	return LockQuery{
		UserID:      "user-1",
		ServiceType: domain.ServiceTypeElectricity,
		RequestType: domain.RequestTypeBillPayment,
		Identifier:  "B1",
	}
}

func TestDeriveLockKeyDeterministic(t *testing.T) {
	a, err := deriveLockKey("user-1", domain.ServiceTypeElectricity, domain.RequestTypeBillPayment, "B1")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	b, err := deriveLockKey("user-1", domain.ServiceTypeElectricity, domain.RequestTypeBillPayment, "B1")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if a != b {
		t.Fatalf("expected identical keys, got %s and %s", a, b)
	}
	c, err := deriveLockKey("user-2", domain.ServiceTypeElectricity, domain.RequestTypeBillPayment, "B1")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if a == c {
		t.Fatal("different users must derive different keys")
	}
}

func TestCheckLockUnlockedKey(t *testing.T) {
	svc := newLockService(t, newStubLockRepository(), time.Now())

	status, err := svc.CheckLock(context.Background(), paymentLockQuery())
	if err != nil {
		t.Fatalf("check lock: %v", err)
	}
	if status.IsLocked {
		t.Fatal("expected unlocked key")
	}
	if status.LockKey == "" {
		t.Fatal("expected derived lock key in status")
	}
}

func TestCreateThenCheckLock(t *testing.T) {
	repo := newStubLockRepository()
	now := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
	svc := newLockService(t, repo, now)

	lock, err := svc.CreateLock(context.Background(), LockRequest{
		UserID:          "user-1",
		ServiceType:     domain.ServiceTypeElectricity,
		RequestType:     domain.RequestTypeBillPayment,
		Identifier:      "B1",
		LinkedRequestID: "req-1",
	})
	if err != nil {
		t.Fatalf("create lock: %v", err)
	}
	// BILL_PAYMENT lock duration is one hour.
	if want := now.Add(time.Hour); !lock.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, lock.ExpiresAt)
	}

	status, err := svc.CheckLock(context.Background(), paymentLockQuery())
	if err != nil {
		t.Fatalf("check lock: %v", err)
	}
	if !status.IsLocked {
		t.Fatal("expected live lock")
	}
	if status.ExistingRequestID != "req-1" {
		t.Fatalf("unexpected linked request: %s", status.ExistingRequestID)
	}
	if status.ExpiresAt == nil || !status.ExpiresAt.Equal(lock.ExpiresAt) {
		t.Fatalf("unexpected expiry in status: %v", status.ExpiresAt)
	}
}

func TestCheckLockExpiredRowReportsUnlocked(t *testing.T) {
	repo := newStubLockRepository()
	created := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
	svc := newLockService(t, repo, created)
	if _, err := svc.CreateLock(context.Background(), LockRequest{
		UserID:      "user-1",
		ServiceType: domain.ServiceTypeElectricity,
		RequestType: domain.RequestTypeBillPayment,
		Identifier:  "B1",
		TTL:         time.Minute,
	}); err != nil {
		t.Fatalf("create lock: %v", err)
	}

	later := newLockService(t, repo, created.Add(2*time.Minute))
	status, err := later.CheckLock(context.Background(), paymentLockQuery())
	if err != nil {
		t.Fatalf("check lock: %v", err)
	}
	if status.IsLocked {
		t.Fatal("expired lock must report unlocked even though the row exists")
	}
}

func TestCreateLockLiveKeyRejected(t *testing.T) {
	repo := newStubLockRepository()
	now := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
	svc := newLockService(t, repo, now)

	request := LockRequest{
		UserID:      "user-1",
		ServiceType: domain.ServiceTypeElectricity,
		RequestType: domain.RequestTypeBillPayment,
		Identifier:  "B1",
	}
	if _, err := svc.CreateLock(context.Background(), request); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.CreateLock(context.Background(), request); !errors.Is(err, ErrLockAlreadyHeld) {
		t.Fatalf("expected already held, got %v", err)
	}
}

func TestCreateLockConcurrentSingleWinner(t *testing.T) {
	repo := newStubLockRepository()
	now := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
	svc := newLockService(t, repo, now)

	request := LockRequest{
		UserID:      "user-1",
		ServiceType: domain.ServiceTypeElectricity,
		RequestType: domain.RequestTypeBillPayment,
		Identifier:  "B1",
	}

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateLock(context.Background(), request)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, held int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrLockAlreadyHeld):
			held++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || held != attempts-1 {
		t.Fatalf("expected exactly one winner, got %d wins and %d held", wins, held)
	}
}

func TestCreateLockDefaultsToConfiguredDuration(t *testing.T) {
	repo := newStubLockRepository()
	now := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
	svc := newLockService(t, repo, now)

	lock, err := svc.CreateLock(context.Background(), LockRequest{
		UserID:      "user-1",
		ServiceType: domain.ServiceTypeElectricity,
		RequestType: domain.RequestTypeNewConnection,
		Identifier:  "12 station road",
	})
	if err != nil {
		t.Fatalf("create lock: %v", err)
	}
	if want := now.Add(24 * time.Hour); !lock.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, lock.ExpiresAt)
	}
}

func TestLockInputValidation(t *testing.T) {
	svc := newLockService(t, newStubLockRepository(), time.Now())

	if _, err := svc.CheckLock(context.Background(), LockQuery{
		ServiceType: domain.ServiceTypeElectricity,
		RequestType: domain.RequestTypeBillPayment,
		Identifier:  "B1",
	}); !errors.Is(err, ErrLockInvalidInput) {
		t.Fatalf("expected invalid input for missing user, got %v", err)
	}
	if _, err := svc.CreateLock(context.Background(), LockRequest{
		UserID:      "user-1",
		ServiceType: domain.ServiceType("STEAM"),
		RequestType: domain.RequestTypeBillPayment,
		Identifier:  "B1",
	}); !errors.Is(err, ErrLockInvalidInput) {
		t.Fatalf("expected invalid input for unknown service, got %v", err)
	}
}
