package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/janseva/api/internal/domain"
	pfirestore "github.com/janseva/api/internal/platform/firestore"
	"github.com/janseva/api/internal/repositories"
)

const requestLocksCollection = "request_locks"

// RequestLockRepository persists submission locks keyed by the deterministic
// lock key. The document ID is the lock key itself, which makes acquisition a
// transactional test-and-set: concurrent creates for one key resolve to a
// single winner inside a Firestore transaction.
type RequestLockRepository struct {
	provider *pfirestore.Provider
}

// NewRequestLockRepository constructs a Firestore-backed request lock repository.
func NewRequestLockRepository(provider *pfirestore.Provider) (*RequestLockRepository, error) {
	if provider == nil {
		return nil, errors.New("request lock repository: firestore provider is required")
	}
	return &RequestLockRepository{provider: provider}, nil
}

// Create acquires the lock for lock.LockKey. When a live lock already holds the
// key it returns ErrLockAlreadyHeld without writing. An expired or inactive row
// under the same key is replaced; locks are never deleted, only superseded.
func (r *RequestLockRepository) Create(ctx context.Context, lock domain.RequestLock) (domain.RequestLock, error) {
	docRef, err := r.document(ctx, lock.LockKey)
	if err != nil {
		return domain.RequestLock{}, err
	}
	if strings.TrimSpace(lock.ID) == "" {
		return domain.RequestLock{}, errors.New("request lock repository: lock id is required")
	}
	now := lock.CreatedAt.UTC()

	doc := encodeRequestLock(lock)
	txErr := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return tx.Set(docRef, doc)
			}
			return err
		}
		var existing requestLockDocument
		if err := snap.DataTo(&existing); err != nil {
			return fmt.Errorf("request lock repository: decode document %s: %w", snap.Ref.ID, err)
		}
		if existing.IsActive && existing.ExpiresAt.After(now) {
			return repositories.ErrLockAlreadyHeld
		}
		return tx.Set(docRef, doc)
	})
	if txErr != nil {
		if errors.Is(txErr, repositories.ErrLockAlreadyHeld) {
			return domain.RequestLock{}, repositories.ErrLockAlreadyHeld
		}
		return domain.RequestLock{}, pfirestore.WrapError("request_lock.create", txErr)
	}
	return decodeRequestLock(doc), nil
}

// FindLiveByKey returns the active, unexpired lock for the key. Expiry is a
// read-time predicate; an expired row yields a not-found result.
func (r *RequestLockRepository) FindLiveByKey(ctx context.Context, lockKey string, now time.Time) (domain.RequestLock, error) {
	docRef, err := r.document(ctx, lockKey)
	if err != nil {
		return domain.RequestLock{}, err
	}
	snap, err := docRef.Get(ctx)
	if err != nil {
		return domain.RequestLock{}, pfirestore.WrapError("request_lock.find", err)
	}
	var doc requestLockDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.RequestLock{}, fmt.Errorf("request lock repository: decode document %s: %w", snap.Ref.ID, err)
	}
	lock := decodeRequestLock(doc)
	if !lock.Live(now.UTC()) {
		return domain.RequestLock{}, pfirestore.WrapError("request_lock.find", status.Error(codes.NotFound, "no live lock for key"))
	}
	return lock, nil
}

func (r *RequestLockRepository) document(ctx context.Context, lockKey string) (*firestore.DocumentRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("request lock repository not initialised")
	}
	lockKey = strings.TrimSpace(lockKey)
	if lockKey == "" {
		return nil, errors.New("request lock repository: lock key is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(requestLocksCollection).Doc(lockKey), nil
}

type requestLockDocument struct {
	LockID          string    `firestore:"lockId"`
	LockKey         string    `firestore:"lockKey"`
	UserID          string    `firestore:"userId"`
	ServiceType     string    `firestore:"serviceType"`
	RequestType     string    `firestore:"requestType"`
	IsActive        bool      `firestore:"isActive"`
	ExpiresAt       time.Time `firestore:"expiresAt"`
	LinkedRequestID string    `firestore:"linkedRequestId,omitempty"`
	CreatedAt       time.Time `firestore:"createdAt"`
}

func encodeRequestLock(lock domain.RequestLock) requestLockDocument {
	return requestLockDocument{
		LockID:          strings.TrimSpace(lock.ID),
		LockKey:         strings.TrimSpace(lock.LockKey),
		UserID:          strings.TrimSpace(lock.UserID),
		ServiceType:     string(lock.ServiceType),
		RequestType:     string(lock.RequestType),
		IsActive:        lock.IsActive,
		ExpiresAt:       lock.ExpiresAt.UTC(),
		LinkedRequestID: strings.TrimSpace(lock.LinkedRequestID),
		CreatedAt:       lock.CreatedAt.UTC(),
	}
}

func decodeRequestLock(doc requestLockDocument) domain.RequestLock {
	return domain.RequestLock{
		ID:              doc.LockID,
		LockKey:         doc.LockKey,
		UserID:          doc.UserID,
		ServiceType:     domain.ServiceType(doc.ServiceType),
		RequestType:     domain.RequestType(doc.RequestType),
		IsActive:        doc.IsActive,
		ExpiresAt:       doc.ExpiresAt.UTC(),
		LinkedRequestID: doc.LinkedRequestID,
		CreatedAt:       doc.CreatedAt.UTC(),
	}
}
