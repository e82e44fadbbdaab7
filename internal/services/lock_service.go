package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/janseva/api/internal/domain"
	"github.com/janseva/api/internal/repositories"
)

// LockServiceDeps bundles collaborators for the lock manager.
type LockServiceDeps struct {
	Locks repositories.RequestLockRepository
	Clock func() time.Time
	IDGen func() string
}

type lockService struct {
	locks repositories.RequestLockRepository
	clock func() time.Time
	idGen func() string
}

// NewLockService constructs the lock manager on top of the lock repository.
func NewLockService(deps LockServiceDeps) (LockService, error) {
	if deps.Locks == nil {
		return nil, errors.New("lock service: repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGen
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	return &lockService{
		locks: deps.Locks,
		clock: func() time.Time {
			return clock().UTC()
		},
		idGen: idGen,
	}, nil
}

func (s *lockService) CheckLock(ctx context.Context, query LockQuery) (LockStatus, error) {
	key, err := deriveLockKey(query.UserID, query.ServiceType, query.RequestType, query.Identifier)
	if err != nil {
		return LockStatus{}, err
	}

	lock, err := s.locks.FindLiveByKey(ctx, key, s.clock())
	if err != nil {
		if isNotFound(err) {
			return LockStatus{IsLocked: false, LockKey: key}, nil
		}
		return LockStatus{}, fmt.Errorf("find request lock: %w", err)
	}

	expiresAt := lock.ExpiresAt
	return LockStatus{
		IsLocked:          true,
		LockKey:           key,
		ExistingRequestID: lock.LinkedRequestID,
		ExpiresAt:         &expiresAt,
	}, nil
}

func (s *lockService) CreateLock(ctx context.Context, request LockRequest) (domain.RequestLock, error) {
	key, err := deriveLockKey(request.UserID, request.ServiceType, request.RequestType, request.Identifier)
	if err != nil {
		return domain.RequestLock{}, err
	}

	ttl := request.TTL
	if ttl <= 0 {
		cfg, ok := domain.ConfigForRequestType(request.RequestType)
		if !ok {
			return domain.RequestLock{}, fmt.Errorf("%w: no configuration for request type %q", ErrLockInvalidInput, request.RequestType)
		}
		ttl = cfg.LockDuration
	}

	now := s.clock()
	lock := domain.RequestLock{
		ID:              s.idGen(),
		LockKey:         key,
		UserID:          strings.TrimSpace(request.UserID),
		ServiceType:     request.ServiceType,
		RequestType:     request.RequestType,
		IsActive:        true,
		ExpiresAt:       now.Add(ttl),
		LinkedRequestID: strings.TrimSpace(request.LinkedRequestID),
		CreatedAt:       now,
	}

	created, err := s.locks.Create(ctx, lock)
	if err != nil {
		if errors.Is(err, repositories.ErrLockAlreadyHeld) {
			return domain.RequestLock{}, ErrLockAlreadyHeld
		}
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsConflict() {
			return domain.RequestLock{}, ErrLockAlreadyHeld
		}
		return domain.RequestLock{}, fmt.Errorf("create request lock: %w", err)
	}
	return created, nil
}

// deriveLockKey hashes the four identifying inputs into the deterministic key
// for one logical request instance.
func deriveLockKey(userID string, service domain.ServiceType, requestType domain.RequestType, identifier string) (string, error) {
	userID = strings.TrimSpace(userID)
	identifier = strings.TrimSpace(identifier)
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", ErrLockInvalidInput)
	}
	if identifier == "" {
		return "", fmt.Errorf("%w: identifier is required", ErrLockInvalidInput)
	}
	if !domain.ValidServiceType(service) {
		return "", fmt.Errorf("%w: unknown service type %q", ErrLockInvalidInput, service)
	}
	if !domain.ValidRequestType(requestType) {
		return "", fmt.Errorf("%w: unknown request type %q", ErrLockInvalidInput, requestType)
	}

	digest := sha256.Sum256([]byte(userID + "|" + string(service) + "|" + string(requestType) + "|" + identifier))
	return hex.EncodeToString(digest[:]), nil
}
