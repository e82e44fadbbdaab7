package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/janseva/api/internal/domain"
	pfirestore "github.com/janseva/api/internal/platform/firestore"
)

const (
	connectionApplicationsCollection = "connection_applications"

	// countCap bounds capped-count queries. Capacity thresholds sit far below
	// this value, so an exact total beyond the cap carries no signal.
	countCap = 500
)

// ConnectionApplicationRepository reads pending utility connection applications.
type ConnectionApplicationRepository struct {
	provider *pfirestore.Provider
}

// NewConnectionApplicationRepository constructs a Firestore-backed connection application repository.
func NewConnectionApplicationRepository(provider *pfirestore.Provider) (*ConnectionApplicationRepository, error) {
	if provider == nil {
		return nil, errors.New("connection application repository: firestore provider is required")
	}
	return &ConnectionApplicationRepository{provider: provider}, nil
}

// CountPendingByRegion counts pending applications for the service in one region, capped at countCap.
func (r *ConnectionApplicationRepository) CountPendingByRegion(ctx context.Context, service domain.ServiceType, region string) (int, error) {
	if r == nil || r.provider == nil {
		return 0, errors.New("connection application repository not initialised")
	}
	region = strings.TrimSpace(region)
	if region == "" {
		return 0, nil
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, err
	}

	query := client.Collection(connectionApplicationsCollection).
		Where("serviceType", "==", string(service)).
		Where("status", "==", domain.ApplicationStatusPending).
		Where("region", "==", region).
		Limit(countCap).
		Select()
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return 0, pfirestore.WrapError("connection_application.count_pending", err)
	}
	return len(docs), nil
}

// FindPendingByAddress returns the citizen's pending application at the normalized
// address created within the lookback window.
func (r *ConnectionApplicationRepository) FindPendingByAddress(ctx context.Context, userID string, service domain.ServiceType, normalizedAddress string, since time.Time) (domain.ConnectionApplication, error) {
	if r == nil || r.provider == nil {
		return domain.ConnectionApplication{}, errors.New("connection application repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	normalizedAddress = strings.TrimSpace(normalizedAddress)
	if userID == "" || normalizedAddress == "" {
		return domain.ConnectionApplication{}, pfirestore.WrapError("connection_application.find_pending",
			status.Error(codes.NotFound, "no pending application"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.ConnectionApplication{}, err
	}

	query := client.Collection(connectionApplicationsCollection).
		Where("userId", "==", userID).
		Where("serviceType", "==", string(service)).
		Where("status", "==", domain.ApplicationStatusPending).
		Where("addressKey", "==", normalizedAddress).
		Where("createdAt", ">=", since.UTC()).
		Limit(1)
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return domain.ConnectionApplication{}, pfirestore.WrapError("connection_application.find_pending", err)
	}
	if len(docs) == 0 {
		return domain.ConnectionApplication{}, pfirestore.WrapError("connection_application.find_pending",
			status.Error(codes.NotFound, "no pending application"))
	}

	var raw connectionApplicationDocument
	if err := docs[0].DataTo(&raw); err != nil {
		return domain.ConnectionApplication{}, fmt.Errorf("connection application repository: decode document %s: %w", docs[0].Ref.ID, err)
	}
	return domain.ConnectionApplication{
		ID:          docs[0].Ref.ID,
		UserID:      raw.UserID,
		ServiceType: domain.ServiceType(raw.ServiceType),
		Pincode:     raw.Pincode,
		Address:     raw.Address,
		Status:      raw.Status,
		CreatedAt:   raw.CreatedAt.UTC(),
	}, nil
}

type connectionApplicationDocument struct {
	UserID      string    `firestore:"userId"`
	ServiceType string    `firestore:"serviceType"`
	Pincode     string    `firestore:"pincode"`
	Region      string    `firestore:"region"`
	Address     string    `firestore:"address"`
	AddressKey  string    `firestore:"addressKey"`
	Status      string    `firestore:"status"`
	CreatedAt   time.Time `firestore:"createdAt"`
}
