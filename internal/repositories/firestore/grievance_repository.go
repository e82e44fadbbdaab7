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

const grievancesCollection = "grievances"

// GrievanceRepository reads registered complaints for duplicate and capacity checks.
type GrievanceRepository struct {
	provider *pfirestore.Provider
}

// NewGrievanceRepository constructs a Firestore-backed grievance repository.
func NewGrievanceRepository(provider *pfirestore.Provider) (*GrievanceRepository, error) {
	if provider == nil {
		return nil, errors.New("grievance repository: firestore provider is required")
	}
	return &GrievanceRepository{provider: provider}, nil
}

// CountOpenByService counts open grievances against the service, capped at countCap.
func (r *GrievanceRepository) CountOpenByService(ctx context.Context, service domain.ServiceType) (int, error) {
	if r == nil || r.provider == nil {
		return 0, errors.New("grievance repository not initialised")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, err
	}

	query := client.Collection(grievancesCollection).
		Where("serviceType", "==", string(service)).
		Where("status", "==", domain.GrievanceStatusOpen).
		Limit(countCap).
		Select()
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return 0, pfirestore.WrapError("grievance.count_open", err)
	}
	return len(docs), nil
}

// FindOpenByCategory returns the citizen's open grievance in the category
// registered within the lookback window.
func (r *GrievanceRepository) FindOpenByCategory(ctx context.Context, userID string, service domain.ServiceType, category string, since time.Time) (domain.Grievance, error) {
	if r == nil || r.provider == nil {
		return domain.Grievance{}, errors.New("grievance repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	category = strings.TrimSpace(category)
	if userID == "" || category == "" {
		return domain.Grievance{}, pfirestore.WrapError("grievance.find_open",
			status.Error(codes.NotFound, "no open grievance"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Grievance{}, err
	}

	query := client.Collection(grievancesCollection).
		Where("userId", "==", userID).
		Where("serviceType", "==", string(service)).
		Where("status", "==", domain.GrievanceStatusOpen).
		Where("category", "==", category).
		Where("createdAt", ">=", since.UTC()).
		Limit(1)
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return domain.Grievance{}, pfirestore.WrapError("grievance.find_open", err)
	}
	if len(docs) == 0 {
		return domain.Grievance{}, pfirestore.WrapError("grievance.find_open",
			status.Error(codes.NotFound, "no open grievance"))
	}

	var raw grievanceDocument
	if err := docs[0].DataTo(&raw); err != nil {
		return domain.Grievance{}, fmt.Errorf("grievance repository: decode document %s: %w", docs[0].Ref.ID, err)
	}
	return domain.Grievance{
		ID:          docs[0].Ref.ID,
		UserID:      raw.UserID,
		ServiceType: domain.ServiceType(raw.ServiceType),
		Category:    raw.Category,
		Status:      raw.Status,
		CreatedAt:   raw.CreatedAt.UTC(),
	}, nil
}

type grievanceDocument struct {
	UserID      string    `firestore:"userId"`
	ServiceType string    `firestore:"serviceType"`
	Category    string    `firestore:"category"`
	Status      string    `firestore:"status"`
	CreatedAt   time.Time `firestore:"createdAt"`
}
