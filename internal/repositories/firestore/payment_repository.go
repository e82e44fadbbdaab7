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

const paymentsCollection = "payments"

// PaymentRepository reads bill payment attempts for duplicate detection.
type PaymentRepository struct {
	provider *pfirestore.Provider
}

// NewPaymentRepository constructs a Firestore-backed payment repository.
func NewPaymentRepository(provider *pfirestore.Provider) (*PaymentRepository, error) {
	if provider == nil {
		return nil, errors.New("payment repository: firestore provider is required")
	}
	return &PaymentRepository{provider: provider}, nil
}

// FindLiveByBill returns the citizen's pending or successful payment against the
// bill made within the lookback window. A failed payment does not count.
func (r *PaymentRepository) FindLiveByBill(ctx context.Context, userID, billID string, since time.Time) (domain.Payment, error) {
	if r == nil || r.provider == nil {
		return domain.Payment{}, errors.New("payment repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	billID = strings.TrimSpace(billID)
	if userID == "" || billID == "" {
		return domain.Payment{}, pfirestore.WrapError("payment.find_live",
			status.Error(codes.NotFound, "no live payment"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Payment{}, err
	}

	query := client.Collection(paymentsCollection).
		Where("userId", "==", userID).
		Where("billId", "==", billID).
		Where("status", "in", []string{domain.PaymentStatusPending, domain.PaymentStatusSuccess}).
		Where("createdAt", ">=", since.UTC()).
		Limit(1)
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return domain.Payment{}, pfirestore.WrapError("payment.find_live", err)
	}
	if len(docs) == 0 {
		return domain.Payment{}, pfirestore.WrapError("payment.find_live",
			status.Error(codes.NotFound, "no live payment"))
	}

	var raw paymentDocument
	if err := docs[0].DataTo(&raw); err != nil {
		return domain.Payment{}, fmt.Errorf("payment repository: decode document %s: %w", docs[0].Ref.ID, err)
	}
	return domain.Payment{
		ID:        docs[0].Ref.ID,
		UserID:    raw.UserID,
		BillID:    raw.BillID,
		Status:    raw.Status,
		CreatedAt: raw.CreatedAt.UTC(),
	}, nil
}

type paymentDocument struct {
	UserID    string    `firestore:"userId"`
	BillID    string    `firestore:"billId"`
	Status    string    `firestore:"status"`
	CreatedAt time.Time `firestore:"createdAt"`
}
