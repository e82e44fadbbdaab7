package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/janseva/api/internal/platform/firestore"
)

const citizenDocumentsCollection = "citizen_documents"

// CitizenDocumentRepository reads uploaded document kinds for a citizen.
type CitizenDocumentRepository struct {
	base *pfirestore.BaseRepository[map[string]any]
}

// NewCitizenDocumentRepository constructs a Firestore-backed citizen document repository.
func NewCitizenDocumentRepository(provider *pfirestore.Provider) (*CitizenDocumentRepository, error) {
	if provider == nil {
		return nil, errors.New("citizen document repository: firestore provider is required")
	}
	return &CitizenDocumentRepository{
		base: pfirestore.NewBaseRepository[map[string]any](provider, citizenDocumentsCollection, nil, pfirestore.MapDecoder()),
	}, nil
}

// ListKindsByUser returns the distinct document kinds the citizen has uploaded.
func (r *CitizenDocumentRepository) ListKindsByUser(ctx context.Context, userID string) ([]string, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("citizen document repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("citizen document repository: user id is required")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("userId", "==", userID).
			Select("kind")
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(docs))
	kinds := make([]string, 0, len(docs))
	for _, doc := range docs {
		kind, ok := doc.Data["kind"].(string)
		if !ok {
			continue
		}
		kind = strings.TrimSpace(kind)
		if kind == "" {
			continue
		}
		if _, exists := seen[kind]; exists {
			continue
		}
		seen[kind] = struct{}{}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
