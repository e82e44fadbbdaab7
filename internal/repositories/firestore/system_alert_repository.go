package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/janseva/api/internal/domain"
	pfirestore "github.com/janseva/api/internal/platform/firestore"
)

const systemAlertsCollection = "system_alerts"

// SystemAlertRepository reads operational alerts raised against utility services.
type SystemAlertRepository struct {
	base *pfirestore.BaseRepository[systemAlertDocument]
}

// NewSystemAlertRepository constructs a Firestore-backed system alert repository.
func NewSystemAlertRepository(provider *pfirestore.Provider) (*SystemAlertRepository, error) {
	if provider == nil {
		return nil, errors.New("system alert repository: firestore provider is required")
	}
	return &SystemAlertRepository{
		base: pfirestore.NewBaseRepository[systemAlertDocument](provider, systemAlertsCollection, nil, nil),
	}, nil
}

// FindActiveCritical returns active critical alerts for the service.
func (r *SystemAlertRepository) FindActiveCritical(ctx context.Context, service domain.ServiceType) ([]domain.SystemAlert, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("system alert repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("serviceType", "==", string(service)).
			Where("active", "==", true).
			Where("severity", "==", domain.AlertSeverityCritical)
	})
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.SystemAlert, 0, len(docs))
	for _, doc := range docs {
		alerts = append(alerts, domain.SystemAlert{
			ID:          doc.ID,
			ServiceType: domain.ServiceType(doc.Data.ServiceType),
			Severity:    doc.Data.Severity,
			Message:     doc.Data.Message,
			Active:      doc.Data.Active,
			RaisedAt:    doc.Data.RaisedAt.UTC(),
		})
	}
	return alerts, nil
}

type systemAlertDocument struct {
	ServiceType string    `firestore:"serviceType"`
	Severity    string    `firestore:"severity"`
	Message     string    `firestore:"message"`
	Active      bool      `firestore:"active"`
	RaisedAt    time.Time `firestore:"raisedAt"`
}
