package services

import domain "github.com/janseva/api/internal/domain"

// resolveStatus maps compiled reasons and actions to the tri-state verdict.
// Decision order is load-bearing: a document, service, or duplicate error
// always blocks regardless of backend state; a pure capacity warning only
// downgrades the verdict, never blocks.
func resolveStatus(reasons []domain.BlockingReason, actions []domain.BackendAction) domain.GuaranteeStatus {
	for _, reason := range reasons {
		if reason.Severity != domain.SeverityError {
			continue
		}
		switch reason.Category {
		case domain.ReasonCategoryDocument, domain.ReasonCategoryService, domain.ReasonCategoryDuplicate, domain.ReasonCategoryOther:
			return domain.GuaranteeStatusBlocked
		}
	}

	if len(actions) > 0 {
		return domain.GuaranteeStatusNotGuaranteed
	}
	for _, reason := range reasons {
		if reason.Category == domain.ReasonCategoryBackend {
			return domain.GuaranteeStatusNotGuaranteed
		}
	}

	return domain.GuaranteeStatusGuaranteed
}
