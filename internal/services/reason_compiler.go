package services

import (
	"strings"

	domain "github.com/janseva/api/internal/domain"
)

// reasonTemplate is one row of the static issue lookup table. message receives
// the reference part of the issue code (the text after the first colon).
type reasonTemplate struct {
	category domain.ReasonCategory
	severity domain.ReasonSeverity
	message  func(ref string) domain.BilingualText
	hint     *domain.BilingualText
	action   func() domain.BackendAction
	emitsAct bool
}

var documentLabels = map[string]domain.BilingualText{
	domain.DocumentKindIdentityProof:  {En: "identity proof", Hi: "पहचान प्रमाण"},
	domain.DocumentKindAddressProof:   {En: "address proof", Hi: "पता प्रमाण"},
	domain.DocumentKindOwnershipProof: {En: "ownership proof", Hi: "स्वामित्व प्रमाण"},
}

// reasonTable maps issue code prefixes to bilingual reasons and, for capacity
// issues, paired backend actions. New issue codes are added here explicitly;
// nothing is inferred from the code text.
var reasonTable = map[string]reasonTemplate{
	issueMissingDocument: {
		category: domain.ReasonCategoryDocument,
		severity: domain.SeverityError,
		message: func(ref string) domain.BilingualText {
			label, ok := documentLabels[ref]
			if !ok {
				label = domain.BilingualText{En: ref, Hi: ref}
			}
			return domain.BilingualText{
				En: "Required document missing: " + label.En,
				Hi: "आवश्यक दस्तावेज़ अनुपलब्ध: " + label.Hi,
			}
		},
		hint: &domain.BilingualText{
			En: "Upload the document at the kiosk or portal and run the check again.",
			Hi: "कियोस्क या पोर्टल पर दस्तावेज़ अपलोड करें और जाँच दोबारा चलाएँ।",
		},
	},
	issueServiceDisruption: {
		category: domain.ReasonCategoryService,
		severity: domain.SeverityError,
		message: func(string) domain.BilingualText {
			return domain.BilingualText{
				En: "The service is temporarily disrupted due to a critical system alert.",
				Hi: "एक गंभीर सिस्टम अलर्ट के कारण सेवा अस्थायी रूप से बाधित है।",
			}
		},
		hint: &domain.BilingualText{
			En: "Please try again after the disruption is resolved.",
			Hi: "कृपया व्यवधान समाप्त होने के बाद पुनः प्रयास करें।",
		},
	},
	issueAreaNotServiceable: {
		category: domain.ReasonCategoryService,
		severity: domain.SeverityError,
		message: func(ref string) domain.BilingualText {
			return domain.BilingualText{
				En: "Pincode " + ref + " is outside the serviceable area.",
				Hi: "पिनकोड " + ref + " सेवा क्षेत्र से बाहर है।",
			}
		},
	},
	issueTechnicianQueue: {
		category: domain.ReasonCategoryBackend,
		severity: domain.SeverityWarning,
		message: func(string) domain.BilingualText {
			return domain.BilingualText{
				En: "The technician queue in your area is currently full.",
				Hi: "आपके क्षेत्र में तकनीशियन कतार वर्तमान में भरी हुई है।",
			}
		},
		emitsAct: true,
		action: func() domain.BackendAction {
			return domain.BackendAction{
				ActionType: "SCHEDULE_TECHNICIAN",
				Description: domain.BilingualText{
					En: "Schedule a technician visit for the new connection.",
					Hi: "नए कनेक्शन के लिए तकनीशियन विज़िट शेड्यूल करें।",
				},
				Priority:            2,
				EstimatedCompletion: domain.BilingualText{En: "7-10 days", Hi: "7-10 दिन"},
			}
		},
	},
	issueSupportQueue: {
		category: domain.ReasonCategoryBackend,
		severity: domain.SeverityWarning,
		message: func(string) domain.BilingualText {
			return domain.BilingualText{
				En: "The support team has a high number of open complaints.",
				Hi: "सहायता टीम के पास खुली शिकायतों की संख्या अधिक है।",
			}
		},
		emitsAct: true,
		action: func() domain.BackendAction {
			return domain.BackendAction{
				ActionType: "QUEUE_FOR_REVIEW",
				Description: domain.BilingualText{
					En: "Queue the complaint for priority review.",
					Hi: "शिकायत को प्राथमिकता समीक्षा के लिए कतार में रखें।",
				},
				Priority:            3,
				EstimatedCompletion: domain.BilingualText{En: "2-3 days", Hi: "2-3 दिन"},
			}
		},
	},
	issueDuplicatePayment: {
		category: domain.ReasonCategoryDuplicate,
		severity: domain.SeverityError,
		message: func(ref string) domain.BilingualText {
			return domain.BilingualText{
				En: "A payment for this bill is already in progress or completed (ref " + ref + ").",
				Hi: "इस बिल का भुगतान पहले से प्रगति में है या पूरा हो चुका है (संदर्भ " + ref + ")।",
			}
		},
	},
	issueDuplicateConn: {
		category: domain.ReasonCategoryDuplicate,
		severity: domain.SeverityError,
		message: func(ref string) domain.BilingualText {
			return domain.BilingualText{
				En: "A connection application for this address is already pending (ref " + ref + ").",
				Hi: "इस पते के लिए एक कनेक्शन आवेदन पहले से लंबित है (संदर्भ " + ref + ")।",
			}
		},
	},
	issueDuplicateComplaint: {
		category: domain.ReasonCategoryDuplicate,
		severity: domain.SeverityError,
		message: func(ref string) domain.BilingualText {
			return domain.BilingualText{
				En: "A complaint in this category is already open (ref " + ref + ").",
				Hi: "इस श्रेणी में एक शिकायत पहले से खुली है (संदर्भ " + ref + ")।",
			}
		},
	},
}

// compileReasons maps evaluator issues to blocking reasons one-to-one in
// evaluator-run order and emits paired backend actions for capacity issues.
func compileReasons(details domain.CheckDetails) ([]domain.BlockingReason, []domain.BackendAction) {
	var reasons []domain.BlockingReason
	var actions []domain.BackendAction

	results := []domain.ValidationResult{
		details.Documents,
		details.Availability,
		details.Dependency,
		details.Duplicates,
	}
	for _, result := range results {
		for _, issue := range result.Issues {
			prefix, ref := splitIssue(issue)
			template, ok := reasonTable[prefix]
			if !ok {
				reasons = append(reasons, domain.BlockingReason{
					Code:     issue,
					Category: domain.ReasonCategoryOther,
					Severity: domain.SeverityError,
					Message: domain.BilingualText{
						En: "The request could not be validated (" + issue + ").",
						Hi: "अनुरोध सत्यापित नहीं किया जा सका (" + issue + ")।",
					},
				})
				continue
			}
			reasons = append(reasons, domain.BlockingReason{
				Code:           issue,
				Message:        template.message(ref),
				Category:       template.category,
				Severity:       template.severity,
				ResolutionHint: template.hint,
			})
			if template.emitsAct {
				actions = append(actions, template.action())
			}
		}
	}
	return reasons, actions
}

func splitIssue(issue string) (prefix, ref string) {
	if i := strings.IndexByte(issue, ':'); i >= 0 {
		return issue[:i], issue[i+1:]
	}
	return issue, ""
}
