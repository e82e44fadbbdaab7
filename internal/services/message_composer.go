package services

import domain "github.com/janseva/api/internal/domain"

// composeMessage builds the citizen-facing bilingual summary for the resolved
// status. Templates always pick the first qualifying element, never aggregate;
// the message stays short and unambiguous.
func composeMessage(status domain.GuaranteeStatus, reasons []domain.BlockingReason, actions []domain.BackendAction) domain.CitizenMessage {
	switch status {
	case domain.GuaranteeStatusGuaranteed:
		return domain.CitizenMessage{
			Title: domain.BilingualText{
				En: "Request Guaranteed",
				Hi: "अनुरोध गारंटीकृत",
			},
			Message: domain.BilingualText{
				En: "Your request will be completed in this single interaction. No resubmission will be required.",
				Hi: "आपका अनुरोध इसी एक बार में पूरा हो जाएगा। दोबारा आवेदन की आवश्यकता नहीं होगी।",
			},
		}

	case domain.GuaranteeStatusNotGuaranteed:
		estimate := domain.BilingualText{En: "a few days", Hi: "कुछ दिनों"}
		if len(actions) > 0 && !actions[0].EstimatedCompletion.IsZero() {
			estimate = actions[0].EstimatedCompletion
		}
		return domain.CitizenMessage{
			Title: domain.BilingualText{
				En: "Accepted With Follow-Up",
				Hi: "अनुवर्ती कार्रवाई के साथ स्वीकृत",
			},
			Message: domain.BilingualText{
				En: "Your request has been accepted. Our team will complete the remaining work within " + estimate.En + ". You will not need to resubmit.",
				Hi: "आपका अनुरोध स्वीकार कर लिया गया है। हमारी टीम शेष कार्य " + estimate.Hi + " के भीतर पूरा करेगी। आपको दोबारा आवेदन करने की आवश्यकता नहीं होगी।",
			},
		}

	default:
		detail := domain.BilingualText{
			En: "Please resolve the issues shown and try again.",
			Hi: "कृपया दिखाई गई समस्याओं का समाधान करें और पुनः प्रयास करें।",
		}
		for _, reason := range reasons {
			if reason.Severity == domain.SeverityError {
				detail = reason.Message
				break
			}
		}
		return domain.CitizenMessage{
			Title: domain.BilingualText{
				En: "Request Blocked",
				Hi: "अनुरोध अवरुद्ध",
			},
			Message: domain.BilingualText{
				En: "Your request cannot be accepted right now: " + detail.En,
				Hi: "आपका अनुरोध अभी स्वीकार नहीं किया जा सकता: " + detail.Hi,
			},
		}
	}
}
