package domain

import "time"

// RequestTypeConfig is the static per-type behaviour table. Evaluators consult
// it instead of hardcoding thresholds; there is one entry per RequestType.
type RequestTypeConfig struct {
	RequiredDocuments    []string
	ServiceAreaCheck     bool
	TechnicianRequired   bool
	DuplicateCheckWindow time.Duration
	LockDuration         time.Duration
}

// Document kinds referenced by RequiredDocuments.
const (
	DocumentKindIdentityProof  = "identity_proof"
	DocumentKindAddressProof   = "address_proof"
	DocumentKindOwnershipProof = "ownership_proof"
)

// Capacity thresholds for the backend dependency evaluator.
const (
	TechnicianQueueThreshold = 50
	SupportQueueThreshold    = 100
)

var requestTypeConfigs = map[RequestType]RequestTypeConfig{
	RequestTypeBillPayment: {
		DuplicateCheckWindow: 24 * time.Hour,
		LockDuration:         time.Hour,
	},
	RequestTypeNewConnection: {
		RequiredDocuments:    []string{DocumentKindIdentityProof, DocumentKindAddressProof, DocumentKindOwnershipProof},
		ServiceAreaCheck:     true,
		TechnicianRequired:   true,
		DuplicateCheckWindow: 30 * 24 * time.Hour,
		LockDuration:         24 * time.Hour,
	},
	RequestTypeComplaintRegistration: {
		DuplicateCheckWindow: 72 * time.Hour,
		LockDuration:         6 * time.Hour,
	},
	RequestTypeDocumentRequest: {
		RequiredDocuments:    []string{DocumentKindIdentityProof},
		DuplicateCheckWindow: 7 * 24 * time.Hour,
		LockDuration:         12 * time.Hour,
	},
	RequestTypeMeterReading: {
		DuplicateCheckWindow: 24 * time.Hour,
		LockDuration:         2 * time.Hour,
	},
}

// ConfigForRequestType returns the static configuration for the request type.
// The second return is false for unknown types.
func ConfigForRequestType(t RequestType) (RequestTypeConfig, bool) {
	cfg, ok := requestTypeConfigs[t]
	if !ok {
		return RequestTypeConfig{}, false
	}
	// Copy the slice so callers cannot mutate the table.
	if len(cfg.RequiredDocuments) > 0 {
		docs := make([]string, len(cfg.RequiredDocuments))
		copy(docs, cfg.RequiredDocuments)
		cfg.RequiredDocuments = docs
	}
	return cfg, true
}

// serviceablePincodes is the fixed allow-list for new-connection area checks.
var serviceablePincodes = map[string]struct{}{
	"781001": {}, "781002": {}, "781003": {}, "781004": {}, "781005": {},
	"781006": {}, "781007": {}, "781008": {}, "781009": {}, "781010": {},
	"781011": {}, "781012": {}, "781013": {}, "781014": {}, "781015": {},
	"781016": {}, "781017": {}, "781018": {}, "781019": {}, "781020": {},
	"781021": {}, "781022": {}, "781024": {}, "781025": {}, "781026": {},
	"781027": {}, "781028": {}, "781029": {}, "781030": {}, "781031": {},
	"781032": {}, "781033": {}, "781034": {}, "781035": {}, "781036": {},
	"781037": {}, "781038": {}, "781039": {}, "781040": {},
}

// PincodeServiceable reports whether a new connection can be provisioned at the pincode.
func PincodeServiceable(pincode string) bool {
	_, ok := serviceablePincodes[pincode]
	return ok
}

// RegionForPincode derives the capacity-planning region from a pincode.
// Regions group by the postal sorting-district prefix.
func RegionForPincode(pincode string) string {
	if len(pincode) < 3 {
		return ""
	}
	return pincode[:3]
}
