package clinical

import (
	"github.com/ehr/healthmap/pkg/fhirmodels"
)

// DecisionType classifies a clinical decision.
type DecisionType string

const (
	DecisionRecommendation   DecisionType = "recommendation"
	DecisionAlert            DecisionType = "alert"
	DecisionWarning          DecisionType = "warning"
	DecisionContraindication DecisionType = "contraindication"
)

// Severity is shared by decisions and the overall risk level.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityArabic = map[Severity]string{
	SeverityLow:      "منخفض",
	SeverityMedium:   "متوسط",
	SeverityHigh:     "مرتفع",
	SeverityCritical: "حرج",
}

// Arabic returns the Arabic label for s.
func (s Severity) Arabic() string {
	if ar, ok := severityArabic[s]; ok {
		return ar
	}
	return string(s)
}

// Guideline identifies the authority and topic a decision is based on.
type Guideline struct {
	Authority string `json:"authority"`
	Topic     string `json:"topic"`
	Reference string `json:"reference,omitempty"`
}

// Decision is a single safety finding over the extracted entities.
type Decision struct {
	ID             string                   `json:"id"`
	Type           DecisionType             `json:"type"`
	Severity       Severity                 `json:"severity"`
	Message        fhirmodels.LocalizedText `json:"message"`
	Evidence       []string                 `json:"evidence"`
	ActionRequired bool                     `json:"actionRequired"`
	Guidelines     []Guideline              `json:"guidelines"`
}

// RiskAssessment aggregates decisions into one level and score.
type RiskAssessment struct {
	Level       Severity                   `json:"level"`
	Factors     []fhirmodels.LocalizedText `json:"factors"`
	Score       int                        `json:"score"`
	Explanation fhirmodels.LocalizedText   `json:"explanation"`
}
