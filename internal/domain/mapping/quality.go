package mapping

import (
	"github.com/ehr/healthmap/internal/domain/extraction"
	"github.com/ehr/healthmap/internal/platform/fhir"
)

// Quality score weights.
const (
	qualityBase           = 100
	penaltyError          = 20
	penaltyWarning        = 10
	penaltyInfo           = 5
	penaltyUncodedEntity  = 5
	bonusExtensionPresent = 10
)

// ScoreQuality rates a mapping from 0 to 100. Deductions and the extension
// bonus are applied first; the result is clamped once at the end.
func ScoreQuality(issues []fhir.ValidationError, entities []extraction.MedicalEntity, res *fhir.Resource) int {
	score := qualityBase

	for _, issue := range issues {
		switch issue.Severity {
		case fhir.SeverityError:
			score -= penaltyError
		case fhir.SeverityWarning:
			score -= penaltyWarning
		case fhir.SeverityInfo:
			score -= penaltyInfo
		}
	}

	for _, e := range entities {
		if e.Code == nil {
			score -= penaltyUncodedEntity
		}
	}

	if res != nil && len(res.Extension) > 0 {
		score += bonusExtensionPresent
	}

	return clamp(score, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
