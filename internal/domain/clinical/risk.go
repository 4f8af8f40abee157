package clinical

import (
	"fmt"

	"github.com/ehr/healthmap/pkg/fhirmodels"
)

// AssessRisk folds decisions into an overall level and a 0-100 score.
func AssessRisk(decisions []Decision) RiskAssessment {
	counts := make(map[Severity]int, 4)
	for _, d := range decisions {
		counts[d.Severity]++
	}
	total := len(decisions)

	var (
		level Severity
		score int
	)
	switch {
	case counts[SeverityCritical] > 0:
		level, score = SeverityCritical, 90+5*counts[SeverityCritical]
	case counts[SeverityHigh] > 0:
		level, score = SeverityHigh, 70+5*counts[SeverityHigh]
	case counts[SeverityMedium] > 0 || total > 2:
		level, score = SeverityMedium, 50+3*total
	default:
		level, score = SeverityLow, 20+5*total
	}
	if score > 100 {
		score = 100
	}

	factors := make([]fhirmodels.LocalizedText, 0, total)
	for _, d := range decisions {
		factors = append(factors, fhirmodels.Text(
			fmt.Sprintf("[%s] %s", d.Severity, d.Message.EN),
			fmt.Sprintf("[%s] %s", d.Severity.Arabic(), d.Message.AR),
		))
	}

	return RiskAssessment{
		Level:       level,
		Factors:     factors,
		Score:       score,
		Explanation: explain(level, score, total),
	}
}

func explain(level Severity, score, total int) fhirmodels.LocalizedText {
	if total == 0 {
		return fhirmodels.Text(
			fmt.Sprintf("No clinical concerns detected; baseline %s risk (score %d)", level, score),
			fmt.Sprintf("لم يتم رصد مخاوف سريرية؛ مستوى خطورة %s أساسي (النتيجة %d)", level.Arabic(), score),
		)
	}
	return fhirmodels.Text(
		fmt.Sprintf("Overall %s risk (score %d) based on %d clinical finding(s)", level, score, total),
		fmt.Sprintf("مستوى الخطورة العام %s (النتيجة %d) بناءً على %d من النتائج السريرية", level.Arabic(), score, total),
	)
}
