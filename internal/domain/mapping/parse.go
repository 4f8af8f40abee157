package mapping

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ehr/healthmap/internal/platform/fhir"
	"github.com/ehr/healthmap/pkg/fhirmodels"
)

var (
	// measurementPattern finds the first free-standing number and the unit
	// token that follows it, e.g. "120 mmHg", "1,200 cells/uL" or
	// "HbA1c: 6.5 %". Digits embedded in a word ("A1c") are not readings. A
	// "/<number>" tail as in "120/80 mmHg" is skipped before the unit.
	measurementPattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9_.])([-+]?\d{1,3}(?:,\d{3})+(?:\.\d+)?|[-+]?\d+(?:\.\d+)?)(?:/\d+(?:\.\d+)?)?\s*([A-Za-z%°µμ\p{Arabic}][^\s,;()]*)?`)

	// dosePattern matches a number glued to or followed by a unit, e.g.
	// "600mg". The number may be a fraction ("1/2 tablet") or a count times a
	// strength ("2x500mg").
	dosePattern = regexp.MustCompile(`(?:^|[^\d./])(\d+(?:\.\d+)?)(?:\s*/\s*(\d+(?:\.\d+)?))?(?:\s*[x×]\s*(\d+(?:\.\d+)?))?\s*([A-Za-zµμ\p{Arabic}]+)`)

	twiceDailyPattern = regexp.MustCompile(`(?i)(\btwice\s*(a\s*|per\s*)?(day|daily)\b|\bbid\b|\bb\.i\.d\b|\b2\s*(x|times)\s*(a\s*|per\s*)?(day|daily)\b|\bevery\s*12\s*h(ours?|rs?)?\b|\bq12h\b|مرتين\s*(يوميا|يومياً|في اليوم))`)
	// otherRatePattern catches explicit rates other than once or twice a day
	// so that a trailing "daily" does not read as once daily.
	otherRatePattern  = regexp.MustCompile(`(?i)(\b(thrice|three|four|five|six|tid|t\.i\.d|qid|q\.i\.d|q[4-8]h|[3-9]\s*(x|times))\b|\bevery\s*[4-8]\s*h|ثلاث|أربع)`)
	onceDailyPattern  = regexp.MustCompile(`(?i)(\bonce\s*(a\s*|per\s*)?(day|daily)\b|\bdaily\b|\bqd\b|\bod\b|\b1\s*(x|times?)\s*(a\s*|per\s*)?(day|daily)\b|\bevery\s*24\s*h(ours?|rs?)?\b|\bq24h\b|مرة\s*(واحدة\s*)?(يوميا|يومياً|في اليوم)|يوميا|يومياً)`)
)

// ParseMeasurement extracts the leading numeric reading and its unit. ok is
// false when the text holds no number.
func ParseMeasurement(text string) (value float64, unit string, ok bool) {
	m := measurementPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, "", false
	}
	return v, strings.TrimRight(m[2], ".:"), true
}

// ParseDose extracts a <number><unit> dose. Fractions are divided out and
// "<count>x<strength>" is multiplied. Without a match the dose defaults to
// one "dose".
func ParseDose(text string) fhir.Quantity {
	m := dosePattern.FindStringSubmatch(text)
	if m == nil {
		return quantity(1, "dose")
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return quantity(1, "dose")
	}
	if m[2] != "" {
		d, err := strconv.ParseFloat(m[2], 64)
		if err != nil || d == 0 {
			return quantity(1, "dose")
		}
		v /= d
	}
	if m[3] != "" {
		f, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return quantity(1, "dose")
		}
		v *= f
	}
	return quantity(v, m[4])
}

// ParseTiming maps a frequency phrase onto a structured timing. Phrases it
// does not recognise are kept as free text.
func ParseTiming(text string) fhir.Timing {
	switch {
	case twiceDailyPattern.MatchString(text):
		return fhir.Timing{Repeat: &fhir.TimingRepeat{Frequency: 2, Period: 1, PeriodUnit: "d"}}
	case otherRatePattern.MatchString(text):
		return fhir.Timing{Code: &fhir.CodeableConcept{Text: text}}
	case onceDailyPattern.MatchString(text):
		return fhir.Timing{Repeat: &fhir.TimingRepeat{Frequency: 1, Period: 1, PeriodUnit: "d"}}
	default:
		return fhir.Timing{Code: &fhir.CodeableConcept{Text: text}}
	}
}

func quantity(v float64, unit string) fhir.Quantity {
	q := fhir.Quantity{Value: &v, Unit: unit}
	if unit != "" && unit != "dose" {
		q.System = fhirmodels.SystemUCUM
		q.Code = unit
	}
	return q
}
