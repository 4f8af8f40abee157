package compliance

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ehr/healthmap/internal/domain/extraction"
	"github.com/ehr/healthmap/internal/domain/mapping"
	"github.com/ehr/healthmap/internal/platform/fhir"
	"github.com/ehr/healthmap/pkg/fhirmodels"
)

// Check names.
const (
	CheckMOH    = "moh"
	CheckNPHIES = "nphies"
	CheckPDPL   = "pdpl"
)

// Check is one jurisdiction compliance check over raw document content.
type Check interface {
	Name() string
	Run(content string, category extraction.Category) Outcome
}

// Outcome is the result of a single Check.
type Outcome struct {
	Passed bool                   `json:"passed"`
	Issues []fhir.ValidationError `json:"issues,omitempty"`
}

func issue(path, en, ar string) fhir.ValidationError {
	return fhir.ValidationError{
		Path:     path,
		Message:  fhirmodels.Text(en, ar),
		Severity: fhir.SeverityError,
	}
}

// marker is a required field recognised by bilingual keywords.
type marker struct {
	field   string
	labelEN string
	labelAR string
	pattern *regexp.Regexp
}

var (
	patientMarker = marker{"patient", "patient name", "اسم المريض",
		regexp.MustCompile(`(?i)\bpatient\b|\bname\s*:|المريض|اسم`)}
	prescriberMarker = marker{"prescriber", "prescribing physician", "الطبيب المعالج",
		regexp.MustCompile(`(?i)\b(doctor|physician|prescriber|dr\.?)\b|الطبيب|د\.`)}
	medicationMarker = marker{"medication", "medication", "الدواء",
		regexp.MustCompile(`(?i)\b(medication|medicine|drug|rx|tablets?|capsules?|\d+\s*mg)\b|دواء|الدواء|أقراص`)}
	dateMarker = marker{"date", "document date", "التاريخ",
		regexp.MustCompile(`(?i)\bdate\b|\b\d{1,4}[/-]\d{1,2}[/-]\d{1,4}\b|تاريخ|التاريخ`)}
	testMarker = marker{"test", "test name and result", "اسم الفحص والنتيجة",
		regexp.MustCompile(`(?i)\b(test|result|specimen|lab)\b|فحص|نتيجة|تحليل`)}
	studyMarker = marker{"study", "imaging study", "الفحص الإشعاعي",
		regexp.MustCompile(`(?i)\b(x-ray|xray|ct|mri|ultrasound|imaging|scan|radiograph)\b|أشعة|تصوير`)}
	referralMarker = marker{"referral", "referral reason", "سبب الإحالة",
		regexp.MustCompile(`(?i)\brefer(ral|red)?\b|إحالة|تحويل`)}
	insuranceMarker = marker{"insurance", "insurance policy", "وثيقة التأمين",
		regexp.MustCompile(`(?i)\b(insurance|policy|member(ship)?\s*(id|no))\b|تأمين`)}
	amountMarker = marker{"amount", "claimed amount", "المبلغ المطالب به",
		regexp.MustCompile(`(?i)\b(amount|total|sar)\b|ريال|المبلغ|الإجمالي`)}
	diagnosisMarker = marker{"diagnosis", "diagnosis", "التشخيص",
		regexp.MustCompile(`(?i)\b(diagnosis|diagnosed|impression)\b|تشخيص|التشخيص`)}
)

// requiredMarkers lists the fields MOH expects per document category.
var requiredMarkers = map[extraction.Category][]marker{
	extraction.CategoryPrescription:     {patientMarker, prescriberMarker, medicationMarker, dateMarker},
	extraction.CategoryLabResults:       {patientMarker, testMarker, dateMarker},
	extraction.CategoryRadiology:        {patientMarker, studyMarker, dateMarker},
	extraction.CategoryReferral:         {patientMarker, prescriberMarker, referralMarker},
	extraction.CategoryInsuranceClaim:   {patientMarker, insuranceMarker, amountMarker},
	extraction.CategoryMedicalHistory:   {patientMarker, diagnosisMarker},
	extraction.CategoryDischargeSummary: {patientMarker, diagnosisMarker, dateMarker},
}

var defaultMarkers = []marker{patientMarker, dateMarker}

// MOHCheck verifies that the category's mandatory fields appear in the content.
type MOHCheck struct{}

func (MOHCheck) Name() string { return CheckMOH }

func (MOHCheck) Run(content string, category extraction.Category) Outcome {
	markers, ok := requiredMarkers[category]
	if !ok {
		markers = defaultMarkers
	}
	var issues []fhir.ValidationError
	for _, m := range markers {
		if m.pattern.MatchString(content) {
			continue
		}
		issues = append(issues, issue("content."+m.field,
			fmt.Sprintf("MOH required field missing: %s", m.labelEN),
			fmt.Sprintf("حقل مطلوب من وزارة الصحة مفقود: %s", m.labelAR)))
	}
	return Outcome{Passed: len(issues) == 0, Issues: issues}
}

// NPHIESCheck verifies that the document maps onto a resource type with a
// registered NPHIES profile.
type NPHIESCheck struct {
	profiles *fhir.ProfileRegistry
}

func NewNPHIESCheck(profiles *fhir.ProfileRegistry) NPHIESCheck {
	if profiles == nil {
		profiles = fhir.NewProfileRegistry()
	}
	return NPHIESCheck{profiles: profiles}
}

func (NPHIESCheck) Name() string { return CheckNPHIES }

func (c NPHIESCheck) Run(content string, category extraction.Category) Outcome {
	var issues []fhir.ValidationError
	rt := mapping.ResolveResourceType(category)
	if c.profiles.ProfileFor(rt) == "" {
		issues = append(issues, issue("category",
			fmt.Sprintf("no NPHIES profile is registered for %s", rt),
			fmt.Sprintf("لا يوجد ملف تعريف NPHIES مسجل للمورد %s", rt)))
	}
	if strings.TrimSpace(content) == "" {
		issues = append(issues, issue("content",
			"document content is empty",
			"محتوى المستند فارغ"))
	}
	return Outcome{Passed: len(issues) == 0, Issues: issues}
}

var (
	// nationalIDPattern matches a bare 10-digit Saudi national ID (1...) or
	// Iqama number (2...).
	nationalIDPattern = regexp.MustCompile(`\b[12]\d{9}\b`)
	// mobilePattern matches Saudi mobile numbers in local or international form.
	mobilePattern = regexp.MustCompile(`(?:^|[^\d+])(?:\+966|00966|966|0)?5\d{8}\b`)
)

// PDPLCheck flags personal identifiers left unmasked in the content.
type PDPLCheck struct{}

func (PDPLCheck) Name() string { return CheckPDPL }

func (PDPLCheck) Run(content string, _ extraction.Category) Outcome {
	var issues []fhir.ValidationError
	if n := len(nationalIDPattern.FindAllStringIndex(content, -1)); n > 0 {
		issues = append(issues, issue("content",
			fmt.Sprintf("%d unmasked national ID or Iqama number(s) found", n),
			fmt.Sprintf("تم العثور على %d من أرقام الهوية الوطنية أو الإقامة غير المخفية", n)))
	}
	if n := len(mobilePattern.FindAllStringIndex(content, -1)); n > 0 {
		issues = append(issues, issue("content",
			fmt.Sprintf("%d unmasked mobile number(s) found", n),
			fmt.Sprintf("تم العثور على %d من أرقام الجوال غير المخفية", n)))
	}
	return Outcome{Passed: len(issues) == 0, Issues: issues}
}
