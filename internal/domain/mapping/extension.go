package mapping

import (
	"strings"

	"github.com/ehr/healthmap/internal/domain/extraction"
	"github.com/ehr/healthmap/internal/platform/fhir"
	"github.com/ehr/healthmap/pkg/fhirmodels"
)

// BuildExtensions derives the Saudi extensions from document metadata, in
// the order facility, language, confidentiality. The confidentiality
// extension is always present; defaultLevel is used when the document does
// not carry one.
func BuildExtensions(doc extraction.HealthcareDocument, defaultLevel string) []fhir.Extension {
	var exts []fhir.Extension

	if doc.FacilityID != "" {
		exts = append(exts, fhir.StringExtension(fhirmodels.ExtensionFacility, doc.FacilityID))
	}

	if doc.Metadata.Language != "" {
		exts = append(exts, fhir.CodingExtension(fhirmodels.ExtensionLanguage, languageCoding(doc.Metadata.Language)))
	}

	level := doc.Metadata.ConfidentialityLevel
	if level == "" {
		level = defaultLevel
	}
	if level == "" {
		level = fhirmodels.ConfidentialityNormal
	}
	exts = append(exts, fhir.StringExtension(fhirmodels.ExtensionConfidentiality, level))

	return exts
}

// languageCoding maps a document language onto a BCP-47 coding. Anything
// that is not Arabic is reported as English.
func languageCoding(lang string) fhir.Coding {
	l := strings.ToLower(strings.TrimSpace(lang))
	if l == "ar" || strings.HasPrefix(l, "ar-") || l == "arabic" {
		return fhir.Coding{System: fhirmodels.SystemBCP47, Code: fhirmodels.LanguageArabic, Display: "Arabic (Saudi Arabia)"}
	}
	return fhir.Coding{System: fhirmodels.SystemBCP47, Code: fhirmodels.LanguageEnglish, Display: "English (United States)"}
}
