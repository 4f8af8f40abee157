package fhirmodels

// Common code systems, profile bases and extension URLs used across the
// application.

// Code systems referenced by mapped codings.
const (
	SystemSFDAMedications = "http://sfda.gov.sa/fhir/CodeSystem/medications"
	SystemICD10AM         = "http://hl7.org/fhir/sid/icd-10-am"
	SystemACHI            = "http://nphies.sa/terminology/CodeSystem/procedures"
	SystemLOINC           = "http://loinc.org"
	SystemUCUM            = "http://unitsofmeasure.org"
	SystemBCP47           = "urn:ietf:bcp:47"
)

// Saudi extension URLs.
const (
	ExtensionBase            = "http://nphies.sa/fhir/ksa/nphies-fs/StructureDefinition/"
	ExtensionFacility        = ExtensionBase + "extension-facility"
	ExtensionLanguage        = ExtensionBase + "extension-language"
	ExtensionConfidentiality = ExtensionBase + "extension-confidentiality"
)

// Language codes.
const (
	LanguageArabic  = "ar-SA"
	LanguageEnglish = "en-US"
)

// Confidentiality levels.
const (
	ConfidentialityNormal     = "normal"
	ConfidentialityRestricted = "restricted"
)

// LocalizedText carries the same message in English and Arabic.
type LocalizedText struct {
	EN string `json:"en" yaml:"en"`
	AR string `json:"ar" yaml:"ar"`
}

// Text builds a LocalizedText from an English and Arabic variant.
func Text(en, ar string) LocalizedText {
	return LocalizedText{EN: en, AR: ar}
}

// Complete reports whether both language variants are populated.
func (t LocalizedText) Complete() bool {
	return t.EN != "" && t.AR != ""
}

// In returns the variant for the given language, falling back to English.
func (t LocalizedText) In(lang string) string {
	if (lang == "ar" || lang == LanguageArabic) && t.AR != "" {
		return t.AR
	}
	return t.EN
}
