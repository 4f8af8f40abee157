package fhir

import (
	"fmt"
	"regexp"

	"github.com/ehr/healthmap/pkg/fhirmodels"
)

// Severity of a validation diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ValidationError is a non-fatal diagnostic about a mapped resource.
type ValidationError struct {
	Path     string                   `json:"path"`
	Message  fhirmodels.LocalizedText `json:"message"`
	Severity Severity                 `json:"severity"`
}

func newIssue(sev Severity, path, en, ar string) ValidationError {
	return ValidationError{Path: path, Message: fhirmodels.Text(en, ar), Severity: sev}
}

// referencePattern matches FHIR references in the format "ResourceType/id".
var referencePattern = regexp.MustCompile(`^[A-Z][a-zA-Z]+/[a-zA-Z0-9\-\.]+$`)

// knownResourceTypes lists the resource types the mapper can produce plus
// the shapes the validator has dedicated rules for.
var knownResourceTypes = map[string]bool{
	"Patient": true, "MedicationRequest": true, "DiagnosticReport": true,
	"ImagingStudy": true, "ServiceRequest": true, "Claim": true,
	"Condition": true, "DocumentReference": true, "Observation": true,
}

// statusValues maps resource types to their valid status values per FHIR R4.
var statusValues = map[string][]string{
	"MedicationRequest": {"active", "on-hold", "cancelled", "completed", "entered-in-error", "stopped", "draft", "unknown"},
	"DiagnosticReport":  {"registered", "partial", "preliminary", "final", "amended", "corrected", "appended", "cancelled", "entered-in-error", "unknown"},
	"ImagingStudy":      {"registered", "available", "cancelled", "entered-in-error", "unknown"},
	"ServiceRequest":    {"draft", "active", "on-hold", "revoked", "completed", "entered-in-error", "unknown"},
	"Claim":             {"active", "cancelled", "draft", "entered-in-error"},
	"DocumentReference": {"current", "superseded", "entered-in-error"},
	"Observation":       {"registered", "preliminary", "final", "amended", "corrected", "cancelled", "entered-in-error", "unknown"},
}

type rule func(r *Resource) []ValidationError

// resourceRules holds the shape-specific checks, keyed by resourceType.
var resourceRules = map[string][]rule{
	"Patient":           {requirePatientName},
	"MedicationRequest": {requireSubject},
}

// Validator runs structural and resource-specific checks over a mapped
// resource. It holds no state and is safe for concurrent use.
type Validator struct{}

// NewValidator creates a new FHIR Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns every diagnostic found on r. A nil resource yields a
// single error diagnostic.
func (v *Validator) Validate(r *Resource) []ValidationError {
	if r == nil {
		return []ValidationError{newIssue(SeverityError, "", "resource is missing", "المورد غير موجود")}
	}

	var issues []ValidationError
	issues = append(issues, validateBase(r)...)
	issues = append(issues, validateStatus(r)...)
	issues = append(issues, validateReferences(r)...)
	for _, fn := range resourceRules[r.ResourceType] {
		issues = append(issues, fn(r)...)
	}
	return issues
}

func validateBase(r *Resource) []ValidationError {
	var issues []ValidationError
	if r.ResourceType == "" {
		issues = append(issues, newIssue(SeverityError, "resourceType",
			"resourceType is required", "نوع المورد مطلوب"))
	} else if !IsKnownResourceType(r.ResourceType) {
		issues = append(issues, newIssue(SeverityError, "resourceType",
			fmt.Sprintf("unknown resourceType: %s", r.ResourceType),
			fmt.Sprintf("نوع مورد غير معروف: %s", r.ResourceType)))
	}
	if r.ID == "" {
		issues = append(issues, newIssue(SeverityError, "id",
			"Resource ID is required", "معرف المورد مطلوب"))
	}
	if r.Meta == nil || r.Meta.LastUpdated == nil || r.Meta.LastUpdated.IsZero() {
		issues = append(issues, newIssue(SeverityWarning, "meta.lastUpdated",
			"Last updated timestamp is recommended", "يوصى بإضافة تاريخ آخر تحديث"))
	}
	return issues
}

func validateStatus(r *Resource) []ValidationError {
	if r.Status == "" {
		return nil
	}
	valid, ok := statusValues[r.ResourceType]
	if !ok {
		return nil
	}
	for _, s := range valid {
		if s == r.Status {
			return nil
		}
	}
	return []ValidationError{newIssue(SeverityError, "status",
		fmt.Sprintf("invalid status '%s' for %s", r.Status, r.ResourceType),
		fmt.Sprintf("الحالة '%s' غير صالحة للمورد %s", r.Status, r.ResourceType))}
}

func validateReferences(r *Resource) []ValidationError {
	var issues []ValidationError
	check := func(path string, ref *Reference) {
		if ref == nil || ref.Reference == "" {
			return
		}
		if !ValidateReferenceFormat(ref.Reference) {
			issues = append(issues, newIssue(SeverityError, path+".reference",
				fmt.Sprintf("invalid reference format '%s'; expected 'ResourceType/id'", ref.Reference),
				fmt.Sprintf("صيغة المرجع '%s' غير صحيحة؛ الصيغة المتوقعة 'نوع المورد/المعرف'", ref.Reference)))
		}
	}
	check("subject", r.Subject)
	check("patient", r.Patient)
	return issues
}

func requirePatientName(r *Resource) []ValidationError {
	if len(r.Name) > 0 {
		return nil
	}
	return []ValidationError{newIssue(SeverityError, "name",
		"Patient name is required", "اسم المريض مطلوب")}
}

func requireSubject(r *Resource) []ValidationError {
	if r.Subject != nil && r.Subject.Reference != "" {
		return nil
	}
	return []ValidationError{newIssue(SeverityError, "subject",
		"Patient reference is required", "مرجع المريض مطلوب")}
}

// ValidateReferenceFormat validates that a reference string matches "ResourceType/id".
func ValidateReferenceFormat(ref string) bool {
	return referencePattern.MatchString(ref)
}

// IsKnownResourceType returns true if the resource type is recognized.
func IsKnownResourceType(rt string) bool {
	return knownResourceTypes[rt]
}

// HasErrors reports whether any diagnostic is error-severity.
func HasErrors(issues []ValidationError) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
