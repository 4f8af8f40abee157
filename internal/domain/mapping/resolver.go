package mapping

import "github.com/ehr/healthmap/internal/domain/extraction"

// FallbackResourceType is used for categories with no dedicated mapping.
const FallbackResourceType = "DocumentReference"

// categoryResourceTypes maps document categories onto FHIR resource types.
var categoryResourceTypes = map[extraction.Category]string{
	extraction.CategoryPrescription:     "MedicationRequest",
	extraction.CategoryLabResults:       "DiagnosticReport",
	extraction.CategoryRadiology:        "ImagingStudy",
	extraction.CategoryReferral:         "ServiceRequest",
	extraction.CategoryInsuranceClaim:   "Claim",
	extraction.CategoryMedicalHistory:   "Condition",
	extraction.CategoryClinicalNote:     "DocumentReference",
	extraction.CategoryDischargeSummary: "DocumentReference",
}

// ResolveResourceType returns the resource type for a document category.
// Unmapped categories resolve to DocumentReference.
func ResolveResourceType(c extraction.Category) string {
	if rt, ok := categoryResourceTypes[c]; ok {
		return rt
	}
	return FallbackResourceType
}

// IsMappedCategory reports whether c has a dedicated entry in the table.
func IsMappedCategory(c extraction.Category) bool {
	_, ok := categoryResourceTypes[c]
	return ok
}
