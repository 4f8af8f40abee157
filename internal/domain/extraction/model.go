package extraction

import (
	"context"
	"time"

	"github.com/ehr/healthmap/pkg/fhirmodels"
)

// EntityType is the closed set of extracted fact kinds.
type EntityType string

const (
	EntityMedication EntityType = "medication"
	EntityDosage     EntityType = "dosage"
	EntityFrequency  EntityType = "frequency"
	EntityCondition  EntityType = "condition"
	EntityDiagnosis  EntityType = "diagnosis"
	EntityProcedure  EntityType = "procedure"
	EntityVitalSign  EntityType = "vital_sign"
	EntityAllergy    EntityType = "allergy"
	EntityTestResult EntityType = "test_result"
)

// EntityTypes lists every member of the closed set in declaration order.
var EntityTypes = []EntityType{
	EntityMedication, EntityDosage, EntityFrequency, EntityCondition,
	EntityDiagnosis, EntityProcedure, EntityVitalSign, EntityAllergy,
	EntityTestResult,
}

var knownEntityTypes = func() map[EntityType]bool {
	m := make(map[EntityType]bool, len(EntityTypes))
	for _, t := range EntityTypes {
		m[t] = true
	}
	return m
}()

// Valid reports whether t belongs to the closed set.
func (t EntityType) Valid() bool {
	return knownEntityTypes[t]
}

// Position is a character range in the source text.
type Position struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Code is a terminology code supplied by the extraction collaborator. It is
// trusted as given.
type Code struct {
	System  string `json:"system" yaml:"system"`
	Code    string `json:"code" yaml:"code"`
	Display string `json:"display,omitempty" yaml:"display,omitempty"`
}

// MedicalEntity is a single extracted fact. Entities are owned by the
// extraction collaborator and treated as read-only.
type MedicalEntity struct {
	Type         EntityType                `json:"type" yaml:"type"`
	Value        string                    `json:"value" yaml:"value"`
	Confidence   float64                   `json:"confidence" yaml:"confidence"`
	Position     Position                  `json:"position" yaml:"position"`
	Translations *fhirmodels.LocalizedText `json:"translations,omitempty" yaml:"translations,omitempty"`
	Code         *Code                     `json:"code,omitempty" yaml:"code,omitempty"`
}

// ArabicValue returns the Arabic translation, or "" when none exists.
func (e MedicalEntity) ArabicValue() string {
	if e.Translations == nil {
		return ""
	}
	return e.Translations.AR
}

// Category is a document category.
type Category string

const (
	CategoryPrescription     Category = "prescription"
	CategoryLabResults       Category = "lab_results"
	CategoryRadiology        Category = "radiology"
	CategoryReferral         Category = "referral"
	CategoryInsuranceClaim   Category = "insurance_claim"
	CategoryMedicalHistory   Category = "medical_history"
	CategoryClinicalNote     Category = "clinical_note"
	CategoryDischargeSummary Category = "discharge_summary"
)

// Metadata carries document-level hints used by the extension builder.
type Metadata struct {
	Language             string `json:"language,omitempty" yaml:"language,omitempty"`
	ConfidentialityLevel string `json:"confidentialityLevel,omitempty" yaml:"confidentialityLevel,omitempty"`
}

// HealthcareDocument is the uploaded document the entities were extracted
// from. ID and Category are mandatory for mapping.
type HealthcareDocument struct {
	ID         string    `json:"id" yaml:"id" validate:"required"`
	Name       string    `json:"name,omitempty" yaml:"name,omitempty"`
	Category   Category  `json:"category" yaml:"category" validate:"required"`
	UploadedAt time.Time `json:"uploadedAt" yaml:"uploadedAt"`
	FacilityID string    `json:"facilityId,omitempty" yaml:"facilityId,omitempty"`
	PatientID  string    `json:"patientId,omitempty" yaml:"patientId,omitempty"`
	Metadata   Metadata  `json:"metadata" yaml:"metadata"`
}

// EntityExtractor turns raw document content into typed, confidence-scored
// entities. Implementations call out to OCR or language models and apply
// their own retry and timeout policy.
type EntityExtractor interface {
	Extract(ctx context.Context, content string, category Category) ([]MedicalEntity, error)
}

// StaticExtractor returns a fixed entity list. It is used when the caller
// already has entities and by tests.
type StaticExtractor []MedicalEntity

func (s StaticExtractor) Extract(_ context.Context, _ string, _ Category) ([]MedicalEntity, error) {
	out := make([]MedicalEntity, len(s))
	copy(out, s)
	return out, nil
}
