package mapping

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ehr/healthmap/internal/domain/extraction"
	"github.com/ehr/healthmap/internal/platform/fhir"
	"github.com/ehr/healthmap/pkg/fhirmodels"
)

// DefaultIdentifierSystem names the source system in resource identifiers.
const DefaultIdentifierSystem = "urn:healthmap:document"

// placeholderNamespace seeds the SHA1 UUIDs behind placeholder codes so the
// same value always yields the same code.
var placeholderNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(fhirmodels.SystemSFDAMedications))

// defaultStatus is the status the mapper gives each resource type.
var defaultStatus = map[string]string{
	"MedicationRequest": "active",
	"DiagnosticReport":  "final",
	"ImagingStudy":      "available",
	"ServiceRequest":    "active",
	"Claim":             "active",
	"DocumentReference": "current",
}

// entityMapper writes one entity into the resource under construction.
type entityMapper func(b *builder, e extraction.MedicalEntity)

// entityMappers has exactly one handler per extraction.EntityType.
var entityMappers = map[extraction.EntityType]entityMapper{
	extraction.EntityMedication: mapMedication,
	extraction.EntityDosage:     mapDosage,
	extraction.EntityFrequency:  mapFrequency,
	extraction.EntityCondition:  mapDiagnosis,
	extraction.EntityDiagnosis:  mapDiagnosis,
	extraction.EntityProcedure:  mapProcedure,
	extraction.EntityVitalSign:  mapComponent,
	extraction.EntityTestResult: mapComponent,
	extraction.EntityAllergy:    func(*builder, extraction.MedicalEntity) {},
}

// Mapper builds FHIR resources from a document and its normalized entities.
type Mapper struct {
	profiles         *fhir.ProfileRegistry
	identifierSystem string
	defaultLevel     string
}

// NewMapper creates a Mapper. A nil registry means no jurisdiction profiles.
func NewMapper(profiles *fhir.ProfileRegistry, identifierSystem, defaultConfidentiality string) *Mapper {
	if profiles == nil {
		profiles = fhir.NewProfileRegistry()
	}
	if identifierSystem == "" {
		identifierSystem = DefaultIdentifierSystem
	}
	return &Mapper{profiles: profiles, identifierSystem: identifierSystem, defaultLevel: defaultConfidentiality}
}

// builder holds the per-call state of one mapping.
type builder struct {
	res           *fhir.Resource
	hasMedication bool
}

// Build constructs a fresh resource of the given type. It returns the
// resource and the profile URL applied ("" when none is registered).
func (m *Mapper) Build(doc extraction.HealthcareDocument, resourceType string, entities []extraction.MedicalEntity) (*fhir.Resource, string) {
	res := &fhir.Resource{
		ResourceType: resourceType,
		ID:           doc.ID,
		Meta:         &fhir.Meta{},
		Identifier: []fhir.Identifier{{
			Use:    "official",
			System: m.identifierSystem,
			Value:  doc.ID,
		}},
		Status: defaultStatus[resourceType],
	}
	if !doc.UploadedAt.IsZero() {
		ts := doc.UploadedAt.UTC()
		res.Meta.LastUpdated = &ts
	}

	profile := m.profiles.ProfileFor(resourceType)
	if profile != "" {
		res.Meta.Profile = append(res.Meta.Profile, profile)
	}

	linkPatient(res, doc)
	if resourceType == "MedicationRequest" {
		res.Intent = "order"
	}

	b := &builder{res: res}
	for _, e := range entities {
		if fn, ok := entityMappers[e.Type]; ok {
			fn(b, e)
		}
	}

	res.Extension = append(res.Extension, BuildExtensions(doc, m.defaultLevel)...)
	return res, profile
}

// linkPatient points the resource at the document's patient. Claims use
// "patient"; every other shape uses "subject".
func linkPatient(res *fhir.Resource, doc extraction.HealthcareDocument) {
	ref := &fhir.Reference{Reference: fhir.FormatReference("Patient", "unknown"), Display: "Unidentified patient"}
	if doc.PatientID != "" {
		ref = &fhir.Reference{Reference: fhir.FormatReference("Patient", doc.PatientID)}
	}
	if res.ResourceType == "Claim" {
		res.Patient = ref
		return
	}
	res.Subject = ref
}

func mapMedication(b *builder, e extraction.MedicalEntity) {
	// A MedicationRequest names a single medication; later ones only feed
	// the clinical rules.
	if b.hasMedication {
		return
	}
	b.hasMedication = true

	primary := fhir.Coding{System: fhirmodels.SystemSFDAMedications, Code: placeholderCode(e.Value), Display: e.Value}
	if e.Code != nil {
		primary = codingFrom(e.Code, fhirmodels.SystemSFDAMedications, e.Value)
	}
	concept := &fhir.CodeableConcept{Coding: []fhir.Coding{primary}, Text: e.Value}

	if ar := e.ArabicValue(); ar != "" {
		translated := primary
		translated.Display = ar
		translated.Extension = []fhir.Extension{fhir.CodingExtension(fhirmodels.ExtensionLanguage, fhir.Coding{
			System: fhirmodels.SystemBCP47, Code: fhirmodels.LanguageArabic,
		})}
		concept.Coding = append(concept.Coding, translated)
	}
	b.res.MedicationCodeableConcept = concept
}

func mapDiagnosis(b *builder, e extraction.MedicalEntity) {
	b.res.Diagnosis = append(b.res.Diagnosis, fhir.Diagnosis{
		Sequence:  len(b.res.Diagnosis) + 1,
		Diagnosis: conceptFor(e, fhirmodels.SystemICD10AM),
	})
}

func mapProcedure(b *builder, e extraction.MedicalEntity) {
	b.res.Procedure = append(b.res.Procedure, fhir.Procedure{
		Sequence:  len(b.res.Procedure) + 1,
		Procedure: conceptFor(e, fhirmodels.SystemACHI),
	})
}

func mapComponent(b *builder, e extraction.MedicalEntity) {
	c := fhir.Component{Code: conceptFor(e, fhirmodels.SystemLOINC)}
	if v, unit, ok := ParseMeasurement(e.Value); ok {
		q := quantity(v, unit)
		c.ValueQuantity = &q
	} else {
		c.ValueString = e.Value
	}
	b.res.Component = append(b.res.Component, c)
}

func mapDosage(b *builder, e extraction.MedicalEntity) {
	d := b.dosage()
	if len(d.DoseAndRate) == 0 {
		q := ParseDose(e.Value)
		d.DoseAndRate = []fhir.DoseAndRate{{DoseQuantity: &q}}
	}
	d.Text = joinText(d.Text, e.Value)
}

func mapFrequency(b *builder, e extraction.MedicalEntity) {
	d := b.dosage()
	if d.Timing == nil {
		t := ParseTiming(e.Value)
		d.Timing = &t
	}
	d.Text = joinText(d.Text, e.Value)
}

// dosage returns the single dosage instruction, creating it on first use.
func (b *builder) dosage() *fhir.Dosage {
	if len(b.res.DosageInstruction) == 0 {
		b.res.DosageInstruction = []fhir.Dosage{{}}
	}
	return &b.res.DosageInstruction[0]
}

func conceptFor(e extraction.MedicalEntity, system string) fhir.CodeableConcept {
	coding := fhir.Coding{System: system, Display: e.Value}
	if e.Code != nil {
		coding = codingFrom(e.Code, system, e.Value)
	}
	return fhir.CodeableConcept{Coding: []fhir.Coding{coding}, Text: e.Value}
}

func codingFrom(c *extraction.Code, defaultSystem, defaultDisplay string) fhir.Coding {
	out := fhir.Coding{System: c.System, Code: c.Code, Display: c.Display}
	if out.System == "" {
		out.System = defaultSystem
	}
	if out.Display == "" {
		out.Display = defaultDisplay
	}
	return out
}

// placeholderCode derives a stable temporary code for an uncoded medication.
func placeholderCode(value string) string {
	id := uuid.NewSHA1(placeholderNamespace, []byte(strings.ToLower(strings.TrimSpace(value))))
	return "TMP-" + strings.ToUpper(id.String()[:8])
}

func joinText(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + "; " + next
}
