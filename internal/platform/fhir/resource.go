package fhir

import (
	"time"
)

// Resource is the mapped FHIR resource. Only the fields relevant to the
// resource shape produced by the mapper are populated; everything else is
// omitted from the JSON form.
type Resource struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id"`
	Meta         *Meta        `json:"meta,omitempty"`
	Identifier   []Identifier `json:"identifier,omitempty"`
	Status       string       `json:"status,omitempty"`
	Intent       string       `json:"intent,omitempty"`
	Subject      *Reference   `json:"subject,omitempty"`
	Patient      *Reference   `json:"patient,omitempty"`
	Name         []HumanName  `json:"name,omitempty"`

	MedicationCodeableConcept *CodeableConcept `json:"medicationCodeableConcept,omitempty"`
	DosageInstruction         []Dosage         `json:"dosageInstruction,omitempty"`
	Diagnosis                 []Diagnosis      `json:"diagnosis,omitempty"`
	Procedure                 []Procedure      `json:"procedure,omitempty"`
	Component                 []Component      `json:"component,omitempty"`

	Extension []Extension `json:"extension,omitempty"`
}

type Meta struct {
	VersionID   string     `json:"versionId,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
	Profile     []string   `json:"profile,omitempty"`
}

type Coding struct {
	System    string      `json:"system,omitempty"`
	Code      string      `json:"code,omitempty"`
	Display   string      `json:"display,omitempty"`
	Extension []Extension `json:"extension,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
	Type      string `json:"type,omitempty"`
	Display   string `json:"display,omitempty"`
}

type Identifier struct {
	Use    string `json:"use,omitempty"`
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
}

type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Text   string   `json:"text,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

// Quantity is a measured amount. Value is a pointer so that a zero reading
// stays distinguishable from an absent one.
type Quantity struct {
	Value  *float64 `json:"value,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	System string   `json:"system,omitempty"`
	Code   string   `json:"code,omitempty"`
}

// Float returns the quantity value, or 0 when none is set.
func (q Quantity) Float() float64 {
	if q.Value == nil {
		return 0
	}
	return *q.Value
}

type TimingRepeat struct {
	Frequency  int     `json:"frequency,omitempty"`
	Period     float64 `json:"period,omitempty"`
	PeriodUnit string  `json:"periodUnit,omitempty"`
}

type Timing struct {
	Repeat *TimingRepeat    `json:"repeat,omitempty"`
	Code   *CodeableConcept `json:"code,omitempty"`
}

type DoseAndRate struct {
	DoseQuantity *Quantity `json:"doseQuantity,omitempty"`
}

type Dosage struct {
	Text        string        `json:"text,omitempty"`
	Timing      *Timing       `json:"timing,omitempty"`
	DoseAndRate []DoseAndRate `json:"doseAndRate,omitempty"`
}

// Diagnosis is a coded diagnosis entry on the mapped resource.
type Diagnosis struct {
	Sequence  int             `json:"sequence"`
	Diagnosis CodeableConcept `json:"diagnosisCodeableConcept"`
}

// Procedure is a coded procedure entry on the mapped resource.
type Procedure struct {
	Sequence  int             `json:"sequence"`
	Procedure CodeableConcept `json:"procedureCodeableConcept"`
}

// Component is an observed value with its coding.
type Component struct {
	Code          CodeableConcept `json:"code"`
	ValueQuantity *Quantity       `json:"valueQuantity,omitempty"`
	ValueString   string          `json:"valueString,omitempty"`
}

// Extension carries URL-keyed data. Exactly one value field is set.
type Extension struct {
	URL          string  `json:"url"`
	ValueCoding  *Coding `json:"valueCoding,omitempty"`
	ValueString  *string `json:"valueString,omitempty"`
	ValueBoolean *bool   `json:"valueBoolean,omitempty"`
	ValueInteger *int    `json:"valueInteger,omitempty"`
}

// StringExtension builds a string-valued extension.
func StringExtension(url, value string) Extension {
	return Extension{URL: url, ValueString: &value}
}

// CodingExtension builds a coding-valued extension.
func CodingExtension(url string, c Coding) Extension {
	return Extension{URL: url, ValueCoding: &c}
}

// BooleanExtension builds a boolean-valued extension.
func BooleanExtension(url string, value bool) Extension {
	return Extension{URL: url, ValueBoolean: &value}
}

// IntegerExtension builds an integer-valued extension.
func IntegerExtension(url string, value int) Extension {
	return Extension{URL: url, ValueInteger: &value}
}

// ValueCount returns how many value fields are set.
func (e Extension) ValueCount() int {
	n := 0
	if e.ValueCoding != nil {
		n++
	}
	if e.ValueString != nil {
		n++
	}
	if e.ValueBoolean != nil {
		n++
	}
	if e.ValueInteger != nil {
		n++
	}
	return n
}

// FormatReference builds a "ResourceType/id" reference string.
func FormatReference(resourceType, id string) string {
	return resourceType + "/" + id
}
