package fhir

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestResource_JSONSerialization(t *testing.T) {
	updated := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	r := Resource{
		ResourceType: "MedicationRequest",
		ID:           "test-123",
		Meta: &Meta{
			LastUpdated: &updated,
			Profile:     []string{SaudiMedicationRequestURL},
		},
		Status:  "active",
		Subject: &Reference{Reference: FormatReference("Patient", "p-1")},
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if parsed["resourceType"] != "MedicationRequest" {
		t.Errorf("expected MedicationRequest, got %v", parsed["resourceType"])
	}
	if parsed["id"] != "test-123" {
		t.Errorf("expected test-123, got %v", parsed["id"])
	}
	for _, absent := range []string{"patient", "diagnosis", "component", "extension", "dosageInstruction"} {
		if _, ok := parsed[absent]; ok {
			t.Errorf("expected %s to be omitted", absent)
		}
	}
	subject := parsed["subject"].(map[string]interface{})
	if subject["reference"] != "Patient/p-1" {
		t.Errorf("expected Patient/p-1, got %v", subject["reference"])
	}
}

func TestDiagnosis_JSONFieldNames(t *testing.T) {
	d := Diagnosis{Sequence: 1, Diagnosis: CodeableConcept{Text: "Diabetes"}}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if !strings.Contains(string(data), `"diagnosisCodeableConcept"`) {
		t.Errorf("expected diagnosisCodeableConcept key, got %s", data)
	}
}

func TestQuantity_ZeroValueKept(t *testing.T) {
	zero := 0.0
	data, err := json.Marshal(Quantity{Value: &zero, Unit: "mg"})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if !strings.Contains(string(data), `"value":0`) {
		t.Errorf("expected zero value to be serialized, got %s", data)
	}

	var q Quantity
	if q.Float() != 0 {
		t.Error("expected 0 for an absent value")
	}
	v := 7.2
	q.Value = &v
	if q.Float() != 7.2 {
		t.Errorf("expected 7.2, got %v", q.Float())
	}
}

func TestExtension_Constructors(t *testing.T) {
	tests := []struct {
		name string
		ext  Extension
		key  string
	}{
		{"string", StringExtension("u", "v"), `"valueString":"v"`},
		{"coding", CodingExtension("u", Coding{Code: "ar-SA"}), `"valueCoding":{"code":"ar-SA"}`},
		{"boolean", BooleanExtension("u", false), `"valueBoolean":false`},
		{"integer", IntegerExtension("u", 0), `"valueInteger":0`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.ext.ValueCount() != 1 {
				t.Errorf("expected exactly one value, got %d", tt.ext.ValueCount())
			}
			data, err := json.Marshal(tt.ext)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}
			if !strings.Contains(string(data), tt.key) {
				t.Errorf("expected %s in %s", tt.key, data)
			}
		})
	}

	if (Extension{URL: "u"}).ValueCount() != 0 {
		t.Error("expected no values on a bare extension")
	}
}
