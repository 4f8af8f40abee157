package mapping

import "testing"

func TestParseMeasurement(t *testing.T) {
	tests := []struct {
		in    string
		value float64
		unit  string
		ok    bool
	}{
		{"120 mmHg", 120, "mmHg", true},
		{"72bpm", 72, "bpm", true},
		{"Temperature: 38.5 °C", 38.5, "°C", true},
		{"HbA1c 6.5 %", 6.5, "%", true},
		{"120/80 mmHg", 120, "mmHg", true},
		{"BP 120/80 mmHg", 120, "mmHg", true},
		{"1,200 cells/uL", 1200, "cells/uL", true},
		{"-3 mEq/L", -3, "mEq/L", true},
		{"Glucose 5.4 mmol/L, fasting", 5.4, "mmol/L", true},
		{"Positive", 0, "", false},
		{"", 0, "", false},
	}
	for _, tt := range tests {
		v, unit, ok := ParseMeasurement(tt.in)
		if ok != tt.ok || v != tt.value || unit != tt.unit {
			t.Errorf("ParseMeasurement(%q) = (%v, %q, %v), want (%v, %q, %v)",
				tt.in, v, unit, ok, tt.value, tt.unit, tt.ok)
		}
	}
}

func TestParseDose(t *testing.T) {
	tests := []struct {
		in    string
		value float64
		unit  string
	}{
		{"600mg", 600, "mg"},
		{"2.5 ml", 2.5, "ml"},
		{"Vitamin B12 100mcg", 100, "mcg"},
		{"1/2 tablet", 0.5, "tablet"},
		{"2x500mg", 1000, "mg"},
		{"2 x 250 mg", 500, "mg"},
		{"1/0 tablet", 1, "dose"},
		{"one tablet", 1, "dose"},
		{"", 1, "dose"},
	}
	for _, tt := range tests {
		q := ParseDose(tt.in)
		if q.Float() != tt.value || q.Unit != tt.unit {
			t.Errorf("ParseDose(%q) = (%v, %q), want (%v, %q)", tt.in, q.Float(), q.Unit, tt.value, tt.unit)
		}
	}
}

func TestParseDose_UCUMOnlyForRealUnits(t *testing.T) {
	if q := ParseDose("600mg"); q.System == "" || q.Code != "mg" {
		t.Errorf("expected UCUM coding for mg, got %+v", q)
	}
	if q := ParseDose("as needed"); q.System != "" {
		t.Errorf("default dose should not carry a unit system, got %+v", q)
	}
}

func TestParseTiming(t *testing.T) {
	tests := []struct {
		in        string
		frequency int
	}{
		{"once daily", 1},
		{"Once a day", 1},
		{"daily", 1},
		{"OD", 1},
		{"every 24 hours", 1},
		{"مرة واحدة يوميا", 1},
		{"twice daily", 2},
		{"twice a day", 2},
		{"BID", 2},
		{"b.i.d", 2},
		{"2x daily", 2},
		{"every 12 hours", 2},
		{"مرتين يوميا", 2},
		{"three times daily", 0},
		{"once weekly", 0},
		{"as needed", 0},
	}
	for _, tt := range tests {
		got := ParseTiming(tt.in)
		if tt.frequency == 0 {
			if got.Repeat != nil {
				t.Errorf("ParseTiming(%q) expected free text, got repeat %+v", tt.in, got.Repeat)
			}
			if got.Code == nil || got.Code.Text != tt.in {
				t.Errorf("ParseTiming(%q) expected text kept, got %+v", tt.in, got.Code)
			}
			continue
		}
		if got.Repeat == nil {
			t.Errorf("ParseTiming(%q) expected structured timing, got free text", tt.in)
			continue
		}
		if got.Repeat.Frequency != tt.frequency || got.Repeat.Period != 1 || got.Repeat.PeriodUnit != "d" {
			t.Errorf("ParseTiming(%q) = %+v, want frequency %d per 1 d", tt.in, got.Repeat, tt.frequency)
		}
	}
}
