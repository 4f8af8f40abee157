package compliance

import (
	"github.com/rs/zerolog"

	"github.com/ehr/healthmap/internal/domain/extraction"
	"github.com/ehr/healthmap/internal/platform/fhir"
)

// SaudiComplianceData summarises a document's standing against the Saudi
// regulators and national platforms.
type SaudiComplianceData struct {
	MOHApproval       bool                   `json:"mohApproval"`
	NPHIESCompatible  bool                   `json:"nphiesCompatible"`
	WasfatyIntegrated bool                   `json:"wasfatyIntegrated"`
	SehhatyCompatible bool                   `json:"sehhatyCompatible"`
	PDPLCompliant     bool                   `json:"pdplCompliant"`
	ValidationResults []fhir.ValidationError `json:"validationResults"`
}

// Assessor runs the MOH, NPHIES and PDPL checks and folds them into one
// record.
type Assessor struct {
	moh    Check
	nphies Check
	pdpl   Check
	logger zerolog.Logger
}

// Option configures an Assessor.
type Option func(*Assessor)

// WithCheck replaces the check registered under c.Name(). Checks with an
// unknown name are ignored.
func WithCheck(c Check) Option {
	return func(a *Assessor) {
		switch c.Name() {
		case CheckMOH:
			a.moh = c
		case CheckNPHIES:
			a.nphies = c
		case CheckPDPL:
			a.pdpl = c
		}
	}
}

// NewAssessor creates an Assessor with the default checks.
func NewAssessor(profiles *fhir.ProfileRegistry, logger zerolog.Logger, opts ...Option) *Assessor {
	a := &Assessor{
		moh:    MOHCheck{},
		nphies: NewNPHIESCheck(profiles),
		pdpl:   PDPLCheck{},
		logger: logger.With().Str("component", "compliance").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assess evaluates raw document content of the given category.
func (a *Assessor) Assess(content string, category extraction.Category) SaudiComplianceData {
	moh := a.moh.Run(content, category)
	nphies := a.nphies.Run(content, category)
	pdpl := a.pdpl.Run(content, category)

	out := SaudiComplianceData{
		MOHApproval:       moh.Passed,
		NPHIESCompatible:  nphies.Passed,
		PDPLCompliant:     pdpl.Passed,
		WasfatyIntegrated: category == extraction.CategoryPrescription && moh.Passed,
		SehhatyCompatible: nphies.Passed && pdpl.Passed,
		ValidationResults: []fhir.ValidationError{},
	}
	out.ValidationResults = append(out.ValidationResults, moh.Issues...)
	out.ValidationResults = append(out.ValidationResults, nphies.Issues...)
	out.ValidationResults = append(out.ValidationResults, pdpl.Issues...)

	a.logger.Debug().
		Str("category", string(category)).
		Bool("moh", out.MOHApproval).
		Bool("nphies", out.NPHIESCompatible).
		Bool("pdpl", out.PDPLCompliant).
		Int("issues", len(out.ValidationResults)).
		Msg("compliance assessed")
	return out
}
