package mapping

import (
	"github.com/rs/zerolog"

	"github.com/ehr/healthmap/internal/domain/extraction"
	"github.com/ehr/healthmap/internal/platform/fhir"
)

// Result is the outcome of mapping one document.
type Result struct {
	Resource         *fhir.Resource         `json:"resource"`
	Profile          string                 `json:"profile"`
	ValidationErrors []fhir.ValidationError `json:"validationErrors"`
	MappingQuality   int                    `json:"mappingQuality"`
	Extensions       []fhir.Extension       `json:"extensions"`
	Skipped          []SkippedEntity        `json:"skipped,omitempty"`
}

// Options configures a Service.
type Options struct {
	IdentifierSystem       string
	DefaultConfidentiality string
}

// Service runs the mapping pipeline: normalize, resolve, build, validate,
// score. It holds no per-call state; one value serves all goroutines.
type Service struct {
	mapper    *Mapper
	validator *fhir.Validator
	logger    zerolog.Logger
}

// NewService creates a mapping Service.
func NewService(profiles *fhir.ProfileRegistry, opts Options, logger zerolog.Logger) *Service {
	return &Service{
		mapper:    NewMapper(profiles, opts.IdentifierSystem, opts.DefaultConfidentiality),
		validator: fhir.NewValidator(),
		logger:    logger.With().Str("component", "mapping").Logger(),
	}
}

// Map converts a document and its extracted entities into a FHIR resource.
// Only a missing document id or category is an error; every other defect
// is reported in the result.
func (s *Service) Map(doc extraction.HealthcareDocument, entities []extraction.MedicalEntity) (*Result, error) {
	if err := CheckDocument(doc); err != nil {
		s.logger.Warn().Err(err).Str("document_id", doc.ID).Msg("mapping aborted")
		return nil, err
	}

	normalized, skipped := NormalizeEntities(entities)
	for _, sk := range skipped {
		s.logger.Warn().
			Str("document_id", doc.ID).
			Int("index", sk.Index).
			Str("entity_type", string(sk.Entity.Type)).
			Str("reason", sk.Reason.EN).
			Msg("entity skipped")
	}

	if !IsMappedCategory(doc.Category) {
		s.logger.Debug().
			Str("document_id", doc.ID).
			Str("category", string(doc.Category)).
			Msg("unmapped category, using fallback resource type")
	}
	resourceType := ResolveResourceType(doc.Category)

	res, profile := s.mapper.Build(doc, resourceType, normalized)

	issues := s.validator.Validate(res)
	if issues == nil {
		issues = []fhir.ValidationError{}
	}
	quality := ScoreQuality(issues, normalized, res)

	exts := make([]fhir.Extension, len(res.Extension))
	copy(exts, res.Extension)

	s.logger.Debug().
		Str("document_id", doc.ID).
		Str("resource_type", resourceType).
		Int("entities", len(normalized)).
		Int("issues", len(issues)).
		Bool("valid", !fhir.HasErrors(issues)).
		Int("quality", quality).
		Msg("document mapped")

	return &Result{
		Resource:         res,
		Profile:          profile,
		ValidationErrors: issues,
		MappingQuality:   quality,
		Extensions:       exts,
		Skipped:          skipped,
	}, nil
}
