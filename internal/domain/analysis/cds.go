package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ehr/healthmap/internal/domain/clinical"
	"github.com/ehr/healthmap/internal/domain/extraction"
	"github.com/ehr/healthmap/internal/domain/mapping"
	"github.com/ehr/healthmap/internal/platform/fhir"
	"github.com/ehr/healthmap/pkg/fhirmodels"
)

// SafetyServiceID is the CDS Hooks service id for entity safety screening.
const SafetyServiceID = "entity-safety"

// safetyContext is the hook context accepted by the safety service.
type safetyContext struct {
	PatientID string                     `json:"patientId"`
	Language  string                     `json:"language,omitempty"`
	Entities  []extraction.MedicalEntity `json:"entities"`
}

var severityIndicator = map[clinical.Severity]string{
	clinical.SeverityCritical: fhir.CDSIndicatorCritical,
	clinical.SeverityHigh:     fhir.CDSIndicatorCritical,
	clinical.SeverityMedium:   fhir.CDSIndicatorWarning,
	clinical.SeverityLow:      fhir.CDSIndicatorInfo,
}

// RegisterSafetyService exposes the clinical rules as the entity-safety
// CDS service on the order-select hook.
func RegisterSafetyService(h *fhir.CDSHooksHandler, rules *clinical.Engine) {
	h.RegisterService(fhir.CDSService{
		Hook:        "order-select",
		Title:       "Medication Safety Screening",
		Description: "Screens extracted medications and allergies for interactions and contraindications",
		ID:          SafetyServiceID,
	}, func(ctx context.Context, req fhir.CDSHookRequest) (*fhir.CDSHookResponse, error) {
		var hc safetyContext
		if err := json.Unmarshal(req.Context, &hc); err != nil {
			return nil, fmt.Errorf("decode hook context: %w", err)
		}
		normalized, _ := mapping.NormalizeEntities(hc.Entities)
		decisions := rules.Evaluate(normalized)
		return &fhir.CDSHookResponse{Cards: DecisionCards(decisions, hc.Language)}, nil
	})
}

// DecisionCards converts decisions into CDS cards. Summaries are written in
// lang ("ar" or "ar-SA" for Arabic) and the detail carries the other
// variant.
func DecisionCards(decisions []clinical.Decision, lang string) []fhir.CDSCard {
	cards := make([]fhir.CDSCard, 0, len(decisions))
	for _, d := range decisions {
		summary, detail := d.Message.EN, d.Message.AR
		if (lang == "ar" || lang == fhirmodels.LanguageArabic) && d.Message.AR != "" {
			summary, detail = d.Message.AR, d.Message.EN
		}
		if len([]rune(summary)) > 140 {
			summary = string([]rune(summary)[:139]) + "…"
		}

		indicator, ok := severityIndicator[d.Severity]
		if !ok {
			indicator = fhir.CDSIndicatorInfo
		}

		card := fhir.CDSCard{
			UUID:      d.ID,
			Summary:   summary,
			Detail:    detail,
			Indicator: indicator,
			Source:    fhir.CDSSource{Label: "Healthmap clinical rules"},
		}
		for _, g := range d.Guidelines {
			if card.Source.Topic == nil {
				card.Source.Label = g.Authority
				card.Source.Topic = &fhir.CDSCoding{Code: string(d.Type), Display: g.Topic}
			}
			if g.Reference != "" {
				card.Links = append(card.Links, fhir.CDSLink{Label: g.Authority + ": " + g.Topic, URL: g.Reference, Type: "absolute"})
			}
		}
		cards = append(cards, card)
	}
	return cards
}
