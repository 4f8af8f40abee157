package clinical

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/healthmap/internal/domain/extraction"
	"github.com/ehr/healthmap/pkg/fhirmodels"
)

// decisionNamespace seeds decision ids; the same rule over the same
// evidence always yields the same id.
var decisionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:healthmap:clinical-decision"))

var (
	interactionGuideline = Guideline{
		Authority: "SFDA",
		Topic:     "Drug-drug interaction screening",
		Reference: "https://www.sfda.gov.sa/en/drugs",
	}
	allergyGuideline = Guideline{
		Authority: "MOH",
		Topic:     "Allergy and contraindication management",
		Reference: "https://www.moh.gov.sa/en/Ministry/MediaCenter/Publications",
	}
)

// InteractionChecker decides whether a set of medications needs an
// interaction review.
type InteractionChecker interface {
	Interacts(medications []extraction.MedicalEntity) bool
}

// Conflict pairs an allergy with a medication it contraindicates.
type Conflict struct {
	Allergy    string `json:"allergy"`
	Medication string `json:"medication"`
}

// AllergyChecker reports allergy/medication conflicts.
type AllergyChecker interface {
	Conflicts(allergies, medications []extraction.MedicalEntity) []Conflict
}

// CountInteractionChecker flags any list of more than Threshold medications.
// It does not consult an interaction database.
type CountInteractionChecker struct {
	Threshold int
}

func (c CountInteractionChecker) Interacts(medications []extraction.MedicalEntity) bool {
	return len(medications) > c.Threshold
}

// NoAllergyConflicts never reports a conflict. Replace it with a
// terminology-backed checker to enable the contraindication rule.
type NoAllergyConflicts struct{}

func (NoAllergyConflicts) Conflicts(_, _ []extraction.MedicalEntity) []Conflict {
	return nil
}

// AllergyCheckerFunc adapts a function to AllergyChecker.
type AllergyCheckerFunc func(allergies, medications []extraction.MedicalEntity) []Conflict

func (f AllergyCheckerFunc) Conflicts(allergies, medications []extraction.MedicalEntity) []Conflict {
	return f(allergies, medications)
}

// Engine runs the safety rules over normalized entities.
type Engine struct {
	interactions InteractionChecker
	allergies    AllergyChecker
	logger       zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithInteractionChecker(c InteractionChecker) Option {
	return func(e *Engine) { e.interactions = c }
}

func WithAllergyChecker(c AllergyChecker) Option {
	return func(e *Engine) { e.allergies = c }
}

// NewEngine creates an Engine with the default count-based interaction
// rule and an allergy checker that never conflicts.
func NewEngine(logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		interactions: CountInteractionChecker{Threshold: 2},
		allergies:    NoAllergyConflicts{},
		logger:       logger.With().Str("component", "clinical").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the decisions for the medication and allergy entities in
// the list. The result is never nil.
func (e *Engine) Evaluate(entities []extraction.MedicalEntity) []Decision {
	var medications, allergies []extraction.MedicalEntity
	for _, ent := range entities {
		switch ent.Type {
		case extraction.EntityMedication:
			medications = append(medications, ent)
		case extraction.EntityAllergy:
			allergies = append(allergies, ent)
		}
	}

	decisions := []Decision{}
	if d, ok := e.checkInteractions(medications); ok {
		decisions = append(decisions, d)
	}
	if d, ok := e.checkAllergies(allergies, medications); ok {
		decisions = append(decisions, d)
	}

	e.logger.Debug().
		Int("medications", len(medications)).
		Int("allergies", len(allergies)).
		Int("decisions", len(decisions)).
		Msg("clinical rules evaluated")
	return decisions
}

func (e *Engine) checkInteractions(medications []extraction.MedicalEntity) (Decision, bool) {
	if !e.interactions.Interacts(medications) {
		return Decision{}, false
	}
	evidence := values(medications)
	return Decision{
		ID:       decisionID("drug-interaction", evidence),
		Type:     DecisionAlert,
		Severity: SeverityMedium,
		Message: fhirmodels.Text(
			fmt.Sprintf("Potential drug interaction: %d medications prescribed together require pharmacist review", len(medications)),
			fmt.Sprintf("تفاعل دوائي محتمل: %d أدوية موصوفة معاً تتطلب مراجعة الصيدلي", len(medications)),
		),
		Evidence:       evidence,
		ActionRequired: true,
		Guidelines:     []Guideline{interactionGuideline},
	}, true
}

func (e *Engine) checkAllergies(allergies, medications []extraction.MedicalEntity) (Decision, bool) {
	if len(allergies) == 0 || len(medications) == 0 {
		return Decision{}, false
	}
	conflicts := e.allergies.Conflicts(allergies, medications)
	if len(conflicts) == 0 {
		return Decision{}, false
	}

	evidence := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		evidence = append(evidence, c.Medication+" / "+c.Allergy)
	}
	e.logger.Warn().Strs("conflicts", evidence).Msg("allergy contraindication detected")

	return Decision{
		ID:       decisionID("allergy-contraindication", evidence),
		Type:     DecisionContraindication,
		Severity: SeverityHigh,
		Message: fhirmodels.Text(
			"Prescribed medication conflicts with a documented allergy",
			"الدواء الموصوف يتعارض مع حساسية موثقة لدى المريض",
		),
		Evidence:       evidence,
		ActionRequired: true,
		Guidelines:     []Guideline{allergyGuideline},
	}, true
}

func decisionID(rule string, evidence []string) string {
	return uuid.NewSHA1(decisionNamespace, []byte(rule+"|"+strings.Join(evidence, "|"))).String()
}

func values(entities []extraction.MedicalEntity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Value
	}
	return out
}
