package mapping

import (
	"fmt"

	"github.com/ehr/healthmap/internal/domain/extraction"
	"github.com/ehr/healthmap/pkg/fhirmodels"
)

// SkippedEntity records an input entity that was dropped during
// normalization.
type SkippedEntity struct {
	Index  int                      `json:"index"`
	Entity extraction.MedicalEntity `json:"entity"`
	Reason fhirmodels.LocalizedText `json:"reason"`
}

type entityKey struct {
	typ   extraction.EntityType
	value string
	pos   extraction.Position
}

// NormalizeEntities drops malformed entities and removes duplicates sharing
// type, value and position. The first occurrence wins and input order is
// kept. The input slice is never modified.
func NormalizeEntities(entities []extraction.MedicalEntity) ([]extraction.MedicalEntity, []SkippedEntity) {
	out := make([]extraction.MedicalEntity, 0, len(entities))
	var skipped []SkippedEntity
	seen := make(map[entityKey]struct{}, len(entities))

	for i, e := range entities {
		switch {
		case !e.Type.Valid():
			skipped = append(skipped, SkippedEntity{Index: i, Entity: e, Reason: fhirmodels.Text(
				fmt.Sprintf("unsupported entity type %q", e.Type),
				fmt.Sprintf("نوع الكيان %q غير مدعوم", e.Type),
			)})
			continue
		case e.Position.Start > e.Position.End:
			skipped = append(skipped, SkippedEntity{Index: i, Entity: e, Reason: fhirmodels.Text(
				fmt.Sprintf("invalid position: start %d is after end %d", e.Position.Start, e.Position.End),
				fmt.Sprintf("موضع غير صالح: البداية %d بعد النهاية %d", e.Position.Start, e.Position.End),
			)})
			continue
		}

		k := entityKey{typ: e.Type, value: e.Value, pos: e.Position}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out, skipped
}
