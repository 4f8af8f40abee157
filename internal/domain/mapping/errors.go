package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ehr/healthmap/internal/domain/extraction"
)

// ErrConstruction is the sentinel for inputs that cannot produce a resource.
var ErrConstruction = errors.New("construction failure")

// ConstructionError lists the mandatory document fields that were missing.
type ConstructionError struct {
	Fields []string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: missing required document fields: %s", ErrConstruction, strings.Join(e.Fields, ", "))
}

func (e *ConstructionError) Unwrap() error {
	return ErrConstruction
}

var validate = validator.New()

// fieldPaths maps struct field names onto the JSON paths reported to callers.
var fieldPaths = map[string]string{
	"ID":       "document.id",
	"Category": "document.category",
}

// CheckDocument returns a *ConstructionError when doc lacks an id or a
// category; nil otherwise.
func CheckDocument(doc extraction.HealthcareDocument) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate document: %w", err)
	}
	ce := &ConstructionError{}
	for _, fe := range verrs {
		path, ok := fieldPaths[fe.StructField()]
		if !ok {
			path = "document." + strings.ToLower(fe.StructField())
		}
		ce.Fields = append(ce.Fields, path)
	}
	return ce
}
