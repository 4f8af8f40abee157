package fhir

// OperationOutcome severity levels (FHIR R4).
const (
	IssueSeverityFatal       = "fatal"
	IssueSeverityError       = "error"
	IssueSeverityWarning     = "warning"
	IssueSeverityInformation = "information"
)

// OperationOutcome issue type codes (FHIR R4).
const (
	IssueTypeInvalid       = "invalid"
	IssueTypeRequired      = "required"
	IssueTypeValue         = "value"
	IssueTypeNotFound      = "not-found"
	IssueTypeProcessing    = "processing"
	IssueTypeBusinessRule  = "business-rule"
	IssueTypeException     = "exception"
	IssueTypeInformational = "informational"
	IssueTypeTooCostly     = "too-costly"
	IssueTypeThrottled     = "throttled"
	IssueTypeTimeout       = "timeout"
)

// OperationOutcome represents a FHIR OperationOutcome for errors.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string           `json:"severity"`
	Code        string           `json:"code"`
	Details     *CodeableConcept `json:"details,omitempty"`
	Diagnostics string           `json:"diagnostics,omitempty"`
	Expression  []string         `json:"expression,omitempty"`
}

func NewOperationOutcome(severity, code, diagnostics string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{
			{
				Severity:    severity,
				Code:        code,
				Diagnostics: diagnostics,
			},
		},
	}
}

func ErrorOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeProcessing, diagnostics)
}

func NotFoundOutcome(resourceType, id string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeNotFound, resourceType+"/"+id+" not found")
}

// RequiredOutcome reports a missing mandatory input as an invalid request.
func RequiredOutcome(diagnostics string, expression ...string) *OperationOutcome {
	oo := NewOperationOutcome(IssueSeverityError, IssueTypeRequired, diagnostics)
	oo.Issue[0].Expression = expression
	return oo
}

// severityToIssue maps diagnostic severities onto OperationOutcome severities.
var severityToIssue = map[Severity]string{
	SeverityError:   IssueSeverityError,
	SeverityWarning: IssueSeverityWarning,
	SeverityInfo:    IssueSeverityInformation,
}

// ValidationOutcome converts mapping diagnostics into an OperationOutcome.
// The English message goes into diagnostics; both variants are carried in
// details.text and details.coding so Arabic-first clients can render them.
// An empty diagnostic list yields a single informational "all ok" issue.
func ValidationOutcome(errs []ValidationError) *OperationOutcome {
	if len(errs) == 0 {
		return NewOperationOutcome(IssueSeverityInformation, IssueTypeInformational, "no issues detected")
	}
	issues := make([]OperationOutcomeIssue, 0, len(errs))
	for _, ve := range errs {
		code := IssueTypeInvalid
		if ve.Severity == SeverityInfo {
			code = IssueTypeInformational
		}
		issue := OperationOutcomeIssue{
			Severity:    severityToIssue[ve.Severity],
			Code:        code,
			Diagnostics: ve.Message.EN,
			Details: &CodeableConcept{
				Text: ve.Message.AR,
				Coding: []Coding{
					{System: "urn:ietf:bcp:47", Code: "en-US", Display: ve.Message.EN},
					{System: "urn:ietf:bcp:47", Code: "ar-SA", Display: ve.Message.AR},
				},
			},
		}
		if ve.Path != "" {
			issue.Expression = []string{ve.Path}
		}
		issues = append(issues, issue)
	}
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue:        issues,
	}
}
