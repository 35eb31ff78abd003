package fhir

import (
	"encoding/json"
	"regexp"
)

// resourceTypePattern matches well-formed FHIR resource type names.
var resourceTypePattern = regexp.MustCompile(`^[A-Z][A-Za-z]*$`)

// idPattern matches valid FHIR logical ids.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9\-\.]{1,64}$`)

// ValidationResult holds the results of a FHIR resource validation.
type ValidationResult struct {
	Valid  bool
	Issues []OperationOutcomeIssue
}

// ToOperationOutcome converts a ValidationResult into an OperationOutcome.
func (vr *ValidationResult) ToOperationOutcome() *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue:        vr.Issues,
	}
}

func (vr *ValidationResult) addError(code, diagnostics string) {
	vr.Valid = false
	vr.Issues = append(vr.Issues, OperationOutcomeIssue{
		Severity:    "error",
		Code:        code,
		Diagnostics: diagnostics,
	})
}

// ValidateResource checks the structural minimum required before a resource
// is forwarded to an external server: a well-formed resourceType, and a
// well-formed id when one is present. Clinical plausibility is out of scope.
func ValidateResource(resource map[string]interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if resource == nil {
		result.addError("structure", "resource is empty")
		return result
	}

	rt, ok := resource["resourceType"].(string)
	if !ok || rt == "" {
		result.addError("required", "resourceType is required")
	} else if !resourceTypePattern.MatchString(rt) {
		result.addError("value", "resourceType "+rt+" is malformed")
	}

	if rawID, present := resource["id"]; present {
		id, ok := rawID.(string)
		if !ok || !idPattern.MatchString(id) {
			result.addError("value", "id is malformed")
		}
	}

	return result
}

// ValidateResourceJSON parses raw JSON and validates it as a resource.
func ValidateResourceJSON(data []byte) *ValidationResult {
	var resource map[string]interface{}
	if err := json.Unmarshal(data, &resource); err != nil {
		result := &ValidationResult{Valid: true}
		result.addError("structure", "invalid JSON: "+err.Error())
		return result
	}
	return ValidateResource(resource)
}

// IsValidResource is a convenience wrapper returning only the verdict.
func IsValidResource(resource map[string]interface{}) bool {
	return ValidateResource(resource).Valid
}
