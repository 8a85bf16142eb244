package application

import (
	"fmt"
	"strings"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// ValidateID checks that an entity identifier is positive
func ValidateID(fieldName string, id int64) error {
	if id <= 0 {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must be positive, got: %d", formatFieldName(fieldName), id),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "cardID" -> "card ID")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"cardID":         "card ID",
		"boardID":        "board ID",
		"workspaceID":    "workspace ID",
		"relationshipID": "relationship ID",
		"queryID":        "query ID",
		"startCardID":    "start card ID",
		"endCardID":      "end card ID",
		"title":          "title",
		"name":           "name",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}
