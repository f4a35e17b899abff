// Package validation provides argument validation for MCP tool invocations.
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
)

// MaxStringLength is the maximum length for free-text arguments
const MaxStringLength = 256

var (
	// publicKeyRegex validates Stellar account public keys (strkey, G prefix)
	publicKeyRegex = regexp.MustCompile(`^G[A-Z2-7]{55}$`)
)

// IsValidPublicKey checks if a string is a well-formed node public key
func IsValidPublicKey(key string) bool {
	return publicKeyRegex.MatchString(key)
}

// ParseTimestamp parses an ISO-8601 timestamp. Both RFC 3339 and a bare
// date (YYYY-MM-DD, read as midnight UTC) are accepted.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: expected ISO-8601 (e.g. 2024-01-31T00:00:00Z)", s)
}

// SanitizeString removes dangerous characters and limits length in bytes,
// cutting on a rune boundary
func SanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(s)

	if len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}

	s = strings.ReplaceAll(s, "\x00", "")

	return s
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "invalid arguments: " + strings.Join(msgs, "; ")
}

// Validate validates a request and returns errors
func Validate(validators ...func() *ValidationError) ValidationErrors {
	var errors ValidationErrors
	for _, v := range validators {
		if err := v(); err != nil {
			errors = append(errors, *err)
		}
	}
	return errors
}

// Required checks if a field is non-empty
func Required(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
		return nil
	}
}

// ValidPublicKey checks if a field is a well-formed public key
func ValidPublicKey(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil // Use Required for required fields
		}
		if !IsValidPublicKey(value) {
			return &ValidationError{Field: field, Message: "must be a public key (G + 55 base32 characters)"}
		}
		return nil
	}
}

// ValidTimestamp checks if a field parses as an ISO-8601 timestamp
func ValidTimestamp(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil
		}
		if _, err := ParseTimestamp(value); err != nil {
			return &ValidationError{Field: field, Message: "must be an RFC 3339 timestamp or a YYYY-MM-DD date"}
		}
		return nil
	}
}

// MinItems checks that a list argument has at least min entries
func MinItems(field string, values []string, min int) func() *ValidationError {
	return func() *ValidationError {
		if len(values) < min {
			return &ValidationError{Field: field, Message: fmt.Sprintf("requires at least %d entries, got %d", min, len(values))}
		}
		return nil
	}
}

// OneOf checks that a field holds one of the allowed values
func OneOf(field, value string, allowed ...string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" || slices.Contains(allowed, value) {
			return nil
		}
		return &ValidationError{Field: field, Message: "must be one of " + strings.Join(allowed, ", ")}
	}
}

// MaxLength checks if a field exceeds max length
func MaxLength(field, value string, max int) func() *ValidationError {
	return func() *ValidationError {
		if len(value) > max {
			return &ValidationError{Field: field, Message: "exceeds maximum length"}
		}
		return nil
	}
}

// CheckSchema validates decoded tool arguments against a JSON schema
// document. Schema problems are reported as a single error on field "schema".
func CheckSchema(schema []byte, args map[string]any) ValidationErrors {
	if args == nil {
		args = map[string]any{}
	}
	doc, err := json.Marshal(args)
	if err != nil {
		return ValidationErrors{{Field: "arguments", Message: "not encodable as JSON"}}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return ValidationErrors{{Field: "schema", Message: err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	var errs ValidationErrors
	for _, re := range result.Errors() {
		field := re.Field()
		if field == "(root)" {
			if p, ok := re.Details()["property"].(string); ok {
				field = p
			}
		}
		errs = append(errs, ValidationError{Field: field, Message: re.Description()})
	}
	return errs
}
