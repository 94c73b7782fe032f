package serializer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedPayload is returned when the request body is not valid JSON.
var ErrMalformedPayload = errors.New("JSON parse error")

// NonFieldErrors is the key used for violations that belong to no single field.
const NonFieldErrors = "non_field_errors"

const (
	msgRequired  = "This field is required."
	msgNull      = "This field may not be null."
	msgBlank     = "This field may not be blank."
	msgNotString = "Not a valid string."
	msgReadOnly  = "This field is read-only."
	msgDatetime  = "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z]."
	msgNotObject = "Invalid data. Expected a dictionary, but got %s."
	msgNullChar  = "Null characters are not allowed."
	msgZeroDate  = "Datetime must be later than 0001-01-01T00:00:00Z."
)

// ValidationError maps each offending field to the violations found for it.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a violation for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Has reports whether field has at least one violation.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
