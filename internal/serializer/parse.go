// Package serializer converts between the JSON wire representation of a task
// and the models stored by the db package.
package serializer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"tms/internal/db/models"

	"github.com/go-playground/validator/v10"
)

// fieldSet holds the decoded text fields of a payload before they become a
// draft or a patch. Nil means the key was absent.
type fieldSet struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description" validate:"omitnil,min=1"`
	Status      *string `json:"status" validate:"omitnil,oneof=pending in_progress completed"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var readOnlyFields = []string{"id", "create_date"}

// ParseCreate validates a creation payload. title, description and due_date
// are required; status defaults to pending.
func ParseCreate(body []byte) (models.TaskDraft, error) {
	var draft models.TaskDraft

	fields, due, err := parse(body, true)
	if err != nil {
		return draft, err
	}

	draft.Title = *fields.Title
	draft.Description = *fields.Description
	draft.DueDate = *due
	draft.Status = models.StatusPending
	if fields.Status != nil {
		draft.Status = models.Status(*fields.Status)
	}
	return draft, nil
}

// ParseUpdate validates an update payload. Every field is optional; the ones
// present follow the same rules as on create.
func ParseUpdate(body []byte) (models.TaskPatch, error) {
	var patch models.TaskPatch

	fields, due, err := parse(body, false)
	if err != nil {
		return patch, err
	}

	patch.Title = fields.Title
	patch.Description = fields.Description
	patch.DueDate = due
	if fields.Status != nil {
		s := models.Status(*fields.Status)
		patch.Status = &s
	}
	return patch, nil
}

func parse(body []byte, create bool) (*fieldSet, *time.Time, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, nil, err
	}

	verr := &ValidationError{}
	for _, name := range readOnlyFields {
		if _, ok := raw[name]; ok {
			verr.Add(name, msgReadOnly)
		}
	}

	fields := &fieldSet{
		Title:       decodeString(raw, "title", create, verr),
		Description: decodeString(raw, "description", create, verr),
		Status:      decodeString(raw, "status", false, verr),
	}
	due := decodeTimestamp(raw, "due_date", create, verr)

	if err := validate.Struct(fields); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, nil, fmt.Errorf("error validating payload: %w", err)
		}
		for _, fe := range verrs {
			verr.Add(fe.Field(), message(fe, fields))
		}
	}

	if err := verr.orNil(); err != nil {
		return nil, nil, err
	}
	return fields, due, nil
}

// decodeObject checks that body is a JSON object and splits it into its members.
func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("%w - %v", ErrMalformedPayload, err)
	}
	if _, ok := v.(map[string]any); !ok {
		verr := &ValidationError{}
		verr.Add(NonFieldErrors, fmt.Sprintf(msgNotObject, jsonKind(v)))
		return nil, verr
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w - %v", ErrMalformedPayload, err)
	}
	return raw, nil
}

func decodeString(raw map[string]json.RawMessage, name string, required bool, verr *ValidationError) *string {
	msg, ok := raw[name]
	if !ok {
		if required {
			verr.Add(name, msgRequired)
		}
		return nil
	}
	if isNull(msg) {
		verr.Add(name, msgNull)
		return nil
	}

	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		if name == "status" {
			verr.Add(name, fmt.Sprintf("%q is not a valid choice.", string(msg)))
		} else {
			verr.Add(name, msgNotString)
		}
		return nil
	}
	if strings.ContainsRune(s, 0) {
		verr.Add(name, msgNullChar)
		return nil
	}
	if name != "status" {
		s = strings.TrimSpace(s)
	}
	return &s
}

func decodeTimestamp(raw map[string]json.RawMessage, name string, required bool, verr *ValidationError) *time.Time {
	msg, ok := raw[name]
	if !ok {
		if required {
			verr.Add(name, msgRequired)
		}
		return nil
	}
	if isNull(msg) {
		verr.Add(name, msgNull)
		return nil
	}

	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		verr.Add(name, msgDatetime)
		return nil
	}
	ts, err := ParseTimestamp(s)
	if err != nil {
		verr.Add(name, msgDatetime)
		return nil
	}
	// the zero time marks an absent due date further down
	if ts.IsZero() {
		verr.Add(name, msgZeroDate)
		return nil
	}
	return &ts
}

func message(fe validator.FieldError, fields *fieldSet) string {
	switch fe.Tag() {
	case "min":
		return msgBlank
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", *fields.Status)
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}

func isNull(msg json.RawMessage) bool {
	return string(bytes.TrimSpace(msg)) == "null"
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "list"
	case string:
		return "str"
	case float64:
		return "number"
	case bool:
		return "bool"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
