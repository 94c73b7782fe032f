package serializer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"tms/internal/db/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireFieldErrors(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr
}

func TestParseCreate(t *testing.T) {
	draft, err := ParseCreate([]byte(`{
		"title": "Write spec",
		"description": "draft v1",
		"due_date": "2025-01-01T00:00:00Z"
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Write spec", draft.Title)
	assert.Equal(t, "draft v1", draft.Description)
	assert.Equal(t, models.StatusPending, draft.Status)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), draft.DueDate)
}

func TestParseCreateWithStatus(t *testing.T) {
	draft, err := ParseCreate([]byte(`{"title":" Ship ","description":"v2","status":"in_progress","due_date":"2025-03-04T05:06:07.123456+02:00","color":"red"}`))
	require.NoError(t, err)

	assert.Equal(t, "Ship", draft.Title)
	assert.Equal(t, models.StatusInProgress, draft.Status)
	assert.Equal(t, time.Date(2025, 3, 4, 3, 6, 7, 123456000, time.UTC), draft.DueDate)
}

func TestParseCreateErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields map[string]string
	}{
		{
			name: "all missing in one pass",
			body: `{}`,
			fields: map[string]string{
				"title":       msgRequired,
				"description": msgRequired,
				"due_date":    msgRequired,
			},
		},
		{
			name:   "title too long",
			body:   `{"title":"` + strings.Repeat("a", 256) + `","description":"d","due_date":"2025-01-01T00:00:00Z"}`,
			fields: map[string]string{"title": "Ensure this field has no more than 255 characters."},
		},
		{
			name:   "unknown status",
			body:   `{"title":"t","description":"d","status":"archived","due_date":"2025-01-01T00:00:00Z"}`,
			fields: map[string]string{"status": `"archived" is not a valid choice.`},
		},
		{
			name: "blank and null",
			body: `{"title":"   ","description":null,"due_date":"2025-01-01T00:00:00Z"}`,
			fields: map[string]string{
				"title":       msgBlank,
				"description": msgNull,
			},
		},
		{
			name: "wrong types",
			body: `{"title":42,"description":["x"],"status":1,"due_date":20250101}`,
			fields: map[string]string{
				"title":       msgNotString,
				"description": msgNotString,
				"status":      `"1" is not a valid choice.`,
				"due_date":    msgDatetime,
			},
		},
		{
			name:   "bad timestamp",
			body:   `{"title":"t","description":"d","due_date":"next tuesday"}`,
			fields: map[string]string{"due_date": msgDatetime},
		},
		{
			name: "null characters",
			body: `{"title":"a\u0000b","description":"\u0000","due_date":"2025-01-01T00:00:00Z"}`,
			fields: map[string]string{
				"title":       msgNullChar,
				"description": msgNullChar,
			},
		},
		{
			name:   "zero due date",
			body:   `{"title":"t","description":"d","due_date":"0001-01-01T00:00:00Z"}`,
			fields: map[string]string{"due_date": msgZeroDate},
		},
		{
			name: "read-only fields",
			body: `{"id":9,"create_date":"2025-01-01T00:00:00Z","title":"t","description":"d","due_date":"2025-01-01T00:00:00Z"}`,
			fields: map[string]string{
				"id":          msgReadOnly,
				"create_date": msgReadOnly,
			},
		},
		{
			name:   "not an object",
			body:   `["title"]`,
			fields: map[string]string{NonFieldErrors: "Invalid data. Expected a dictionary, but got list."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCreate([]byte(tt.body))
			verr := requireFieldErrors(t, err)

			require.Len(t, verr.Fields, len(tt.fields), verr.Error())
			for field, msg := range tt.fields {
				assert.Equal(t, []string{msg}, verr.Fields[field], field)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := ParseCreate([]byte(`{"title":`))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = ParseUpdate([]byte(`nope`))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestParseUpdate(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		patch, err := ParseUpdate(nil)
		require.NoError(t, err)
		assert.True(t, patch.Empty())
	})

	t.Run("status only", func(t *testing.T) {
		patch, err := ParseUpdate([]byte(`{"status":"completed"}`))
		require.NoError(t, err)
		require.NotNil(t, patch.Status)
		assert.Equal(t, models.StatusCompleted, *patch.Status)
		assert.Nil(t, patch.Title)
		assert.Nil(t, patch.Description)
		assert.Nil(t, patch.DueDate)
	})

	t.Run("naive due date", func(t *testing.T) {
		patch, err := ParseUpdate([]byte(`{"due_date":"2025-06-01 09:30"}`))
		require.NoError(t, err)
		require.NotNil(t, patch.DueDate)
		assert.Equal(t, time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC), *patch.DueDate)
	})

	t.Run("same rules as create", func(t *testing.T) {
		_, err := ParseUpdate([]byte(`{"title":"","status":"archived","id":3}`))
		verr := requireFieldErrors(t, err)
		assert.True(t, verr.Has("title"))
		assert.True(t, verr.Has("status"))
		assert.True(t, verr.Has("id"))
		assert.False(t, verr.Has("description"))
	})
}

func TestRender(t *testing.T) {
	task := &models.Task{
		ID:          12,
		Title:       "Write spec",
		Description: "draft v1",
		Status:      models.StatusPending,
		CreateDate:  time.Date(2024, 12, 1, 8, 0, 0, 1500, time.FixedZone("X", 3600)),
		DueDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	out, err := json.Marshal(Render(task))
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":12,"title":"Write spec","description":"draft v1","status":"pending",`+
			`"create_date":"2024-12-01T07:00:00.000001Z","due_date":"2025-01-01T00:00:00.000000Z"}`,
		string(out))

	list := RenderList(nil)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestRenderParseRoundTrip(t *testing.T) {
	orig := models.Task{
		ID:          3,
		Title:       "Round trip",
		Description: "multi\nline",
		Status:      models.StatusInProgress,
		CreateDate:  time.Date(2024, 5, 5, 5, 5, 5, 5000, time.UTC),
		DueDate:     time.Date(2025, 7, 8, 9, 10, 11, 123456000, time.UTC),
	}

	body, err := json.Marshal(Render(&orig))
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	delete(payload, "id")
	delete(payload, "create_date")
	body, err = json.Marshal(payload)
	require.NoError(t, err)

	patch, err := ParseUpdate(body)
	require.NoError(t, err)

	var got models.Task
	patch.Apply(&got)
	assert.Equal(t, orig.Title, got.Title)
	assert.Equal(t, orig.Description, got.Description)
	assert.Equal(t, orig.Status, got.Status)
	assert.Equal(t, orig.DueDate, got.DueDate)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2025-01-01T00:00:00Z",
		"2025-01-01T00:00:00.000Z",
		"2025-01-01T01:00:00+01:00",
		"2025-01-01T00:00",
		"2025-01-01T00:00Z",
		"2025-01-01 00:00:00",
		"2025-01-01T00:00:00.0000001",
	} {
		got, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "2025-01-01", "01/01/2025", "2025-13-01T00:00:00Z"} {
		_, err := ParseTimestamp(in)
		assert.Error(t, err, in)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	verr := &ValidationError{}
	assert.NoError(t, verr.orNil())

	verr.Add("title", msgRequired)
	verr.Add("due_date", msgRequired)
	assert.Equal(t,
		"validation failed: due_date: This field is required.; title: This field is required.",
		verr.Error())
}
