package serializer

import (
	"errors"
	"strings"
	"time"

	"tms/internal/db/models"
)

// TimestampFormat is the text form of every timestamp the API emits.
const TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// TaskPayload is the wire form of a stored task. Field order is the order
// clients see.
type TaskPayload struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreateDate  string `json:"create_date"`
	DueDate     string `json:"due_date"`
}

func Render(t *models.Task) TaskPayload {
	return TaskPayload{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		CreateDate:  FormatTimestamp(t.CreateDate),
		DueDate:     FormatTimestamp(t.DueDate),
	}
}

// RenderList renders tasks in order; an empty input yields an empty, non-nil slice.
func RenderList(tasks []*models.Task) []TaskPayload {
	out := make([]TaskPayload, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Render(t))
	}
	return out
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// ParseTimestamp accepts ISO-8601 date-times with or without an offset.
// Values without an offset are taken as UTC. The result is UTC with
// microsecond precision.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Microsecond), nil
		}
	}
	return time.Time{}, errors.New("invalid timestamp " + s)
}
