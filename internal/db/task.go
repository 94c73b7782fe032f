package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"tms/internal/db/models"

	"github.com/jackc/pgx/v5"
)

// MaxTitleLength is the width of the tasks.title column.
const MaxTitleLength = 255

const taskColumns = `id, title, description, status, create_date, due_date`

// InsertTask stores a new task, stamping its id and create_date, and returns the stored row
func (db *DB) InsertTask(ctx context.Context, draft models.TaskDraft) (*models.Task, error) {
	if err := checkDraft(draft); err != nil {
		return nil, err
	}
	if draft.Status == "" {
		draft.Status = models.StatusPending
	}

	query := `
		INSERT INTO tasks (title, description, status, create_date, due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + taskColumns

	rows, err := db.Query(ctx, query,
		draft.Title,
		draft.Description,
		string(draft.Status),
		db.now().UTC().Truncate(time.Microsecond),
		draft.DueDate.UTC(),
	)
	if err != nil {
		return nil, mapError(err)
	}
	task, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.Task])
	if err != nil {
		return nil, mapError(err)
	}
	return normalize(task), nil
}

// GetTask retrieves a task by its ID
func (db *DB) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1`

	rows, err := db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	task, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.Task])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return normalize(task), nil
}

// ListTasks returns every task in insertion order
func (db *DB) ListTasks(ctx context.Context) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		ORDER BY id ASC`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	tasks, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.Task])
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		normalize(t)
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return tasks, nil
}

// UpdateTask applies the supplied fields of patch to the task with the given id
func (db *DB) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if err := checkPatch(patch); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return db.GetTask(ctx, id)
	}

	query, args := buildUpdate(id, patch)
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	task, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.Task])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapError(err)
	}
	return normalize(task), nil
}

// DeleteTask permanently removes a task
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	tag, err := db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// buildUpdate renders an UPDATE touching only the columns set in patch.
func buildUpdate(id int64, patch models.TaskPatch) (string, []any) {
	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.DueDate != nil {
		set("due_date", patch.DueDate.UTC())
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE tasks
		SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), len(args), taskColumns)
	return query, args
}

// checkDraft rejects drafts the table would refuse, before a round trip.
func checkDraft(d models.TaskDraft) error {
	switch {
	case d.Title == "":
		return &ConstraintError{Field: "title", Reason: "This field is required."}
	case utf8.RuneCountInString(d.Title) > MaxTitleLength:
		return &ConstraintError{Field: "title", Reason: fmt.Sprintf("Ensure this field has no more than %d characters.", MaxTitleLength)}
	case d.Description == "":
		return &ConstraintError{Field: "description", Reason: "This field is required."}
	case strings.ContainsRune(d.Title, 0):
		return &ConstraintError{Field: "title", Reason: msgNullChar}
	case strings.ContainsRune(d.Description, 0):
		return &ConstraintError{Field: "description", Reason: msgNullChar}
	case d.DueDate.IsZero():
		return &ConstraintError{Field: "due_date", Reason: "This field is required."}
	case d.Status != "" && !d.Status.Valid():
		return &ConstraintError{Field: "status", Reason: fmt.Sprintf("%q is not a valid choice.", d.Status)}
	}
	return nil
}

func checkPatch(p models.TaskPatch) error {
	switch {
	case p.Title != nil && *p.Title == "":
		return &ConstraintError{Field: "title", Reason: "This field may not be blank."}
	case p.Title != nil && utf8.RuneCountInString(*p.Title) > MaxTitleLength:
		return &ConstraintError{Field: "title", Reason: fmt.Sprintf("Ensure this field has no more than %d characters.", MaxTitleLength)}
	case p.Description != nil && *p.Description == "":
		return &ConstraintError{Field: "description", Reason: "This field may not be blank."}
	case p.Title != nil && strings.ContainsRune(*p.Title, 0):
		return &ConstraintError{Field: "title", Reason: msgNullChar}
	case p.Description != nil && strings.ContainsRune(*p.Description, 0):
		return &ConstraintError{Field: "description", Reason: msgNullChar}
	case p.DueDate != nil && p.DueDate.IsZero():
		return &ConstraintError{Field: "due_date", Reason: "This field may not be null."}
	case p.Status != nil && !p.Status.Valid():
		return &ConstraintError{Field: "status", Reason: fmt.Sprintf("%q is not a valid choice.", *p.Status)}
	}
	return nil
}

func normalize(t *models.Task) *models.Task {
	t.CreateDate = t.CreateDate.UTC()
	t.DueDate = t.DueDate.UTC()
	return t
}
