package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"tms/internal/db"
	"tms/internal/db/models"
)

// memStore is an in-memory TaskStore for handler tests.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	tasks     map[int64]models.Task
	listErr   error
	updateErr error
	pingErr   error
}

// Compile-time interface checks.
var (
	_ TaskStore = (*memStore)(nil)
	_ TaskStore = (*db.DB)(nil)
	_ Pinger    = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{tasks: make(map[int64]models.Task)}
}

func (m *memStore) InsertTask(_ context.Context, d models.TaskDraft) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d.Status == "" {
		d.Status = models.StatusPending
	}
	m.nextID++
	t := models.Task{
		ID:          m.nextID,
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		CreateDate:  time.Now().UTC().Truncate(time.Microsecond),
		DueDate:     d.DueDate,
	}
	m.tasks[t.ID] = t
	return &t, nil
}

func (m *memStore) GetTask(_ context.Context, id int64) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &t, nil
}

func (m *memStore) ListTasks(context.Context) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateTask(_ context.Context, id int64, p models.TaskPatch) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	p.Apply(&t)
	m.tasks[id] = t
	return &t, nil
}

func (m *memStore) DeleteTask(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memStore) Ping(context.Context) error {
	return m.pingErr
}
