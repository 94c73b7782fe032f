package models

import "time"

type Task struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Status      Status    `db:"status"`
	CreateDate  time.Time `db:"create_date"`
	DueDate     time.Time `db:"due_date"`
}
