package model

import (
	"time"

	"github.com/google/uuid"
)

// Task ownership moves with it: ColumnID changes when the task is moved
// between columns, ProjectID never does.
type Task struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	ColumnID    uuid.UUID `json:"column_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	SortOrder   int64     `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
