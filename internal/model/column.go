package model

import (
	"time"

	"github.com/google/uuid"
)

// Column belongs to exactly one project for its lifetime. SortOrder is
// an internal sort key and never leaves the server; clients only ever
// see 0-based positions in the board view.
type Column struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
	SortOrder int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
