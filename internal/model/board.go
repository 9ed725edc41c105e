package model

import "github.com/google/uuid"

// Board is the canonical read view of a project: columns and tasks in
// ascending sort-key order, with positions recomputed on every read.

type BoardTask struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Position    int       `json:"position"`
}

type BoardColumn struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	Position int         `json:"position"`
	Tasks    []BoardTask `json:"tasks"`
}

type Board struct {
	Project Project       `json:"project"`
	Columns []BoardColumn `json:"columns"`
}
