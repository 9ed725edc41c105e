package model

import "github.com/google/uuid"

// One request struct per operation; pointer fields on the patch types
// distinguish "not sent" from "set to empty".

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type CreateColumnRequest struct {
	Name string `json:"name"`
}

type RenameColumnRequest struct {
	Name string `json:"name"`
}

type MoveColumnRequest struct {
	Position int `json:"position"`
}

type CreateTaskRequest struct {
	ColumnID    uuid.UUID `json:"column_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type MoveTaskRequest struct {
	ColumnID uuid.UUID `json:"column_id"`
	Position int       `json:"position"`
}
