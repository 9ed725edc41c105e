package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/proman-app/proman-api/internal/model"
)

// BoardRepository is the persistence boundary for projects, columns and
// tasks. Every mutation that touches a sort key runs inside a single
// transaction holding a row lock on the owning project, so writers on
// one board are serialized while other boards proceed in parallel.
type BoardRepository interface {
	CreateProject(ctx context.Context, p model.Project, cols []model.Column) (model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (model.Project, error)
	UpdateProject(ctx context.Context, p model.Project) (model.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error

	GetBoard(ctx context.Context, projectID uuid.UUID) (model.Board, error)
	GetStats(ctx context.Context, projectID uuid.UUID) (Stats, error)

	CreateColumn(ctx context.Context, c model.Column) (model.Column, error)
	RenameColumn(ctx context.Context, id uuid.UUID, name string) (model.Column, error)
	DeleteColumn(ctx context.Context, id uuid.UUID) error
	MoveColumn(ctx context.Context, id uuid.UUID, position int) (model.Column, error)

	CreateTask(ctx context.Context, t model.Task) (model.Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (model.Task, error)
	UpdateTask(ctx context.Context, t model.Task) (model.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
	MoveTask(ctx context.Context, id uuid.UUID, targetColumn uuid.UUID, position int) (model.Task, error)
}

// Stats summarizes one project's board.
type Stats struct {
	TotalTasks int            `json:"total_tasks"`
	ByColumn   map[string]int `json:"by_column"`
}
