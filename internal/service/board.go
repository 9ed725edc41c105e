package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/proman-app/proman-api/internal/model"
	"github.com/proman-app/proman-api/internal/order"
	"github.com/proman-app/proman-api/internal/repo"
)

var ErrValidation = errors.New("validation error")

// Every new project starts with the same three columns.
var defaultColumnNames = []string{"To Do", "In Progress", "Done"}

type BoardService struct {
	repo  repo.BoardRepository
	newID func() uuid.UUID
}

func NewBoardService(r repo.BoardRepository) *BoardService {
	return &BoardService{
		repo:  r,
		newID: uuid.New,
	}
}

func (s *BoardService) CreateProject(ctx context.Context, req model.CreateProjectRequest) (model.Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return model.Project{}, ErrValidation
	}

	p := model.Project{
		ID:          s.newID(),
		Name:        req.Name,
		Description: req.Description,
	}

	cols := make([]model.Column, 0, len(defaultColumnNames))
	siblings := make([]order.Sibling, 0, len(defaultColumnNames))
	for _, name := range defaultColumnNames {
		c := model.Column{
			ID:        s.newID(),
			ProjectID: p.ID,
			Name:      name,
			SortOrder: order.NextAppend(siblings),
		}
		siblings = append(siblings, order.Sibling{ID: c.ID, Order: c.SortOrder})
		cols = append(cols, c)
	}

	return s.repo.CreateProject(ctx, p, cols)
}

func (s *BoardService) ListProjects(ctx context.Context) ([]model.Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *BoardService) GetProject(ctx context.Context, id uuid.UUID) (model.Project, error) {
	return s.repo.GetProject(ctx, id)
}

func (s *BoardService) UpdateProject(ctx context.Context, id uuid.UUID, req model.UpdateProjectRequest) (model.Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return p, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return p, ErrValidation
		}
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}

	return s.repo.UpdateProject(ctx, p)
}

func (s *BoardService) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteProject(ctx, id)
}

func (s *BoardService) GetBoard(ctx context.Context, projectID uuid.UUID) (model.Board, error) {
	return s.repo.GetBoard(ctx, projectID)
}

func (s *BoardService) GetStats(ctx context.Context, projectID uuid.UUID) (repo.Stats, error) {
	return s.repo.GetStats(ctx, projectID)
}

func (s *BoardService) CreateColumn(ctx context.Context, projectID uuid.UUID, req model.CreateColumnRequest) (model.Column, error) {
	if strings.TrimSpace(req.Name) == "" {
		return model.Column{}, ErrValidation
	}

	c := model.Column{
		ID:        s.newID(),
		ProjectID: projectID,
		Name:      req.Name,
	}
	return s.repo.CreateColumn(ctx, c)
}

func (s *BoardService) RenameColumn(ctx context.Context, id uuid.UUID, req model.RenameColumnRequest) (model.Column, error) {
	if strings.TrimSpace(req.Name) == "" {
		return model.Column{}, ErrValidation
	}
	return s.repo.RenameColumn(ctx, id, req.Name)
}

func (s *BoardService) DeleteColumn(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteColumn(ctx, id)
}

// MoveColumn places the column at the requested 0-based position among
// its project's columns and returns the refreshed board view.
func (s *BoardService) MoveColumn(ctx context.Context, id uuid.UUID, req model.MoveColumnRequest) (model.Board, error) {
	c, err := s.repo.MoveColumn(ctx, id, req.Position)
	if err != nil {
		return model.Board{}, err
	}
	return s.repo.GetBoard(ctx, c.ProjectID)
}

func (s *BoardService) CreateTask(ctx context.Context, projectID uuid.UUID, req model.CreateTaskRequest) (model.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return model.Task{}, ErrValidation
	}

	t := model.Task{
		ID:          s.newID(),
		ProjectID:   projectID,
		ColumnID:    req.ColumnID,
		Title:       req.Title,
		Description: req.Description,
	}
	return s.repo.CreateTask(ctx, t)
}

func (s *BoardService) UpdateTask(ctx context.Context, id uuid.UUID, req model.UpdateTaskRequest) (model.Task, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return t, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return t, ErrValidation
		}
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}

	return s.repo.UpdateTask(ctx, t)
}

func (s *BoardService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTask(ctx, id)
}

// MoveTask moves the task into the target column at the requested
// 0-based position and returns the refreshed board view. The target
// must belong to the task's own project.
func (s *BoardService) MoveTask(ctx context.Context, id uuid.UUID, req model.MoveTaskRequest) (model.Board, error) {
	t, err := s.repo.MoveTask(ctx, id, req.ColumnID, req.Position)
	if err != nil {
		return model.Board{}, err
	}
	return s.repo.GetBoard(ctx, t.ProjectID)
}
