package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/proman-app/proman-api/internal/model"
	"github.com/proman-app/proman-api/internal/order"
	"github.com/proman-app/proman-api/internal/repo"
	"github.com/proman-app/proman-api/internal/service"
	"github.com/proman-app/proman-api/pkg/respond"
)

type BoardHandler struct {
	service *service.BoardService
	logger  *zap.Logger
}

func NewBoardHandler(srv *service.BoardService, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{
		service: srv,
		logger:  logger,
	}
}

// Register mounts all board routes on the router.
func (h *BoardHandler) Register(r chi.Router) {
	r.Route("/api/projects", func(r chi.Router) {
		r.Get("/", h.ListProjects)
		r.Post("/", h.CreateProject)
		r.Get("/{id}", h.GetProject)
		r.Patch("/{id}", h.UpdateProject)
		r.Delete("/{id}", h.DeleteProject)
		r.Get("/{id}/board", h.GetBoard)
		r.Get("/{id}/stats", h.GetStats)
		r.Post("/{id}/columns", h.CreateColumn)
		r.Post("/{id}/tasks", h.CreateTask)
	})

	r.Route("/api/columns", func(r chi.Router) {
		r.Patch("/{id}", h.RenameColumn)
		r.Delete("/{id}", h.DeleteColumn)
		r.Patch("/{id}/move", h.MoveColumn)
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Patch("/{id}", h.UpdateTask)
		r.Delete("/{id}", h.DeleteTask)
		r.Patch("/{id}/move", h.MoveTask)
	})
}

func (h *BoardHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	project, err := h.service.CreateProject(r.Context(), req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/projects/%s", project.ID))
	respond.JSON(w, r, http.StatusCreated, project)
}

func (h *BoardHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, projects)
}

func (h *BoardHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	project, err := h.service.GetProject(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, project)
}

func (h *BoardHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req model.UpdateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	project, err := h.service.UpdateProject(r.Context(), id, req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, project)
}

func (h *BoardHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteProject(r.Context(), id); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	board, err := h.service.GetBoard(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, board)
}

func (h *BoardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetStats(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, stats)
}

func (h *BoardHandler) CreateColumn(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req model.CreateColumnRequest
	if !h.decode(w, r, &req) {
		return
	}

	column, err := h.service.CreateColumn(r.Context(), projectID, req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, column)
}

func (h *BoardHandler) RenameColumn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req model.RenameColumnRequest
	if !h.decode(w, r, &req) {
		return
	}

	column, err := h.service.RenameColumn(r.Context(), id, req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, column)
}

func (h *BoardHandler) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteColumn(r.Context(), id); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) MoveColumn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req model.MoveColumnRequest
	if !h.decode(w, r, &req) {
		return
	}

	board, err := h.service.MoveColumn(r.Context(), id, req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, board)
}

func (h *BoardHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req model.CreateTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	task, err := h.service.CreateTask(r.Context(), projectID, req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *BoardHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req model.UpdateTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	task, err := h.service.UpdateTask(r.Context(), id, req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *BoardHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req model.MoveTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	board, err := h.service.MoveTask(r.Context(), id, req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, board)
}

func (h *BoardHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, http.StatusNotFound, "not found")
		return uuid.Nil, false
	}
	return id, true
}

func (h *BoardHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return false
	}
	return true
}

func (h *BoardHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, "validation error")
	case errors.Is(err, order.ErrInvalidPosition):
		respond.Error(w, r, http.StatusBadRequest, "invalid position")
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
