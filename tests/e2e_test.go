package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/proman-app/proman-api/internal/handler"
	"github.com/proman-app/proman-api/internal/model"
	"github.com/proman-app/proman-api/internal/repo"
	"github.com/proman-app/proman-api/internal/service"
)

func setupE2EServer(t *testing.T) (*httptest.Server, func()) {
	pool, cleanup := SetupTestDB(t)

	boardRepo := repo.NewBoardRepo(pool)
	boardService := service.NewBoardService(boardRepo)
	logger := zap.NewNop()
	boardHandler := handler.NewBoardHandler(boardService, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	boardHandler.Register(r)

	server := httptest.NewServer(r)

	cleanupFunc := func() {
		server.Close()
		cleanup()
	}

	return server, cleanupFunc
}

func request(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func fetchBoard(t *testing.T, baseURL string, projectID uuid.UUID) model.Board {
	t.Helper()
	var board model.Board
	code := request(t, http.MethodGet, fmt.Sprintf("%s/api/projects/%s/board", baseURL, projectID), nil, &board)
	require.Equal(t, http.StatusOK, code)
	return board
}

func addTask(t *testing.T, baseURL string, projectID, columnID uuid.UUID, title string) model.Task {
	t.Helper()
	var task model.Task
	code := request(t, http.MethodPost, fmt.Sprintf("%s/api/projects/%s/tasks", baseURL, projectID),
		model.CreateTaskRequest{ColumnID: columnID, Title: title}, &task)
	require.Equal(t, http.StatusCreated, code)
	return task
}

func moveTask(t *testing.T, baseURL string, taskID, columnID uuid.UUID, position int) model.Board {
	t.Helper()
	var board model.Board
	code := request(t, http.MethodPatch, fmt.Sprintf("%s/api/tasks/%s/move", baseURL, taskID),
		model.MoveTaskRequest{ColumnID: columnID, Position: position}, &board)
	require.Equal(t, http.StatusOK, code)
	return board
}

func titles(col model.BoardColumn) []string {
	names := make([]string, len(col.Tasks))
	for i, task := range col.Tasks {
		names[i] = task.Title
	}
	return names
}

func TestE2E_BoardScenario(t *testing.T) {
	server, cleanup := setupE2EServer(t)
	defer cleanup()

	var project model.Project
	code := request(t, http.MethodPost, server.URL+"/api/projects",
		model.CreateProjectRequest{Name: "Scenario"}, &project)
	require.Equal(t, http.StatusCreated, code)

	board := fetchBoard(t, server.URL, project.ID)
	require.Len(t, board.Columns, 3)
	todo := board.Columns[0]
	done := board.Columns[2]

	// Todo = [A], then [A, B]
	taskA := addTask(t, server.URL, project.ID, todo.ID, "A")
	addTask(t, server.URL, project.ID, todo.ID, "B")

	board = fetchBoard(t, server.URL, project.ID)
	assert.Equal(t, []string{"A", "B"}, titles(board.Columns[0]))

	// Move A to Done at 0: Todo = [B], Done = [A]
	board = moveTask(t, server.URL, taskA.ID, done.ID, 0)
	assert.Equal(t, []string{"B"}, titles(board.Columns[0]))
	assert.Equal(t, []string{"A"}, titles(board.Columns[2]))

	// Move B to Done at 0: Done = [B, A]
	taskB := board.Columns[0].Tasks[0]
	board = moveTask(t, server.URL, taskB.ID, done.ID, 0)
	assert.Empty(t, board.Columns[0].Tasks)
	assert.Equal(t, []string{"B", "A"}, titles(board.Columns[2]))

	// Deleting Done takes both tasks with it.
	code = request(t, http.MethodDelete, fmt.Sprintf("%s/api/columns/%s", server.URL, done.ID), nil, nil)
	require.Equal(t, http.StatusNoContent, code)

	board = fetchBoard(t, server.URL, project.ID)
	require.Len(t, board.Columns, 2)
	for _, col := range board.Columns {
		assert.Empty(t, col.Tasks)
	}
}

func TestE2E_OutOfRangePositionClampsToAppend(t *testing.T) {
	server, cleanup := setupE2EServer(t)
	defer cleanup()

	var project model.Project
	request(t, http.MethodPost, server.URL+"/api/projects",
		model.CreateProjectRequest{Name: "Clamp"}, &project)

	board := fetchBoard(t, server.URL, project.ID)
	todo := board.Columns[0]

	first := addTask(t, server.URL, project.ID, todo.ID, "first")
	addTask(t, server.URL, project.ID, todo.ID, "second")
	addTask(t, server.URL, project.ID, todo.ID, "third")

	for _, position := range []int{3, 99, 1000000} {
		board = moveTask(t, server.URL, first.ID, todo.ID, position)
		tasks := board.Columns[0].Tasks
		require.NotEmpty(t, tasks)
		assert.Equal(t, first.ID, tasks[len(tasks)-1].ID,
			"position %d should clamp to last", position)
	}
}

func TestE2E_SameSpotMoveIsNoop(t *testing.T) {
	server, cleanup := setupE2EServer(t)
	defer cleanup()

	var project model.Project
	request(t, http.MethodPost, server.URL+"/api/projects",
		model.CreateProjectRequest{Name: "Noop"}, &project)

	board := fetchBoard(t, server.URL, project.ID)
	todo := board.Columns[0]

	addTask(t, server.URL, project.ID, todo.ID, "x")
	middle := addTask(t, server.URL, project.ID, todo.ID, "y")
	addTask(t, server.URL, project.ID, todo.ID, "z")

	before := fetchBoard(t, server.URL, project.ID)
	moveTask(t, server.URL, middle.ID, todo.ID, 1)
	after := fetchBoard(t, server.URL, project.ID)

	assert.Equal(t, before, after, "moving a task onto its own position should not change the view")
}

func TestE2E_ProjectDeleteCascades(t *testing.T) {
	server, cleanup := setupE2EServer(t)
	defer cleanup()

	var project model.Project
	request(t, http.MethodPost, server.URL+"/api/projects",
		model.CreateProjectRequest{Name: "Doomed"}, &project)

	board := fetchBoard(t, server.URL, project.ID)
	addTask(t, server.URL, project.ID, board.Columns[0].ID, "gone soon")

	code := request(t, http.MethodDelete, fmt.Sprintf("%s/api/projects/%s", server.URL, project.ID), nil, nil)
	require.Equal(t, http.StatusNoContent, code)

	code = request(t, http.MethodGet, fmt.Sprintf("%s/api/projects/%s/board", server.URL, project.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, code)

	var projects []model.Project
	request(t, http.MethodGet, server.URL+"/api/projects", nil, &projects)
	assert.Empty(t, projects)
}

func TestE2E_ProjectRename(t *testing.T) {
	server, cleanup := setupE2EServer(t)
	defer cleanup()

	var project model.Project
	request(t, http.MethodPost, server.URL+"/api/projects",
		model.CreateProjectRequest{Name: "Before", Description: "keep me"}, &project)

	name := "After"
	var updated model.Project
	code := request(t, http.MethodPatch, fmt.Sprintf("%s/api/projects/%s", server.URL, project.ID),
		model.UpdateProjectRequest{Name: &name}, &updated)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, "keep me", updated.Description)
}

func TestE2E_HealthCheck(t *testing.T) {
	server, cleanup := setupE2EServer(t)
	defer cleanup()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]string
	json.NewDecoder(resp.Body).Decode(&health)
	assert.Equal(t, "ok", health["status"])
}
