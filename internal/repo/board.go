package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/proman-app/proman-api/internal/model"
	"github.com/proman-app/proman-api/internal/order"
)

var ErrorNotFound = errors.New("not found")

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) CreateProject(ctx context.Context, p model.Project, cols []model.Column) (model.Project, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return p, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO projects (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Description).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, mapError(err)
	}

	for _, c := range cols {
		if _, err := tx.Exec(ctx, `
			INSERT INTO columns (id, project_id, name, sort_order)
			VALUES ($1, $2, $3, $4)
		`, c.ID, c.ProjectID, c.Name, c.SortOrder); err != nil {
			return p, mapError(err)
		}
	}

	return p, tx.Commit(ctx)
}

func (r *BoardRepo) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM projects
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]model.Project, 0)
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *BoardRepo) GetProject(ctx context.Context, id uuid.UUID) (model.Project, error) {
	var p model.Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM projects
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrorNotFound
	}
	return p, err
}

func (r *BoardRepo) UpdateProject(ctx context.Context, p model.Project) (model.Project, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE projects
		SET name = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Description).Scan(&p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrorNotFound
	}
	return p, err
}

func (r *BoardRepo) DeleteProject(ctx context.Context, id uuid.UUID) error {
	// Columns and tasks go with the project via ON DELETE CASCADE.
	cmd, err := r.pool.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *BoardRepo) GetBoard(ctx context.Context, projectID uuid.UUID) (model.Board, error) {
	board := model.Board{Columns: make([]model.BoardColumn, 0)}

	p, err := r.GetProject(ctx, projectID)
	if err != nil {
		return board, err
	}
	board.Project = p

	rows, err := r.pool.Query(ctx, `
		SELECT id, name
		FROM columns
		WHERE project_id = $1
		ORDER BY sort_order, id
	`, projectID)
	if err != nil {
		return board, err
	}
	defer rows.Close()

	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var c model.BoardColumn
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return board, err
		}
		c.Position = len(board.Columns)
		c.Tasks = make([]model.BoardTask, 0)
		index[c.ID] = c.Position
		board.Columns = append(board.Columns, c)
	}
	if err := rows.Err(); err != nil {
		return board, err
	}

	taskRows, err := r.pool.Query(ctx, `
		SELECT id, column_id, title, description
		FROM tasks
		WHERE project_id = $1
		ORDER BY sort_order, id
	`, projectID)
	if err != nil {
		return board, err
	}
	defer taskRows.Close()

	for taskRows.Next() {
		var t model.BoardTask
		var columnID uuid.UUID
		if err := taskRows.Scan(&t.ID, &columnID, &t.Title, &t.Description); err != nil {
			return board, err
		}
		i, ok := index[columnID]
		if !ok {
			// Column appeared between the two reads; its tasks are not
			// part of this view.
			continue
		}
		t.Position = len(board.Columns[i].Tasks)
		board.Columns[i].Tasks = append(board.Columns[i].Tasks, t)
	}
	return board, taskRows.Err()
}

func (r *BoardRepo) GetStats(ctx context.Context, projectID uuid.UUID) (Stats, error) {
	stats := Stats{ByColumn: make(map[string]int)}

	if _, err := r.GetProject(ctx, projectID); err != nil {
		return stats, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.name, COUNT(t.id)
		FROM columns c
		LEFT JOIN tasks t ON t.column_id = c.id
		WHERE c.project_id = $1
		GROUP BY c.id, c.name
	`, projectID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return stats, err
		}
		stats.ByColumn[name] = count
		stats.TotalTasks += count
	}
	return stats, rows.Err()
}

func (r *BoardRepo) CreateColumn(ctx context.Context, c model.Column) (model.Column, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return c, err
	}
	defer tx.Rollback(ctx)

	if err := lockProject(ctx, tx, c.ProjectID); err != nil {
		return c, err
	}

	siblings, err := columnSiblings(ctx, tx, c.ProjectID)
	if err != nil {
		return c, err
	}
	c.SortOrder = order.NextAppend(siblings)

	err = tx.QueryRow(ctx, `
		INSERT INTO columns (id, project_id, name, sort_order)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, c.ID, c.ProjectID, c.Name, c.SortOrder).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, mapError(err)
	}

	return c, tx.Commit(ctx)
}

func (r *BoardRepo) RenameColumn(ctx context.Context, id uuid.UUID, name string) (model.Column, error) {
	var c model.Column
	err := r.pool.QueryRow(ctx, `
		UPDATE columns
		SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, project_id, name, sort_order, created_at, updated_at
	`, id, name).Scan(&c.ID, &c.ProjectID, &c.Name, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return c, ErrorNotFound
	}
	return c, err
}

func (r *BoardRepo) DeleteColumn(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var projectID uuid.UUID
	err = tx.QueryRow(ctx, "SELECT project_id FROM columns WHERE id = $1", id).Scan(&projectID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrorNotFound
	}
	if err != nil {
		return err
	}

	// Serialize with in-flight moves targeting this column.
	if err := lockProject(ctx, tx, projectID); err != nil {
		return err
	}

	cmd, err := tx.Exec(ctx, "DELETE FROM columns WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return tx.Commit(ctx)
}

func (r *BoardRepo) MoveColumn(ctx context.Context, id uuid.UUID, position int) (model.Column, error) {
	var c model.Column

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return c, err
	}
	defer tx.Rollback(ctx)

	var projectID uuid.UUID
	err = tx.QueryRow(ctx, "SELECT project_id FROM columns WHERE id = $1", id).Scan(&projectID)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, ErrorNotFound
	}
	if err != nil {
		return c, err
	}

	if err := lockProject(ctx, tx, projectID); err != nil {
		return c, err
	}

	// Re-read under the lock: the column may have been dropped while we
	// waited for a concurrent writer.
	err = tx.QueryRow(ctx, `
		SELECT id, project_id, name, sort_order, created_at, updated_at
		FROM columns
		WHERE id = $1
	`, id).Scan(&c.ID, &c.ProjectID, &c.Name, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, ErrorNotFound
	}
	if err != nil {
		return c, err
	}

	siblings, err := columnSiblings(ctx, tx, projectID)
	if err != nil {
		return c, err
	}

	placement, err := order.ForPosition(siblings, position, id)
	if err != nil {
		return c, err
	}
	if placement.Renumbered != nil {
		if err := applyOrders(ctx, tx, "columns", placement.Renumbered); err != nil {
			return c, err
		}
	}

	err = tx.QueryRow(ctx, `
		UPDATE columns
		SET sort_order = $2, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, id, placement.Order).Scan(&c.UpdatedAt)
	if err != nil {
		return c, mapError(err)
	}
	c.SortOrder = placement.Order

	return c, tx.Commit(ctx)
}

func (r *BoardRepo) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return t, err
	}
	defer tx.Rollback(ctx)

	if err := lockProject(ctx, tx, t.ProjectID); err != nil {
		return t, err
	}

	if err := checkColumnOwnership(ctx, tx, t.ColumnID, t.ProjectID); err != nil {
		return t, err
	}

	siblings, err := taskSiblings(ctx, tx, t.ColumnID)
	if err != nil {
		return t, err
	}
	t.SortOrder = order.NextAppend(siblings)

	err = tx.QueryRow(ctx, `
		INSERT INTO tasks (id, project_id, column_id, title, description, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, t.ID, t.ProjectID, t.ColumnID, t.Title, t.Description, t.SortOrder).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, mapError(err)
	}

	return t, tx.Commit(ctx)
}

func (r *BoardRepo) GetTask(ctx context.Context, id uuid.UUID) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, column_id, title, description, sort_order, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`, id).Scan(&t.ID, &t.ProjectID, &t.ColumnID, &t.Title, &t.Description, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *BoardRepo) UpdateTask(ctx context.Context, t model.Task) (model.Task, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, t.ID, t.Title, t.Description).Scan(&t.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *BoardRepo) DeleteTask(ctx context.Context, id uuid.UUID) error {
	// Survivors keep their keys; gaps are fine, only duplicates are not.
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *BoardRepo) MoveTask(ctx context.Context, id uuid.UUID, targetColumn uuid.UUID, position int) (model.Task, error) {
	var t model.Task

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return t, err
	}
	defer tx.Rollback(ctx)

	var projectID uuid.UUID
	err = tx.QueryRow(ctx, "SELECT project_id FROM tasks WHERE id = $1", id).Scan(&projectID)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	if err != nil {
		return t, err
	}

	if err := lockProject(ctx, tx, projectID); err != nil {
		return t, err
	}

	err = tx.QueryRow(ctx, `
		SELECT id, project_id, column_id, title, description, sort_order, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`, id).Scan(&t.ID, &t.ProjectID, &t.ColumnID, &t.Title, &t.Description, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	if err != nil {
		return t, err
	}

	if err := checkColumnOwnership(ctx, tx, targetColumn, projectID); err != nil {
		return t, err
	}

	siblings, err := taskSiblings(ctx, tx, targetColumn)
	if err != nil {
		return t, err
	}

	placement, err := order.ForPosition(siblings, position, id)
	if err != nil {
		return t, err
	}
	if placement.Renumbered != nil {
		if err := applyOrders(ctx, tx, "tasks", placement.Renumbered); err != nil {
			return t, err
		}
	}

	// Column reference and sort key change together or not at all.
	err = tx.QueryRow(ctx, `
		UPDATE tasks
		SET column_id = $2, sort_order = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, id, targetColumn, placement.Order).Scan(&t.UpdatedAt)
	if err != nil {
		return t, mapError(err)
	}
	t.ColumnID = targetColumn
	t.SortOrder = placement.Order

	return t, tx.Commit(ctx)
}

// lockProject takes the per-project write lock. Every order-touching
// mutation goes through here first.
func lockProject(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var locked uuid.UUID
	err := tx.QueryRow(ctx, "SELECT id FROM projects WHERE id = $1 FOR UPDATE", id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrorNotFound
	}
	return err
}

// checkColumnOwnership fails with ErrorNotFound when the column does
// not exist or belongs to a different project.
func checkColumnOwnership(ctx context.Context, tx pgx.Tx, columnID, projectID uuid.UUID) error {
	var owner uuid.UUID
	err := tx.QueryRow(ctx, "SELECT project_id FROM columns WHERE id = $1", columnID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrorNotFound
	}
	if err != nil {
		return err
	}
	if owner != projectID {
		return ErrorNotFound
	}
	return nil
}

func columnSiblings(ctx context.Context, tx pgx.Tx, projectID uuid.UUID) ([]order.Sibling, error) {
	return querySiblings(ctx, tx, `
		SELECT id, sort_order FROM columns
		WHERE project_id = $1
		ORDER BY sort_order, id
	`, projectID)
}

func taskSiblings(ctx context.Context, tx pgx.Tx, columnID uuid.UUID) ([]order.Sibling, error) {
	return querySiblings(ctx, tx, `
		SELECT id, sort_order FROM tasks
		WHERE column_id = $1
		ORDER BY sort_order, id
	`, columnID)
}

func querySiblings(ctx context.Context, tx pgx.Tx, query string, arg any) ([]order.Sibling, error) {
	rows, err := tx.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	siblings := make([]order.Sibling, 0)
	for rows.Next() {
		var s order.Sibling
		if err := rows.Scan(&s.ID, &s.Order); err != nil {
			return nil, err
		}
		siblings = append(siblings, s)
	}
	return siblings, rows.Err()
}

// applyOrders rewrites the sort keys of a whole sibling group in one
// batch. The unique constraints on sort keys are deferred, so transient
// collisions inside the transaction are allowed.
func applyOrders(ctx context.Context, tx pgx.Tx, table string, siblings []order.Sibling) error {
	query := "UPDATE columns SET sort_order = $2 WHERE id = $1"
	if table == "tasks" {
		query = "UPDATE tasks SET sort_order = $2 WHERE id = $1"
	}

	batch := &pgx.Batch{}
	for _, s := range siblings {
		batch.Queue(query, s.ID, s.Order)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23503: foreign key violation, the referenced row is gone.
		if pgErr.Code == "23503" {
			return ErrorNotFound
		}
	}
	return err
}
