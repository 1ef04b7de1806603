package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskboard/internal/domain"
)

type TaskRepository interface {
	// Create agrega la tarea al final de su columna y devuelve la posición asignada.
	Create(ctx context.Context, task domain.Task) (int, error)
	GetByID(ctx context.Context, id string) (domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Task, error)
	// Replace reemplaza el registro completo, incluida su columna y posición,
	// de forma atómica. Devuelve la tarea tal como quedó guardada.
	Replace(ctx context.Context, task domain.Task) (domain.Task, error)
	// Move cambia columna/posición y renumera las columnas afectadas.
	Move(ctx context.Context, id, status string, position int) (domain.Task, error)
	Delete(ctx context.Context, id string) error
}

type PgTaskRepository struct {
	pool *pgxpool.Pool
}

func NewPgTaskRepository(pool *pgxpool.Pool) *PgTaskRepository {
	return &PgTaskRepository{pool: pool}
}

const taskColumns = `id, project_id, title, description, status, priority, due_date, position, user_email, created_at, updated_at`

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.DueDate,
		&t.Position,
		&t.UserEmail,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func (r *PgTaskRepository) Create(ctx context.Context, task domain.Task) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	position, err := insertTask(ctx, tx, task)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return position, nil
}

func (r *PgTaskRepository) GetByID(ctx context.Context, id string) (domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, err
	}
	return t, err
}

func (r *PgTaskRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = $1 ORDER BY status, position, created_at`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Replace guarda el registro completo y lo ubica en task.Status/task.Position
// dentro de una sola transacción.
func (r *PgTaskRepository) Replace(ctx context.Context, task domain.Task) (domain.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Task{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	replaced, err := replaceTask(ctx, tx, task)
	if err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Task{}, err
	}
	return replaced, nil
}

func (r *PgTaskRepository) Move(ctx context.Context, id, status string, position int) (domain.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Task{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	position, err = repositionTask(ctx, tx, id, status, position)
	if err != nil {
		return domain.Task{}, err
	}
	query := `UPDATE tasks SET status = $2, position = $3, updated_at = $4 WHERE id = $1 RETURNING ` + taskColumns
	moved, err := scanTask(tx.QueryRow(ctx, query, id, status, position, time.Now().UTC()))
	if err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Task{}, err
	}
	return moved, nil
}

func (r *PgTaskRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := deleteTask(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// queryer es el subconjunto de pgx.Tx que usan las operaciones sobre columnas.
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// lockProject serializa las escrituras que numeran columnas de un proyecto.
// Todas las operaciones toman primero este lock y después el de la tarea.
func lockProject(ctx context.Context, q queryer, projectID string) error {
	var id string
	return q.QueryRow(ctx, `SELECT id FROM projects WHERE id = $1 FOR UPDATE`, projectID).Scan(&id)
}

func insertTask(ctx context.Context, q queryer, task domain.Task) (int, error) {
	if err := lockProject(ctx, q, task.ProjectID); err != nil {
		return 0, err
	}
	var position int
	if err := q.QueryRow(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM tasks WHERE project_id = $1 AND status = $2`,
		task.ProjectID, task.Status,
	).Scan(&position); err != nil {
		return 0, err
	}

	const query = `
		INSERT INTO tasks (id, project_id, title, description, status, priority, due_date, position, user_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := q.Exec(ctx, query,
		task.ID,
		task.ProjectID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		position,
		task.UserEmail,
		task.CreatedAt,
		task.UpdatedAt,
	); err != nil {
		return 0, err
	}
	return position, nil
}

// repositionTask saca la tarea de su columna actual y le abre lugar en la
// columna destino. Devuelve la posición final ya acotada; no escribe la tarea.
func repositionTask(ctx context.Context, q queryer, id, status string, position int) (int, error) {
	var projectID string
	if err := q.QueryRow(ctx, `SELECT project_id FROM tasks WHERE id = $1`, id).Scan(&projectID); err != nil {
		return 0, err
	}
	if err := lockProject(ctx, q, projectID); err != nil {
		return 0, err
	}

	var fromStatus string
	var fromPosition int
	if err := q.QueryRow(ctx,
		`SELECT status, position FROM tasks WHERE id = $1 FOR UPDATE`, id,
	).Scan(&fromStatus, &fromPosition); err != nil {
		return 0, err
	}

	// Cierra el hueco en la columna de origen.
	if _, err := q.Exec(ctx,
		`UPDATE tasks SET position = position - 1 WHERE project_id = $1 AND status = $2 AND position > $3`,
		projectID, fromStatus, fromPosition,
	); err != nil {
		return 0, err
	}

	var count int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE project_id = $1 AND status = $2 AND id <> $3`,
		projectID, status, id,
	).Scan(&count); err != nil {
		return 0, err
	}
	position = ClampPosition(position, count)

	// Abre espacio en la columna destino.
	if _, err := q.Exec(ctx,
		`UPDATE tasks SET position = position + 1 WHERE project_id = $1 AND status = $2 AND position >= $3 AND id <> $4`,
		projectID, status, position, id,
	); err != nil {
		return 0, err
	}
	return position, nil
}

func replaceTask(ctx context.Context, q queryer, task domain.Task) (domain.Task, error) {
	position, err := repositionTask(ctx, q, task.ID, task.Status, task.Position)
	if err != nil {
		return domain.Task{}, err
	}
	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, due_date = $6,
			position = $7, user_email = $8, updated_at = $9
		WHERE id = $1
		RETURNING ` + taskColumns
	return scanTask(q.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		position,
		task.UserEmail,
		task.UpdatedAt,
	))
}

func deleteTask(ctx context.Context, q queryer, id string) error {
	var projectID string
	if err := q.QueryRow(ctx, `SELECT project_id FROM tasks WHERE id = $1`, id).Scan(&projectID); err != nil {
		return err
	}
	if err := lockProject(ctx, q, projectID); err != nil {
		return err
	}

	var status string
	var position int
	if err := q.QueryRow(ctx,
		`DELETE FROM tasks WHERE id = $1 RETURNING status, position`, id,
	).Scan(&status, &position); err != nil {
		return err
	}
	_, err := q.Exec(ctx,
		`UPDATE tasks SET position = position - 1 WHERE project_id = $1 AND status = $2 AND position > $3`,
		projectID, status, position,
	)
	return err
}

// ClampPosition limita una posición destino al rango [0, count].
func ClampPosition(position, count int) int {
	if position < 0 {
		return 0
	}
	if position > count {
		return count
	}
	return position
}
