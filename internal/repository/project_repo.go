package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskboard/internal/domain"
)

type ProjectRepository interface {
	Create(ctx context.Context, project domain.Project) error
	GetByID(ctx context.Context, id string) (domain.Project, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Project, error)
}

type PgProjectRepository struct {
	pool *pgxpool.Pool
}

func NewPgProjectRepository(pool *pgxpool.Pool) *PgProjectRepository {
	return &PgProjectRepository{pool: pool}
}

func (r *PgProjectRepository) Create(ctx context.Context, project domain.Project) error {
	const query = `
		INSERT INTO projects (id, workspace_id, name, slug, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		project.ID,
		project.WorkspaceID,
		project.Name,
		project.Slug,
		project.CreatedAt,
	)
	return err
}

func (r *PgProjectRepository) GetByID(ctx context.Context, id string) (domain.Project, error) {
	const query = `
		SELECT id, workspace_id, name, slug, created_at
		FROM projects
		WHERE id = $1
	`
	var p domain.Project
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Slug, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Project{}, err
	}
	return p, err
}

func (r *PgProjectRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Project, error) {
	const query = `
		SELECT id, workspace_id, name, slug, created_at
		FROM projects
		WHERE workspace_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Slug, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
