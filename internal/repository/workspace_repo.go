package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskboard/internal/domain"
)

type WorkspaceRepository interface {
	CreateWithOwner(ctx context.Context, workspace domain.Workspace, owner domain.WorkspaceUser) error
	GetByID(ctx context.Context, id string) (domain.Workspace, error)
	ListByMemberEmail(ctx context.Context, email string) ([]domain.Workspace, error)
	Delete(ctx context.Context, id string) error
}

type PgWorkspaceRepository struct {
	pool *pgxpool.Pool
}

func NewPgWorkspaceRepository(pool *pgxpool.Pool) *PgWorkspaceRepository {
	return &PgWorkspaceRepository{pool: pool}
}

// CreateWithOwner inserta el workspace y la membresía del dueño en una sola transacción.
func (r *PgWorkspaceRepository) CreateWithOwner(ctx context.Context, workspace domain.Workspace, owner domain.WorkspaceUser) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertWorkspace = `
		INSERT INTO workspaces (id, name, owner_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, insertWorkspace,
		workspace.ID,
		workspace.Name,
		workspace.OwnerID,
		workspace.CreatedAt,
	); err != nil {
		return err
	}

	if err := insertWorkspaceUser(ctx, tx, owner); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PgWorkspaceRepository) GetByID(ctx context.Context, id string) (domain.Workspace, error) {
	const query = `
		SELECT id, name, owner_id, created_at
		FROM workspaces
		WHERE id = $1
	`
	var ws domain.Workspace
	err := r.pool.QueryRow(ctx, query, id).Scan(&ws.ID, &ws.Name, &ws.OwnerID, &ws.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Workspace{}, err
	}
	return ws, err
}

func (r *PgWorkspaceRepository) ListByMemberEmail(ctx context.Context, email string) ([]domain.Workspace, error) {
	const query = `
		SELECT w.id, w.name, w.owner_id, w.created_at
		FROM workspaces w
		JOIN workspace_users wu ON wu.workspace_id = w.id
		WHERE wu.user_email = $1 AND wu.status = 'active'
		ORDER BY w.created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Workspace
	for rows.Next() {
		var ws domain.Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.OwnerID, &ws.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

func (r *PgWorkspaceRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	return err
}
