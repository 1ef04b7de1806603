package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskboard/internal/domain"
)

type WorkspaceUserRepository interface {
	Create(ctx context.Context, member domain.WorkspaceUser) error
	Get(ctx context.Context, workspaceID, email string) (domain.WorkspaceUser, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.WorkspaceUser, error)
	Activate(ctx context.Context, workspaceID, email string, joinedAt time.Time) error
	Delete(ctx context.Context, workspaceID, email string) error
}

type PgWorkspaceUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgWorkspaceUserRepository(pool *pgxpool.Pool) *PgWorkspaceUserRepository {
	return &PgWorkspaceUserRepository{pool: pool}
}

// pgExecer lo cumplen tanto *pgxpool.Pool como pgx.Tx.
type pgExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *PgWorkspaceUserRepository) Create(ctx context.Context, member domain.WorkspaceUser) error {
	return insertWorkspaceUser(ctx, r.pool, member)
}

func (r *PgWorkspaceUserRepository) Get(ctx context.Context, workspaceID, email string) (domain.WorkspaceUser, error) {
	const query = `
		SELECT id, workspace_id, user_email, role, status, COALESCE(invited_by::text, ''), joined_at, created_at
		FROM workspace_users
		WHERE workspace_id = $1 AND user_email = $2
	`
	var m domain.WorkspaceUser
	err := r.pool.QueryRow(ctx, query, workspaceID, email).Scan(
		&m.ID,
		&m.WorkspaceID,
		&m.UserEmail,
		&m.Role,
		&m.Status,
		&m.InvitedBy,
		&m.JoinedAt,
		&m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WorkspaceUser{}, err
	}
	return m, err
}

func (r *PgWorkspaceUserRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.WorkspaceUser, error) {
	const query = `
		SELECT id, workspace_id, user_email, role, status, COALESCE(invited_by::text, ''), joined_at, created_at
		FROM workspace_users
		WHERE workspace_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WorkspaceUser
	for rows.Next() {
		var m domain.WorkspaceUser
		if err := rows.Scan(
			&m.ID,
			&m.WorkspaceID,
			&m.UserEmail,
			&m.Role,
			&m.Status,
			&m.InvitedBy,
			&m.JoinedAt,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PgWorkspaceUserRepository) Activate(ctx context.Context, workspaceID, email string, joinedAt time.Time) error {
	const query = `
		UPDATE workspace_users
		SET status = 'active', joined_at = $3
		WHERE workspace_id = $1 AND user_email = $2
	`
	tag, err := r.pool.Exec(ctx, query, workspaceID, email, joinedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgWorkspaceUserRepository) Delete(ctx context.Context, workspaceID, email string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM workspace_users WHERE workspace_id = $1 AND user_email = $2`, workspaceID, email)
	return err
}

// insertWorkspaceUser ignora invitaciones repetidas para el mismo email.
func insertWorkspaceUser(ctx context.Context, db pgExecer, member domain.WorkspaceUser) error {
	const query = `
		INSERT INTO workspace_users (id, workspace_id, user_email, role, status, invited_by, joined_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (workspace_id, user_email) DO NOTHING
	`
	_, err := db.Exec(ctx, query,
		member.ID,
		member.WorkspaceID,
		member.UserEmail,
		member.Role,
		member.Status,
		nullIfEmpty(member.InvitedBy),
		member.JoinedAt,
		member.CreatedAt,
	)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
