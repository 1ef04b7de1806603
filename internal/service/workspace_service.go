package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskboard/internal/domain"
	"taskboard/internal/email"
	"taskboard/internal/metrics"
	"taskboard/internal/repository"
)

var (
	ErrWorkspaceNotFound       = errors.New("workspace not found")
	ErrForbidden               = errors.New("forbidden")
	ErrAlreadyMember           = errors.New("user is already a member")
	ErrInvitationNotFound      = errors.New("invitation not found")
	ErrInvitationEmailMismatch = errors.New("invitation belongs to another email")
	ErrCannotRemoveOwner       = errors.New("workspace owner cannot be removed")
)

// MembershipChecker resuelve si un usuario es miembro activo de un workspace.
type MembershipChecker interface {
	RequireMember(ctx context.Context, userID, workspaceID string) (domain.WorkspaceUser, error)
}

// WorkspaceService administra workspaces, membresías e invitaciones.
type WorkspaceService struct {
	logger     *zap.Logger
	workspaces repository.WorkspaceRepository
	members    repository.WorkspaceUserRepository
	users      repository.UserRepository
	tokens     *InviteTokenService
	sender     email.Sender
	recorder   metrics.Recorder
	appBaseURL string
}

func NewWorkspaceService(
	logger *zap.Logger,
	workspaces repository.WorkspaceRepository,
	members repository.WorkspaceUserRepository,
	users repository.UserRepository,
	tokens *InviteTokenService,
	sender email.Sender,
	recorder metrics.Recorder,
	appBaseURL string,
) *WorkspaceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &WorkspaceService{
		logger:     logger,
		workspaces: workspaces,
		members:    members,
		users:      users,
		tokens:     tokens,
		sender:     sender,
		recorder:   recorder,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
	}
}

func (s *WorkspaceService) Create(ctx context.Context, userID, name string) (domain.Workspace, error) {
	name = cleanText(name)
	if name == "" {
		return domain.Workspace{}, &ValidationError{Fields: map[string]string{"name": "required"}}
	}
	if tooLong(name, maxNameLength) {
		return domain.Workspace{}, &ValidationError{Fields: map[string]string{"name": fmt.Sprintf("must be at most %d characters", maxNameLength)}}
	}
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return domain.Workspace{}, err
	}

	now := time.Now().UTC()
	ws := domain.Workspace{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   user.ID,
		CreatedAt: now,
	}
	owner := domain.WorkspaceUser{
		ID:          uuid.NewString(),
		WorkspaceID: ws.ID,
		UserEmail:   user.Email,
		Role:        domain.WorkspaceRoleOwner,
		Status:      domain.MembershipActive,
		JoinedAt:    &now,
		CreatedAt:   now,
	}
	if err := s.workspaces.CreateWithOwner(ctx, ws, owner); err != nil {
		return domain.Workspace{}, err
	}
	return ws, nil
}

func (s *WorkspaceService) ListForUser(ctx context.Context, userID string) ([]domain.Workspace, error) {
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.workspaces.ListByMemberEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Workspace{}
	}
	return list, nil
}

func (s *WorkspaceService) Get(ctx context.Context, userID, workspaceID string) (domain.Workspace, error) {
	if _, err := s.RequireMember(ctx, userID, workspaceID); err != nil {
		return domain.Workspace{}, err
	}
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Workspace{}, ErrWorkspaceNotFound
		}
		return domain.Workspace{}, err
	}
	return ws, nil
}

func (s *WorkspaceService) Delete(ctx context.Context, userID, workspaceID string) error {
	member, err := s.RequireMember(ctx, userID, workspaceID)
	if err != nil {
		return err
	}
	if !member.IsOwner() {
		return ErrForbidden
	}
	return s.workspaces.Delete(ctx, workspaceID)
}

// RequireMember devuelve ErrWorkspaceNotFound a quien no es miembro activo,
// sin distinguir si el workspace existe.
func (s *WorkspaceService) RequireMember(ctx context.Context, userID, workspaceID string) (domain.WorkspaceUser, error) {
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return domain.WorkspaceUser{}, err
	}
	member, err := s.members.Get(ctx, workspaceID, user.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WorkspaceUser{}, ErrWorkspaceNotFound
		}
		return domain.WorkspaceUser{}, err
	}
	if !member.Active() {
		return domain.WorkspaceUser{}, ErrWorkspaceNotFound
	}
	return member, nil
}

type InviteResult struct {
	Member    domain.WorkspaceUser `json:"workspaceUser"`
	EmailSent bool                 `json:"emailSent"`
}

// Invite registra una membresía pendiente y envía el enlace de aceptación.
// Reinvitar a un email pendiente reenvía el correo sin duplicar el registro.
func (s *WorkspaceService) Invite(ctx context.Context, inviterID, workspaceID, userEmail string) (InviteResult, error) {
	userEmail = normalizeEmail(userEmail)
	if !isValidEmail(userEmail) {
		return InviteResult{}, &ValidationError{Fields: map[string]string{"userEmail": "must be a valid email"}}
	}

	if _, err := s.RequireMember(ctx, inviterID, workspaceID); err != nil {
		return InviteResult{}, err
	}
	inviter, err := s.userByID(ctx, inviterID)
	if err != nil {
		return InviteResult{}, err
	}
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InviteResult{}, ErrWorkspaceNotFound
		}
		return InviteResult{}, err
	}

	member, err := s.members.Get(ctx, workspaceID, userEmail)
	switch {
	case err == nil:
		if member.Active() {
			return InviteResult{}, ErrAlreadyMember
		}
	case errors.Is(err, pgx.ErrNoRows):
		member = domain.WorkspaceUser{
			ID:          uuid.NewString(),
			WorkspaceID: workspaceID,
			UserEmail:   userEmail,
			Role:        domain.WorkspaceRoleMember,
			Status:      domain.MembershipPending,
			InvitedBy:   inviter.ID,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.members.Create(ctx, member); err != nil {
			return InviteResult{}, err
		}
	default:
		return InviteResult{}, err
	}

	result := InviteResult{Member: member}
	if s.tokens == nil || s.sender == nil {
		s.logger.Warn("invitation email skipped: sender not configured", zap.String("workspace_id", workspaceID))
		return result, nil
	}

	token, expiresAt, err := s.tokens.Sign(workspaceID, userEmail)
	if err != nil {
		s.logger.Warn("sign invite token failed", zap.Error(err))
		return result, nil
	}
	inv := email.Invitation{
		ToEmail:       userEmail,
		WorkspaceName: ws.Name,
		InviterName:   inviter.Name,
		AcceptURL:     s.acceptURL(token),
		ExpiresAt:     expiresAt,
	}
	if err := s.sender.SendInvitation(ctx, inv); err != nil {
		s.logger.Warn("send invitation failed", zap.Error(err), zap.String("email", userEmail))
		return result, nil
	}
	s.recorder.InvitationSent()
	result.EmailSent = true
	return result, nil
}

// AcceptInvitation activa la membresía firmada en el token para el usuario actual.
func (s *WorkspaceService) AcceptInvitation(ctx context.Context, userID, token string) (domain.WorkspaceUser, error) {
	if s.tokens == nil {
		return domain.WorkspaceUser{}, ErrInviteTokenInvalid
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return domain.WorkspaceUser{}, err
	}
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return domain.WorkspaceUser{}, err
	}
	if normalizeEmail(user.Email) != claims.Email {
		return domain.WorkspaceUser{}, ErrInvitationEmailMismatch
	}

	member, err := s.members.Get(ctx, claims.WorkspaceID, claims.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WorkspaceUser{}, ErrInvitationNotFound
		}
		return domain.WorkspaceUser{}, err
	}
	if member.Active() {
		return member, nil
	}

	joinedAt := time.Now().UTC()
	if err := s.members.Activate(ctx, claims.WorkspaceID, claims.Email, joinedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WorkspaceUser{}, ErrInvitationNotFound
		}
		return domain.WorkspaceUser{}, err
	}
	member.Status = domain.MembershipActive
	member.JoinedAt = &joinedAt
	return member, nil
}

func (s *WorkspaceService) ListMembers(ctx context.Context, userID, workspaceID string) ([]domain.WorkspaceUser, error) {
	if _, err := s.RequireMember(ctx, userID, workspaceID); err != nil {
		return nil, err
	}
	list, err := s.members.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.WorkspaceUser{}
	}
	return list, nil
}

// RemoveMember permite al dueño quitar miembros o invitaciones pendientes.
func (s *WorkspaceService) RemoveMember(ctx context.Context, userID, workspaceID, userEmail string) error {
	requester, err := s.RequireMember(ctx, userID, workspaceID)
	if err != nil {
		return err
	}
	if !requester.IsOwner() {
		return ErrForbidden
	}
	userEmail = normalizeEmail(userEmail)
	if userEmail == requester.UserEmail {
		return ErrCannotRemoveOwner
	}
	return s.members.Delete(ctx, workspaceID, userEmail)
}

func (s *WorkspaceService) acceptURL(token string) string {
	q := url.Values{}
	q.Set("token", token)
	return s.appBaseURL + "/invite/accept?" + q.Encode()
}

func (s *WorkspaceService) userByID(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}
