package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"taskboard/internal/domain"
	"taskboard/internal/email"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	createErr    error
	createCalls  int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(ctx, id)
}

type mockSessionRepo struct {
	sessions  map[string]domain.Session
	createErr error
	deleteErr error
	deleted   []string
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]domain.Session)}
}

func (m *mockSessionRepo) Create(_ context.Context, session domain.Session) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (domain.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	delete(m.sessions, id)
	return nil
}

type mockWorkspaceRepo struct {
	workspaces map[string]domain.Workspace
	members    *mockWorkspaceUserRepo
	deleted    []string
}

func newMockWorkspaceRepo(members *mockWorkspaceUserRepo) *mockWorkspaceRepo {
	return &mockWorkspaceRepo{workspaces: make(map[string]domain.Workspace), members: members}
}

func (m *mockWorkspaceRepo) CreateWithOwner(ctx context.Context, ws domain.Workspace, owner domain.WorkspaceUser) error {
	m.workspaces[ws.ID] = ws
	return m.members.Create(ctx, owner)
}

func (m *mockWorkspaceRepo) GetByID(_ context.Context, id string) (domain.Workspace, error) {
	ws, ok := m.workspaces[id]
	if !ok {
		return domain.Workspace{}, pgx.ErrNoRows
	}
	return ws, nil
}

func (m *mockWorkspaceRepo) ListByMemberEmail(_ context.Context, email string) ([]domain.Workspace, error) {
	var out []domain.Workspace
	for key, member := range m.members.members {
		if member.UserEmail != email || !member.Active() {
			continue
		}
		if ws, ok := m.workspaces[key.workspaceID]; ok {
			out = append(out, ws)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockWorkspaceRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.workspaces, id)
	return nil
}

type memberKey struct {
	workspaceID string
	email       string
}

type mockWorkspaceUserRepo struct {
	members     map[memberKey]domain.WorkspaceUser
	createCalls int
}

func newMockWorkspaceUserRepo() *mockWorkspaceUserRepo {
	return &mockWorkspaceUserRepo{members: make(map[memberKey]domain.WorkspaceUser)}
}

func (m *mockWorkspaceUserRepo) Create(_ context.Context, member domain.WorkspaceUser) error {
	m.createCalls++
	key := memberKey{member.WorkspaceID, member.UserEmail}
	if _, ok := m.members[key]; ok {
		return nil
	}
	m.members[key] = member
	return nil
}

func (m *mockWorkspaceUserRepo) Get(_ context.Context, workspaceID, email string) (domain.WorkspaceUser, error) {
	member, ok := m.members[memberKey{workspaceID, email}]
	if !ok {
		return domain.WorkspaceUser{}, pgx.ErrNoRows
	}
	return member, nil
}

func (m *mockWorkspaceUserRepo) ListByWorkspace(_ context.Context, workspaceID string) ([]domain.WorkspaceUser, error) {
	var out []domain.WorkspaceUser
	for key, member := range m.members {
		if key.workspaceID == workspaceID {
			out = append(out, member)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserEmail < out[j].UserEmail })
	return out, nil
}

func (m *mockWorkspaceUserRepo) Activate(_ context.Context, workspaceID, email string, joinedAt time.Time) error {
	key := memberKey{workspaceID, email}
	member, ok := m.members[key]
	if !ok {
		return pgx.ErrNoRows
	}
	member.Status = domain.MembershipActive
	member.JoinedAt = &joinedAt
	m.members[key] = member
	return nil
}

func (m *mockWorkspaceUserRepo) Delete(_ context.Context, workspaceID, email string) error {
	key := memberKey{workspaceID, email}
	if _, ok := m.members[key]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.members, key)
	return nil
}

type mockProjectRepo struct {
	projects map[string]domain.Project
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]domain.Project)}
}

func (m *mockProjectRepo) Create(_ context.Context, project domain.Project) error {
	for _, p := range m.projects {
		if p.WorkspaceID == project.WorkspaceID && p.Slug == project.Slug {
			return errors.New("duplicate slug")
		}
	}
	m.projects[project.ID] = project
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (domain.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return domain.Project{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockProjectRepo) ListByWorkspace(_ context.Context, workspaceID string) ([]domain.Project, error) {
	var out []domain.Project
	for _, p := range m.projects {
		if p.WorkspaceID == workspaceID {
			out = append(out, p)
		}
	}
	return out, nil
}

// mockTaskRepo reproduce en memoria la numeración por columna del repositorio Pg.
type mockTaskRepo struct {
	tasks      map[string]domain.Task
	replaces   []domain.Task
	replaceErr error
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[string]domain.Task)}
}

func (m *mockTaskRepo) column(projectID, status, skipID string) []domain.Task {
	var out []domain.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID && t.Status == status && t.ID != skipID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (m *mockTaskRepo) renumber(col []domain.Task) {
	for i, t := range col {
		t.Position = i
		m.tasks[t.ID] = t
	}
}

func (m *mockTaskRepo) Create(_ context.Context, task domain.Task) (int, error) {
	task.Position = len(m.column(task.ProjectID, task.Status, ""))
	m.tasks[task.ID] = task
	return task.Position, nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id string) (domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *mockTaskRepo) ListByProject(_ context.Context, projectID string) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Replace aplica campos y ubicación juntos; con replaceErr no toca nada.
func (m *mockTaskRepo) Replace(_ context.Context, task domain.Task) (domain.Task, error) {
	if m.replaceErr != nil {
		return domain.Task{}, m.replaceErr
	}
	current, ok := m.tasks[task.ID]
	if !ok {
		return domain.Task{}, pgx.ErrNoRows
	}
	m.replaces = append(m.replaces, task)
	task.ProjectID = current.ProjectID
	task.CreatedAt = current.CreatedAt
	m.tasks[task.ID] = task
	return m.place(current, task, task.Status, task.Position), nil
}

func (m *mockTaskRepo) Move(_ context.Context, id, status string, position int) (domain.Task, error) {
	task, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, pgx.ErrNoRows
	}
	return m.place(task, task, status, position), nil
}

// place cierra el hueco de from en su columna y ubica task en status/position.
func (m *mockTaskRepo) place(from, task domain.Task, status string, position int) domain.Task {
	m.renumber(m.column(from.ProjectID, from.Status, from.ID))

	dest := m.column(task.ProjectID, status, task.ID)
	if position < 0 {
		position = 0
	}
	if position > len(dest) {
		position = len(dest)
	}
	task.Status = status
	dest = append(dest[:position], append([]domain.Task{task}, dest[position:]...)...)
	m.renumber(dest)
	return m.tasks[task.ID]
}

func (m *mockTaskRepo) Delete(_ context.Context, id string) error {
	task, ok := m.tasks[id]
	if !ok {
		return pgx.ErrNoRows
	}
	delete(m.tasks, id)
	m.renumber(m.column(task.ProjectID, task.Status, ""))
	return nil
}

type mockSender struct {
	sent []email.Invitation
	err  error
}

func (m *mockSender) SendInvitation(_ context.Context, inv email.Invitation) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, inv)
	return nil
}

type recordingRecorder struct {
	invitations int
}

func (r *recordingRecorder) ObserveHTTPRequest(string, string, int, time.Duration) {}
func (r *recordingRecorder) SessionCreated()                                       {}
func (r *recordingRecorder) SignInFailed(string)                                   {}
func (r *recordingRecorder) InvitationSent()                                       { r.invitations++ }
