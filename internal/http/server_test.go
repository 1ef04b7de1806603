package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/db"
	"taskboard/internal/domain"
	"taskboard/internal/email"
	"taskboard/internal/service"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
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
	sessions map[string]domain.Session
}

func (m *mockSessionRepo) Create(_ context.Context, session domain.Session) error {
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
	delete(m.sessions, id)
	return nil
}

type mockWorkspaceRepo struct {
	workspaces map[string]domain.Workspace
	members    *mockWorkspaceUserRepo
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
	for _, member := range m.members.members {
		if member.UserEmail == email && member.Active() {
			out = append(out, m.workspaces[member.WorkspaceID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockWorkspaceRepo) Delete(_ context.Context, id string) error {
	delete(m.workspaces, id)
	return nil
}

type mockWorkspaceUserRepo struct {
	members map[string]domain.WorkspaceUser
}

func memberKey(workspaceID, email string) string { return workspaceID + "|" + email }

func (m *mockWorkspaceUserRepo) Create(_ context.Context, member domain.WorkspaceUser) error {
	key := memberKey(member.WorkspaceID, member.UserEmail)
	if _, ok := m.members[key]; !ok {
		m.members[key] = member
	}
	return nil
}

func (m *mockWorkspaceUserRepo) Get(_ context.Context, workspaceID, email string) (domain.WorkspaceUser, error) {
	member, ok := m.members[memberKey(workspaceID, email)]
	if !ok {
		return domain.WorkspaceUser{}, pgx.ErrNoRows
	}
	return member, nil
}

func (m *mockWorkspaceUserRepo) ListByWorkspace(_ context.Context, workspaceID string) ([]domain.WorkspaceUser, error) {
	var out []domain.WorkspaceUser
	for _, member := range m.members {
		if member.WorkspaceID == workspaceID {
			out = append(out, member)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserEmail < out[j].UserEmail })
	return out, nil
}

func (m *mockWorkspaceUserRepo) Activate(_ context.Context, workspaceID, email string, joinedAt time.Time) error {
	key := memberKey(workspaceID, email)
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
	delete(m.members, memberKey(workspaceID, email))
	return nil
}

type mockProjectRepo struct {
	projects map[string]domain.Project
}

func (m *mockProjectRepo) Create(_ context.Context, project domain.Project) error {
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

// mockTaskRepo guarda tareas en memoria; Move solo reubica sin renumerar vecinas.
type mockTaskRepo struct {
	tasks   map[string]domain.Task
	updates []domain.Task
}

func (m *mockTaskRepo) Create(_ context.Context, task domain.Task) (int, error) {
	pos := 0
	for _, t := range m.tasks {
		if t.ProjectID == task.ProjectID && t.Status == task.Status {
			pos++
		}
	}
	task.Position = pos
	m.tasks[task.ID] = task
	return pos, nil
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

func (m *mockTaskRepo) Replace(_ context.Context, task domain.Task) (domain.Task, error) {
	if _, ok := m.tasks[task.ID]; !ok {
		return domain.Task{}, pgx.ErrNoRows
	}
	m.updates = append(m.updates, task)
	m.tasks[task.ID] = task
	return task, nil
}

func (m *mockTaskRepo) Move(_ context.Context, id, status string, position int) (domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, pgx.ErrNoRows
	}
	t.Status = status
	t.Position = position
	m.tasks[id] = t
	return t, nil
}

func (m *mockTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.tasks, id)
	return nil
}

type mockSender struct {
	sent []email.Invitation
}

func (m *mockSender) SendInvitation(_ context.Context, inv email.Invitation) error {
	m.sent = append(m.sent, inv)
	return nil
}

type stubLimiter struct {
	allow bool
	keys  []string
}

func (s *stubLimiter) Allow(key string) bool {
	s.keys = append(s.keys, key)
	return s.allow
}

type testServer struct {
	router   *gin.Engine
	users    *mockUserRepo
	sessions *mockSessionRepo
	tasks    *mockTaskRepo
	sender   *mockSender
	limiter  *stubLimiter
}

func newTestServer(t *testing.T, secureCookies bool) *testServer {
	t.Helper()
	return newTestServerWithOptions(t, secureCookies, RouterOptions{}, nil)
}

func newTestServerWithOptions(t *testing.T, secureCookies bool, opts RouterOptions, pinger db.Pinger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	ts := &testServer{
		users:    newMockUserRepo(),
		sessions: &mockSessionRepo{sessions: make(map[string]domain.Session)},
		tasks:    &mockTaskRepo{tasks: make(map[string]domain.Task)},
		sender:   &mockSender{},
		limiter:  &stubLimiter{allow: true},
	}
	members := &mockWorkspaceUserRepo{members: make(map[string]domain.WorkspaceUser)}
	workspaces := &mockWorkspaceRepo{workspaces: make(map[string]domain.Workspace), members: members}
	projects := &mockProjectRepo{projects: make(map[string]domain.Project)}

	authSvc := service.NewAuthService(logger, ts.users)
	sessionSvc := service.NewSessionService(logger, ts.sessions, time.Hour)
	tokens := service.NewInviteTokenService("test-secret", time.Hour)
	workspaceSvc := service.NewWorkspaceService(logger, workspaces, members, ts.users, tokens, ts.sender, nil, "http://app.test")
	projectSvc := service.NewProjectService(projects, workspaceSvc)
	taskSvc := service.NewTaskService(ts.tasks, projectSvc)

	ts.router = NewRouter(
		logger,
		opts,
		sessionSvc,
		NewUserHandler(logger, authSvc, sessionSvc, ts.limiter, opts.Recorder, secureCookies),
		NewWorkspaceHandler(logger, workspaceSvc),
		NewProjectHandler(logger, projectSvc),
		NewTaskHandler(logger, taskSvc),
		NewHealthHandler(logger, pinger),
	)
	return ts
}

func (ts *testServer) seedUser(t *testing.T, id, email, password string) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := domain.User{ID: id, Email: email, Name: "User " + id, PasswordHash: string(hash), CreatedAt: time.Now().UTC()}
	ts.users.usersByID[id] = user
	ts.users.usersByEmail[email] = id
	return user
}

func (ts *testServer) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// signIn ingresa con las credenciales y devuelve la cookie de sesión emitida.
func (ts *testServer) signIn(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := ts.do(http.MethodPost, "/user/sign-in", map[string]string{"email": email, "password": password}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sign-in expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cookie := findCookie(rec, sessionCookieName)
	if cookie == nil {
		t.Fatalf("expected session cookie")
	}
	return cookie
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}
