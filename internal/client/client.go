// Package client es el cliente Go de la API de taskboard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskboard/internal/domain"
)

// APIError es una respuesta 4xx/5xx de la API.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api error: status=%d: %s", e.Status, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("api error: status=%d: %s (%s)", e.Status, e.Message, strings.Join(parts, ", "))
}

// IsStatus indica si err es un APIError con el código dado.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client habla con la API usando la cookie de sesión guardada en su jar.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New construye un cliente con cookie jar propio.
func New(baseURL string, logger *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second, Jar: jar},
		logger:  logger,
	}, nil
}

// TaskSnapshot es el cuerpo completo que exige PUT /task/:id.
type TaskSnapshot struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	DueDate     time.Time `json:"dueDate"`
	Position    int       `json:"position"`
	UserEmail   string    `json:"userEmail"`
}

// FullTaskSnapshot copia el último registro conocido. Los campos ausentes
// viajan con su valor por defecto y la fecha límite vacía con now.
func FullTaskSnapshot(task domain.Task, now time.Time) TaskSnapshot {
	due := now
	if task.DueDate != nil {
		due = *task.DueDate
	}
	return TaskSnapshot{
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     due,
		Position:    task.Position,
		UserEmail:   task.UserEmail,
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (domain.User, error) {
	var out struct {
		User domain.User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/user/sign-in", body, &out)
	return out.User, err
}

func (c *Client) SignUp(ctx context.Context, email, name, password string) (domain.User, error) {
	var out struct {
		User domain.User `json:"user"`
	}
	body := map[string]string{"email": email, "name": name, "password": password}
	err := c.do(ctx, http.MethodPost, "/user/sign-up", body, &out)
	return out.User, err
}

func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/user/sign-out", nil, nil)
}

func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var out struct {
		User domain.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/user/me", nil, &out)
	return out.User, err
}

func (c *Client) ListWorkspaces(ctx context.Context) ([]domain.Workspace, error) {
	var out struct {
		Workspaces []domain.Workspace `json:"workspaces"`
	}
	err := c.do(ctx, http.MethodGet, "/workspace", nil, &out)
	return out.Workspaces, err
}

func (c *Client) CreateWorkspace(ctx context.Context, name string) (domain.Workspace, error) {
	var out struct {
		Workspace domain.Workspace `json:"workspace"`
	}
	err := c.do(ctx, http.MethodPost, "/workspace", map[string]string{"name": name}, &out)
	return out.Workspace, err
}

func (c *Client) ListProjects(ctx context.Context, workspaceID string) ([]domain.Project, error) {
	var out struct {
		Projects []domain.Project `json:"projects"`
	}
	path := "/project?" + url.Values{"workspaceId": {workspaceID}}.Encode()
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Projects, err
}

func (c *Client) CreateProject(ctx context.Context, workspaceID, name string) (domain.Project, error) {
	var out struct {
		Project domain.Project `json:"project"`
	}
	body := map[string]string{"workspaceId": workspaceID, "name": name}
	err := c.do(ctx, http.MethodPost, "/project", body, &out)
	return out.Project, err
}

func (c *Client) GetBoard(ctx context.Context, projectID string) ([]domain.Column, error) {
	var out struct {
		Columns []domain.Column `json:"columns"`
	}
	err := c.do(ctx, http.MethodGet, "/task/board/"+url.PathEscape(projectID), nil, &out)
	return out.Columns, err
}

func (c *Client) CreateTask(ctx context.Context, projectID, title string) (domain.Task, error) {
	var out struct {
		Task domain.Task `json:"task"`
	}
	err := c.do(ctx, http.MethodPost, "/task/"+url.PathEscape(projectID), map[string]string{"title": title}, &out)
	return out.Task, err
}

func (c *Client) GetTask(ctx context.Context, id string) (domain.Task, error) {
	var out struct {
		Task domain.Task `json:"task"`
	}
	err := c.do(ctx, http.MethodGet, "/task/"+url.PathEscape(id), nil, &out)
	return out.Task, err
}

// UpdateTask reemplaza el registro completo de la tarea.
func (c *Client) UpdateTask(ctx context.Context, id string, snap TaskSnapshot) (domain.Task, error) {
	var out struct {
		Task domain.Task `json:"task"`
	}
	err := c.do(ctx, http.MethodPut, "/task/"+url.PathEscape(id), snap, &out)
	return out.Task, err
}

func (c *Client) MoveTask(ctx context.Context, id, status string, position int) (domain.Task, error) {
	var out struct {
		Task domain.Task `json:"task"`
	}
	body := map[string]any{"status": status, "position": position}
	err := c.do(ctx, http.MethodPut, "/task/"+url.PathEscape(id)+"/move", body, &out)
	return out.Task, err
}

func (c *Client) InviteWorkspaceUser(ctx context.Context, workspaceID, userEmail string) (domain.WorkspaceUser, error) {
	var out struct {
		WorkspaceUser domain.WorkspaceUser `json:"workspaceUser"`
	}
	body := map[string]string{"userEmail": userEmail}
	err := c.do(ctx, http.MethodPost, "/workspace-user/"+url.PathEscape(workspaceID), body, &out)
	return out.WorkspaceUser, err
}

func (c *Client) AcceptInvitation(ctx context.Context, token string) (domain.WorkspaceUser, error) {
	var out struct {
		WorkspaceUser domain.WorkspaceUser `json:"workspaceUser"`
	}
	err := c.do(ctx, http.MethodPost, "/workspace-user/accept", map[string]string{"token": token}, &out)
	return out.WorkspaceUser, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		bodyBytes, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if json.Unmarshal(respBody, &payload) == nil {
			if payload.Error != "" {
				apiErr.Message = payload.Error
			}
			apiErr.Fields = payload.Fields
		}
		c.logger.Debug("api error", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
