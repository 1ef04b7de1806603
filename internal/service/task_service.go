package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskService implementa el CRUD de tareas y el tablero Kanban.
type TaskService struct {
	tasks    repository.TaskRepository
	projects *ProjectService
	now      func() time.Time
}

func NewTaskService(tasks repository.TaskRepository, projects *ProjectService) *TaskService {
	return &TaskService{
		tasks:    tasks,
		projects: projects,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	UserEmail   string
}

// UpdateTaskInput es un reemplazo completo del registro editable.
// Status vacío conserva la columna actual.
type UpdateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	Position    int
	UserEmail   string
}

func (s *TaskService) Create(ctx context.Context, userID, projectID string, input CreateTaskInput) (domain.Task, error) {
	if input.Status == "" {
		input.Status = domain.TaskStatusToDo
	}
	task := domain.Task{
		Title:       cleanText(input.Title),
		Description: cleanText(input.Description),
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		UserEmail:   normalizeEmail(input.UserEmail),
	}
	if err := validateTask(task); err != nil {
		return domain.Task{}, err
	}

	if _, err := s.projects.Get(ctx, userID, projectID); err != nil {
		return domain.Task{}, err
	}

	now := s.now()
	task.ID = uuid.NewString()
	task.ProjectID = projectID
	task.CreatedAt = now
	task.UpdatedAt = now

	position, err := s.tasks.Create(ctx, task)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrProjectNotFound
		}
		return domain.Task{}, err
	}
	task.Position = position
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID string) (domain.Task, error) {
	return s.authorizeTask(ctx, userID, taskID)
}

// Update reemplaza el registro completo; columna y posición se aplican en la misma escritura.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (domain.Task, error) {
	current, err := s.authorizeTask(ctx, userID, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	status := input.Status
	if status == "" {
		status = current.Status
	}
	updated := current
	updated.Title = cleanText(input.Title)
	updated.Description = cleanText(input.Description)
	updated.Status = status
	updated.Priority = input.Priority
	updated.DueDate = input.DueDate
	updated.UserEmail = normalizeEmail(input.UserEmail)
	updated.UpdatedAt = s.now()
	if err := validateTask(updated); err != nil {
		return domain.Task{}, err
	}

	updated.Position = input.Position
	saved, err := s.tasks.Replace(ctx, updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrTaskNotFound
		}
		return domain.Task{}, err
	}
	return saved, nil
}

func (s *TaskService) Move(ctx context.Context, userID, taskID, status string, position int) (domain.Task, error) {
	if !domain.IsValidTaskStatus(status) {
		return domain.Task{}, &ValidationError{Fields: map[string]string{"status": "unknown column"}}
	}
	if _, err := s.authorizeTask(ctx, userID, taskID); err != nil {
		return domain.Task{}, err
	}
	moved, err := s.tasks.Move(ctx, taskID, status, position)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrTaskNotFound
		}
		return domain.Task{}, err
	}
	return moved, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	if _, err := s.authorizeTask(ctx, userID, taskID); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTaskNotFound
		}
		return err
	}
	return nil
}

func (s *TaskService) Board(ctx context.Context, userID, projectID string) ([]domain.Column, error) {
	if _, err := s.projects.Get(ctx, userID, projectID); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return BuildBoard(tasks), nil
}

// authorizeTask responde ErrTaskNotFound tanto si la tarea no existe como si
// pertenece a un workspace del que el usuario no es miembro.
func (s *TaskService) authorizeTask(ctx context.Context, userID, taskID string) (domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, ErrTaskNotFound
		}
		return domain.Task{}, err
	}
	if _, err := s.projects.Get(ctx, userID, task.ProjectID); err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return domain.Task{}, ErrTaskNotFound
		}
		return domain.Task{}, err
	}
	return task, nil
}

func validateTask(t domain.Task) error {
	verr := &ValidationError{}
	if t.Title == "" {
		verr.add("title", "required")
	} else if tooLong(t.Title, maxTitleLength) {
		verr.add("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	if !domain.IsValidTaskStatus(t.Status) {
		verr.add("status", "unknown column")
	}
	if !domain.IsValidTaskPriority(t.Priority) {
		verr.add("priority", "must be one of low, medium, high, urgent")
	}
	if t.UserEmail != "" && !isValidEmail(t.UserEmail) {
		verr.add("userEmail", "must be a valid email")
	}
	return verr.orNil()
}
