package domain

import "time"

// Estados de tarea. Cada estado es una columna del tablero Kanban.
const (
	TaskStatusToDo       = "to-do"
	TaskStatusInProgress = "in-progress"
	TaskStatusInReview   = "in-review"
	TaskStatusDone       = "done"
)

const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Position    int        `json:"position"`
	UserEmail   string     `json:"userEmail"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Column es una columna del tablero con sus tareas ordenadas por posición.
type Column struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Tasks []Task `json:"tasks"`
}

// BoardColumns define el orden y los nombres visibles de las columnas.
var BoardColumns = []Column{
	{ID: TaskStatusToDo, Name: "To Do"},
	{ID: TaskStatusInProgress, Name: "In Progress"},
	{ID: TaskStatusInReview, Name: "In Review"},
	{ID: TaskStatusDone, Name: "Done"},
}

func IsValidTaskStatus(status string) bool {
	for _, col := range BoardColumns {
		if col.ID == status {
			return true
		}
	}
	return false
}

func IsValidTaskPriority(priority string) bool {
	switch priority {
	case "", TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}
