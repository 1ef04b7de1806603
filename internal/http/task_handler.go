package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/service"
)

// TaskHandler expone tareas y el tablero Kanban de un proyecto.
type TaskHandler struct {
	logger *zap.Logger
	tasks  *service.TaskService
}

func NewTaskHandler(logger *zap.Logger, tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{logger: logger, tasks: tasks}
}

// Create maneja POST /task/:projectId.
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req struct {
		Title       string     `json:"title" binding:"required,max=255"`
		Description string     `json:"description" binding:"max=5000"`
		Status      string     `json:"status"`
		Priority    string     `json:"priority"`
		DueDate     *time.Time `json:"dueDate"`
		UserEmail   string     `json:"userEmail" binding:"omitempty,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), userID, c.Param("projectId"), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		UserEmail:   req.UserEmail,
	})
	if err != nil {
		respondError(c, h.logger, "create task", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// Get maneja GET /task/:id.
func (h *TaskHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	task, err := h.tasks.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// Update maneja PUT /task/:id. Es un reemplazo completo: todos los campos
// deben venir en el cuerpo, aunque sea con su valor vacío.
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req struct {
		Title       *string    `json:"title" binding:"required,min=1,max=255"`
		Description *string    `json:"description" binding:"required,max=5000"`
		Status      *string    `json:"status" binding:"required"`
		Priority    *string    `json:"priority" binding:"required"`
		DueDate     *time.Time `json:"dueDate" binding:"required"`
		Position    *int       `json:"position" binding:"required,min=0"`
		UserEmail   *string    `json:"userEmail" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), userID, c.Param("id"), service.UpdateTaskInput{
		Title:       *req.Title,
		Description: *req.Description,
		Status:      *req.Status,
		Priority:    *req.Priority,
		DueDate:     req.DueDate,
		Position:    *req.Position,
		UserEmail:   *req.UserEmail,
	})
	if err != nil {
		respondError(c, h.logger, "update task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// Move maneja PUT /task/:id/move.
func (h *TaskHandler) Move(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req struct {
		Status   string `json:"status" binding:"required"`
		Position *int   `json:"position" binding:"required,min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	task, err := h.tasks.Move(c.Request.Context(), userID, c.Param("id"), req.Status, *req.Position)
	if err != nil {
		respondError(c, h.logger, "move task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// Delete maneja DELETE /task/:id.
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, h.logger, "delete task", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Board maneja GET /task/board/:projectId.
func (h *TaskHandler) Board(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	columns, err := h.tasks.Board(c.Request.Context(), userID, c.Param("projectId"))
	if err != nil {
		respondError(c, h.logger, "get board", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": columns})
}
