package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/service"
)

type ProjectHandler struct {
	logger   *zap.Logger
	projects *service.ProjectService
}

func NewProjectHandler(logger *zap.Logger, projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{logger: logger, projects: projects}
}

// Create maneja POST /project.
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req struct {
		WorkspaceID string `json:"workspaceId" binding:"required"`
		Name        string `json:"name" binding:"required,max=100"`
		Slug        string `json:"slug" binding:"max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	project, err := h.projects.Create(c.Request.Context(), userID, service.CreateProjectInput{
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		Slug:        req.Slug,
	})
	if err != nil {
		respondError(c, h.logger, "create project", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// List maneja GET /project?workspaceId=.
func (h *ProjectHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	workspaceID := strings.TrimSpace(c.Query("workspaceId"))
	if workspaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "invalid request",
			"fields": map[string]string{"workspaceId": "required"},
		})
		return
	}

	list, err := h.projects.List(c.Request.Context(), userID, workspaceID)
	if err != nil {
		respondError(c, h.logger, "list projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": list})
}

// Get maneja GET /project/:id.
func (h *ProjectHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	project, err := h.projects.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}
