package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/service"
)

// WorkspaceHandler expone workspaces y sus miembros.
type WorkspaceHandler struct {
	logger     *zap.Logger
	workspaces *service.WorkspaceService
}

func NewWorkspaceHandler(logger *zap.Logger, workspaces *service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{logger: logger, workspaces: workspaces}
}

// Create maneja POST /workspace.
func (h *WorkspaceHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	ws, err := h.workspaces.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondError(c, h.logger, "create workspace", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"workspace": ws})
}

// List maneja GET /workspace.
func (h *WorkspaceHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	list, err := h.workspaces.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "list workspaces", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspaces": list})
}

// Get maneja GET /workspace/:id.
func (h *WorkspaceHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	ws, err := h.workspaces.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get workspace", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspace": ws})
}

// Delete maneja DELETE /workspace/:id.
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.workspaces.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, h.logger, "delete workspace", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Invite maneja POST /workspace-user/:workspaceId.
func (h *WorkspaceHandler) Invite(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req struct {
		UserEmail string `json:"userEmail" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	result, err := h.workspaces.Invite(c.Request.Context(), userID, c.Param("workspaceId"), req.UserEmail)
	if err != nil {
		respondError(c, h.logger, "invite workspace user", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Accept maneja POST /workspace-user/accept.
func (h *WorkspaceHandler) Accept(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	member, err := h.workspaces.AcceptInvitation(c.Request.Context(), userID, req.Token)
	if err != nil {
		respondError(c, h.logger, "accept invitation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspaceUser": member})
}

// ListMembers maneja GET /workspace-user/:workspaceId.
func (h *WorkspaceHandler) ListMembers(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	list, err := h.workspaces.ListMembers(c.Request.Context(), userID, c.Param("workspaceId"))
	if err != nil {
		respondError(c, h.logger, "list workspace users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspaceUsers": list})
}

// RemoveMember maneja DELETE /workspace-user/:workspaceId/:userEmail.
func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	err := h.workspaces.RemoveMember(c.Request.Context(), userID, c.Param("workspaceId"), c.Param("userEmail"))
	if err != nil {
		respondError(c, h.logger, "remove workspace user", err)
		return
	}
	c.Status(http.StatusNoContent)
}
