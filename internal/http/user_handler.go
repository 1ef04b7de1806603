package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/domain"
	"taskboard/internal/metrics"
	"taskboard/internal/service"
)

// UserHandler mantiene dependencias para los endpoints de /user.
type UserHandler struct {
	logger        *zap.Logger
	auth          *service.AuthService
	sessions      *service.SessionService
	limiter       service.SignInRateLimiter
	recorder      metrics.Recorder
	secureCookies bool
}

// NewUserHandler crea el handler. limiter puede ser nil para no limitar.
func NewUserHandler(
	logger *zap.Logger,
	auth *service.AuthService,
	sessions *service.SessionService,
	limiter service.SignInRateLimiter,
	recorder metrics.Recorder,
	secureCookies bool,
) *UserHandler {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &UserHandler{
		logger:        logger,
		auth:          auth,
		sessions:      sessions,
		limiter:       limiter,
		recorder:      recorder,
		secureCookies: secureCookies,
	}
}

// SignIn maneja POST /user/sign-in. Solo acepta email y password.
func (h *UserHandler) SignIn(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	if h.limiter != nil && !h.limiter.Allow(strings.ToLower(strings.TrimSpace(req.Email))) {
		h.recorder.SignInFailed("rate_limited")
		respondError(c, h.logger, "sign in", service.ErrRateLimited)
		return
	}

	user, err := h.auth.SignIn(c.Request.Context(), service.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.recorder.SignInFailed("invalid_credentials")
		}
		respondError(c, h.logger, "sign in", err)
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SignUp maneja POST /user/sign-up.
func (h *UserHandler) SignUp(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email,max=254"`
		Name     string `json:"name" binding:"required,max=100"`
		Password string `json:"password" binding:"required,min=8,max=72"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	user, err := h.auth.SignUp(c.Request.Context(), service.SignUpInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.logger, "sign up", err)
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// SignOut maneja POST /user/sign-out. Sin cookie o con una sesión
// desconocida responde igual que con una sesión válida.
func (h *UserHandler) SignOut(c *gin.Context) {
	if err := h.sessions.InvalidateSession(c.Request.Context(), sessionToken(c)); err != nil {
		respondError(c, h.logger, "sign out", err)
		return
	}
	clearSessionCookie(c, h.secureCookies)
	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

// Me maneja GET /user/me.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, "get user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// startSession crea la sesión y recién después escribe la cookie.
func (h *UserHandler) startSession(c *gin.Context, user domain.User) bool {
	token, err := service.GenerateSessionToken()
	if err != nil {
		respondError(c, h.logger, "generate session token", err)
		return false
	}
	session, err := h.sessions.CreateSession(c.Request.Context(), token, user.ID)
	if err != nil {
		respondError(c, h.logger, "create session", err)
		return false
	}
	h.recorder.SessionCreated()
	setSessionCookie(c, token, session.ExpiresAt, h.secureCookies)
	return true
}
