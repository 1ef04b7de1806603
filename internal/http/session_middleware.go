package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/domain"
	"taskboard/internal/service"
)

const (
	authUserIDKey  = "auth_user_id"
	authSessionKey = "auth_session"
)

// SessionAuthMiddleware valida la cookie de sesión y guarda el usuario en el contexto.
func SessionAuthMiddleware(logger *zap.Logger, sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessions == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sessions not configured"})
			c.Abort()
			return
		}

		token := sessionToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		session, err := sessions.ValidateSessionToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrSessionNotFound) || errors.Is(err, service.ErrSessionExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				c.Abort()
				return
			}
			logger.Error("validate session failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			c.Abort()
			return
		}

		c.Set(authUserIDKey, session.UserID)
		c.Set(authSessionKey, session)
		c.Next()
	}
}

// GetAuthUserID obtiene el id del usuario autenticado desde el contexto.
func GetAuthUserID(c *gin.Context) (string, bool) {
	val, ok := c.Get(authUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}

// GetAuthSession obtiene la sesión validada por el middleware.
func GetAuthSession(c *gin.Context) (domain.Session, bool) {
	val, ok := c.Get(authSessionKey)
	if !ok {
		return domain.Session{}, false
	}
	session, ok := val.(domain.Session)
	return session, ok
}

// requireUserID responde 401 si la ruta no pasó por el middleware de sesión.
func requireUserID(c *gin.Context) (string, bool) {
	id, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return id, true
}
