package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"taskboard/internal/service"
)

var registerTagNameOnce sync.Once

// useJSONFieldNames hace que los errores de validación usen los nombres JSON del payload.
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// respondBindError responde 400 con el detalle por campo cuando existe.
func respondBindError(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("invalid request", zap.String("path", c.FullPath()), zap.Error(err))

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": fields})
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "invalid request",
			"fields": map[string]string{typeErr.Field: "has the wrong type"},
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}

// respondError traduce los errores del servicio a códigos HTTP. El texto de
// errores inesperados nunca llega al cliente.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		logger.Warn(op+" rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": verr.Fields})
		return
	}

	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
		c.JSON(status, gin.H{"error": msg})
		return
	}
	logger.Warn(op+" rejected", zap.Error(err))
	c.JSON(status, gin.H{"error": msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, service.ErrAccountCreationFailed):
		return http.StatusConflict, "failed to create an account"
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid email"
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, "too many requests"
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrCannotRemoveOwner),
		errors.Is(err, service.ErrInvitationEmailMismatch):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrWorkspaceNotFound):
		return http.StatusNotFound, "workspace not found"
	case errors.Is(err, service.ErrProjectNotFound):
		return http.StatusNotFound, "project not found"
	case errors.Is(err, service.ErrTaskNotFound):
		return http.StatusNotFound, "task not found"
	case errors.Is(err, service.ErrInvitationNotFound):
		return http.StatusNotFound, "invitation not found"
	case errors.Is(err, service.ErrAlreadyMember):
		return http.StatusConflict, "user is already a member"
	case errors.Is(err, service.ErrInviteTokenInvalid):
		return http.StatusBadRequest, "invalid invitation"
	case errors.Is(err, service.ErrInviteTokenExpired):
		return http.StatusGone, "invitation expired"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
