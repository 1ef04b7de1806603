package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/metrics"
	"taskboard/internal/service"
)

// RouterOptions agrupa la infraestructura transversal del router.
type RouterOptions struct {
	AllowedOrigin  string
	Recorder       metrics.Recorder
	MetricsHandler http.Handler
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	opts RouterOptions,
	sessions *service.SessionService,
	userH *UserHandler,
	workspaceH *WorkspaceHandler,
	projectH *ProjectHandler,
	taskH *TaskHandler,
	healthH *HealthHandler,
) *gin.Engine {
	useJSONFieldNames()
	if opts.Recorder == nil {
		opts.Recorder = metrics.NopRecorder{}
	}

	r := gin.New()

	// Middlewares basicos: logging, recovery, metricas y cabeceras.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), metricsMiddleware(opts.Recorder), securityHeadersMiddleware())
	if opts.AllowedOrigin != "" {
		r.Use(corsMiddleware(opts.AllowedOrigin))
	}

	r.GET("/healthz", healthH.Health)
	if opts.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	requireSession := SessionAuthMiddleware(logger, sessions)

	user := r.Group("/user")
	user.POST("/sign-in", userH.SignIn)
	user.POST("/sign-up", userH.SignUp)
	user.POST("/sign-out", userH.SignOut)
	user.GET("/me", requireSession, userH.Me)

	workspace := r.Group("/workspace", requireSession)
	workspace.POST("", workspaceH.Create)
	workspace.GET("", workspaceH.List)
	workspace.GET("/:id", workspaceH.Get)
	workspace.DELETE("/:id", workspaceH.Delete)

	members := r.Group("/workspace-user", requireSession)
	members.POST("/accept", workspaceH.Accept)
	members.POST("/:workspaceId", workspaceH.Invite)
	members.GET("/:workspaceId", workspaceH.ListMembers)
	members.DELETE("/:workspaceId/:userEmail", workspaceH.RemoveMember)

	project := r.Group("/project", requireSession)
	project.POST("", projectH.Create)
	project.GET("", projectH.List)
	project.GET("/:id", projectH.Get)

	task := r.Group("/task", requireSession)
	task.GET("/board/:projectId", taskH.Board)
	task.POST("/:projectId", taskH.Create)
	task.GET("/:id", taskH.Get)
	task.PUT("/:id", taskH.Update)
	task.PUT("/:id/move", taskH.Move)
	task.DELETE("/:id", taskH.Delete)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID, ok := GetAuthUserID(c); ok {
			fields = append(fields, zap.String("user_id", userID))
		}
		logger.Info("request", fields...)
	}
}

// metricsMiddleware registra cada request con la ruta declarada, no el path crudo.
func metricsMiddleware(recorder metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		recorder.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// corsMiddleware habilita un único origen con credenciales. Las preflight responden 204.
func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowedOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
