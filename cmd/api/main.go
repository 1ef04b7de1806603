package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taskboard/internal/config"
	"taskboard/internal/db"
	"taskboard/internal/email"
	apihttp "taskboard/internal/http"
	"taskboard/internal/metrics"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if cfg.AutoMigrate {
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		logger.Info("migrations applied")
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	userRepo := repository.NewPgUserRepository(pool)
	workspaceRepo := repository.NewPgWorkspaceRepository(pool)
	memberRepo := repository.NewPgWorkspaceUserRepository(pool)
	projectRepo := repository.NewPgProjectRepository(pool)
	taskRepo := repository.NewPgTaskRepository(pool)

	var (
		sessionRepo repository.SessionRepository = repository.NewPgSessionRepository(pool)
		limiter                                  = service.NewMemorySignInRateLimiter(cfg.SignInRateWindow(), cfg.SignInRateMax)
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using postgres sessions", zap.Error(err))
		} else {
			sessionRepo = repository.NewRedisSessionStore(redisClient)
			limiter = service.NewRedisSignInRateLimiter(redisClient, cfg.SignInRateWindow(), cfg.SignInRateMax)
			logger.Info("redis session store enabled")
		}
		cancel()
	}

	emailSender := newEmailSender(cfg, logger)

	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured, invitation links disabled")
	}
	inviteTokens := service.NewInviteTokenService(cfg.JWTSecret, cfg.InviteTTL())

	authSvc := service.NewAuthService(logger, userRepo)
	sessionSvc := service.NewSessionService(logger, sessionRepo, cfg.SessionTTL())
	workspaceSvc := service.NewWorkspaceService(logger, workspaceRepo, memberRepo, userRepo, inviteTokens, emailSender, recorder, cfg.AppBaseURL)
	projectSvc := service.NewProjectService(projectRepo, workspaceSvc)
	taskSvc := service.NewTaskService(taskRepo, projectSvc)

	router := apihttp.NewRouter(
		logger,
		apihttp.RouterOptions{
			AllowedOrigin:  cfg.CORSAllowedOrigin,
			Recorder:       recorder,
			MetricsHandler: metrics.Handler(registry),
		},
		sessionSvc,
		apihttp.NewUserHandler(logger, authSvc, sessionSvc, limiter, recorder, cfg.IsProduction()),
		apihttp.NewWorkspaceHandler(logger, workspaceSvc),
		apihttp.NewProjectHandler(logger, projectSvc),
		apihttp.NewTaskHandler(logger, taskSvc),
		apihttp.NewHealthHandler(logger, pool),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.AppEnv))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newEmailSender prefiere SendGrid, luego SMTP y si no hay ninguno deja el envío deshabilitado.
func newEmailSender(cfg *config.Config, logger *zap.Logger) email.Sender {
	if cfg.SendGridAPIKey != "" {
		sender, err := email.NewSendGridSender(cfg.SendGridAPIKey, cfg.SMTPFrom, cfg.SMTPFromName)
		if err == nil {
			return sender
		}
		logger.Warn("sendgrid sender init failed", zap.Error(err))
	}
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err == nil {
			return sender
		}
		logger.Warn("smtp sender init failed", zap.Error(err))
	}
	return email.NewDisabledSender("email sender not configured")
}
