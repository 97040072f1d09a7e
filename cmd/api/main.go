package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ai-super-hub/hub-api/api/swagger"
	"github.com/ai-super-hub/hub-api/internal/handler"
	"github.com/ai-super-hub/hub-api/internal/middleware"
	"github.com/ai-super-hub/hub-api/internal/models"
	"github.com/ai-super-hub/hub-api/internal/repository"
	"github.com/ai-super-hub/hub-api/internal/service"
	"github.com/ai-super-hub/hub-api/pkg/ai"
	"github.com/ai-super-hub/hub-api/pkg/cache"
	"github.com/ai-super-hub/hub-api/pkg/certificate"
	"github.com/ai-super-hub/hub-api/pkg/config"
	"github.com/ai-super-hub/hub-api/pkg/database"
	"github.com/ai-super-hub/hub-api/pkg/jobs"
	"github.com/ai-super-hub/hub-api/pkg/logger"
	"github.com/ai-super-hub/hub-api/pkg/mail"
	corsmiddleware "github.com/ai-super-hub/hub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ai-super-hub/hub-api/pkg/middleware/requestid"
)

// @title AI Super Hub API
// @version 1.0.0
// @description Learning hub backend: courses, enrollments, AI tools directory, prompt library and assistant chat
// @BasePath /api
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	toolRepo := repository.NewToolRepository(db)
	promptRepo := repository.NewPromptRepository(db)
	chatRepo := repository.NewChatRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Shared infrastructure.
	metricsSvc := service.NewMetricsService()
	mailer := mail.NewMailer(cfg.Mail)
	gemini := ai.NewGeminiClient(cfg.AI)
	renderer := certificate.NewRenderer()

	notificationSvc := service.NewNotificationService(userRepo, mailer, logr, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	// Services.
	authSvc := service.NewAuthService(userRepo, mailer, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "ai-super-hub",
		Audience:           []string{"hub-api"},
	})
	userSvc := service.NewUserService(userRepo, enrollmentRepo, chatRepo, toolRepo, promptRepo, validate, logr)

	var catalogCache *repository.CacheRepository
	if cfg.Catalog.CacheEnabled {
		catalogCache = cacheRepo
	}
	courseSvc := service.NewCourseService(courseRepo, enrollmentRepo, cacheWrapper(catalogCache), metricsSvc, validate, logr, cfg.Catalog.CacheTTL)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, notificationSvc, metricsSvc, validate, logr)
	certificateSvc := service.NewCertificateService(enrollmentRepo, courseRepo, userRepo, renderer, logr)
	toolSvc := service.NewToolService(toolRepo, validate, logr)
	promptSvc := service.NewPromptService(promptRepo, validate, logr)
	chatSvc := service.NewChatService(chatRepo, gemini, metricsSvc, validate, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, certificateSvc)
	toolHandler := handler.NewToolHandler(toolSvc)
	promptHandler := handler.NewPromptHandler(promptSvc)
	chatHandler := handler.NewChatHandler(chatSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc,
		handler.ReadinessCheck{Name: "postgres", Check: db.PingContext},
		handler.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
	)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("/me", userHandler.GetProfile)
		users.PUT("/me", userHandler.UpdateProfile)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", middleware.OptionalJWT(authSvc), courseHandler.List)
		courses.GET("/:id", middleware.OptionalJWT(authSvc), courseHandler.Get)

		enrolled := courses.Group("", middleware.JWT(authSvc))
		{
			enrolled.POST("/:id/enroll", enrollmentHandler.Enroll)
			enrolled.GET("/:id/enrollment", enrollmentHandler.Get)
			enrolled.POST("/:id/lessons/:lessonId/complete", enrollmentHandler.CompleteLesson)
			enrolled.POST("/:id/quiz", enrollmentHandler.SubmitQuiz)
			enrolled.GET("/:id/certificate", enrollmentHandler.Certificate)
		}
	}

	api.GET("/enrollments", middleware.JWT(authSvc), enrollmentHandler.ListMine)

	tools := api.Group("/tools")
	{
		tools.GET("", toolHandler.List)
		tools.GET("/favorites", middleware.JWT(authSvc), toolHandler.ListFavorites)
		tools.GET("/:id", toolHandler.Get)
		tools.POST("/:id/favorite", middleware.JWT(authSvc), toolHandler.AddFavorite)
		tools.DELETE("/:id/favorite", middleware.JWT(authSvc), toolHandler.RemoveFavorite)
	}

	prompts := api.Group("/prompts")
	{
		prompts.GET("", middleware.OptionalJWT(authSvc), promptHandler.List)
		prompts.GET("/:id", middleware.OptionalJWT(authSvc), promptHandler.Get)
		prompts.POST("", middleware.JWT(authSvc), promptHandler.Create)
		prompts.PUT("/:id", middleware.JWT(authSvc), promptHandler.Update)
		prompts.DELETE("/:id", middleware.JWT(authSvc), promptHandler.Delete)
		prompts.POST("/:id/copy", middleware.OptionalJWT(authSvc), promptHandler.Copy)
	}

	chat := api.Group("/chat", middleware.JWT(authSvc))
	{
		chat.POST("", chatHandler.Send)
		chat.GET("/history", chatHandler.History)
		chat.DELETE("/history", chatHandler.Clear)
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", userHandler.List)
		admin.GET("/users/:id", userHandler.Get)
		admin.DELETE("/users/:id", userHandler.Delete)

		admin.POST("/courses", courseHandler.Create)
		admin.PUT("/courses/:id", courseHandler.Update)
		admin.DELETE("/courses/:id", courseHandler.Delete)

		admin.POST("/tools", toolHandler.Create)
		admin.PUT("/tools/:id", toolHandler.Update)
		admin.DELETE("/tools/:id", toolHandler.Delete)

		admin.GET("/metrics", metricsHandler.Snapshot)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}

// cacheWrapper keeps the nil interface check honest: a nil *CacheRepository
// wrapped in an interface would not compare equal to nil.
func cacheWrapper(repo *repository.CacheRepository) service.CatalogCache {
	if repo == nil {
		return nil
	}
	return repo
}
