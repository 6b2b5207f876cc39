// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"skillshare/internal/config"
	"skillshare/internal/featureflags"
	"skillshare/internal/middleware"
	"skillshare/internal/models"
	"skillshare/internal/notifications"
	"skillshare/internal/repository"
	"skillshare/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "skillshare-api"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *middleware.TokenManager
	featureFlags   *featureflags.Manager

	userRepo repository.UserRepository

	userService         *service.UserService
	graphService        *service.GraphService
	postService         *service.PostService
	commentService      *service.CommentService
	planService         *service.LearningPlanService
	progressService     *service.LearningProgressService
	notificationService *service.NotificationService
}

// NewServerWithDeps creates a Server on connections opened by the bootstrap
// layer or a test. redisClient may be nil; caching and rate limiting then
// degrade to no-ops.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	planRepo := repository.NewLearningPlanRepository(db)
	progressRepo := repository.NewLearningProgressRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	flags := featureflags.NewManager(cfg.FeatureFlags).
		WithDefault(featureflags.FlagFollowNotifications, "on")
	dispatcher := notifications.NewDispatcher(notificationRepo, cfg.FanOutConcurrency)
	attempts := cfg.CASMaxAttempts

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(serviceName),
		tokens:         middleware.NewTokenManager(cfg.JWTSecret),
		featureFlags:   flags,
		userRepo:       userRepo,
	}

	s.userService = service.NewUserService(userRepo, attempts)
	s.graphService = service.NewGraphService(userRepo, dispatcher, flags, attempts)
	s.postService = service.NewPostService(postRepo, commentRepo, userRepo, dispatcher, attempts)
	s.commentService = service.NewCommentService(commentRepo, postRepo, userRepo, dispatcher, attempts)
	s.planService = service.NewLearningPlanService(planRepo, userRepo, dispatcher, attempts)
	s.progressService = service.NewLearningProgressService(progressRepo, userRepo)
	s.notificationService = service.NewNotificationService(notificationRepo, userRepo)

	return s, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName: "SkillShare API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Propagates request ID into the user context for logging.
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "SkillShare Backend Metrics Dashboard",
	}))

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	required := middleware.AuthRequired(s.tokens)
	optional := middleware.OptionalAuth(s.tokens)

	users := api.Group("/users")
	users.Get("/", optional, s.GetAllUsers)
	users.Get("/me", required, s.GetMyProfile)
	users.Put("/me", required, s.UpdateMyProfile)
	users.Post("/me/skills", required, s.AddMySkill)
	users.Delete("/me/skills/:name", required, s.RemoveMySkill)
	// Specific /:id/<resource> routes before the generic /:id route.
	users.Post("/:id/follow", required, middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.FollowUser)
	users.Delete("/:id/follow", required, s.UnfollowUser)
	users.Get("/:id/followers", optional, s.GetFollowers)
	users.Get("/:id/following", optional, s.GetFollowing)
	users.Get("/:id/posts", optional, s.GetUserPosts)
	users.Get("/:id/plans", optional, s.GetUserPlans)
	users.Get("/:id/progress", optional, s.GetUserProgress)
	users.Get("/:id", optional, s.GetUserProfile)

	posts := api.Group("/posts")
	posts.Get("/", optional, s.GetAllPosts)
	posts.Get("/feed", required, s.GetFeed)
	posts.Post("/", required, middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:id/comments", optional, s.GetComments)
	posts.Post("/:id/comments", required, middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	posts.Post("/:id/like", required, s.LikePost)
	posts.Delete("/:id/like", required, s.UnlikePost)
	posts.Get("/:id", optional, s.GetPost)
	posts.Put("/:id", required, s.UpdatePost)
	posts.Delete("/:id", required, s.DeletePost)

	comments := api.Group("/comments")
	comments.Get("/:id", optional, s.GetComment)
	comments.Put("/:id", required, s.UpdateComment)
	comments.Delete("/:id", required, s.DeleteComment)

	plans := api.Group("/plans")
	plans.Get("/", optional, s.GetPlansBySkill)
	plans.Post("/", required, s.CreatePlan)
	plans.Post("/:id/steps", required, s.AddPlanStep)
	plans.Put("/:id/steps/:stepId", required, s.UpdatePlanStep)
	plans.Delete("/:id/steps/:stepId", required, s.DeletePlanStep)
	plans.Patch("/:id/steps/:stepId/status", required, s.SetPlanStepStatus)
	plans.Post("/:id/steps/:stepId/move", required, s.MovePlanStep)
	plans.Put("/:id/progress", required, s.SetPlanProgress)
	plans.Get("/:id", optional, s.GetPlan)
	plans.Put("/:id", required, s.UpdatePlan)
	plans.Delete("/:id", required, s.DeletePlan)

	progress := api.Group("/progress")
	progress.Get("/", optional, s.GetProgressBySkill)
	progress.Post("/", required, s.CreateProgress)
	progress.Get("/:id", optional, s.GetProgress)
	progress.Put("/:id", required, s.UpdateProgress)
	progress.Delete("/:id", required, s.DeleteProgress)

	inbox := api.Group("/notifications", required)
	inbox.Get("/", s.GetNotifications)
	inbox.Get("/unread-count", s.GetUnreadCount)
	inbox.Put("/read-all", s.MarkAllNotificationsRead)
	inbox.Put("/:id/read", s.MarkNotificationRead)

	api.Get("/feature-flags", required, s.GetFeatureFlags)
}

// HealthResponse is the body of the readiness probe.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Time   time.Time         `json:"time"`
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "up", Time: time.Now()})
}

// ReadinessCheck pings the database and Redis. Redis being absent is
// reported but does not fail readiness; every Redis use degrades gracefully.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(HealthResponse{
		Status: overall,
		Checks: map[string]string{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		Time: time.Now(),
	})
}

// Start serves the API on the configured port until Shutdown.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops the HTTP listener and closes the database and Redis clients.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
