// Package server contains the HTTP handlers and routing for the cafe
// directory application.
package server

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"cafedex/internal/cache"
	"cafedex/internal/config"
	"cafedex/internal/database"
	"cafedex/internal/maps"
	"cafedex/internal/middleware"
	"cafedex/internal/models"
	"cafedex/internal/repository"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	redisstorage "github.com/gofiber/storage/redis/v3"
	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

//go:embed views
var viewsFS embed.FS

const sessionCookieName = "cafedex_session"

// Prometheus collectors register against the default registry, so the HTTP
// metrics middleware must be created exactly once per process.
var (
	promOnce sync.Once
	promMW   *fiberprometheus.FiberPrometheus
)

func metricsMiddleware() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMW = middleware.InitMetrics("cafedex")
	})
	return promMW
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	sessions       *session.Store
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	cafeRepo       repository.CafeRepository
	cityRepo       repository.CityRepository
	likeRepo       repository.LikeRepository
	maps           *maps.Client
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	server := newServer(cfg, db, redisClient)
	server.sessions = newSessionStore(cfg, true)
	return server, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Sessions are kept in process memory, which suits tests and single-node
// bootstrap setups.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	server := newServer(cfg, db, redisClient)
	server.sessions = newSessionStore(cfg, false)
	return server, nil
}

func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: metricsMiddleware(),
		userRepo:       repository.NewUserRepository(db),
		cafeRepo:       repository.NewCafeRepository(db),
		cityRepo:       repository.NewCityRepository(db),
		likeRepo:       repository.NewLikeRepository(db),
		maps:           maps.NewClient(cfg.MapquestAPIKey, cfg.StaticDir, middleware.Logger),
	}
}

// newSessionStore builds the cookie session store. With useRedis set and a
// Redis URL configured, sessions survive restarts and are shared across
// replicas.
func newSessionStore(cfg *config.Config, useRedis bool) *session.Store {
	sessCfg := session.Config{
		Expiration:     7 * 24 * time.Hour,
		KeyLookup:      "cookie:" + sessionCookieName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   cfg.IsProduction(),
	}

	if useRedis && cfg.RedisURL != "" {
		url := cfg.RedisURL
		if !strings.Contains(url, "://") {
			url = "redis://" + url
		}
		sessCfg.Storage = redisstorage.New(redisstorage.Config{URL: url})
	}

	return session.New(sessCfg)
}

func newViewEngine() *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return html.NewFileSystem(http.FS(sub), ".html")
}

// BuildApp constructs the Fiber application with all middleware and routes.
// Tests drive the returned app directly via app.Test.
func (s *Server) BuildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Cafedex",
		Views:   newViewEngine(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				"path", c.Path(), "error", err)
			if isAPIPath(c.Path()) {
				return models.RespondWithError(c, fiber.StatusInternalServerError,
					models.NewInternalError(err))
			}
			return c.Status(fiber.StatusInternalServerError).
				Render("errors/500", fiber.Map{}, "layouts/main")
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New(helmet.Config{
		// Inline styles are used by the rendered pages.
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' https: data:; style-src 'self' 'unsafe-inline'",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS for the JSON API, before the limiter so browser clients still
	// receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8080"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-CSRF-Token",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			// Preflight requests are handled by CORS, never limited.
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	// Resolve the session identity before anything that renders or gates.
	app.Use(s.LoadCurrentUser())

	// CSRF protection for browser form submissions. API clients holding a
	// Bearer token are exempt, as is the token-issuing endpoint itself.
	if s.config.Env != "test" {
		app.Use(csrf.New(csrf.Config{
			Session:        s.sessions,
			SessionKey:     "csrf_token_key",
			ContextKey:     csrfContextKey,
			CookieName:     "csrf_",
			CookieSameSite: "Lax",
			CookieSecure:   s.config.IsProduction(),
			CookieHTTPOnly: false,
			Expiration:     1 * time.Hour,
			Next: func(c *fiber.Ctx) bool {
				if strings.HasPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ") {
					return true
				}
				return c.Path() == "/api/token"
			},
			Extractor: func(c *fiber.Ctx) (string, error) {
				if token := c.FormValue("csrf_token"); token != "" {
					return token, nil
				}
				if token := c.Get("X-CSRF-Token"); token != "" {
					return token, nil
				}
				return "", csrf.ErrTokenNotFound
			},
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				if isAPIPath(c.Path()) {
					return models.RespondWithError(c, fiber.StatusForbidden,
						models.NewForbiddenError("Invalid CSRF token"))
				}
				s.addFlash(c, "Access unauthorized.")
				return c.Redirect("/", fiber.StatusSeeOther)
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Static assets (placeholder images, generated map images)
	app.Static("/static", s.config.StaticDir)

	// Pages
	app.Get("/", s.Home)

	app.Get("/signup", s.SignupPage)
	app.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	app.Get("/login", s.LoginPage)
	app.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Post("/logout", s.Logout)

	app.Get("/profile", s.LoginRequired(), s.Profile)
	app.Get("/profile/edit", s.LoginRequired(), s.ProfileEditPage)
	app.Post("/profile/edit", s.LoginRequired(), s.ProfileEdit)

	// Define /add routes BEFORE the generic /:id routes
	cafes := app.Group("/cafes")
	cafes.Get("/", s.CafeList)
	cafes.Get("/add", s.LoginRequired(), s.AdminRequired(), s.CafeAddPage)
	cafes.Post("/add", s.LoginRequired(), s.AdminRequired(), s.CafeAdd)
	cafes.Get("/:id/edit", s.LoginRequired(), s.AdminRequired(), s.CafeEditPage)
	cafes.Post("/:id/edit", s.LoginRequired(), s.AdminRequired(), s.CafeEdit)
	cafes.Get("/:id", s.CafeDetail)

	// JSON API
	api := app.Group("/api")
	api.Get("/likes", s.GetLikeStatus)
	api.Post("/toggle_like/:id", middleware.RateLimit(
		s.redis, 30, time.Minute, "toggle_like"), s.ToggleLike)
	api.Post("/token", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "api_token"), s.IssueAPIToken)
	api.Post("/users/:id/promote-admin", s.LoginRequired(), s.AdminRequired(), s.PromoteToAdmin)
	api.Post("/users/:id/demote-admin", s.LoginRequired(), s.AdminRequired(), s.DemoteFromAdmin)

	// Catch-all 404
	app.Use(s.NotFound)
}

// NotFound renders the 404 page, or a JSON error for API paths.
func (s *Server) NotFound(c *fiber.Ctx) error {
	if isAPIPath(c.Path()) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("resource", c.Path()))
	}
	return c.Status(fiber.StatusNotFound).Render("errors/404", fiber.Map{
		"CurrentUser": s.currentUser(c),
	}, "layouts/main")
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The app degrades to uncached, memory-session operation without
		// Redis, so its absence does not fail readiness.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.BuildApp()
	middleware.Logger.Info("server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/") || path == "/api"
}
