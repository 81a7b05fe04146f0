// Package server wires the HTTP surface: routing, middleware, and the
// handlers that render pages and process form submissions.
package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"
	"inkwell/internal/storage"
	"inkwell/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config    *config.Config
	db        *gorm.DB
	app       *fiber.App
	auth      *middleware.Auth
	pageStore cache.Store
	fileStore *storage.FileStore

	userRepo    repository.UserRepository
	groupRepo   repository.GroupRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository

	feedService    *service.FeedService
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	accountService *service.AccountService
}

// New creates a server instance with all dependencies established: database
// connection, Redis-backed page cache, repositories, and services.
func New(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	redisClient := cache.InitRedis(cfg.RedisURL)
	return NewWithDeps(cfg, db, cache.NewRedisStore(redisClient)), nil
}

// NewWithDeps creates a Server using already-initialized dependencies. Use
// this in tests or when a bootstrap layer establishes DB and cache store.
func NewWithDeps(cfg *config.Config, db *gorm.DB, pageStore cache.Store) *Server {
	s := &Server{
		config:    cfg,
		db:        db,
		auth:      middleware.NewAuth(cfg.JWTSecret),
		pageStore: pageStore,
		fileStore: storage.NewFileStore(cfg.MediaRoot),
	}

	s.userRepo = repository.NewUserRepository(db)
	s.groupRepo = repository.NewGroupRepository(db)
	s.postRepo = repository.NewPostRepository(db)
	s.commentRepo = repository.NewCommentRepository(db)
	s.followRepo = repository.NewFollowRepository(db)

	s.wireServices()
	s.app = s.newApp()
	return s
}

// wireServices builds the service layer from the repositories currently set
// on the server. Tests swap in stub repositories before calling it.
func (s *Server) wireServices() {
	s.feedService = service.NewFeedService(s.postRepo, s.groupRepo, s.userRepo, s.followRepo, s.config.PostsPerPage)
	s.postService = service.NewPostService(s.postRepo, s.groupRepo)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo)
	s.followService = service.NewFollowService(s.followRepo, s.userRepo)
	s.accountService = service.NewAccountService(s.userRepo)
}

// newApp builds the Fiber application: view engine, middleware, and routes.
func (s *Server) newApp() *fiber.App {
	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(templates), ".html")

	app := fiber.New(fiber.Config{
		AppName:      "Inkwell",
		Views:        engine,
		ViewsLayout:  "layouts/main",
		ErrorHandler: s.errorHandler,
	})

	s.setupMiddleware(app)
	s.setupRoutes(app)
	return app
}

// setupMiddleware configures middleware for the Fiber app
func (s *Server) setupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Request logging
	app.Use(logger.New())

	// CSRF protection for form submissions. Disabled under APP_ENV=test so
	// handler tests can post forms without a token round trip.
	if s.config.Env != "test" {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:csrf_token",
			CookieName:     "inkwell_csrf",
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
			Expiration:     1 * time.Hour,
			ContextKey:     csrfContextKey,
			ErrorHandler: func(c *fiber.Ctx, _ error) error {
				return s.renderError(c, fiber.StatusForbidden)
			},
		}))
	}

	// Actor resolution runs on every request; individual routes decide
	// whether an actor is required.
	app.Use(s.auth.LoadActor)
}

// setupRoutes configures all routes for the application
func (s *Server) setupRoutes(app *fiber.App) {
	// The cached page includes viewer-specific chrome, so only anonymous
	// requests may share it.
	ttl := time.Duration(s.config.IndexCacheTTL) * time.Second
	anonOnly := func(c *fiber.Ctx) bool {
		return c.Cookies(middleware.TokenCookie) != "" || c.Get(fiber.HeaderAuthorization) != ""
	}
	app.Get("/", cache.PageMiddleware(s.pageStore, ttl, anonOnly), s.Index)

	app.Get("/group/:slug", s.GroupFeed)
	app.Get("/profile/:username", s.Profile)
	app.Get("/posts/:id", s.PostDetail)

	// Authenticated actions
	app.Get("/create", s.auth.RequireActor, s.NewPost)
	app.Post("/create", s.auth.RequireActor, s.CreatePost)
	app.Get("/posts/:id/edit", s.auth.RequireActor, s.EditPost)
	app.Post("/posts/:id/edit", s.auth.RequireActor, s.UpdatePost)
	app.Post("/posts/:id/delete", s.auth.RequireActor, s.DeletePost)
	app.Post("/posts/:id/comment", s.auth.RequireActor, s.AddComment)
	app.Get("/follow", s.auth.RequireActor, s.FollowIndex)
	app.Post("/profile/:username/follow", s.auth.RequireActor, s.FollowAuthor)
	app.Post("/profile/:username/unfollow", s.auth.RequireActor, s.UnfollowAuthor)

	// Identity surface
	auth := app.Group("/auth")
	auth.Get("/signup", s.SignupPage)
	auth.Post("/signup", s.Signup)
	auth.Get("/login", s.LoginPage)
	auth.Post("/login", s.Login)
	auth.Get("/logout", s.Logout)
	auth.Get("/password_reset", s.PasswordResetPage)
	auth.Post("/password_reset", s.PasswordReset)

	// Static pages and uploaded media
	app.Get("/about/author", s.AboutAuthor)
	app.Get("/about/tech", s.AboutTech)
	app.Static("/media", s.fileStore.Root())
}

// errorHandler renders the application error pages. Not-found errors (route
// misses and missing resources alike) get the 404 page; everything else
// falls through to the 500 page.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
	}
	switch models.ErrorCode(err) {
	case models.CodeNotFound:
		status = fiber.StatusNotFound
	case models.CodeForbidden:
		status = fiber.StatusForbidden
	}

	return s.renderError(c, status)
}

func (s *Server) renderError(c *fiber.Ctx, status int) error {
	template := "errors/500"
	switch status {
	case fiber.StatusNotFound:
		template = "errors/404"
	case fiber.StatusForbidden:
		template = "errors/403"
	}

	if err := s.render(c.Status(status), template, fiber.Map{}); err != nil {
		return c.Status(status).SendString(http.StatusText(status))
	}
	return nil
}

// App exposes the underlying Fiber application (used by tests).
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts serving on the configured port.
func (s *Server) Listen() error {
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
