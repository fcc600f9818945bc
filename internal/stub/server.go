// Package stub is a self-contained local backend implementing the GIA API
// contract the SDK consumes. It exists for development and end-to-end tests;
// production traffic goes to the real backend.
package stub

import (
	"context"

	"giafashion/internal/config"
	"giafashion/internal/observability"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Server holds the stub's dependencies and handlers.
type Server struct {
	config *config.Config
	db     *gorm.DB
	app    *fiber.App
	logger *observability.Logger
}

// NewServer wires the fiber app, middleware and routes.
func NewServer(cfg *config.Config, db *gorm.DB, logger *observability.Logger) *Server {
	if logger == nil {
		logger = observability.NopLogger()
	}

	app := fiber.New(fiber.Config{
		AppName:               "GIA Stub API",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	prom := fiberprometheus.New("gia-stub")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)

	s := &Server{config: cfg, db: db, app: app, logger: logger}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.app.Group("/api/v1")

	api.Post("/auth/register", s.Register)
	api.Post("/auth/login", s.Login)
	api.Post("/auth/refresh", s.RefreshToken)

	api.Get("/blogs", s.OptionalAuth, s.ListBlogs)
	api.Patch("/blogs/:id/approve", s.AuthRequired, s.AdminRequired, s.ApproveBlog)
	api.Delete("/blogs/:id", s.AuthRequired, s.AdminRequired, s.DeleteBlog)
	api.Post("/blogs/:id/like", s.AuthRequired, s.LikeBlog)
	api.Delete("/blogs/:id/like", s.AuthRequired, s.UnlikeBlog)
	api.Get("/blogs/:id/comments", s.GetComments)
	api.Post("/blogs/:id/comments", s.AuthRequired, s.CreateComment)
	api.Delete("/blogs/:blogId/comments/:commentId", s.AuthRequired, s.DeleteComment)

	api.Get("/users", s.AuthRequired, s.AdminRequired, s.ListUsers)
	api.Delete("/users/:id", s.AuthRequired, s.AdminRequired, s.DeleteUser)

	api.Post("/subscribe", s.Subscribe)
	api.Get("/content/:section", s.GetContent)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts serving on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
