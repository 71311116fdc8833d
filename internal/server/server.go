package server

import (
	"backend-alpineconnect/internal/auth"
	"backend-alpineconnect/internal/community"
	"backend-alpineconnect/internal/config"
	"backend-alpineconnect/internal/document"
	"backend-alpineconnect/internal/gear"
	"backend-alpineconnect/internal/seed"
	"backend-alpineconnect/internal/stream"
	"backend-alpineconnect/internal/tour"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	adminMiddleware := auth.RequireAdmin()

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB), jwtMiddleware)
	tour.RegisterRoutes(s.App.Group("/tours"), tour.NewService(s.DB, s.Stream), jwtMiddleware, adminMiddleware)
	gear.RegisterRoutes(s.App.Group("/materials"), gear.NewService(s.DB, s.Stream), jwtMiddleware, adminMiddleware)
	community.RegisterRoutes(s.App.Group("/posts"), community.NewService(s.DB, s.Stream), jwtMiddleware)
	document.RegisterRoutes(s.App.Group("/documents"), document.NewService(s.DB, s.Cfg.StorageBaseURL), jwtMiddleware, adminMiddleware)
	seed.RegisterRoutes(s.App.Group("/admin"), seed.NewService(s.DB), jwtMiddleware, adminMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
