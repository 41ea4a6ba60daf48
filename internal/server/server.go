package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"culturecompass/internal/apierr"
	"culturecompass/internal/auth"
	"culturecompass/internal/comment"
	"culturecompass/internal/composer"
	"culturecompass/internal/config"
	"culturecompass/internal/db"
	"culturecompass/internal/mailer"
	"culturecompass/internal/profile"
	"culturecompass/internal/route"
	"culturecompass/internal/storage"
	"culturecompass/internal/stream"
	"culturecompass/internal/suggest"
	"culturecompass/internal/views"
)

// bodyLimit leaves room for a 5MB image plus the other form fields.
const bodyLimit = 8 << 20

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Log    *zap.SugaredLogger
	Stream *stream.Hub
	Routes *route.Service
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	app := fiber.New(fiber.Config{
		ErrorHandler: apierr.Handler(log),
		BodyLimit:    bodyLimit,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pool,
		Redis:  redisClient,
		Log:    log,
		Stream: stream.NewHub(redisClient, log),
	}

	registerRoutes(s)
	return s
}

// querier keeps a nil pool from becoming a non-nil interface.
func (s *Server) querier() db.Querier {
	if s.DB == nil {
		return nil
	}
	return s.DB
}

// routeStore picks the route document store. Postgres is preferred; the
// Redis slot serves when asked for or when Postgres is absent.
func (s *Server) routeStore() route.Store {
	q := s.querier()
	wantRedis := strings.EqualFold(s.Cfg.RouteStore, "redis")
	switch {
	case wantRedis && s.Redis != nil:
		return route.NewRedisStore(s.Redis, "")
	case q != nil:
		if wantRedis {
			s.Log.Warnw("ROUTE_STORE=redis but redis is not configured, using postgres")
		}
		return route.NewPostgresStore(q)
	case s.Redis != nil:
		s.Log.Warnw("postgres unavailable, routes stored in redis")
		return route.NewRedisStore(s.Redis, "")
	}
	return nil
}

func (s *Server) imageHost() storage.Host {
	host, err := storage.NewCloudinaryHost(s.Cfg.CloudinaryURL)
	if err != nil {
		s.Log.Warnw("cloudinary disabled, images stored inline", "error", err)
		return nil
	}
	if host == nil {
		return nil
	}
	return host
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	q := s.querier()
	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	optionalJWT := auth.OptionalJWTMiddleware(s.Cfg.JWTSecret)

	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)

	images := storage.NewService(q, s.imageHost())
	storage.RegisterRoutes(s.App.Group("/storage"), images, jwtMiddleware, s.Log)

	if q != nil {
		profiles := profile.NewService(q)
		mail := mailer.New(s.Cfg.SMTPHost, s.Cfg.SMTPPort, s.Cfg.SMTPUser, s.Cfg.SMTPPassword, s.Cfg.MailFrom, s.Log)
		authSvc := auth.NewService(s.Cfg.JWTSecret, q,
			auth.WithLimiter(auth.NewLimiter(s.Redis)),
			auth.WithProfiles(profiles),
			auth.WithResetMailer(mail, strings.TrimRight(s.Cfg.FrontendURL, "/")+"/auth/reset?token="),
			auth.WithLogger(s.Log),
		)
		auth.RegisterRoutes(s.App.Group("/auth"), authSvc, jwtMiddleware)
		profile.RegisterRoutes(s.App.Group("/me"), profiles, jwtMiddleware)
	} else {
		s.Log.Warnw("postgres unavailable, auth and profile endpoints disabled")
	}

	store := s.routeStore()
	if store == nil {
		s.Log.Errorw("no route store configured, route endpoints disabled")
		return
	}

	cache := views.NewListingCache(s.Redis, s.Log)
	s.Routes = route.NewService(store, cache, s.Stream)

	views.RegisterRoutes(s.App, views.NewService(s.Routes, cache, s.Cfg.MapsAPIKey), jwtMiddleware)
	composer.RegisterRoutes(s.App, composer.NewHandler(s.Routes, images, s.Log), optionalJWT)

	routesGroup := s.App.Group("/routes")
	var feedback suggest.FeedbackSource
	if _, onPostgres := store.(*route.PostgresStore); onPostgres {
		comments := comment.NewService(q, cache, s.Stream)
		comment.RegisterRoutes(routesGroup, comments, jwtMiddleware)
		feedback = comments
	}
	gemini := suggest.NewGeminiClient(s.Cfg.GeminiBaseURL, s.Cfg.GeminiModel, s.Cfg.GeminiAPIKey)
	suggest.RegisterRoutes(routesGroup, suggest.NewService(s.Routes, feedback, gemini, s.Log), jwtMiddleware)
}

// Close releases background resources owned by the server.
func (s *Server) Close() {
	s.Stream.Close()
}
