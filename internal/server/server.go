package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/newshub/apiserver/config"
	"github.com/newshub/apiserver/internal/db"
	"github.com/newshub/apiserver/internal/handlers"
	"github.com/newshub/apiserver/internal/mq"
	"github.com/newshub/apiserver/internal/newsapi"
	"github.com/newshub/apiserver/internal/redis"
	"github.com/newshub/apiserver/internal/services"
	"github.com/newshub/apiserver/internal/store"
	"github.com/newshub/apiserver/internal/store/memstore"
)

const (
	sessionPruneInterval = time.Hour
	requestTimeout       = 60 * time.Second
)

// Dependencies are the backends the router is built on.
type Dependencies struct {
	Users     services.UserRepository
	Sessions  services.SessionRepository
	Favorites services.FavoriteRepository
	Publisher services.EventPublisher
	News      services.NewsClient
	Logger    *slog.Logger
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	auth       *services.AuthService
	logger     *slog.Logger
	closers    []func() error
}

// New connects the configured backends and constructs a Server.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{logger: logger}
	deps, err := s.connect(ctx, cfg)
	if err != nil {
		s.closeAll()
		return nil, err
	}
	deps.Logger = logger

	router, auth := NewRouter(cfg, deps)
	s.router = router
	s.auth = auth

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) connect(ctx context.Context, cfg config.Config) (Dependencies, error) {
	var deps Dependencies

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		mem := memstore.New()
		deps.Users = mem.Users()
		deps.Favorites = mem.Favorites()
		deps.Sessions = mem.Sessions()
		s.logger.Warn("using in-memory store; data is lost on restart")
	default:
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return deps, fmt.Errorf("open database: %w", err)
		}
		s.closers = append(s.closers, dbConn.Close)
		deps.Users = store.NewUserRepository(dbConn)
		deps.Favorites = store.NewFavoriteRepository(dbConn)
		deps.Sessions = store.NewSessionRepository(dbConn)
	}

	if cfg.Session.Backend == config.SessionBackendRedis {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return deps, err
		}
		s.closers = append(s.closers, client.Close)
		deps.Sessions = store.NewRedisSessionRepository(client.Client)
	}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		return deps, err
	}
	s.closers = append(s.closers, broker.Close)
	deps.Publisher = broker

	newsClient := newsapi.New(cfg.NewsAPI, s.logger)
	if !newsClient.Configured() {
		s.logger.Warn("NEWS_API_KEY not set; /api/news routes will return 503")
	}
	deps.News = newsClient

	return deps, nil
}

// NewRouter wires services and handlers onto a chi router.
func NewRouter(cfg config.Config, deps Dependencies) (*chi.Mux, *services.AuthService) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	news := deps.News
	if news == nil {
		news = newsapi.New(cfg.NewsAPI, logger)
	}

	events := services.NewEvents(deps.Publisher, logger)
	userService := services.NewUserService(deps.Users, events)
	authService := services.NewAuthService(userService, deps.Sessions, cfg.Session.TTL, logger)
	favoriteService := services.NewFavoriteService(deps.Favorites, events)
	newsService := services.NewNewsService(news)

	authHandler := handlers.NewAuthHandler(userService, authService, handlers.NewSessionCookie(cfg.Session))

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.Recoverer,
		middleware.Logger,
		middleware.Timeout(requestTimeout),
		middleware.SetHeader("X-Content-Type-Options", "nosniff"),
		middleware.SetHeader("X-Frame-Options", "DENY"),
		handlers.CORS(cfg.ClientOrigin),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Healthz)
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authHandler)
		})
		r.Route("/favorites", func(r chi.Router) {
			handlers.FavoriteRouter(r, favoriteService, authHandler.RequireAuth)
		})
		r.Route("/news", func(r chi.Router) {
			handlers.NewsRouter(r, newsService)
		})
	})

	return router, authService
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server and the session pruner until ctx is done or
// the listener fails.
func (s *Server) Start(ctx context.Context) error {
	go s.pruneSessions(ctx)

	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeAll()
	return err
}

func (s *Server) pruneSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.auth.PruneSessions(ctx)
			if err != nil {
				s.logger.Warn("session prune failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("pruned expired sessions", "count", n)
			}
		}
	}
}

func (s *Server) closeAll() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("close failed", "error", err)
		}
	}
	s.closers = nil
}
