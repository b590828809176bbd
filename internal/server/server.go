package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/watchdesk/console/config"
	"github.com/watchdesk/console/internal/db"
	"github.com/watchdesk/console/internal/handlers"
	"github.com/watchdesk/console/internal/mq"
	"github.com/watchdesk/console/internal/ratelimit"
	"github.com/watchdesk/console/internal/services"
	"github.com/watchdesk/console/internal/storage"
	"github.com/watchdesk/console/internal/store"
)

// Server wraps the HTTP server, router, and backing connections.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        *mq.Bus
	limiter    *ratelimit.LoginLimiter

	cancelConsumers context.CancelFunc
}

// New constructs a Server with all routes and backends wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	bus, err := newBus(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	archive, err := newArchive(ctx, cfg.Archive)
	if err != nil {
		_ = dbConn.Close()
		closeBus(bus)
		return nil, err
	}

	limiter, err := ratelimit.NewLoginLimiter(ctx, cfg.Redis)
	if err != nil {
		_ = dbConn.Close()
		closeBus(bus)
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	orgRepo := store.NewOrganizationRepository(dbConn)
	alertRepo := store.NewAlertRepository(dbConn)
	eventRepo := store.NewEventRepository(dbConn)
	auditRepo := store.NewAuditRepository(dbConn)

	userService := services.NewUserService(userRepo)
	orgService := services.NewOrganizationService(orgRepo)
	alertService := services.NewAlertService(alertRepo)
	eventService := services.NewEventService(eventRepo)
	auditService := services.NewAuditService(auditRepo, bus, archive)

	authHandler := handlers.NewAuthHandler(userService, auditService, limiter, jwtSecret, cfg.RegisterSecurityCode)
	orgHandler := handlers.NewOrganizationHandler(orgService, auditService)
	userHandler := handlers.NewUserHandler(userService, auditService)
	alertHandler := handlers.NewAlertHandler(alertService, auditService)
	eventHandler := handlers.NewEventHandler(eventService)
	auditHandler := handlers.NewAuditHandler(auditService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", authHandler.AuthRouter)

		r.Group(func(r chi.Router) {
			r.Use(authHandler.RequireAuth, handlers.RequireUser(userService))
			r.Route("/organizations", orgHandler.OrganizationRouter)
			r.Route("/users", userHandler.UserRouter)
			r.Route("/executives", userHandler.ExecutiveRouter)
			r.Route("/alerts", alertHandler.AlertRouter)
			r.Route("/events", eventHandler.EventRouter)
			r.Route("/audit", auditHandler.AuditRouter)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srv := &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		bus:        bus,
		limiter:    limiter,
	}

	if bus != nil {
		consumerCtx, cancel := context.WithCancel(context.Background())
		srv.cancelConsumers = cancel
		go func() {
			if err := eventService.ConsumeBus(consumerCtx, bus); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("event consumer stopped", "error", err)
			}
		}()
	}

	return srv, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown and releases all connections.
func (s *Server) Shutdown() error {
	if s.cancelConsumers != nil {
		s.cancelConsumers()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	closeBus(s.bus)
	if s.limiter != nil {
		_ = s.limiter.Close()
	}
	return s.httpServer.Close()
}

// newBus builds the message bus for the configured backend. Returns nil when
// no backend is configured; publishing and consumption are then disabled.
func newBus(ctx context.Context, cfg config.MQConfig) (*mq.Bus, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "memory":
		return mq.New(mq.NewMemoryBackend()), nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

// newArchive builds the audit archive for the configured backend. Returns
// nil when no backend is configured; exports are then rejected.
func newArchive(ctx context.Context, cfg config.ArchiveConfig) (*storage.Archive, error) {
	var backend storage.ObjectStorage

	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}

	archive := storage.NewArchive(backend)
	if err := archive.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return archive, nil
}

func closeBus(bus *mq.Bus) {
	if bus != nil {
		_ = bus.Close()
	}
}
