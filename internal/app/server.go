package app

import (
	"context"
	"fmt"
	"log"

	"goalpact/cfg"
	"goalpact/internal/service/matching"
	"goalpact/internal/service/notification"
	"goalpact/internal/service/partnership"
	"goalpact/internal/service/preference"
	"goalpact/internal/service/sharedgoal"
	"goalpact/pkg/cache"
	"goalpact/pkg/db"
	"goalpact/pkg/logger"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Server holds all application dependencies
type Server struct {
	config   *cfg.Config
	router   *gin.Engine
	logger   *logger.AppLogger
	db       *db.SQLClient
	cache    cache.Cache
	shutdown func(context.Context) error

	// internal services
	preferenceService   *preference.Service
	matchingService     *matching.Service
	partnershipService  *partnership.Service
	sharedGoalService   *sharedgoal.Service
	notificationService *notification.Service
	outboxWorker        *notification.Worker
}

// NewServer creates and initializes a new server instance
func NewServer(ctx context.Context, config *cfg.Config) (*Server, error) {
	s := &Server{
		config: config,
	}

	obs, err := setupObservability(ctx, &config.Observability)
	if err != nil {
		return nil, fmt.Errorf("observability setup: %w", err)
	}
	s.shutdown = obs.shutdown

	if obs.loggerProvider != nil {
		s.logger = logger.NewWithSlog(otelslog.NewLogger(
			config.Observability.ServiceName,
			otelslog.WithLoggerProvider(obs.loggerProvider),
		))
	} else {
		s.logger = logger.NewLogger(config.AppEnv)
	}
	s.logger.Info(ctx, "Initializing server...")

	if err := s.initDatabase(); err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}

	if err := s.initCache(); err != nil {
		return nil, fmt.Errorf("cache init: %w", err)
	}

	if err := s.initServicesAndRoutes(); err != nil {
		return nil, fmt.Errorf("service init: %w", err)
	}

	s.logger.Info(ctx, "Server initialized successfully")
	return s, nil
}

func (s *Server) initDatabase() error {
	dsn := s.config.Postgres.DSN()

	dbClient, err := db.NewSQLClient("postgres", dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	s.db = dbClient

	if err := runMigrations(dsn); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	return nil
}

func (s *Server) initCache() error {
	addr := s.config.Redis.Host + ":" + s.config.Redis.Port
	s.cache = cache.NewRedisCache(addr)
	return nil
}

func (s *Server) initServicesAndRoutes() error {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return fmt.Errorf("snowflake node: %w", err)
	}

	// Notification Dispatcher with its transactional outbox
	notificationRepo := notification.NewRepository(s.db)
	s.notificationService = notification.NewService(notificationRepo, node, s.logger)
	s.outboxWorker = notification.NewWorker(
		notificationRepo,
		&notification.LogSender{Logger: s.logger},
		notification.WorkerConfig{
			BatchSize: s.config.Outbox.BatchSize,
			Interval:  s.config.Outbox.Interval,
		},
		s.logger,
	)

	// Preference Store
	preferenceRepo := preference.NewRepository(s.db)
	s.preferenceService = preference.NewService(preferenceRepo, s.logger)

	// Partnership Lifecycle Manager
	partnershipRepo := partnership.NewRepository(s.db)
	s.partnershipService = partnership.NewService(
		partnershipRepo,
		s.preferenceService,
		s.cache,
		s.notificationService,
		s.logger,
	)

	// Partner Finder + Expert Matching Extension
	matchingRepo := matching.NewRepository(s.db)
	s.matchingService = matching.NewService(
		matchingRepo,
		s.preferenceService,
		s.partnershipService,
		s.notificationService,
		s.logger,
	)

	// Shared Goal & Task Manager
	sharedGoalRepo := sharedgoal.NewRepository(s.db)
	s.sharedGoalService = sharedgoal.NewService(
		sharedGoalRepo,
		s.partnershipService,
		s.notificationService,
		s.logger,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	routes := NewRoutes(r)
	routes.setupInfraRoutes()
	routes.setupPreferenceRoutes(s.preferenceService)
	routes.setupMatchingRoutes(s.matchingService)
	routes.setupPartnershipRoutes(s.partnershipService, s.sharedGoalService)
	routes.setupGoalRoutes(s.sharedGoalService)
	routes.setupNotificationRoutes(s.notificationService)

	s.router = r
	return nil
}

// RunOutboxWorker starts the notification outbox loop until ctx is
// canceled.
func (s *Server) RunOutboxWorker(ctx context.Context) error {
	return s.outboxWorker.Run(ctx)
}

// Run starts the HTTP server
func (s *Server) Run(addr string) error {
	log.Printf("Server listening on %s", addr)
	return s.router.Run(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("database shutdown: %w", err)
		}
	}
	if s.shutdown != nil {
		if err := s.shutdown(ctx); err != nil {
			return fmt.Errorf("observability shutdown: %w", err)
		}
	}
	return nil
}
