package server

import (
	"fmt"
	"net/http"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/domain"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/storage"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.RecoveryMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, db.Health())
	})

	// Initialize repositories
	groupRepo := repository.NewGroupRepository(db.DB())
	productRepo := repository.NewProductRepository(db.DB())
	cartRepo := repository.NewCartRepository(db.DB())
	orderRepo := repository.NewOrderRepository(db.DB())
	userRepo := repository.NewUserRepository(db.DB())

	// Initialize shared collaborators
	sessions := session.NewRedisStore(redisClient, cfg.Session.TTL)
	groupCache := cache.New(redisClient, cfg.Cache.GroupTTL)
	fileStorage := storage.NewDiskService(cfg.Storage.Dir, cfg.Storage.MaxFileSize)

	// Initialize services
	catalogService := service.NewCatalogService(groupRepo, productRepo, groupCache, logger)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, groupRepo, cartService)
	userService := service.NewUserService(userRepo, sessions)

	// Initialize handlers
	catalogHandler := transport.NewCatalogHandler(catalogService, fileStorage, logger)
	cartHandler := transport.NewCartHandler(cartService, orderService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	userHandler := transport.NewUserHandler(userService, logger)

	sessionMiddleware := custommiddleware.SessionMiddleware(sessions, logger)
	rateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "ratelimit",
	}, logger)

	router.Get("/uploads/{name}", catalogHandler.ServeUpload)

	router.Route("/api", func(r chi.Router) {
		r.Use(sessionMiddleware)
		r.Use(rateLimit)

		r.Route("/shop", catalogHandler.RegisterShopRoutes)
		r.Route("/cart", cartHandler.RegisterRoutes)
		r.Route("/orders", orderHandler.RegisterRoutes)
		r.Route("/users", userHandler.RegisterRoutes)

		r.Route("/admin", func(r chi.Router) {
			r.Use(custommiddleware.RequireRole(domain.RoleAdmin, domain.RoleEditor))
			catalogHandler.RegisterAdminRoutes(r)
		})
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
