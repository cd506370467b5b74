// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"subdesk-service/internal/config"
	"subdesk-service/internal/db"
	accountHandler "subdesk-service/internal/handlers/account"
	activityHandler "subdesk-service/internal/handlers/activity"
	authHandler "subdesk-service/internal/handlers/auth"
	customerHandler "subdesk-service/internal/handlers/customer"
	packHandler "subdesk-service/internal/handlers/pack"
	reportHandler "subdesk-service/internal/handlers/report"
	userHandler "subdesk-service/internal/handlers/user"
	"subdesk-service/internal/middleware"
	"subdesk-service/internal/pkg/jwt"
	"subdesk-service/internal/pkg/session"
	"subdesk-service/internal/repository/postgres"
	accountUsecase "subdesk-service/internal/service/account"
	activityUsecase "subdesk-service/internal/service/activity"
	authUsecase "subdesk-service/internal/service/auth"
	customerUsecase "subdesk-service/internal/service/customer"
	packUsecase "subdesk-service/internal/service/pack"
	reportUsecase "subdesk-service/internal/service/report"
	userUsecase "subdesk-service/internal/service/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	http   *http.Server
}

func NewServer() *Server {
	cfg := config.Load()
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{DSN: s.cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	logger.Info("connected to postgres")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to redis")

	// ----- JWT, Sessions, Rate limiting -----
	jwtManager, err := jwt.NewManager(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to build JWT manager: %w", err)
	}
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	counters := postgres.NewCounterStore()
	accountRepo := postgres.NewAccountRepository(pool)
	packageRepo := postgres.NewPackageRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)

	// ----- Services -----
	activityService := activityUsecase.NewActivityService(activityRepo, logger)
	authService := authUsecase.NewAuthService(userRepo, jwtManager, sessionManager, rateLimiter, activityService, logger)
	accountService := accountUsecase.NewAccountService(accountRepo, packageRepo, customerRepo, dbWrapper, activityService, logger)
	packageService := packUsecase.NewPackageService(packageRepo, accountRepo, customerRepo, counters, dbWrapper, activityService, logger)
	customerService := customerUsecase.NewCustomerService(customerRepo, packageRepo, counters, dbWrapper, activityService, logger)
	userService := userUsecase.NewUserService(userRepo, sessionManager, activityService, logger)
	reportService := reportUsecase.NewReportService(accountRepo, packageRepo, customerRepo, logger)

	// ----- Handlers -----
	handlers := &Handlers{
		AuthHandler:     authHandler.NewAuthHandler(authService),
		AccountHandler:  accountHandler.NewAccountHandler(accountService, packageService),
		PackageHandler:  packHandler.NewPackageHandler(packageService),
		CustomerHandler: customerHandler.NewCustomerHandler(customerService),
		UserHandler:     userHandler.NewUserHandler(userService),
		ActivityHandler: activityHandler.NewActivityHandler(activityService),
		ReportHandler:   reportHandler.NewReportHandler(reportService),
		AuthMiddleware:  middleware.NewAuthMiddleware(jwtManager, sessionManager),
	}

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	SetupRouter(s.engine, handlers)

	s.http = &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}
	logger.Info("server listening", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
