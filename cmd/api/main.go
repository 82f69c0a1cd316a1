package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bondfolio/internal/config"
	"bondfolio/internal/database"
	"bondfolio/internal/fixedincome"
	"bondfolio/internal/handlers"
	"bondfolio/internal/logger"
	"bondfolio/internal/middleware"
	"bondfolio/internal/scheduler"
	"bondfolio/internal/services"
	"bondfolio/internal/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "bondfolio/internal/docs" // Import swagger docs
)

// @title           Bondfolio API
// @version         1.0
// @description     Fixed-income security master, portfolio holdings and bond analytics.

// @host      localhost:8080
// @BasePath  /api/v1

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	analyzer := fixedincome.Analyzer{
		Options: fixedincome.SolverOptions{
			Tolerance:     appConfig.SolverTolerance,
			MaxIterations: appConfig.SolverMaxIterations,
		},
	}
	if appConfig.ScheduleCacheSize > 0 {
		if analyzer.Cache, err = fixedincome.NewScheduleCache(appConfig.ScheduleCacheSize); err != nil {
			return fmt.Errorf("failed to create schedule cache: %w", err)
		}
	}

	// Initialize services
	db := dbManager.DB()
	auditService := services.NewAuditService(db)
	securityService := services.NewSecurityService(db)
	portfolioService := services.NewPortfolioService(db)
	holdingService := services.NewHoldingService(db)
	analyticsService := services.NewAnalyticsService(db, analyzer)
	calculatorService := services.NewCalculatorService(analyzer)
	yieldCurveService := services.NewYieldCurveService(db)
	snapshotService := services.NewPortfolioSnapshotService(db, analyticsService)

	// Initialize handlers
	securityHandler := handlers.NewSecurityHandler(securityService, auditService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, holdingService, auditService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	calculatorHandler := handlers.NewCalculatorHandler(calculatorService)
	yieldCurveHandler := handlers.NewYieldCurveHandler(yieldCurveService)
	snapshotHandler := handlers.NewPortfolioSnapshotHandler(snapshotService, auditService)

	validator.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(appConfig.CORSOrigins)))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Operational endpoints
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/api/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Security routes
	securities := v1.Group("/securities")
	securities.POST("", securityHandler.CreateSecurity)
	securities.GET("", securityHandler.ListSecurities)
	securities.POST("/prices", securityHandler.RecordPrices)
	securities.GET("/:id", securityHandler.GetSecurity)
	securities.PUT("/:id", securityHandler.UpdateSecurity)
	securities.DELETE("/:id", securityHandler.DeleteSecurity)
	securities.GET("/:id/prices", securityHandler.GetPriceHistory)

	// Portfolio routes
	portfolios := v1.Group("/portfolios")
	portfolios.POST("", portfolioHandler.CreatePortfolio)
	portfolios.GET("", portfolioHandler.ListPortfolios)
	portfolios.GET("/:id", portfolioHandler.GetPortfolio)
	portfolios.DELETE("/:id", portfolioHandler.DeletePortfolio)
	portfolios.POST("/:id/holdings", portfolioHandler.AddHolding)
	portfolios.GET("/:id/holdings", portfolioHandler.ListHoldings)
	portfolios.GET("/:id/valuation", analyticsHandler.GetPortfolioValuation)
	portfolios.GET("/:id/analytics", analyticsHandler.GetPortfolioAnalytics)
	portfolios.GET("/:id/snapshots", snapshotHandler.GetSnapshots)

	// Holding routes
	holdings := v1.Group("/holdings")
	holdings.GET("/:id", portfolioHandler.GetHolding)
	holdings.PUT("/:id", portfolioHandler.UpdateHolding)
	holdings.DELETE("/:id", portfolioHandler.CloseHolding)
	holdings.GET("/:id/yields", analyticsHandler.GetHoldingYields)
	holdings.GET("/:id/schedule", analyticsHandler.GetCouponSchedule)

	// Calculator routes
	calculate := v1.Group("/calculate")
	calculate.POST("/yield", calculatorHandler.CalculateYield)
	calculate.POST("/price", calculatorHandler.CalculatePrice)
	calculate.POST("/accrued", calculatorHandler.CalculateAccruedInterest)
	calculate.POST("/schedule", calculatorHandler.GenerateSchedule)

	// Yield curve routes
	v1.POST("/yield-curves", yieldCurveHandler.RecordPoints)
	v1.GET("/yield-curves/:name", yieldCurveHandler.GetCurve)

	// Snapshot routes
	v1.POST("/snapshots/compute", snapshotHandler.ComputeSnapshots)

	jobs := scheduler.New()
	if appConfig.SnapshotCron != "" {
		if err := jobs.AddJob(scheduler.SnapshotJob(appConfig.SnapshotCron, snapshotService)); err != nil {
			return fmt.Errorf("invalid SNAPSHOT_CRON %q: %w", appConfig.SnapshotCron, err)
		}
	}
	jobs.Start()

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Starting Bondfolio server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	jobs.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
