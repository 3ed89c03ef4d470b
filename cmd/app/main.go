package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/term"

	"enquete-backend/cmd/app/internal/controller"
	"enquete-backend/cmd/app/internal/web"
	"enquete-backend/internal/cache"
	"enquete-backend/internal/config"
	"enquete-backend/internal/db"
	"enquete-backend/internal/service"
	"enquete-backend/pkg/middleware"
	"enquete-backend/utilities"
)

func main() {
	configPath := flag.String("config", "config.xml", "path to the XML configuration")
	flag.Parse()

	printStartUpBanner()

	// Load XML configuration from file.
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := utilities.SetupLogging(utilities.LogOptions{
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Debug:      cfg.Logging.Debug,
	}); err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}

	// Initialize DB using the loaded config.
	conn, err := db.InitDBFromConfig(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	// Run migrations.
	if cfg.DB.Initialize {
		if err := db.Migrate(conn); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
	}

	reportCache := openReportCache(cfg)

	// Create services.
	surveyService := service.NewSurveyService(conn)
	submissionService := service.NewSubmissionService(conn, utilities.GlobalEventBus)
	reportService := service.NewReportService(conn, reportCache)
	service.InitReportEventListeners(utilities.GlobalEventBus, reportService)

	tmpl, err := web.Templates()
	if err != nil {
		log.Fatalf("failed to parse templates: %v", err)
	}

	// Initialize Gin router.
	r := gin.Default()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.RequestIDMiddleware())
	if cfg.RequestDump {
		r.Use(middleware.RequestDumpMiddleware())
	}

	// CORS configuration.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	controller.RegisterRoutes(r, controller.Services{
		Surveys:     surveyService,
		Submissions: submissionService,
		Reports:     reportService,
	}, controller.Security{
		Tokens:     utilities.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.TokenIssuer),
		CookieName: cfg.Security.CookieName,
		Limiter:    middleware.NewIPRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
	})

	// Listen on the host and port from the XML config.
	addr := fmt.Sprintf("%s:%d", cfg.Context.Host, cfg.Context.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		utilities.Info("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utilities.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utilities.Error("forced shutdown: %v", err)
	}
	utilities.GlobalEventBus.Wait()
}

func openReportCache(cfg *config.APIConfig) cache.ReportCache {
	if cfg.Cache.RedisAddr == "" {
		utilities.Info("no redis address configured, reports are not cached")
		return cache.NewNoopReportCache()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := cache.Connect(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
	if err != nil {
		utilities.Warn("report cache disabled: %v", err)
		return cache.NewNoopReportCache()
	}
	return cache.NewReportCache(client, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
}

func printStartUpBanner() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	myFigure := figure.NewFigure("ENQUETE", "", true)
	myFigure.Print()

	fmt.Println("======================================================")
	fmt.Printf("ENQUETE API (v%s)\n\n", "1.0.0")
}
