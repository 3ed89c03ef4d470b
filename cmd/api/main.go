// Command api runs the standalone survey API next to the web application.
// It reads the same configuration file and writes to the same store.
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

	"enquete-backend/cmd/api/internal/handler"
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

	conn, err := db.InitDBFromConfig(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Reports are served by the web application; this process only drops
	// the shared cache entry when it stores answers.
	if cfg.Cache.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.Connect(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
		cancel()
		if err != nil {
			utilities.Warn("report cache invalidation disabled: %v", err)
		} else {
			reports := service.NewReportService(conn, cache.NewReportCache(client, time.Duration(cfg.Cache.TTLSeconds)*time.Second))
			service.InitReportEventListeners(utilities.GlobalEventBus, reports)
		}
	}

	h := handler.NewSurveyHandler(
		service.NewSurveyService(conn),
		service.NewSubmissionService(conn, utilities.GlobalEventBus),
	)
	router := handler.NewRouter(h, handler.Options{
		Tokens:      utilities.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.TokenIssuer),
		Limiter:     middleware.NewIPRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
		RequestDump: cfg.RequestDump,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		utilities.Info("standalone API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utilities.Error("forced shutdown: %v", err)
	}
	utilities.GlobalEventBus.Wait()
}
