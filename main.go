package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/tak-uukti/orion-quiz-app/config"
	"github.com/tak-uukti/orion-quiz-app/game"
	"github.com/tak-uukti/orion-quiz-app/migrations"
	"github.com/tak-uukti/orion-quiz-app/quiz"
	"github.com/tak-uukti/orion-quiz-app/report"
	"github.com/tak-uukti/orion-quiz-app/storage"
	"golang.org/x/time/rate"
)

// ServerOptions shapes the HTTP front door shared by every route.
type ServerOptions struct {
	AllowedOrigins []string
	TrustedProxies []string
}

// CreateServer returns an engine with /health plus origin and CORS guards
// in front of everything registered afterwards.
func CreateServer(opts ServerOptions) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })
	r.Use(originGuard(opts.AllowedOrigins), cors.New(corsConfig(opts.AllowedOrigins)))
	return r, nil
}

// originGuard rejects browsers from unknown origins, websocket upgrades included.
func originGuard(allowed []string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !slices.Contains(allowed, ctx.GetHeader("Origin")) {
			ctx.AbortWithStatus(http.StatusForbidden)
			ctx.Writer.WriteString("forbidden origin")
			return
		}
		ctx.Next()
	}
}

func corsConfig(allowed []string) cors.Config {
	return cors.Config{
		AllowOrigins:     allowed,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
		// browsers hide the CSV filename otherwise
		ExposeHeaders: []string{"Content-Disposition"},
	}
}

func setupLogger(debug bool) {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, nil)
	if debug {
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug, AddSource: true})
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	setupLogger(cfg.Debug)

	if err := migrations.Migrate(cfg.PostgresURL); err != nil {
		log.Fatal(err)
	}

	// Dependencies
	pgRepo, err := storage.NewPostgresRepo(context.Background(), cfg.PostgresURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pgRepo.Close()

	codeGen := game.NewRandomCodeGenerator()
	tickerGen := game.NewTickerGen()
	registry := game.NewRegistry(codeGen, cfg.MaxCodeAttempts)
	hub := game.NewHub()
	service := game.NewService(registry, hub, pgRepo, pgRepo, &tickerGen, game.ServiceOptions{
		CountdownDuration: cfg.CountdownDuration,
		PersistTimeout:    cfg.PersistTimeout,
	})

	pingCtx, stopPings := context.WithCancel(context.Background())
	go hub.PingActor(pingCtx, &tickerGen, cfg.PingInterval)

	r, err := CreateServer(ServerOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		log.Fatal(err)
	}

	gameHandler := game.NewGameHandler(hub, service, game.ClientLimits{
		Rate:  rate.Limit(cfg.ClientRateLimit),
		Burst: cfg.ClientRateBurst,
	})
	r.GET("/ws", gameHandler.ConnectHandler)

	quizHandler := quiz.NewQuizHandler(pgRepo)
	{
		quizzes := r.Group("/quizzes")
		quizzes.POST("", quizHandler.CreateQuizHandler)
		quizzes.GET("", quizHandler.ListQuizzesHandler)
		quizzes.GET("/:id", quizHandler.GetQuizHandler)
	}

	exportHandler := report.NewExportHandler(pgRepo)
	r.GET("/export/:roomCode", exportHandler.ExportHandler)

	server := &http.Server{Addr: ":" + strconv.Itoa(cfg.Port), Handler: r}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()
	slog.Info("Server started", "port", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	<-sigCh
	slog.Info("SIGTERM or SIGINT received, waiting for countdowns to finish before shutting down")

	stopPings()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// hijacked websocket connections are not tracked by Shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}
	service.Wait()
	slog.Info("Shutting down now")
}
