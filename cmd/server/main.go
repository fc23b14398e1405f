package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/caresync/internal/server/handlers"
	"github.com/iudanet/caresync/internal/server/jwt"
	"github.com/iudanet/caresync/internal/server/middleware"
	"github.com/iudanet/caresync/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const (
	shutdownTimeout = 10 * time.Second

	// rateLimit запросов в минуту с одного клиента
	rateLimit = 600
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "caresync.db", "Path to SQLite database file")
	secret := flag.String("secret", "", "JWT signing secret (empty disables auth)")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Access token lifetime")
	issueFor := flag.String("issue-token", "", "Issue a token for user_id:role and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, *addr, *dbPath, *secret, *tokenTTL, *issueFor); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addr, dbPath, secret string, tokenTTL time.Duration, issueFor string) error {
	var jwtService *jwt.Service
	if secret != "" {
		jwtService = jwt.NewService(secret, tokenTTL)
	}

	// Режим выпуска токена для dev сценариев: -issue-token nurse_1:clinician
	if issueFor != "" {
		if jwtService == nil {
			return errors.New("issue-token requires -secret")
		}
		userID, role, ok := splitUserRole(issueFor)
		if !ok {
			return fmt.Errorf("invalid -issue-token value %q, want user_id:role", issueFor)
		}
		token, err := jwtService.GenerateToken(userID, role)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	hub := handlers.NewHub(logger)
	docs := handlers.NewDocumentsHandler(logger, store, hub)
	subscribe := handlers.NewSubscribeHandler(logger, store, hub)
	health := handlers.NewHealthHandler(logger)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/v1/docs/{collection}/{id}", docs.GetDocument)
	apiMux.HandleFunc("PUT /api/v1/docs/{collection}/{id}", docs.WriteDocument)
	apiMux.HandleFunc("GET /api/v1/subscribe", subscribe.Subscribe)

	var apiHandler http.Handler = apiMux
	if jwtService != nil {
		apiHandler = middleware.AuthMiddleware(logger, jwtService)(apiHandler)
	}
	apiHandler = middleware.RateLimitMiddleware(rateLimit, time.Minute, logger)(apiHandler)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", apiHandler)
	mux.HandleFunc("GET /health", health.Health)

	// /health не логируем: его опрашивает монитор сети каждого клиента
	logging := middleware.LoggingWithSkip(logger, []string{"/health"})
	handler := middleware.RecoveryMiddleware(logger)(logging(mux))

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "db", dbPath, "auth", jwtService != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func splitUserRole(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return s[:i], s[i+1:], s[:i] != "" && s[i+1:] != ""
		}
	}
	return "", "", false
}

func printVersion() {
	fmt.Printf("CareSync Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
