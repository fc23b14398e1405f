package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/caresync/internal/client/cli"
	"github.com/iudanet/caresync/internal/client/engine"
	"github.com/iudanet/caresync/internal/client/remote"
	"github.com/iudanet/caresync/internal/client/storage/boltdb"
	"github.com/iudanet/caresync/internal/models"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "caresync-client.db", "Path to local database")
	token := flag.String("token", "", "Bearer token (or CARESYNC_TOKEN env var)")
	strategy := flag.String("strategy", "server_wins", "Default conflict strategy")
	autoResolve := flag.Bool("auto-resolve", false, "Apply the default strategy as soon as a conflict is detected")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	command := args[0]

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *token == "" {
		*token = os.Getenv("CARESYNC_TOKEN")
	}

	// Контекст живет до Ctrl+C (важно для watch)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Открываем BoltDB storage
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	// Удаленное хранилище и движок синхронизации
	remoteStore := remote.NewHTTPStore(*serverURL, *token, logger)

	cfg := engine.DefaultConfig()
	cfg.DefaultStrategy = models.ResolutionStrategy(*strategy)
	cfg.AutoResolve = *autoResolve
	cfg.Probe = remoteStore.Ping

	eng := engine.New(cfg, remoteStore, boltStorage, logger)
	if err := eng.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start sync engine: %v\n", err)
		os.Exit(1)
	}
	defer eng.Stop()

	// Выполняем команду
	if err := runCommand(ctx, command, args[1:], eng); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, command string, args []string, eng *engine.Engine) error {
	switch command {
	case "put":
		return cli.RunPut(ctx, args, eng)
	case "get":
		return cli.RunGet(ctx, args, eng)
	case "list":
		return cli.RunList(ctx, args, eng)
	case "rm":
		return cli.RunDelete(ctx, args, eng)
	case "watch":
		return cli.RunWatch(ctx, args, eng)
	case "sync":
		return cli.RunSync(ctx, eng)
	case "status":
		return cli.RunStatus(eng)
	case "conflicts":
		return cli.RunConflicts(ctx, eng)
	case "resolve":
		return cli.RunResolve(ctx, args, eng)
	case "clear":
		return cli.RunClear(ctx, eng)
	default:
		cli.PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printVersion() {
	fmt.Printf("CareSync Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
