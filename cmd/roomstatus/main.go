package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/navikt/roomstatus/internal/api"
	"github.com/navikt/roomstatus/internal/availability"
	"github.com/navikt/roomstatus/internal/config"
	"github.com/navikt/roomstatus/internal/feed"
	"github.com/navikt/roomstatus/internal/registry"
	"github.com/navikt/roomstatus/internal/repository"
	"github.com/navikt/roomstatus/internal/scheduler"
	"github.com/navikt/roomstatus/internal/service"
	"github.com/navikt/roomstatus/internal/utils"
	"github.com/navikt/roomstatus/internal/web"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags overrides environment configuration with whatever was set on the command line
func applyFlags(cfg *config.Config, args []string) (once bool, err error) {
	flagSet := pflag.NewFlagSet("roomstatus", pflag.ContinueOnError)
	port := flagSet.String("port", cfg.Port, "HTTP port to listen on")
	rooms := flagSet.String("rooms", cfg.RoomsFile, "room catalogue YAML (default: built-in catalogue)")
	logLevel := flagSet.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	interval := flagSet.Int("interval", int(cfg.SyncInterval/time.Minute), "sync interval in minutes (1-60)")
	fuzz := flagSet.Int("fuzz", int(cfg.BusyFuzz/time.Minute), "minutes ahead of a boundary a room changes state")
	flagSet.BoolVar(&once, "once", false, "sync every room once, print the classified rooms as JSON and exit")

	if err := flagSet.Parse(args); err != nil {
		return false, err
	}
	if flagSet.NArg() > 0 {
		return false, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	if *interval <= 0 || *interval > 60 {
		return false, fmt.Errorf("--interval must be between 1 and 60, got %d", *interval)
	}
	if *fuzz < 0 {
		return false, fmt.Errorf("--fuzz must not be negative, got %d", *fuzz)
	}

	cfg.Port = *port
	cfg.RoomsFile = *rooms
	cfg.LogLevel = *logLevel
	cfg.SyncInterval = time.Duration(*interval) * time.Minute
	cfg.BusyFuzz = time.Duration(*fuzz) * time.Minute
	return once, nil
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	once, err := applyFlags(&cfg, args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	rooms, err := registry.Load(cfg.RoomsFile)
	if err != nil {
		return fmt.Errorf("load room catalogue: %w", err)
	}

	// Initialize the repository using the factory
	repo, err := repository.NewRepository(cfg.Redis, rooms.Rooms())
	if err != nil {
		return fmt.Errorf("initialize repository: %w", err)
	}

	// Close the Redis connection properly on exit
	if closer, ok := repo.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Error("closing Redis connection", zap.Error(err))
			}
		}()
	}

	fetcher := feed.NewClient(cfg.Feed, cfg.Location, cfg.FetchTimeout, logger.Named("feed"))
	classifier := availability.New(cfg.BusyFuzz, cfg.Location)
	roomService := service.NewRoomService(repo, fetcher, classifier, logger.Named("service"))

	sched := scheduler.New(rooms.Rooms(), roomService, cfg.SyncInterval, logger.Named("scheduler"),
		scheduler.WithFetchTimeout(cfg.FetchTimeout))

	logger.Info("configuration loaded",
		zap.Int("rooms", rooms.Len()),
		zap.Duration("sync_interval", cfg.SyncInterval),
		zap.Duration("busy_fuzz", cfg.BusyFuzz),
		zap.String("timezone", cfg.Location.String()),
		zap.String("feed", cfg.Feed.BaseURL),
		zap.Bool("redis", cfg.Redis.Enabled),
	)

	if once {
		return syncOnce(roomService, sched)
	}

	webHandler, err := web.NewHandler(roomService, cfg.BoardTitle, logger.Named("web"))
	if err != nil {
		return fmt.Errorf("initialize web handler: %w", err)
	}

	// Register the SSE update callback with the room service
	roomService.RegisterUpdateCallback(webHandler.NotifyRoomUpdate)

	mux := api.SetupRoutes(roomService, sched, logger.Named("api"))
	webHandler.SetupRoutes(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      web.WrapMuxWithMiddleware(mux, logger.Named("http")),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disable write timeout for SSE connections
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		runScheduler(ctx, sched, logger)
	}()

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting roomstatus server", zap.String("port", cfg.Port))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		stop()
		<-schedulerDone
		webHandler.Shutdown()
		return fmt.Errorf("http server: %w", err)

	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	<-schedulerDone

	// First, shutdown the web handler to close SSE connections
	webHandler.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		server.Close()
		return fmt.Errorf("shutting down server: %w", err)
	}

	logger.Info("server gracefully stopped")
	return nil
}

// runScheduler blocks until the sync loop returns. Cancellation is the normal way out.
func runScheduler(ctx context.Context, sched interface{ Run(context.Context) error }, logger *zap.Logger) {
	err := sched.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler stopped", zap.Error(err))
		return
	}
	logger.Info("scheduler stopped")
}

// syncOnce runs a single cycle, waits for every room and prints the result
func syncOnce(roomService *service.RoomService, sched *scheduler.Scheduler) error {
	ctx := context.Background()
	<-sched.SyncAll(ctx, time.Now())

	statuses, err := roomService.GetStatuses(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(statuses)
}
