package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/tfkr-ae/deltav"
	"github.com/tfkr-ae/deltav/api"
	"github.com/tfkr-ae/deltav/db"
	"github.com/tfkr-ae/deltav/events"
	"github.com/tfkr-ae/deltav/launchlibrary"
	"github.com/tfkr-ae/deltav/listener"
	"github.com/tfkr-ae/deltav/logger"
)

var _ deltav.Publisher = (*events.Publisher)(nil)
var _ deltav.Source = (*launchlibrary.Client)(nil)

func main() {
	flags := pflag.NewFlagSet("deltav", pflag.ContinueOnError)
	configDir := flags.String("config-dir", defaultConfigDir(), "directory holding config.yaml and the launch cache")
	once := flags.Bool("once", false, "refresh once, print the cached launches as JSON and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if err := run(*configDir, *once, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "deltav: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".deltav"
	}
	return filepath.Join(dir, "deltav")
}

func run(configDir string, once bool, out io.Writer) error {
	cfg, err := deltav.LoadConfig(configDir)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	tracker, cleanup, err := newTracker(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		return refreshOnce(ctx, tracker, out)
	}
	return serve(ctx, cfg, tracker, log)
}

func newTracker(cfg *deltav.Config, log *logrus.Logger) (*deltav.Tracker, func(), error) {
	client, err := launchlibrary.NewClient(
		launchlibrary.WithBaseURL(cfg.APIBaseURL),
		launchlibrary.WithTimeout(cfg.HTTPTimeout),
		launchlibrary.WithRetry(cfg.RetryAttempts, 500*time.Millisecond),
	)
	if err != nil {
		return nil, nil, err
	}

	dbConn, err := db.New(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}

	options := []func(*deltav.Tracker) error{
		deltav.WithLogger(log),
		deltav.WithRepo(db.NewLaunchRepo(dbConn)),
		deltav.WithSource(client),
		deltav.WithPageLimit(cfg.PageLimit),
	}

	var publisher *events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			dbConn.Close()
			return nil, nil, err
		}
		options = append(options, deltav.WithPublisher(publisher))
	}

	tracker, err := deltav.New(options...)
	if err != nil {
		dbConn.Close()
		return nil, nil, err
	}
	tracker.Config = cfg
	tracker.ConfigDir = cfg.ConfigDir

	cleanup := func() {
		if err := tracker.Close(); err != nil {
			log.WithError(err).Warn("closing launch cache")
		}
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				log.WithError(err).Warn("closing kafka publisher")
			}
		}
	}
	return tracker, cleanup, nil
}

func refreshOnce(ctx context.Context, tracker *deltav.Tracker, out io.Writer) error {
	if _, err := tracker.Refresh(ctx); err != nil {
		return err
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(tracker.Launches())
}

func serve(ctx context.Context, cfg *deltav.Config, tracker *deltav.Tracker, log *logrus.Logger) error {
	ln, err := listener.Listen(cfg.ListenAddress, log)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddress, err)
	}

	server := &http.Server{
		Handler:      api.NewHandler(tracker, log).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTPTimeout * time.Duration(cfg.RetryAttempts+1),
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancelRefresh := context.WithCancel(ctx)
	defer cancelRefresh()

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("address", ln.Addr().String()).Info("deltav api started")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		tracker.Run(ctx, cfg.RefreshInterval)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	log.Info("shutting down deltav")
	cancelRefresh()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	<-refreshDone
	log.Info("deltav stopped")
	if runErr != nil {
		return fmt.Errorf("serving api: %w", runErr)
	}
	return nil
}
