package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-seller-session/internal/config"
	"github.com/jrsteele09/go-seller-session/kvstore"
	"github.com/jrsteele09/go-seller-session/kvstore/redisstore"
	"github.com/jrsteele09/go-seller-session/kvstore/sqlitestore"
	"github.com/jrsteele09/go-seller-session/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %s\n", err)
	}

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	repo, closeRepo, err := openStorage(c)
	if err != nil {
		return err
	}
	defer closeRepo()

	handler, err := server.New(c, repo)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	defer handler.Close()

	log.Info().Str("storage", string(c.GetStorageBackend())).Dur("max_session_age", c.GetMaxSessionAge()).Msg("Seller authentication system loaded")

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(httpServer)
	}()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func setupLogging(c config.Config) {
	zerolog.SetGlobalLevel(c.GetLogLevel())
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openStorage connects the configured backend and returns it with its closer
func openStorage(c config.Config) (kvstore.Repo, func(), error) {
	switch c.GetStorageBackend() {
	case config.StorageMemory:
		return kvstore.NewInMemoryRepo(kvstore.WithQuota(c.GetStorageQuotaBytes())), func() {}, nil

	case config.StorageRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := redisstore.Connect(ctx, c.GetRedisURL(), redisstore.WithKeyPrefix("seller:"))
		if err != nil {
			return nil, nil, fmt.Errorf("redisstore.Connect: %w", err)
		}
		return store, closer(store, "redis"), nil

	default:
		store, err := sqlitestore.Open(c.GetSQLitePath())
		if err != nil {
			return nil, nil, fmt.Errorf("sqlitestore.Open: %w", err)
		}
		return store, closer(store, "sqlite"), nil
	}
}

func closer(c io.Closer, name string) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Err(err).Str("storage", name).Msg("Failed to close storage")
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
