package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kwhittle/quizbuzz/internal/hub"
	"github.com/kwhittle/quizbuzz/internal/identity"
	"github.com/kwhittle/quizbuzz/internal/room"
	"github.com/kwhittle/quizbuzz/internal/server"
)

const (
	releaseVersion = "0.1.0"

	sweepInterval = time.Minute
)

func main() {
	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}

func serve(ctx context.Context, cfg *Config) error {
	logger := logrus.New()
	if cfg.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	idp, err := identity.NewProvider(cfg.tokenExpire)
	if err != nil {
		return err
	}

	registry := room.NewRegistry(cfg.maxPlayers, logger)
	broadcast := hub.New(logger)
	router := room.NewRouter(registry, broadcast, logger)
	srv := server.New(logger, registry, router, broadcast, idp, cfg.joinBaseURL())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go registry.Run(ctx, sweepInterval, cfg.roomIdleTimeout)

	httpServer := &http.Server{
		Handler: srv.Handler(),
	}

	l, err := net.Listen("tcp", cfg.listenAddr())
	if err != nil {
		return err
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
		return err
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}
