package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/assetmanager"
	"github.com/tansive/assetvault/internal/assetsrv/blobstore/blobmanager"
	"github.com/tansive/assetvault/internal/assetsrv/config"
	"github.com/tansive/assetvault/internal/assetsrv/db/dbmanager"
	"github.com/tansive/assetvault/internal/assetsrv/server"
	"github.com/tansive/assetvault/internal/common/logtrace"
)

const defaultConfigFile = "/etc/assetvault/assetsrv.conf"

func init() {
	logtrace.InitLogger()
}

type cmdoptions struct {
	configFile *string
}

func main() {
	slog := log.With().Str("state", "init").Logger()
	opt := parseFlags()

	slog.Info().Str("config_file", *opt.configFile).Msg("loading config file")
	if err := config.LoadConfig(*opt.configFile); err != nil {
		slog.Error().Str("config_file", *opt.configFile).Err(err).Msg("unable to load config file")
		os.Exit(1)
	}
	cfg := config.Config()
	logtrace.SetLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := dbmanager.NewDocStore(ctx, cfg.DocStore)
	if err != nil {
		slog.Error().Err(err).Str("backend", cfg.DocStore.Backend).Msg("unable to open document store")
		os.Exit(1)
	}
	defer store.Close(context.Background())

	blobs, err := blobmanager.NewBlobStore(ctx, cfg.BlobStore)
	if err != nil {
		slog.Error().Err(err).Str("backend", cfg.BlobStore.Backend).Msg("unable to open blob store")
		os.Exit(1)
	}

	m := assetmanager.New(store, blobs, assetmanager.OptionsFromConfig(cfg))
	s, err := server.CreateNewServer(m, cfg)
	if err != nil {
		slog.Error().Err(err).Msg("unable to create server")
		os.Exit(1)
	}
	s.MountHandlers()

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	slog.Info().Str("port", cfg.ServerPort).Msg("asset server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func parseFlags() cmdoptions {
	var opt cmdoptions
	opt.configFile = flag.String("config", "", "Path to the config file (defaults are used when empty)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Default config location: %s\n\n", defaultConfigFile)
		fmt.Println("Options:")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opt
}
