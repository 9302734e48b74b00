// Command pacerd serves document text extraction over HTTP.
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

	"github.com/metcalfc/pacer/internal/config"
	"github.com/metcalfc/pacer/internal/extract"
	"github.com/metcalfc/pacer/internal/logging"
	"github.com/metcalfc/pacer/internal/server"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "config file path (.yaml or .toml)")
	debug := flag.Bool("debug", false, "enable debug logging")
	addr := flag.String("addr", "", "listen address, overrides config (host:port)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Log.Debug || *debug
	logger, err := logging.New(logging.Options{Debug: debugMode, File: cfg.Log.File})
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", *configPath),
		zap.Bool("debug", debugMode),
	)

	var opts []extract.Option
	opts = append(opts, extract.WithLogger(logger))
	if cfg.Extract.EPUBAllSections {
		opts = append(opts, extract.WithAllSections())
	}

	serverCfg := cfg.Server
	if *addr != "" {
		host, port, err := splitAddr(*addr)
		if err != nil {
			logger.Fatal("Invalid -addr", zap.Error(err))
		}
		serverCfg.Host, serverCfg.Port = host, port
	}

	srv := server.NewServer(extract.New(opts...), serverCfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}
