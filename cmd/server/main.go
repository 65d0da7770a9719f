package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/thisisjab/oafilter/api"
	"github.com/thisisjab/oafilter/catalog"
	"github.com/thisisjab/oafilter/config"
	"github.com/thisisjab/oafilter/querier"
)

func main() {
	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "./.config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	components, logger, err := cfg.Parse()
	if err != nil {
		if logger != nil {
			logger.Error("cannot parse config file", "error", err)
			os.Exit(1)
		}
		panic(fmt.Errorf("cannot parse config file: %w", err))
	}

	// Setup signal handling to catch Ctrl+C (SIGINT) or Terminate (SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal. shutting down.", "signal", sig)
		cancel()
	}()

	cat, err := catalog.New(components.Catalog, logger)
	if err != nil {
		logger.Error("catalog error.", "error", err)
		os.Exit(1)
	}

	var store querier.Store
	if components.Storage != nil {
		if err := components.Storage.Connect(ctx); err != nil {
			logger.Error("storage error.", "error", err)
			os.Exit(1)
		}
		defer components.Storage.Close(context.Background()) //nolint:errcheck
		store = components.Storage
	} else {
		logger.Warn("no storage is configured, saved filters are disabled.")
	}

	server, err := api.NewServer(components.API, logger, querier.New(cat, store, logger))
	if err != nil {
		logger.Error("server error.", "error", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	wg.Go(func() {
		if err := cat.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("catalog error.", "error", err)
		}
	})

	// Run server
	if err := server.Serve(ctx); err != nil {
		logger.Error("server error.", "error", err)
	}

	cancel()
	wg.Wait()

	logger.Info("server stopped.")
}
