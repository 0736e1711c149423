package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mgomes/newsfind/internal/config"
	"github.com/mgomes/newsfind/internal/db"
	"github.com/mgomes/newsfind/internal/indexer"
	"github.com/mgomes/newsfind/internal/logging"
	"github.com/mgomes/newsfind/internal/server"
	"golang.org/x/sync/errgroup"
)

func main() {
	dataFile := flag.String("data", "", "CSV dataset to serve (overrides config)")
	addr := flag.String("addr", "", "listen address (overrides config)")
	doWatch := flag.Bool("watch", false, "reload the dataset when it changes")
	fullReindex := flag.Bool("full", false, "reload the dataset even if unchanged")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *dataFile != "" {
		cfg.DataFile = *dataFile
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	log, closeLog, err := logging.New(cfg.LogLevel, os.Stdout, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog() //nolint:errcheck

	dataPath, err := filepath.Abs(cfg.DataFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve dataset path: %v\n", err)
		os.Exit(1)
	}

	dbPath, err := config.DBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get database path: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	database, err := db.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	idx := indexer.New(database, dataPath, log)
	progress := func(p indexer.Progress) {
		log.WithField("entries", p.Entries).Info(p.Message)
	}
	if err := idx.Index(ctx, *fullReindex, progress); err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}

	srv := server.New(database, cfg.MaxResults, cfg.RateLimit, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.ListenAddr)
	})

	if *doWatch {
		watcher, err := indexer.NewWatcher(idx, indexer.DefaultDebounceDelay)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Watch mode failed: %v\n", err)
			os.Exit(1)
		}
		watcher.SetMessageHandler(func(msg string) {
			log.Info(msg)
		})
		g.Go(func() error {
			return watcher.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		os.Exit(1)
	}
	log.Info("stopped")
}
