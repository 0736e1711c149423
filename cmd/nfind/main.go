package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mgomes/newsfind/internal/config"
	"github.com/mgomes/newsfind/internal/logging"
	"github.com/mgomes/newsfind/internal/search"
	"github.com/mgomes/newsfind/internal/tui"
	"github.com/sirupsen/logrus"
)

func main() {
	query := flag.String("q", "", "run one search and print the results")
	endpoint := flag.String("endpoint", "", "search endpoint URL (overrides config)")
	doInit := flag.Bool("init", false, "write the default config file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *doInit {
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save config: %v\n", err)
			os.Exit(1)
		}
		dir, _ := config.ConfigDir()
		fmt.Printf("Config written to %s\n", dir)
		return
	}

	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}

	// The screen owns stdout, so logs only go to the configured file.
	log, closeLog, err := logging.New(cfg.LogLevel, nil, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog() //nolint:errcheck

	client, err := search.NewClient(cfg.Endpoint, cfg.RequestTimeout(), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create search client: %v\n", err)
		os.Exit(1)
	}

	if *query != "" {
		if err := runQuery(client, *query); err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runScreen(client, cfg, log); err != nil {
		fmt.Fprintf(os.Stderr, "Search screen failed: %v\n", err)
		os.Exit(1)
	}
}

func runQuery(client *search.Client, query string) error {
	results, err := client.Search(context.Background(), query)
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Println(r)
	}
	return nil
}

func runScreen(client *search.Client, cfg *config.Config, log logrus.FieldLogger) error {
	model := tui.NewSearchModel(client, cfg.Debounce(), log)
	program := tea.NewProgram(model, tea.WithAltScreen())

	log.WithField("endpoint", cfg.Endpoint).Info("search screen started")
	_, err := program.Run()
	return err
}
