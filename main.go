package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"epin-scraper/config"
	"epin-scraper/delivery"
	"epin-scraper/scraper"
	"epin-scraper/scraper/browser"
	"epin-scraper/scraper/bypass"
	"epin-scraper/server"
)

func main() {
	var (
		urlFile = flag.String("file", "", "path to a newline-delimited URL list")
		urlList = flag.String("urls", "", "comma-separated URLs to scrape")
		serve   = flag.Bool("serve", false, "run the HTTP API instead of a one-shot batch")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	setupLogging(*verbose)

	cfg := config.Load()
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rendering := browser.New(cfg)
	bypassing := bypass.New(cfg)
	deliverer := delivery.New(cfg)
	orch := scraper.NewOrchestrator(cfg, rendering, bypassing, deliverer)
	defer func() {
		if err := orch.Close(); err != nil {
			slog.Warn("shutdown cleanup", slog.Any("error", err))
		}
	}()

	if err := orch.Initialize(ctx); err != nil {
		slog.Error("initialization failed", slog.Any("error", err))
		os.Exit(1)
	}

	if *serve {
		srv := server.New(cfg, orch)
		if err := srv.ListenAndServe(ctx); err != nil {
			slog.Error("http server stopped", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	urls, err := collectURLs(*urlFile, *urlList)
	if err != nil {
		slog.Error("could not load urls", slog.Any("error", err))
		os.Exit(1)
	}
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "no URLs given: use -file, -urls or -serve")
		flag.Usage()
		os.Exit(2)
	}

	report := orch.ScrapeURLs(ctx, urls, func(done, total int) {
		slog.Info("progress", slog.Int("done", done), slog.Int("total", total))
	})

	fmt.Printf("batch %s: %d/%d urls succeeded, %d items extracted\n",
		report.BatchID, report.SucceededCount, report.RequestedURLCount, report.TotalItemCount)
	if report.FailedCount > 0 {
		os.Exit(1)
	}
}

// collectURLs merges the -file and -urls inputs, file entries first.
func collectURLs(path, list string) ([]string, error) {
	var urls []string
	if path != "" {
		fromFile, err := scraper.LoadURLFile(path)
		if err != nil {
			return nil, err
		}
		urls = append(urls, fromFile...)
	}
	for _, raw := range strings.Split(list, ",") {
		u := strings.TrimSpace(raw)
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// setupLogging picks a human-readable handler on a terminal and JSON
// otherwise.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if isTerminal() {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func isTerminal() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
