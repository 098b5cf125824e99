// clipscribe extracts text from the image on the system clipboard by
// sending it to an OpenAI-compatible vision endpoint. The extracted text
// (optionally GitHub Flavored Markdown) goes to stdout; all diagnostics go
// to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jo-hoe/clipscribe/internal/clipboard"
	appcfg "github.com/jo-hoe/clipscribe/internal/config"
	"github.com/jo-hoe/clipscribe/internal/history"
	"github.com/jo-hoe/clipscribe/internal/llm"
	"github.com/jo-hoe/clipscribe/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		markdown   bool
		configPath string
		showLast   int
	)
	flag.BoolVar(&markdown, "markdown", false, "format output as GitHub Flavored Markdown (tables, hyphen bullets)")
	flag.BoolVar(&markdown, "m", false, "shorthand for -markdown")
	flag.StringVar(&configPath, "config", "", "path to the configuration file (default: per-user config dir)")
	flag.IntVar(&showLast, "last", 0, "print the N most recent extraction records and exit (requires history.enabled)")
	flag.Parse()

	cfg, err := appcfg.Load(configPath)
	if err != nil {
		// First-run scaffolding and a placeholder token are guidance, not
		// failures: users expect exit 0 for informational messages.
		if errors.Is(err, appcfg.ErrConfigCreated) || errors.Is(err, appcfg.ErrPlaceholderToken) {
			fmt.Fprintln(os.Stderr, err)
			return 0
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	// stdout is reserved for the extracted text; everything else is stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: appcfg.ParseLogLevel(cfg.LogLevel),
	}))

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.DatabasePath)
		if err != nil {
			logger.Error("open history store", "path", cfg.History.DatabasePath, "err", err)
			return 1
		}
		defer func() { _ = store.Close() }()
	}

	if showLast > 0 {
		return printHistory(store, showLast)
	}

	source, err := clipboard.NewReader(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: could not access the system clipboard. Ensure a clipboard manager is running or the environment supports it.")
		logger.Error("init clipboard", "err", err)
		return 1
	}

	client := llm.New(logger, cfg.API.URL, cfg.API.Token, cfg.API.RequestTimeout)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var rec pipeline.Recorder
	if store != nil {
		rec = store
	}
	p := pipeline.New(logger, cfg, source, client, rec, markdown)

	out := p.Run(ctx)
	switch out.Kind {
	case pipeline.OutcomeText:
		fmt.Println(out.Text)
		return 0
	case pipeline.OutcomeNoImage:
		fmt.Fprintln(os.Stderr, "No image found on the clipboard. Copy an image and try again.")
		return 0
	case pipeline.OutcomeEmptyImage:
		fmt.Fprintln(os.Stderr, "Clipboard image data is empty. Nothing to process.")
		return 0
	default:
		fmt.Fprintln(os.Stderr, "Error:", out.Err)
		return 1
	}
}

func printHistory(store *history.Store, limit int) int {
	if store == nil {
		fmt.Fprintln(os.Stderr, "Error: history is not enabled; set history.enabled in the config file")
		return 1
	}
	recs, err := store.Recent(limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	for _, r := range recs {
		line := fmt.Sprintf("%s\t%s\t%dx%d\t%s\t%d chars\t%s",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Outcome, r.Width, r.Height, r.Model, r.Chars, r.Duration)
		if r.ErrorMessage != nil {
			line += "\t" + *r.ErrorMessage
		}
		fmt.Println(line)
	}
	return 0
}
