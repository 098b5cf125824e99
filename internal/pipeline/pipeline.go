// Package pipeline sequences one extraction run: clipboard read, pixel
// validation, PNG encoding, request build, transport and interpretation.
// One pass per invocation, no loops, no retries.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/jo-hoe/clipscribe/internal/clipboard"
	"github.com/jo-hoe/clipscribe/internal/config"
	"github.com/jo-hoe/clipscribe/internal/encode"
	"github.com/jo-hoe/clipscribe/internal/history"
	"github.com/jo-hoe/clipscribe/internal/llm"
)

// Source reads the current clipboard image.
type Source interface {
	ReadImage() (*clipboard.Image, error)
}

// Extractor performs the remote chat completion exchange.
type Extractor interface {
	Extract(ctx context.Context, req llm.Request) (string, error)
}

// Recorder appends an extraction record; satisfied by *history.Store.
type Recorder interface {
	Append(rec *history.Record) error
}

// OutcomeKind is the terminal state of one invocation.
type OutcomeKind int

const (
	OutcomeText OutcomeKind = iota
	OutcomeNoImage
	OutcomeEmptyImage
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeText:
		return "text"
	case OutcomeNoImage:
		return "no-image"
	case OutcomeEmptyImage:
		return "empty-image"
	default:
		return "failure"
	}
}

// Outcome is the result of one Run. Exactly one of Text or Err is
// meaningful; the informational kinds carry neither.
type Outcome struct {
	Kind OutcomeKind
	Text string
	Err  error
}

// Pipeline wires the collaborators for one-shot execution.
type Pipeline struct {
	Log      *slog.Logger
	Cfg      *config.Config
	Source   Source
	Client   Extractor
	History  Recorder // nil disables recording
	Markdown bool
}

func New(log *slog.Logger, cfg *config.Config, src Source, client Extractor, rec Recorder, markdown bool) *Pipeline {
	return &Pipeline{
		Log:      log,
		Cfg:      cfg,
		Source:   src,
		Client:   client,
		History:  rec,
		Markdown: markdown,
	}
}

// Run executes the state machine once and maps every failure into a
// terminal Outcome. Root-cause diagnostics are preserved in Outcome.Err,
// never reworded away.
func (p *Pipeline) Run(ctx context.Context) Outcome {
	start := time.Now()
	id := uuid.NewString()
	log := p.Log.With("invocation", id)

	img, err := p.Source.ReadImage()
	if err != nil {
		if errors.Is(err, clipboard.ErrNoImage) {
			log.Info("no image found on the clipboard")
			return p.done(log, id, start, nil, Outcome{Kind: OutcomeNoImage})
		}
		return p.done(log, id, start, nil, Outcome{Kind: OutcomeFailure, Err: fmt.Errorf("read clipboard: %w", err)})
	}

	if err := encode.Validate(img); err != nil {
		if errors.Is(err, encode.ErrEmptyDimensions) {
			// An empty snapshot is an expected steady state, not a failure.
			log.Warn("clipboard image is empty, nothing to process",
				"width", img.Width, "height", img.Height)
			return p.done(log, id, start, img, Outcome{Kind: OutcomeEmptyImage})
		}
		return p.done(log, id, start, img, Outcome{Kind: OutcomeFailure, Err: err})
	}

	if max := uint64(p.Cfg.MaxImageSize); max > 0 && uint64(len(img.Pix)) > max {
		log.Warn("clipboard image exceeds configured size threshold",
			"size", humanize.Bytes(uint64(len(img.Pix))), "threshold", humanize.Bytes(max))
	}

	log.Info("encoding image", "width", img.Width, "height", img.Height)
	dataURL, err := encode.DataURL(img)
	if err != nil {
		return p.done(log, id, start, img, Outcome{Kind: OutcomeFailure, Err: err})
	}
	log.Debug("image encoded", "data_url_chars", len(dataURL))

	req := llm.BuildRequest(dataURL, p.Markdown, p.Cfg.API.Model, p.Cfg.API.MaxTokens)
	log.Info("requesting text extraction", "model", req.Model, "markdown", p.Markdown)

	text, err := p.Client.Extract(ctx, req)
	if err != nil {
		return p.done(log, id, start, img, Outcome{Kind: OutcomeFailure, Err: err})
	}

	log.Info("extraction complete", "chars", len(text), "duration", time.Since(start))
	return p.done(log, id, start, img, Outcome{Kind: OutcomeText, Text: text})
}

// done records the terminal state in the history store, if configured.
func (p *Pipeline) done(log *slog.Logger, id string, start time.Time, img *clipboard.Image, out Outcome) Outcome {
	if p.History == nil {
		return out
	}
	rec := &history.Record{
		ID:        id,
		CreatedAt: start.UTC(),
		Model:     p.Cfg.API.Model,
		Markdown:  p.Markdown,
		Outcome:   out.Kind.String(),
		Chars:     len(out.Text),
		Duration:  time.Since(start),
	}
	if img != nil {
		rec.Width = img.Width
		rec.Height = img.Height
	}
	if out.Err != nil {
		msg := out.Err.Error()
		rec.ErrorMessage = &msg
	}
	if err := p.History.Append(rec); err != nil {
		log.Warn("record history", "err", err)
	}
	return out
}
