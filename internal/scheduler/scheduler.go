package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"

	"StonksBot/internal/calculator"
	"StonksBot/internal/collector"
	"StonksBot/internal/imaging"
	"StonksBot/internal/model"
	"StonksBot/internal/notifier"
	"StonksBot/internal/recorder"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Policy decides what happens to the rest of a run after a publish failure.
type Policy string

const (
	AbortOnError    Policy = "abort"
	ContinueOnError Policy = "continue"
)

// Publisher sends one post with an attached image.
type Publisher interface {
	Publish(ctx context.Context, text string, img *model.CompressedImage) (*notifier.PostRef, error)
}

// Options configures a Runner.
type Options struct {
	Indices      []model.Index
	RisingImage  string
	FallingImage string
	MaxSizeKB    float64
	Policy       Policy
	DryRun       bool
}

// Summary reports what one pass did.
type Summary struct {
	RunID     string
	Published []string
	Skipped   []string
	Failed    []string
}

// Runner executes the daily pass and optionally schedules it with cron.
type Runner struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Publisher Publisher
	Recorder  recorder.Recorder
	Opts      Options
	Ctx       context.Context
}

// NewRunner creates a new Runner.
func NewRunner(ctx context.Context, col *collector.Collector, pub Publisher, rec recorder.Recorder, opts Options) *Runner {
	if opts.Policy == "" {
		opts.Policy = AbortOnError
	}
	if opts.MaxSizeKB <= 0 {
		opts.MaxSizeKB = imaging.DefaultMaxSizeKB
	}
	return &Runner{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Publisher: pub,
		Recorder:  rec,
		Opts:      opts,
		Ctx:       ctx,
	}
}

// Schedule registers the daily pass on a cron expression (with seconds).
func (r *Runner) Schedule(spec string) error {
	if _, err := r.Cron.AddFunc(spec, r.scheduledRun); err != nil {
		return fmt.Errorf("register daily run: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (r *Runner) Start() {
	r.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running pass to finish.
func (r *Runner) Stop() {
	<-r.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (r *Runner) scheduledRun() {
	if _, err := r.RunOnce(r.Ctx); err != nil {
		log.Printf("[ERROR] scheduled run: %v", err)
	}
}

// RunOnce posts one update per configured index, in order. Indices without
// two closes are skipped. Fetch errors always end the pass; publish errors end
// it under AbortOnError and are collected under ContinueOnError.
func (r *Runner) RunOnce(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString()}
	log.Printf("[INFO] run %s: posting %d indices", sum.RunID, len(r.Opts.Indices))

	var errs []error
	for _, idx := range r.Opts.Indices {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		obs, ok, err := r.Collector.Collect(ctx, idx.Symbol)
		if err != nil {
			return sum, fmt.Errorf("collect %s: %w", idx.Name, err)
		}
		if !ok {
			log.Printf("[WARN] %s (%s): not enough data available, skipping", idx.Name, idx.Symbol)
			sum.Skipped = append(sum.Skipped, idx.Symbol)
			continue
		}

		msg, err := notifier.FormatMarketMessage(idx.Name, obs)
		if err != nil {
			log.Printf("[WARN] %s (%s): %v, skipping", idx.Name, idx.Symbol, err)
			sum.Skipped = append(sum.Skipped, idx.Symbol)
			continue
		}

		pubErr := r.publish(ctx, msg)
		r.record(sum.RunID, idx, obs, msg, pubErr)
		if pubErr != nil {
			pubErr = fmt.Errorf("publish %s: %w", idx.Name, pubErr)
			sum.Failed = append(sum.Failed, idx.Symbol)
			if r.Opts.Policy == AbortOnError {
				return sum, pubErr
			}
			log.Printf("[ERROR] %v, continuing", pubErr)
			errs = append(errs, pubErr)
			continue
		}
		sum.Published = append(sum.Published, idx.Symbol)
	}

	log.Printf("[INFO] run %s done: published=%d skipped=%d failed=%d",
		sum.RunID, len(sum.Published), len(sum.Skipped), len(sum.Failed))
	return sum, errors.Join(errs...)
}

func (r *Runner) imageFor(d model.Direction) string {
	if d == model.Rising {
		return r.Opts.RisingImage
	}
	return r.Opts.FallingImage
}

func (r *Runner) publish(ctx context.Context, msg model.MarketMessage) error {
	path := r.imageFor(msg.Direction)
	img, err := imaging.CompressFile(path, r.Opts.MaxSizeKB)
	if err != nil {
		return fmt.Errorf("compress image: %w", err)
	}
	log.Printf("[INFO] %s compressed to %.1fKB at quality %d (%d steps)", path, img.SizeKB(), img.Quality, img.Steps)

	ref, err := r.Publisher.Publish(ctx, msg.Text, img)
	if err != nil {
		return err
	}
	if ref.URI != "" {
		log.Printf("[INFO] posted %s", ref.URI)
	}
	return nil
}

func (r *Runner) record(runID string, idx model.Index, obs model.PriceObservation, msg model.MarketMessage, pubErr error) {
	outcome := recorder.OutcomePublished
	switch {
	case pubErr != nil:
		outcome = recorder.OutcomeFailed
	case r.Opts.DryRun:
		outcome = recorder.OutcomeDryRun
	}
	// Previous is non-zero here, FormatMarketMessage already accepted it.
	change, pct, _ := calculator.Delta(obs.Latest, obs.Previous)
	if err := r.Recorder.RecordObservation(&recorder.ObservationEvent{
		RunID:      runID,
		Symbol:     idx.Symbol,
		Name:       idx.Name,
		Latest:     obs.Latest.String(),
		Previous:   obs.Previous.String(),
		Change:     change.String(),
		Percentage: pct.StringFixed(4),
		Direction:  string(msg.Direction),
		Outcome:    outcome,
	}); err != nil {
		log.Printf("[ERROR] record observation: %v", err)
	}
}
