package notifier

import (
	"context"
	"log"

	"StonksBot/internal/model"
)

// DryRunPublisher logs posts instead of sending them.
type DryRunPublisher struct{}

func NewDryRunPublisher() *DryRunPublisher { return &DryRunPublisher{} }

func (d *DryRunPublisher) Publish(_ context.Context, text string, img *model.CompressedImage) (*PostRef, error) {
	log.Printf("[INFO] dry run, not posting: %q (image %.1fKB, quality %d)", text, img.SizeKB(), img.Quality)
	return &PostRef{}, nil
}
