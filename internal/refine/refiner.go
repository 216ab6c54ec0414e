// Package refine implements the content refinement stage: raw scraped titles
// and descriptions are cleaned through the AI client before tagging.
// Refinement is best-effort and never blocks ingestion.
package refine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"jobportal/ingestion-service/internal/ai"
	"jobportal/ingestion-service/internal/model"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RecordStore is the slice of the external-job store refinement needs.
type RecordStore interface {
	FindUnrefined(ctx context.Context, limit int) ([]model.ExternalJobRecord, error)
	// SaveRefined persists the refined fields and is_refined in one update.
	SaveRefined(ctx context.Context, rec *model.ExternalJobRecord) error
}

// Stats summarizes one refinement batch.
type Stats struct {
	Total   int           `json:"total"`
	Refined int           `json:"refined"`
	Errors  int           `json:"errors"`
	Elapsed time.Duration `json:"elapsed"`
}

// Refiner drives refinement over unrefined records.
type Refiner struct {
	AI          Generator
	Store       RecordStore
	Concurrency int
	BatchSize   int
}

// NewRefiner wires a Refiner. concurrency is clamped to [1, 10].
func NewRefiner(gen Generator, store RecordStore, concurrency int) *Refiner {
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 10 {
		concurrency = 10
	}
	return &Refiner{AI: gen, Store: store, Concurrency: concurrency, BatchSize: 200}
}

// RefineFields cleans a title and description independently. Each field fails
// open: on AI error or an empty response the raw value is returned unchanged.
func (r *Refiner) RefineFields(ctx context.Context, rawTitle, rawDescription, designationHint string) (string, string) {
	title := rawTitle
	if strings.TrimSpace(rawTitle) != "" {
		if refined, err := r.AI.Generate(ctx, ai.TitlePrompt(rawTitle, designationHint)); err == nil && refined != "" {
			title = refined
		}
	}

	description := rawDescription
	if strings.TrimSpace(rawDescription) != "" {
		if refined, err := r.AI.Generate(ctx, ai.DescriptionPrompt(rawDescription)); err == nil && refined != "" {
			description = refined
		}
	}

	return title, description
}

// RefineRecord refines one record and persists the result. The refined fields
// and the is_refined flag land in a single store call so a persistence
// failure leaves the record unrefined and retryable.
func (r *Refiner) RefineRecord(ctx context.Context, rec *model.ExternalJobRecord) error {
	title, description := r.RefineFields(ctx, rec.JobTitle, rec.JobDescription, "")

	rec.RefinedTitle = title
	rec.RefinedDescription = description
	rec.IsRefined = true
	if err := r.Store.SaveRefined(ctx, rec); err != nil {
		rec.IsRefined = false
		return fmt.Errorf("save refined record %d: %w", rec.ID, err)
	}
	return nil
}

// RefineAll refines every unrefined record, dispatching independent records
// to a bounded worker pool. Per-record failures are counted, not propagated.
func (r *Refiner) RefineAll(ctx context.Context) (Stats, error) {
	start := time.Now()

	records, err := r.Store.FindUnrefined(ctx, r.BatchSize)
	if err != nil {
		return Stats{}, fmt.Errorf("find unrefined records: %w", err)
	}

	stats := Stats{Total: len(records)}
	results := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)
	for i := range records {
		i := i
		g.Go(func() error {
			results[i] = r.RefineRecord(gctx, &records[i])
			return nil
		})
	}
	g.Wait()

	for i, err := range results {
		if err != nil {
			stats.Errors++
			log.Printf("[refine] record %d failed: %v", records[i].ID, err)
			continue
		}
		stats.Refined++
	}

	stats.Elapsed = time.Since(start)
	log.Printf("[refine] batch done: total=%d refined=%d errors=%d elapsed=%s",
		stats.Total, stats.Refined, stats.Errors, stats.Elapsed)
	return stats, nil
}
