// Package batch encodes many barcode payloads concurrently and formats the results.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/printkit/internal/barcode"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNoCodes is returned when a batch has nothing to encode.
var ErrNoCodes = errors.New("batch: no codes to encode")

// Item is the outcome for one input line.
type Item struct {
	Index    int    `json:"index" yaml:"index"`
	Input    string `json:"input" yaml:"input"`
	Symbols  string `json:"symbols,omitempty" yaml:"symbols,omitempty"`
	Code     string `json:"code,omitempty" yaml:"code,omitempty"`
	Mismatch bool   `json:"check_digit_mismatch,omitempty" yaml:"check_digit_mismatch,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the item was encoded.
func (i Item) OK() bool { return i.Error == "" }

// Result holds the outcome of a batch run, in input order.
type Result struct {
	ID       string
	Items    []Item
	Duration time.Duration
	Workers  int
}

// Stats summarises a Result.
type Stats struct {
	Total      int           `json:"total" yaml:"total"`
	Encoded    int           `json:"encoded" yaml:"encoded"`
	Failed     int           `json:"failed" yaml:"failed"`
	Mismatched int           `json:"mismatched" yaml:"mismatched"`
	Workers    int           `json:"workers" yaml:"workers"`
	Duration   time.Duration `json:"duration_ns" yaml:"duration_ns"`
	Throughput float64       `json:"throughput_per_sec" yaml:"throughput_per_sec"`
}

// Process encodes codes with at most cfg.Workers concurrent encoders.
// With ContinueOnError unset the first invalid code aborts the batch and its
// error is returned; otherwise failures are recorded per item.
func Process(ctx context.Context, codes []string, cfg Config) (*Result, error) {
	if len(codes) == 0 {
		return nil, ErrNoCodes
	}

	symbology := cfg.Symbology
	if symbology == barcode.FormatUnknown {
		symbology = barcode.FormatEAN13
	}
	enc, err := barcode.NewEncoder(symbology)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	workers := cfg.workers()
	items := make([]Item, len(codes))

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, code := range codes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item, err := encodeItem(enc, i, code)
			items[i] = item
			if err != nil {
				if !cfg.ContinueOnError {
					return fmt.Errorf("line %d: %w", i+1, err)
				}
				slog.Debug("Batch item failed", "batch_id", id, "index", i, "code", code, "error", err)
				return nil
			}
			if item.Mismatch && cfg.WarnMismatch {
				slog.Warn("Supplied check digit differs from computed one",
					"batch_id", id, "index", i, "input", code, "code", item.Code)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		ID:       id,
		Items:    items,
		Duration: time.Since(start),
		Workers:  workers,
	}
	slog.Debug("Batch encoded", "batch_id", id, "items", len(items), "duration", res.Duration)
	return res, nil
}

func encodeItem(enc barcode.Encoder, index int, code string) (Item, error) {
	item := Item{Index: index, Input: code}

	symbols, err := enc.Encode(code)
	if err != nil {
		item.Error = err.Error()
		return item, err
	}
	item.Symbols = symbols.String()

	if enc.Format() == barcode.FormatEAN13 {
		if d, err := barcode.InspectEAN13(code); err == nil {
			item.Code = d.Code
			item.Mismatch = d.Mismatch
		}
	}
	return item, nil
}

// Stats computes summary statistics.
func (r *Result) Stats() Stats {
	s := Stats{Total: len(r.Items), Workers: r.Workers, Duration: r.Duration}
	for _, it := range r.Items {
		if it.OK() {
			s.Encoded++
		} else {
			s.Failed++
		}
		if it.Mismatch {
			s.Mismatched++
		}
	}
	if r.Duration > 0 {
		s.Throughput = float64(s.Total) / r.Duration.Seconds()
	}
	return s
}

// Failed reports whether any item failed.
func (r *Result) Failed() bool {
	for _, it := range r.Items {
		if !it.OK() {
			return true
		}
	}
	return false
}
