package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/maillink/internal/config"
	"github.com/dgallion1/maillink/internal/document"
	"github.com/dgallion1/maillink/internal/parser"
	"github.com/dgallion1/maillink/internal/review"
	"github.com/dgallion1/maillink/internal/scanner"
)

// Worker converts uploaded files with the default selection rule.
type Worker struct {
	log        *slog.Logger
	parserOpts parser.Options
	scanOpts   scanner.Options
	stats      *ConversionStats
}

func NewWorker(cfg config.Config, log *slog.Logger) *Worker {
	return &Worker{
		log:        log,
		parserOpts: parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		scanOpts:   scanner.Options{SurroundingRange: cfg.SurroundingRange},
		stats:      NewConversionStats(cfg.JobTTL),
	}
}

// ScanOptions returns the scan settings the worker was built with.
func (w *Worker) ScanOptions() scanner.Options {
	return w.scanOpts
}

// ParseFile turns uploaded bytes into a Document.
func (w *Worker) ParseFile(data []byte, filename string) (*document.Document, error) {
	p, err := parser.ForFile(filename, w.parserOpts)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return doc, nil
}

// Convert scans text, lets r choose, rewrites, and records the
// conversion in the worker's stats.
func (w *Worker) Convert(ctx context.Context, text string, r review.Reviewer, log *slog.Logger) (*review.Result, error) {
	start := time.Now()
	res, err := review.Convert(ctx, text, w.scanOpts, r, log)
	if err != nil {
		return nil, err
	}
	w.Record(time.Since(start), res)
	return res, nil
}

// Record adds a conversion finished elsewhere, such as a committed
// review session.
func (w *Worker) Record(d time.Duration, res *review.Result) {
	w.stats.Record(d, res.Found, len(res.Converted), len(res.Warnings))
}

func (w *Worker) Stats() StatsSnapshot {
	return w.stats.Snapshot()
}

// Process runs parse, scan and rewrite for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := w.ParseFile(job.FileData(), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetTitle(doc.Title)
	job.SetContentHash(ContentHashHex([]byte(doc.Text)))

	// Phase 2: Scan, review with the default rule, rewrite
	job.SetStatus(StatusScanning, "scanning")
	res, err := w.Convert(ctx, doc.Text, review.DefaultReviewer, log)
	if errors.Is(err, review.ErrNothingToReview) {
		log.Info("no addresses found")
		job.SetResult(&review.Result{Text: doc.Text, Warnings: []review.Warning{}}, doc.Extracted)
		job.SetStatus(StatusNothingFound, "done")
		return
	}
	if err != nil {
		log.Error("conversion failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "scanning")
		return
	}

	job.SetResult(res, doc.Extracted)
	job.SetStatus(StatusCompleted, "done")
}
