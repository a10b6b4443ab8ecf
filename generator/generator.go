package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"certgen-server-go/archive"
	"certgen-server-go/convert"
	"certgen-server-go/logger"
	"certgen-server-go/metrics"
	"certgen-server-go/models"
	"certgen-server-go/render"
)

// ErrNoRecords is returned when Run is given nothing to generate
var ErrNoRecords = errors.New("no records to generate")

// Stage names the step a generation run is in
type Stage string

const (
	StageRender  Stage = "render"
	StageConvert Stage = "convert"
	StageMerge   Stage = "merge"
	StageArchive Stage = "archive"
	StageDone    Stage = "done"
)

// Progress is reported while a run advances. Fraction covers the current
// stage only.
type Progress struct {
	Stage    Stage
	Current  int
	Total    int
	Fraction float64
	Message  string
}

// Options controls one generation run
type Options struct {
	OutputDir string
	PDF       bool
	// Merge combines all PDFs into MergedName; it implies PDF
	Merge       bool
	Archive     bool
	MergedName  string
	ArchiveName string
	// Concurrency bounds parallel PDF conversions
	Concurrency int
	// ExpectedConversion drives the estimated progress of one conversion
	ExpectedConversion time.Duration
}

// Result lists the files a run produced
type Result struct {
	OutputDir string   `json:"outputDir"`
	Documents []string `json:"documents"`
	PDFs      []string `json:"pdfs,omitempty"`
	Merged    string   `json:"merged,omitempty"`
	Archive   string   `json:"archive,omitempty"`
}

// Generator renders records and post-processes the output
type Generator struct {
	renderer  render.Renderer
	converter convert.Converter
	merger    convert.Merger
}

// New returns a generator. converter and merger may be nil when runs never
// ask for PDFs.
func New(renderer render.Renderer, converter convert.Converter, merger convert.Merger) *Generator {
	return &Generator{renderer: renderer, converter: converter, merger: merger}
}

// Run renders every record into OutputDir, then optionally converts, merges
// and archives. It stops at the first failing step; the returned Result
// still lists the files written before the failure.
func (g *Generator) Run(ctx context.Context, records []models.Record, opts Options, progress func(Progress)) (*Result, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	if progress == nil {
		progress = func(Progress) {}
	}
	if opts.Merge {
		opts.PDF = true
	}
	if opts.PDF && g.converter == nil {
		return nil, errors.New("pdf output requested but no converter is configured")
	}
	if opts.Merge && g.merger == nil {
		return nil, errors.New("merge requested but no merger is configured")
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	start := time.Now()
	res := &Result{OutputDir: opts.OutputDir}

	docs, err := g.renderAll(ctx, records, opts.OutputDir, progress)
	res.Documents = docs
	if err != nil {
		return res, err
	}

	if opts.PDF {
		pdfs, err := g.convertAll(ctx, docs, opts, progress)
		if err != nil {
			return res, err
		}
		res.PDFs = pdfs
	}

	if opts.Merge {
		progress(Progress{Stage: StageMerge, Total: 1, Message: "Merging PDFs..."})
		merged := filepath.Join(opts.OutputDir, defaultName(opts.MergedName, "certificates.pdf"))
		if err := g.merger.Merge(res.PDFs, merged); err != nil {
			return res, err
		}
		res.Merged = merged
		progress(Progress{Stage: StageMerge, Current: 1, Total: 1, Fraction: 1, Message: "Merged"})
	}

	if opts.Archive {
		progress(Progress{Stage: StageArchive, Total: 1, Message: "Packaging archive..."})
		files := append(append([]string{}, res.Documents...), res.PDFs...)
		if res.Merged != "" {
			files = append(files, res.Merged)
		}
		zipPath := filepath.Join(opts.OutputDir, defaultName(opts.ArchiveName, "certificates.zip"))
		if err := archive.Build(zipPath, files, opts.OutputDir); err != nil {
			return res, err
		}
		res.Archive = zipPath
		progress(Progress{Stage: StageArchive, Current: 1, Total: 1, Fraction: 1, Message: "Packaged"})
	}

	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	progress(Progress{Stage: StageDone, Current: len(records), Total: len(records), Fraction: 1, Message: "Completed!"})
	logger.Info("Generation finished",
		zap.Int("documents", len(res.Documents)),
		zap.Int("pdfs", len(res.PDFs)),
		zap.String("dir", opts.OutputDir),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

func (g *Generator) renderAll(ctx context.Context, records []models.Record, outDir string, progress func(Progress)) ([]string, error) {
	total := len(records)
	names := newNamer()
	docs := make([]string, 0, total)

	for i := range records {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		progress(Progress{
			Stage:    StageRender,
			Current:  i + 1,
			Total:    total,
			Fraction: float64(i+1) / float64(total),
			Message:  fmt.Sprintf("Generating %d/%d...", i+1, total),
		})

		path := filepath.Join(outDir, names.next(FileName(records[i], g.renderer.Ext())))
		if err := g.renderOne(records[i], path); err != nil {
			return docs, fmt.Errorf("generation failed for %q: %w", records[i].NameZh, err)
		}
		metrics.DocumentsRendered.Inc()
		docs = append(docs, path)
	}
	return docs, nil
}

// renderOne writes one document. A partly written file is removed.
func (g *Generator) renderOne(rec models.Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = g.renderer.Render(rec.Context(), f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}

func (g *Generator) convertAll(ctx context.Context, docs []string, opts Options, progress func(Progress)) ([]string, error) {
	total := len(docs)
	pdfs := make([]string, total)

	var mu sync.Mutex
	completed := 0
	inflight := make(map[int]float64)
	report := func(msg string) {
		sum := float64(completed)
		for _, f := range inflight {
			sum += f
		}
		progress(Progress{
			Stage:    StageConvert,
			Current:  completed,
			Total:    total,
			Fraction: sum / float64(total),
			Message:  msg,
		})
	}

	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for i, doc := range docs {
		i, doc := i, doc
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			stop := func() {}
			if opts.ExpectedConversion > 0 {
				stop = convert.Track(opts.ExpectedConversion, 250*time.Millisecond, func(f float64) {
					mu.Lock()
					defer mu.Unlock()
					inflight[i] = f
					report(fmt.Sprintf("Converting %s...", filepath.Base(doc)))
				})
			}
			pdf, err := g.converter.Convert(egCtx, doc, filepath.Dir(doc))
			stop()

			mu.Lock()
			defer mu.Unlock()
			delete(inflight, i)
			if err != nil {
				metrics.Conversions.WithLabelValues("error").Inc()
				return err
			}
			metrics.Conversions.WithLabelValues("ok").Inc()
			pdfs[i] = pdf
			completed++
			report(fmt.Sprintf("Converted %d/%d", completed, total))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pdfs, nil
}

func defaultName(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}
