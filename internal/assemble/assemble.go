// Package assemble renders plan pages concurrently and merges the results
// into one document, preserving plan order.
package assemble

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/r0ks0n/pdfflow/internal/apperr"
	"github.com/r0ks0n/pdfflow/internal/logging"
	"github.com/r0ks0n/pdfflow/internal/pagination"
)

// DefaultConcurrency bounds parallel page renders per document.
const DefaultConcurrency = 4

// RenderFunc renders the plan page at index into standalone PDF bytes.
type RenderFunc func(ctx context.Context, index int, job pagination.PageJob) ([]byte, error)

// Assembler turns a document plan into one merged PDF. The zero Concurrency
// means DefaultConcurrency.
type Assembler struct {
	Render      RenderFunc
	Concurrency int
}

// NewAssembler creates an Assembler around render.
func NewAssembler(render RenderFunc) *Assembler {
	return &Assembler{Render: render, Concurrency: DefaultConcurrency}
}

// Assemble renders every page of plan and merges the results in plan order.
// A single failed page fails the whole document; no partial output is ever
// returned.
func (a *Assembler) Assemble(ctx context.Context, plan pagination.DocumentPlan) ([]byte, error) {
	if len(plan) == 0 {
		return nil, apperr.New(apperr.ErrInternal, "empty document plan", nil)
	}

	pages, err := a.renderAll(ctx, plan)
	if err != nil {
		return nil, err
	}

	merged, err := merge(pages)
	if err != nil {
		return nil, err
	}

	logging.Logger().Debug("assembled document",
		slog.Int("pages", len(pages)),
		slog.Int("bytes", len(merged)))
	return merged, nil
}

// renderAll renders all pages with bounded concurrency. Results land at
// their plan index regardless of completion order.
func (a *Assembler) renderAll(parent context.Context, plan pagination.DocumentPlan) ([][]byte, error) {
	workers := a.Concurrency
	if workers < 1 {
		workers = DefaultConcurrency
	}
	if workers > len(plan) {
		workers = len(plan)
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	results := make([][]byte, len(plan))
	errs := make([]error, len(plan))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, job := range plan {
		wg.Add(1)
		go func(i int, job pagination.PageJob) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}
			data, err := a.Render(ctx, i, job)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			results[i] = data
		}(i, job)
	}
	wg.Wait()

	// The lowest-index real failure wins; cancellations caused by another
	// page's failure never mask it.
	canceled := -1
	for i, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if canceled == -1 {
				canceled = i
			}
			continue
		}
		return nil, apperr.NewWithDetails(apperr.ErrPageRenderFailed,
			"failed to render page",
			fmt.Sprintf("page %d of %d", i+1, len(plan)), err)
	}
	if canceled != -1 {
		return nil, fmt.Errorf("document assembly canceled: %w", errs[canceled])
	}
	return results, nil
}

// merge concatenates single-page documents in order.
func merge(pages [][]byte) ([]byte, error) {
	if len(pages) == 1 {
		return pages[0], nil
	}
	readers := make([]io.ReadSeeker, len(pages))
	for i, p := range pages {
		readers[i] = bytes.NewReader(p)
	}
	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, nil); err != nil {
		return nil, apperr.New(apperr.ErrInternal, "failed to merge rendered pages", err)
	}
	return buf.Bytes(), nil
}

// PageCount reports the number of pages in a finished document.
func PageCount(data []byte) (int, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("failed to read document: %w", err)
	}
	return ctx.PageCount, nil
}
