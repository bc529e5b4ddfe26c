// Package batch drafts replies for every .eml file under a directory.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/felo/reply-drafter/internal/drafter"
	"github.com/felo/reply-drafter/internal/emlhost"
	"github.com/felo/reply-drafter/internal/host"
	"github.com/felo/reply-drafter/internal/scanner"
)

// Config wires a Runner
type Config struct {
	Drafter *drafter.Drafter
	Scanner *scanner.Scanner
	// Items configures the items opened for each file.
	Items emlhost.Options
	// Compose opens files as drafts instead of received messages.
	Compose bool
	// Input is the instruction submitted with every file.
	Input   string
	Workers int
	Logger  *slog.Logger
}

// Runner handles batch drafting operations
type Runner struct {
	drafter *drafter.Drafter
	scanner *scanner.Scanner
	items   emlhost.Options
	compose bool
	input   string
	workers int
	logger  *slog.Logger
}

// NewRunner creates a new runner
func NewRunner(cfg Config) *Runner {
	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		drafter: cfg.Drafter,
		scanner: cfg.Scanner,
		items:   cfg.Items,
		compose: cfg.Compose,
		input:   cfg.Input,
		workers: workers,
		logger:  logger,
	}
}

// Result contains statistics about a batch run
type Result struct {
	TotalFound  int
	Drafted     int
	Failed      int
	FailedFiles []string
	// Written lists the reply or draft files produced, sorted.
	Written []string
}

// Run scans and drafts all .eml files using concurrent workers
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.RunWithProgress(ctx, nil)
}

// RunWithProgress drafts all files and reports progress via a callback
func (r *Runner) RunWithProgress(ctx context.Context, progress func(current, total int, filePath string)) (*Result, error) {
	files, err := r.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan for files: %w", err)
	}

	result := &Result{
		TotalFound:  len(files),
		FailedFiles: make([]string, 0),
	}

	r.logger.Info("drafting replies", "files", result.TotalFound, "workers", r.workers)

	fileChan := make(chan string, len(files))
	resultChan := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go r.worker(ctx, &wg, fileChan, resultChan)
	}

	for _, file := range files {
		fileChan <- file
	}
	close(fileChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	processed := 0
	for res := range resultChan {
		processed++
		if progress != nil {
			progress(processed, result.TotalFound, res.filePath)
		}

		if res.err != nil {
			result.Failed++
			result.FailedFiles = append(result.FailedFiles, res.filePath)
			continue
		}
		result.Drafted++
		if res.written != "" {
			result.Written = append(result.Written, res.written)
		}
	}

	sort.Strings(result.FailedFiles)
	sort.Strings(result.Written)

	r.logger.Info("batch complete", "drafted", result.Drafted, "failed", result.Failed)
	return result, nil
}

type fileResult struct {
	filePath string
	written  string
	err      error
}

func (r *Runner) worker(ctx context.Context, wg *sync.WaitGroup, fileChan <-chan string, resultChan chan<- fileResult) {
	defer wg.Done()

	for filePath := range fileChan {
		written, err := r.processFile(ctx, filePath)
		if err != nil {
			r.logger.Warn("drafting failed", "file", filePath, "err", err)
		}
		resultChan <- fileResult{filePath: filePath, written: written, err: err}
	}
}

// processFile runs one independent submission and returns the written file
func (r *Runner) processFile(ctx context.Context, filePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mb := host.Mailbox{User: r.items.User, Now: r.items.Now}
	if r.compose {
		item, err := emlhost.OpenCompose(filePath, r.items)
		if err != nil {
			return "", err
		}
		mb.Item = item
		if _, err := r.drafter.Submit(ctx, mb, drafter.NewTextInput(r.input)); err != nil {
			return "", err
		}
		return item.Saved(), nil
	}

	item, err := emlhost.OpenRead(filePath, r.items)
	if err != nil {
		return "", err
	}
	mb.Item = item
	if _, err := r.drafter.Submit(ctx, mb, drafter.NewTextInput(r.input)); err != nil {
		return "", err
	}
	return item.Written(), nil
}
