// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package importtask runs uploaded files through the parsers in the
// background and reports progress to pollers.
//
// A task is created by [Tracker.Start] and identified by a random hex
// id. While it runs, [Tracker.Status] reports how many of its files
// are done. Once complete, the first Status call hands out the merged
// result and forgets the task; results nobody collects are dropped by
// [Tracker.Sweep] after the configured TTL.
package importtask

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/kontakte/lib/clock"
	"github.com/bureau-foundation/kontakte/lib/importapi"
	"github.com/bureau-foundation/kontakte/lib/importer"
)

const (
	// DefaultTTL bounds how long an uncollected result is kept.
	DefaultTTL = 30 * time.Minute

	// DefaultPreviewRows is the number of rows in ImportData.PreviewData.
	DefaultPreviewRows = 5
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("importtask: tracker closed")

// File is one uploaded file.
type File struct {
	Name    string
	Content []byte
}

// ParseFunc turns one file into a table. importer.Parse in production.
type ParseFunc func(filename string, data []byte) (*importer.Table, error)

// Config holds the Tracker's collaborators. Zero values select the
// defaults.
type Config struct {
	Clock  clock.Clock
	Logger *slog.Logger
	Parse  ParseFunc

	// Workers bounds how many files of one task are parsed at once.
	Workers int

	TTL         time.Duration
	PreviewRows int
}

// Tracker owns the running and completed import tasks.
type Tracker struct {
	clock       clock.Clock
	logger      *slog.Logger
	parse       ParseFunc
	workers     int
	ttl         time.Duration
	previewRows int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	tasks  map[string]*task
	closed bool
}

type task struct {
	total      int
	done       int
	data       *importapi.ImportData
	finishedAt time.Time
}

// New creates a Tracker.
func New(config Config) *Tracker {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Parse == nil {
		config.Parse = importer.Parse
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.PreviewRows <= 0 {
		config.PreviewRows = DefaultPreviewRows
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		clock:       config.Clock,
		logger:      config.Logger,
		parse:       config.Parse,
		workers:     config.Workers,
		ttl:         config.TTL,
		previewRows: config.PreviewRows,
		ctx:         ctx,
		cancel:      cancel,
		tasks:       make(map[string]*task),
	}
}

// Start registers a task for files and begins processing it. The
// returned id is valid for Status immediately.
func (tracker *Tracker) Start(files []File) (string, error) {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")

	tracker.mu.Lock()
	if tracker.closed {
		tracker.mu.Unlock()
		return "", ErrClosed
	}
	tracker.tasks[id] = &task{total: len(files)}
	tracker.wg.Add(1)
	tracker.mu.Unlock()

	tracker.logger.Info("import task started", "task_id", id, "files", len(files))
	go func() {
		defer tracker.wg.Done()
		tracker.process(id, files)
	}()
	return id, nil
}

// fileResult is the outcome of one file, kept in upload order.
type fileResult struct {
	table *importer.Table
	err   error
}

func (tracker *Tracker) process(id string, files []File) {
	results := make([]fileResult, len(files))
	group, ctx := errgroup.WithContext(tracker.ctx)
	group.SetLimit(tracker.workers)
	for index, file := range files {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			table, err := tracker.parse(file.Name, file.Content)
			results[index] = fileResult{table: table, err: err}
			tracker.advance(id)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		tracker.logger.Info("import task abandoned", "task_id", id, "error", err)
		return
	}

	data := tracker.merge(files, results)
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	current, ok := tracker.tasks[id]
	if !ok {
		return
	}
	current.data = data
	current.finishedAt = tracker.clock.Now()
	tracker.logger.Info("import task complete",
		"task_id", id,
		"rows", len(data.OriginalData),
		"headers", len(data.Headers),
		"file_errors", len(data.Errors),
	)
}

func (tracker *Tracker) advance(id string) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if current, ok := tracker.tasks[id]; ok {
		current.done++
	}
}

func (tracker *Tracker) merge(files []File, results []fileResult) *importapi.ImportData {
	data := &importapi.ImportData{
		Headers:      []string{},
		OriginalData: []importapi.Row{},
	}
	for index, result := range results {
		if result.err != nil {
			data.Errors = append(data.Errors, importapi.FileError{
				Filename: files[index].Name,
				Error:    fileErrorMessage(result.err),
			})
			tracker.logger.Warn("import file rejected", "file", files[index].Name, "error", result.err)
			continue
		}
		for _, header := range result.table.Headers {
			if !slices.Contains(data.Headers, header) {
				data.Headers = append(data.Headers, header)
			}
		}
		data.OriginalData = append(data.OriginalData, result.table.Records...)
	}
	data.PreviewData = data.OriginalData[:min(tracker.previewRows, len(data.OriginalData))]
	return data
}

func fileErrorMessage(err error) string {
	var unsupported *importer.UnsupportedTypeError
	if errors.As(err, &unsupported) {
		return unsupported.Error()
	}
	return fmt.Sprintf("Systemfehler: %v", err)
}

// Status reports the state of task id. A complete result is returned
// once: the task is forgotten by the call that observes completion.
func (tracker *Tracker) Status(id string) (importapi.StatusResponse, bool) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	current, ok := tracker.tasks[id]
	if !ok {
		return importapi.StatusResponse{}, false
	}
	if current.data == nil {
		return importapi.StatusResponse{
			Status:   importapi.StatusProcessing,
			Progress: current.done,
			Total:    current.total,
		}, true
	}
	delete(tracker.tasks, id)
	return importapi.StatusResponse{
		Status:   importapi.StatusComplete,
		Progress: current.total,
		Total:    current.total,
		Data:     current.data,
	}, true
}

// Len returns the number of tracked tasks.
func (tracker *Tracker) Len() int {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	return len(tracker.tasks)
}

// Sweep drops complete tasks whose result has waited longer than the
// TTL and returns how many it dropped.
func (tracker *Tracker) Sweep() int {
	now := tracker.clock.Now()
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	dropped := 0
	for id, current := range tracker.tasks {
		if current.data != nil && now.Sub(current.finishedAt) > tracker.ttl {
			delete(tracker.tasks, id)
			dropped++
		}
	}
	if dropped > 0 {
		tracker.logger.Info("expired import results dropped", "count", dropped)
	}
	return dropped
}

// Run sweeps every interval until ctx is done.
func (tracker *Tracker) Run(ctx context.Context, interval time.Duration) error {
	ticker := tracker.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tracker.Sweep()
		}
	}
}

// Close stops accepting tasks, abandons unfinished ones and waits for
// their goroutines.
func (tracker *Tracker) Close() {
	tracker.mu.Lock()
	tracker.closed = true
	tracker.mu.Unlock()
	tracker.cancel()
	tracker.wg.Wait()
}
