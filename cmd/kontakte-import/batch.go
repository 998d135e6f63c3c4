// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/bureau-foundation/kontakte/lib/cli"
	"github.com/bureau-foundation/kontakte/lib/config"
	"github.com/bureau-foundation/kontakte/lib/importapi"
	"github.com/bureau-foundation/kontakte/lib/importwizard"
	"github.com/bureau-foundation/kontakte/lib/vorlage"
)

// exitFileErrors is the exit code of a batch import that succeeded
// while the server reported files it could not read.
const exitFileErrors = 3

type batchConfig struct {
	transport importwizard.Transport
	catalog   *vorlage.Catalog
	client    config.ClientConfig
	logger    *slog.Logger
	stdout    io.Writer
	template  *vorlage.Template
	paths     []string
	// overrides maps property → header on top of the automatic
	// mapping. An empty header unmaps the property.
	overrides map[string]string
}

// runBatch drives the wizard without a terminal: upload, apply the
// overrides, walk every mapping page, finalize.
func runBatch(ctx context.Context, batch batchConfig) error {
	files := make([]importwizard.File, 0, len(batch.paths))
	for _, path := range batch.paths {
		file, err := importwizard.ReadFile(path)
		if err != nil {
			return cli.Validation("%w", err)
		}
		files = append(files, file)
	}

	// Step changes are logged at info, other status changes at debug.
	// OnChange runs on the upload goroutine as well as this one.
	var (
		statusMu   sync.Mutex
		lastStep   importwizard.Step
		lastStatus string
	)
	wizard, err := importwizard.New(importwizard.Config{
		Transport:    batch.transport,
		Templates:    batch.catalog,
		Logger:       batch.logger,
		PollInterval: batch.client.PollInterval,
		PollTimeout:  batch.client.PollTimeout,
		MaxPolls:     batch.client.MaxPolls,
		OnChange: func(snapshot importwizard.Snapshot) {
			statusMu.Lock()
			defer statusMu.Unlock()
			if snapshot.Status == "" || snapshot.Status == lastStatus {
				return
			}
			level := slog.LevelDebug
			if snapshot.Step != lastStep {
				level = slog.LevelInfo
			}
			lastStep, lastStatus = snapshot.Step, snapshot.Status
			batch.logger.Log(ctx, level, snapshot.Status, "step", snapshot.Step.String(), "progress", snapshot.Progress)
		},
	})
	if err != nil {
		return cli.Internal("%w", err)
	}
	wizard.Open(batch.template.ID)
	defer wizard.Close()

	if err := wizard.SubmitFiles(ctx, files); err != nil {
		return wizardFailure(err)
	}

	for _, property := range sortedKeys(batch.overrides) {
		if err := wizard.SetMapping(property, batch.overrides[property]); err != nil {
			return wizardFailure(err).
				WithHint("Use --list-templates for property names; headers must match the file exactly.")
		}
	}

	snapshot := wizard.Snapshot()
	for range snapshot.GroupCount {
		if err := wizard.NextPage(); err != nil {
			return cli.Internal("%w", err)
		}
	}
	snapshot = wizard.Snapshot()
	printMapping(batch.stdout, snapshot)

	result, err := wizard.Finalize(ctx)
	if err != nil {
		return wizardFailure(err)
	}
	fmt.Fprintf(batch.stdout, "%d Kontakte importiert in %q.\n", result.Imported, batch.template.Name)

	if len(snapshot.FileErrors) > 0 {
		for _, fileErr := range snapshot.FileErrors {
			fmt.Fprintf(batch.stdout, "nicht gelesen: %s: %s\n", fileErr.Filename, fileErr.Error)
		}
		return &cli.ExitError{Code: exitFileErrors}
	}
	return nil
}

// printMapping writes the review page: one line per source column.
func printMapping(writer io.Writer, snapshot importwizard.Snapshot) {
	mapped := snapshot.MappedHeaders()
	fmt.Fprintf(writer, "%d Datensätze, %d Spalten:\n", snapshot.RowCount, len(snapshot.Headers))
	for _, header := range snapshot.Headers {
		if property, ok := mapped[header]; ok {
			fmt.Fprintf(writer, "  %-30s → %s\n", header, property)
		} else {
			fmt.Fprintf(writer, "  %-30s   wird nicht importiert\n", header)
		}
	}
}

// wizardFailure converts a wizard error into a ToolError. Network
// failures and 5xx answers may go away on retry; everything else is
// the caller's problem.
func wizardFailure(err error) *cli.ToolError {
	var wizardErr *importwizard.Error
	if !errors.As(err, &wizardErr) {
		return cli.Internal("%w", err)
	}
	if wizardErr.Kind == importwizard.KindValidation {
		return cli.Validation("%s", wizardErr.UserMessage())
	}
	var serverErr *importapi.ServerError
	var netErr net.Error
	switch {
	case errors.As(err, &serverErr) && serverErr.StatusCode >= 500,
		errors.As(err, &netErr),
		wizardErr.Kind == importwizard.KindUpload,
		wizardErr.Kind == importwizard.KindPoll,
		wizardErr.Kind == importwizard.KindPollTimeout:
		return cli.Transient("%s (%w)", wizardErr.UserMessage(), err)
	}
	return cli.Validation("%s (%w)", wizardErr.UserMessage(), err)
}
