// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/kontakte/lib/cli"
	"github.com/bureau-foundation/kontakte/lib/config"
	"github.com/bureau-foundation/kontakte/lib/importui"
	"github.com/bureau-foundation/kontakte/lib/importwizard"
	"github.com/bureau-foundation/kontakte/lib/vorlage"
)

type interactiveConfig struct {
	transport importwizard.Transport
	catalog   *vorlage.Catalog
	client    config.ClientConfig
	verbose   bool
	noColor   bool
	template  *vorlage.Template
	paths     []string
}

// runInteractive shows the wizard in the alternate screen. Log records
// go to the wizard's status line while it owns the terminal.
func runInteractive(ctx context.Context, interactive interactiveConfig) error {
	tuiHandler := importui.NewTUILogHandler(levelFor(interactive.verbose))
	logger := slog.New(tuiHandler).With("command", "kontakte-import")

	bridge := importui.NewBridge()
	defer bridge.Close()

	wizard, err := importwizard.New(importwizard.Config{
		Transport:    interactive.transport,
		Templates:    interactive.catalog,
		Logger:       logger,
		PollInterval: interactive.client.PollInterval,
		PollTimeout:  interactive.client.PollTimeout,
		MaxPolls:     interactive.client.MaxPolls,
		OnChange:     bridge.Publish,
	})
	if err != nil {
		return cli.Internal("%w", err)
	}
	wizard.Open(interactive.template.ID)
	defer wizard.Close()

	profile := termenv.ColorProfile()
	if interactive.noColor {
		profile = termenv.Ascii
		lipgloss.SetColorProfile(profile)
	}

	model, err := importui.NewModel(importui.Config{
		Wizard:       wizard,
		Bridge:       bridge,
		Context:      ctx,
		ColorProfile: profile,
		Paths:        interactive.paths,
	})
	if err != nil {
		return cli.Internal("%w", err)
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	tuiHandler.SetProgram(program)
	final, err := program.Run()
	tuiHandler.SetProgram(nil)
	if err != nil && ctx.Err() == nil {
		return cli.Internal("running wizard: %w", err)
	}

	if finished, ok := final.(importui.Model); ok {
		snapshot := finished.Snapshot()
		if snapshot.Step == importwizard.StepDone {
			fmt.Printf("%d Kontakte importiert in %q.\n", snapshot.Imported, snapshot.Template.Name)
		}
	}
	return nil
}
