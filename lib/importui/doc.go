// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package importui is the terminal front end of the import wizard.
//
// [Model] is a bubbletea model that renders [importwizard.Snapshot]
// values and turns keys into wizard operations. It never mutates import
// state itself: every change goes through the [importwizard.Wizard],
// whose OnChange callback feeds a [Bridge], which delivers snapshots to
// the program as messages. Blocking operations (SubmitFiles, Finalize)
// run as tea.Cmds so the view keeps redrawing while they are in flight.
//
// The screens follow the wizard's steps:
//
//   - Vorlage & Dateien: template list and a file path input
//   - Hochladen / Verarbeitung: progress bar and status text
//   - Zuordnung: one page per template group; enter opens a fuzzy
//     filtered dropdown of the headers still available for the
//     property under the cursor
//   - Prüfen: header to property summary; f imports
//   - Fertig: imported count and redirect target
//
// [TUILogHandler] routes slog records into the status line while the
// program owns the terminal.
package importui
