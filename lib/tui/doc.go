// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides the terminal widgets of the import wizard: the
// colour theme, a searchable dropdown overlay, fzf-based fuzzy
// filtering, ANSI-aware overlay splicing and a scrollbar.
//
// The widgets render to strings and hold no bubbletea state of their
// own; the model that owns them routes keys and splices their output
// into its view.
package tui
