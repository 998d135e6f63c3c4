// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import "github.com/charmbracelet/lipgloss"

// ScrollbarCells returns one styled cell per visible row of a list of
// total items showing rows items from offset. It returns nil when the
// whole list fits, so callers can pad with a blank column instead.
func ScrollbarCells(theme Theme, rows, total, offset int) []string {
	if rows <= 0 || total <= rows {
		return nil
	}

	thumbSize := max(1, rows*rows/total)
	thumbStart := offset * (rows - thumbSize) / (total - rows)
	thumbStart = min(max(thumbStart, 0), rows-thumbSize)

	track := lipgloss.NewStyle().Foreground(theme.BorderColor).Render("│")
	thumb := lipgloss.NewStyle().Foreground(theme.Accent).Render("┃")
	cells := make([]string, rows)
	for row := range cells {
		if row >= thumbStart && row < thumbStart+thumbSize {
			cells[row] = thumb
		} else {
			cells[row] = track
		}
	}
	return cells
}
