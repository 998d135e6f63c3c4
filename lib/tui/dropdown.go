// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// DefaultMaxVisible is the number of option rows a dropdown shows
// before it scrolls.
const DefaultMaxVisible = 8

// minQueryWidth is the room reserved for the filter query next to the
// title.
const minQueryWidth = 12

// DropdownOption is a single selectable item in a dropdown overlay.
type DropdownOption struct {
	Label string // Display text shown in the dropdown.
	Value string // Value reported on selection.

	// Sticky options stay listed, first, whatever the filter query.
	Sticky bool
}

// DropdownOverlay renders a floating, filterable menu anchored at a
// screen position. Typing narrows the options by fuzzy match on their
// labels; up/down move the cursor within the filtered list. The model
// owns the dropdown instance and routes input to it while it is open.
type DropdownOverlay struct {
	Title      string
	Options    []DropdownOption
	AnchorX    int
	AnchorY    int
	MaxVisible int

	query    string
	filtered []RankedOption
	cursor   int
	offset   int
}

// NewDropdown creates a dropdown over options with the cursor on the
// option whose Value is current, or on the first option.
func NewDropdown(title string, options []DropdownOption, current string) *DropdownOverlay {
	dropdown := &DropdownOverlay{
		Title:      title,
		Options:    options,
		MaxVisible: DefaultMaxVisible,
	}
	dropdown.filtered = FilterOptions(options, "")
	for index, option := range dropdown.filtered {
		if option.Value == current {
			dropdown.cursor = index
			break
		}
	}
	dropdown.scrollToCursor()
	return dropdown
}

// Query returns the current filter text.
func (dropdown *DropdownOverlay) Query() string {
	return dropdown.query
}

// SetQuery refilters the options. The cursor moves to the best
// non-sticky match, or to the top when the query is empty.
func (dropdown *DropdownOverlay) SetQuery(query string) {
	dropdown.query = query
	dropdown.filtered = FilterOptions(dropdown.Options, query)
	dropdown.cursor = 0
	dropdown.offset = 0
	if strings.TrimSpace(query) == "" {
		return
	}
	for index, option := range dropdown.filtered {
		if !option.Sticky {
			dropdown.cursor = index
			break
		}
	}
	dropdown.scrollToCursor()
}

// TypeRune appends r to the filter query.
func (dropdown *DropdownOverlay) TypeRune(r rune) {
	dropdown.SetQuery(dropdown.query + string(r))
}

// Backspace removes the last rune of the filter query.
func (dropdown *DropdownOverlay) Backspace() {
	runes := []rune(dropdown.query)
	if len(runes) == 0 {
		return
	}
	dropdown.SetQuery(string(runes[:len(runes)-1]))
}

// MoveUp moves the cursor up by one, wrapping to the bottom.
func (dropdown *DropdownOverlay) MoveUp() {
	if len(dropdown.filtered) == 0 {
		return
	}
	dropdown.cursor--
	if dropdown.cursor < 0 {
		dropdown.cursor = len(dropdown.filtered) - 1
	}
	dropdown.scrollToCursor()
}

// MoveDown moves the cursor down by one, wrapping to the top.
func (dropdown *DropdownOverlay) MoveDown() {
	if len(dropdown.filtered) == 0 {
		return
	}
	dropdown.cursor++
	if dropdown.cursor >= len(dropdown.filtered) {
		dropdown.cursor = 0
	}
	dropdown.scrollToCursor()
}

// Selected returns the highlighted option. ok is false when the query
// filtered every option out.
func (dropdown *DropdownOverlay) Selected() (option DropdownOption, ok bool) {
	if len(dropdown.filtered) == 0 {
		return DropdownOption{}, false
	}
	return dropdown.filtered[dropdown.cursor].DropdownOption, true
}

// Filtered returns the options currently listed, in display order.
func (dropdown *DropdownOverlay) Filtered() []RankedOption {
	return dropdown.filtered
}

func (dropdown *DropdownOverlay) visibleRows() int {
	if dropdown.MaxVisible <= 0 {
		return DefaultMaxVisible
	}
	return dropdown.MaxVisible
}

func (dropdown *DropdownOverlay) scrollToCursor() {
	rows := dropdown.visibleRows()
	if dropdown.cursor < dropdown.offset {
		dropdown.offset = dropdown.cursor
	}
	if dropdown.cursor >= dropdown.offset+rows {
		dropdown.offset = dropdown.cursor - rows + 1
	}
}

// Width returns the total visible width of the rendered dropdown in
// columns. It depends on the unfiltered options only, so the overlay
// does not jitter while the user types.
func (dropdown *DropdownOverlay) Width() int {
	widest := ansi.StringWidth(dropdown.Title) + 2 + minQueryWidth
	for _, option := range dropdown.Options {
		widest = max(widest, 2+ansi.StringWidth(option.Label))
	}
	// One column of padding either side, one for the scrollbar.
	return widest + 3
}

// Render produces the dropdown lines for overlay splicing: a header
// with the title and filter query, then the visible option rows. Every
// line has the same visible width and a solid background.
func (dropdown *DropdownOverlay) Render(theme Theme) []string {
	totalWidth := dropdown.Width()
	bodyWidth := totalWidth - 1
	innerWidth := bodyWidth - 2

	background := lipgloss.NewStyle().Background(theme.OverlayBackground)
	titleStyle := background.Foreground(theme.HeaderForeground).Bold(true)
	queryStyle := background.Foreground(theme.Accent)
	faintStyle := background.Foreground(theme.FaintText)

	header := ansi.Truncate(dropdown.Title+": ", innerWidth, "…")
	query := dropdown.query + "▏"
	if room := innerWidth - ansi.StringWidth(header); ansi.StringWidth(query) > room {
		query = ansi.TruncateLeft(query, ansi.StringWidth(query)-room, "")
	}
	lines := []string{
		PadOverlayLine(titleStyle.Render(header)+queryStyle.Render(query), bodyWidth, background) + background.Render(" "),
	}

	if len(dropdown.filtered) == 0 {
		lines = append(lines, PadOverlayLine(faintStyle.Render("  keine Treffer"), bodyWidth, background)+background.Render(" "))
		return lines
	}

	rows := dropdown.visibleRows()
	end := min(dropdown.offset+rows, len(dropdown.filtered))
	scrollbar := ScrollbarCells(theme, rows, len(dropdown.filtered), dropdown.offset)

	for index := dropdown.offset; index < end; index++ {
		option := dropdown.filtered[index]
		rowBackground := background
		marker := "  "
		if index == dropdown.cursor {
			rowBackground = lipgloss.NewStyle().Background(theme.SelectedBackground)
			marker = "> "
		}
		labelStyle := rowBackground.Foreground(theme.NormalText)
		if option.Sticky {
			labelStyle = rowBackground.Foreground(theme.FaintText)
		}
		if index == dropdown.cursor {
			labelStyle = labelStyle.Foreground(theme.SelectedForeground)
		}
		matchStyle := rowBackground.Foreground(theme.MatchForeground).Bold(true)

		label := option.Label
		if ansi.StringWidth(label) > innerWidth-2 {
			label = ansi.Truncate(label, innerWidth-2, "…")
		}
		content := labelStyle.Render(marker) + HighlightRunes(label, option.Match.Positions, labelStyle, matchStyle)
		line := PadOverlayLine(content, bodyWidth, rowBackground)
		if scrollbar != nil {
			line += background.Render(scrollbar[index-dropdown.offset])
		} else {
			line += background.Render(" ")
		}
		lines = append(lines, line)
	}
	return lines
}
