// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// SpliceOverlay replaces a rectangular region of a rendered view with
// overlay content. The overlay lines are placed starting at (anchorX,
// anchorY) in screen coordinates. Uses ANSI-aware truncation so escape
// sequences in the original view are preserved on both sides of the
// overlay. Lines of the overlay that fall below the view are appended.
func SpliceOverlay(view string, overlayLines []string, anchorX, anchorY int) string {
	if len(overlayLines) == 0 {
		return view
	}

	viewLines := strings.Split(view, "\n")
	for len(viewLines) < anchorY+len(overlayLines) {
		viewLines = append(viewLines, "")
	}
	overlayWidth := ansi.StringWidth(overlayLines[0])

	for index, overlayLine := range overlayLines {
		viewLineIndex := anchorY + index
		if viewLineIndex < 0 {
			continue
		}

		viewLine := viewLines[viewLineIndex]
		viewLineWidth := ansi.StringWidth(viewLine)

		var result strings.Builder
		if anchorX > 0 {
			prefix := ansi.Truncate(viewLine, anchorX, "")
			result.WriteString(prefix)
			if gap := anchorX - ansi.StringWidth(prefix); gap > 0 {
				result.WriteString(strings.Repeat(" ", gap))
			}
		}
		result.WriteString("\x1b[0m")
		result.WriteString(overlayLine)
		result.WriteString("\x1b[0m")

		suffixStart := anchorX + overlayWidth
		if suffixStart < viewLineWidth {
			result.WriteString(ansi.TruncateLeft(viewLine, suffixStart, ""))
		}

		viewLines[viewLineIndex] = result.String()
	}

	return strings.Join(viewLines, "\n")
}

// PadOverlayLine prefixes styled content with one background space and
// pads it on the right to width columns.
func PadOverlayLine(styledContent string, width int, backgroundStyle lipgloss.Style) string {
	rightPad := width - 1 - ansi.StringWidth(styledContent)
	if rightPad < 0 {
		rightPad = 0
	}
	return backgroundStyle.Render(" ") +
		styledContent +
		backgroundStyle.Render(strings.Repeat(" ", rightPad))
}

// HighlightRunes renders text with the runes at positions in match
// style and the rest in base style. Consecutive runes sharing a style
// are rendered as one segment.
func HighlightRunes(text string, positions []int, base, match lipgloss.Style) string {
	if len(positions) == 0 {
		return base.Render(text)
	}
	highlighted := make(map[int]bool, len(positions))
	for _, position := range positions {
		highlighted[position] = true
	}

	var result, segment strings.Builder
	segmentMatched := false
	flush := func() {
		if segment.Len() == 0 {
			return
		}
		if segmentMatched {
			result.WriteString(match.Render(segment.String()))
		} else {
			result.WriteString(base.Render(segment.String()))
		}
		segment.Reset()
	}
	for index, r := range []rune(text) {
		if highlighted[index] != segmentMatched {
			flush()
			segmentMatched = highlighted[index]
		}
		segment.WriteRune(r)
	}
	flush()
	return result.String()
}

// FitCell truncates text to width columns with an ellipsis and pads it
// with spaces to exactly width columns.
func FitCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	text = strings.ReplaceAll(text, "\n", " ")
	if ansi.StringWidth(text) > width {
		text = ansi.Truncate(text, width, "…")
	}
	return text + strings.Repeat(" ", width-ansi.StringWidth(text))
}
