// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette of the wizard. All colours are ANSI
// 256-colour codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Accent marks the active step and focused widgets.
	Accent lipgloss.Color

	// Mapping state of a property row.
	Mapped   lipgloss.Color
	Unmapped lipgloss.Color

	// Status line.
	ErrorText   lipgloss.Color
	SuccessText lipgloss.Color

	// Dropdown overlay.
	OverlayBackground lipgloss.Color
	MatchForeground   lipgloss.Color
}

// DefaultTheme targets 256-colour terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	Accent: lipgloss.Color("75"), // blue

	Mapped:   lipgloss.Color("114"), // green
	Unmapped: lipgloss.Color("245"),

	ErrorText:   lipgloss.Color("196"),
	SuccessText: lipgloss.Color("114"),

	OverlayBackground: lipgloss.Color("237"),
	MatchForeground:   lipgloss.Color("220"), // amber
}
