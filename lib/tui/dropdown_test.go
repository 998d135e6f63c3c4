// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func headerOptions(count int) []DropdownOption {
	options := []DropdownOption{{Label: "— nicht zuordnen —", Sticky: true}}
	for index := range count {
		label := fmt.Sprintf("Spalte %d", index+1)
		options = append(options, DropdownOption{Label: label, Value: label})
	}
	return options
}

func TestNewDropdownStartsOnCurrentValue(t *testing.T) {
	dropdown := NewDropdown("Vorname", headerOptions(3), "Spalte 2")
	selected, ok := dropdown.Selected()
	if !ok || selected.Value != "Spalte 2" {
		t.Errorf("Selected = %+v, %v, want Spalte 2", selected, ok)
	}

	dropdown = NewDropdown("Vorname", headerOptions(3), "gone")
	selected, _ = dropdown.Selected()
	if !selected.Sticky {
		t.Errorf("unknown current value selected %+v, want the first option", selected)
	}
}

func TestDropdownNavigationWraps(t *testing.T) {
	dropdown := NewDropdown("Ort", headerOptions(2), "")
	dropdown.MoveUp()
	if selected, _ := dropdown.Selected(); selected.Value != "Spalte 2" {
		t.Errorf("MoveUp from top selected %q, want Spalte 2", selected.Value)
	}
	dropdown.MoveDown()
	if selected, _ := dropdown.Selected(); !selected.Sticky {
		t.Errorf("MoveDown from bottom selected %q, want the first option", selected.Value)
	}
}

func TestDropdownFiltering(t *testing.T) {
	dropdown := NewDropdown("Ort", []DropdownOption{
		{Label: "— nicht zuordnen —", Sticky: true},
		{Label: "Stadt", Value: "Stadt"},
		{Label: "Ortsteil", Value: "Ortsteil"},
	}, "")

	for _, r := range "orts" {
		dropdown.TypeRune(r)
	}
	if dropdown.Query() != "orts" {
		t.Fatalf("Query = %q, want orts", dropdown.Query())
	}
	selected, ok := dropdown.Selected()
	if !ok || selected.Value != "Ortsteil" {
		t.Errorf("Selected after typing = %+v, want Ortsteil", selected)
	}

	dropdown.TypeRune('x')
	if len(dropdown.Filtered()) != 1 {
		t.Errorf("Filtered = %d options, want only the sticky one", len(dropdown.Filtered()))
	}

	dropdown.Backspace()
	dropdown.Backspace()
	dropdown.Backspace()
	dropdown.Backspace()
	dropdown.Backspace()
	dropdown.Backspace()
	if dropdown.Query() != "" || len(dropdown.Filtered()) != 3 {
		t.Errorf("after clearing: query %q, %d options", dropdown.Query(), len(dropdown.Filtered()))
	}
}

func TestDropdownSelectedWithoutOptions(t *testing.T) {
	dropdown := NewDropdown("Ort", []DropdownOption{{Label: "Stadt", Value: "Stadt"}}, "")
	dropdown.SetQuery("zzz")
	if _, ok := dropdown.Selected(); ok {
		t.Error("Selected reported an option with nothing listed")
	}
	dropdown.MoveDown()
	dropdown.MoveUp()

	lines := dropdown.Render(DefaultTheme)
	if len(lines) != 2 || !strings.Contains(ansi.Strip(lines[1]), "keine Treffer") {
		t.Errorf("Render = %q, want header and an empty notice", lines)
	}
}

func TestDropdownRenderScrolls(t *testing.T) {
	dropdown := NewDropdown("Firma", headerOptions(20), "")
	dropdown.MaxVisible = 5
	for range 10 {
		dropdown.MoveDown()
	}

	lines := dropdown.Render(DefaultTheme)
	if len(lines) != 6 {
		t.Fatalf("Render produced %d lines, want header plus 5 rows", len(lines))
	}
	width := dropdown.Width()
	for index, line := range lines {
		if got := ansi.StringWidth(line); got != width {
			t.Errorf("line %d width = %d, want %d", index, got, width)
		}
	}
	last := ansi.Strip(lines[len(lines)-1])
	if !strings.Contains(last, "> Spalte 10") {
		t.Errorf("last row = %q, want the cursor on Spalte 10", last)
	}
}
