// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the import wizard TUI.
type KeyMap struct {
	Up   key.Binding
	Down key.Binding

	// Mapping page navigation. Prev on the first page returns to file
	// selection.
	NextPage key.Binding
	PrevPage key.Binding

	// Select submits the file paths, opens the header dropdown, or
	// confirms a dropdown choice, depending on the screen.
	Select key.Binding
	// Unmap clears the mapping of the property under the cursor.
	Unmap key.Binding
	// Cancel closes the dropdown or abandons an upload in flight.
	Cancel key.Binding

	FocusToggle key.Binding
	Finalize    key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("↑", "hoch"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("↓", "runter"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("l", "right", "pgdown"),
		key.WithHelp("→", "weiter"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("h", "left", "pgup"),
		key.WithHelp("←", "zurück"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "auswählen"),
	),
	Unmap: key.NewBinding(
		key.WithKeys("x", "delete"),
		key.WithHelp("x", "Zuordnung lösen"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "abbrechen"),
	),
	FocusToggle: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("Tab", "Vorlage/Dateien"),
	),
	Finalize: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "importieren"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "beenden"),
	),
}
