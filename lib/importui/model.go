// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/kontakte/lib/importwizard"
	"github.com/bureau-foundation/kontakte/lib/tui"
)

// unmappedLabel is the dropdown entry that clears a mapping.
const unmappedLabel = "— nicht zuordnen —"

// propertyColumnWidth is the width of the property name column on
// mapping pages and of the header column on the review page.
const propertyColumnWidth = 26

// mappingRowsTop is the screen row of the first property on a mapping
// page: title, separator, group line, blank line.
const mappingRowsTop = 4

const defaultWidth = 80

// focusRegion identifies which widget of the selection screen receives
// keys.
type focusRegion int

const (
	focusTemplates focusRegion = iota
	focusPath
)

// operationDoneMsg reports the return of a blocking wizard operation.
type operationDoneMsg struct {
	operation string
	err       error
}

// Config holds the collaborators of a Model.
type Config struct {
	// Wizard is the controller the model drives. It must be open, and
	// its OnChange must publish to Bridge. Required.
	Wizard *importwizard.Wizard

	// Bridge delivers the wizard's snapshots. Required.
	Bridge *Bridge

	// Context bounds the uploads and finalize requests started from
	// the UI. Nil means context.Background().
	Context context.Context

	// Theme defaults to tui.DefaultTheme.
	Theme *tui.Theme

	// Keys defaults to DefaultKeyMap.
	Keys *KeyMap

	// ColorProfile is used for the progress bar. termenv.Ascii renders
	// it without colour.
	ColorProfile termenv.Profile

	// ReadFile loads a path typed by the user. Nil means
	// importwizard.ReadFile.
	ReadFile func(path string) (importwizard.File, error)

	// Paths pre-fills the file input. When set, the input starts
	// focused.
	Paths []string
}

// Model is the bubbletea model of the import wizard.
type Model struct {
	wizard   *importwizard.Wizard
	bridge   *Bridge
	ctx      context.Context
	theme    tui.Theme
	keys     KeyMap
	readFile func(string) (importwizard.File, error)

	snapshot importwizard.Snapshot

	focus          focusRegion
	templateCursor int
	pathInput      textinput.Model
	progressBar    progress.Model

	rowCursor        int
	dropdown         *tui.DropdownOverlay
	dropdownProperty string

	// notice is a local error (unreadable file, rejected operation)
	// shown until the next key press.
	notice string

	logLine     string
	logLevel    slog.Level
	logSequence int

	width  int
	height int
}

// NewModel creates a Model showing the wizard's current state.
func NewModel(config Config) (Model, error) {
	if config.Wizard == nil {
		return Model{}, errors.New("importui: Wizard is required")
	}
	if config.Bridge == nil {
		return Model{}, errors.New("importui: Bridge is required")
	}
	if config.Context == nil {
		config.Context = context.Background()
	}
	theme := tui.DefaultTheme
	if config.Theme != nil {
		theme = *config.Theme
	}
	keys := DefaultKeyMap
	if config.Keys != nil {
		keys = *config.Keys
	}
	if config.ReadFile == nil {
		config.ReadFile = importwizard.ReadFile
	}

	pathInput := textinput.New()
	pathInput.Prompt = "› "
	pathInput.Placeholder = "kontakte.csv, adressen.vcf"
	pathInput.Width = defaultWidth - 8
	pathInput.SetValue(strings.Join(config.Paths, ", "))

	progressBar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(defaultWidth-8),
		progress.WithColorProfile(config.ColorProfile),
	)

	model := Model{
		wizard:      config.Wizard,
		bridge:      config.Bridge,
		ctx:         config.Context,
		theme:       theme,
		keys:        keys,
		readFile:    config.ReadFile,
		pathInput:   pathInput,
		progressBar: progressBar,
		width:       defaultWidth,
	}
	if len(config.Paths) > 0 {
		model.focus = focusPath
		model.pathInput.Focus()
	}
	model.applySnapshot(config.Wizard.Snapshot())
	return model, nil
}

// Snapshot returns the last wizard state the model rendered.
func (model Model) Snapshot() importwizard.Snapshot {
	return model.snapshot
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return tea.Batch(model.bridge.listen(), textinput.Blink)
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		model.notice = ""
		return model.handleKey(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.progressBar.Width = max(10, min(60, message.Width-8))
		model.pathInput.Width = max(10, message.Width-8)

	case snapshotMsg:
		model.applySnapshot(message.snapshot)
		if model.snapshot.Step == importwizard.StepClosed {
			return model, tea.Quit
		}
		return model, model.bridge.listen()

	case operationDoneMsg:
		model.handleOperationDone(message)

	case logRecordMsg:
		model.logSequence++
		model.logLine = message.Summary
		model.logLevel = message.Level
		sequence := model.logSequence
		return model, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{sequence: sequence}
		})

	case logRecordFadeMsg:
		if message.sequence == model.logSequence {
			model.logLine = ""
		}

	default:
		if model.focus == focusPath {
			var cmd tea.Cmd
			model.pathInput, cmd = model.pathInput.Update(message)
			return model, cmd
		}
	}
	return model, nil
}

// applySnapshot adopts a new wizard state. The row cursor resets when
// the step or page changes.
func (model *Model) applySnapshot(snapshot importwizard.Snapshot) {
	previous := model.snapshot
	model.snapshot = snapshot
	if snapshot.Step != previous.Step || snapshot.Page != previous.Page {
		model.rowCursor = 0
		model.dismissDropdown()
	}
	if rows := len(snapshot.PageMappings()); model.rowCursor >= rows {
		model.rowCursor = max(0, rows-1)
	}
	if snapshot.Template != nil {
		for index, template := range model.wizard.Templates().Templates {
			if template.ID == snapshot.Template.ID {
				model.templateCursor = index
				break
			}
		}
	}
}

// handleOperationDone surfaces errors that the snapshot does not carry.
// Wizard failures are already recorded in the session and shown from
// there.
func (model *Model) handleOperationDone(message operationDoneMsg) {
	if message.err == nil || errors.Is(message.err, importwizard.ErrSuperseded) {
		return
	}
	var wizardErr *importwizard.Error
	if errors.As(message.err, &wizardErr) {
		return
	}
	model.notice = message.err.Error()
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if message.Type == tea.KeyCtrlC {
		return model, tea.Quit
	}
	if model.dropdown != nil {
		return model.handleDropdownKeys(message)
	}

	switch model.snapshot.Step {
	case importwizard.StepSelectTemplate:
		return model.handleSelectKeys(message)

	case importwizard.StepUploading, importwizard.StepProcessing:
		switch {
		case key.Matches(message, model.keys.Cancel):
			model.wizard.Open(model.templateID())
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit
		}

	case importwizard.StepMapping:
		if model.snapshot.OnReviewPage() {
			return model.handleReviewKeys(message)
		}
		return model.handleMappingKeys(message)

	case importwizard.StepDone, importwizard.StepClosed:
		if key.Matches(message, model.keys.Select) || key.Matches(message, model.keys.Quit) {
			return model, tea.Quit
		}
	}
	return model, nil
}

func (model Model) handleSelectKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(message, model.keys.FocusToggle) {
		if model.focus == focusTemplates {
			model.focus = focusPath
			return model, model.pathInput.Focus()
		}
		model.focus = focusTemplates
		model.pathInput.Blur()
		return model, nil
	}

	if model.focus == focusPath {
		switch {
		case key.Matches(message, model.keys.Select):
			return model, model.submit()
		case key.Matches(message, model.keys.Cancel):
			model.focus = focusTemplates
			model.pathInput.Blur()
			return model, nil
		}
		var cmd tea.Cmd
		model.pathInput, cmd = model.pathInput.Update(message)
		return model, cmd
	}

	templates := model.wizard.Templates().Templates
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.Up):
		if len(templates) > 0 {
			model.templateCursor = (model.templateCursor - 1 + len(templates)) % len(templates)
			model.selectTemplate()
		}
	case key.Matches(message, model.keys.Down):
		if len(templates) > 0 {
			model.templateCursor = (model.templateCursor + 1) % len(templates)
			model.selectTemplate()
		}
	case key.Matches(message, model.keys.Select):
		model.selectTemplate()
		model.focus = focusPath
		return model, model.pathInput.Focus()
	}
	return model, nil
}

func (model *Model) selectTemplate() {
	templates := model.wizard.Templates().Templates
	if model.templateCursor >= len(templates) {
		return
	}
	if err := model.wizard.SelectTemplate(templates[model.templateCursor].ID); err != nil {
		model.notice = userMessage(err)
	}
}

// templateID returns the id of the session's target template, or of
// the template under the cursor when none is chosen.
func (model Model) templateID() int64 {
	if model.snapshot.Template != nil {
		return model.snapshot.Template.ID
	}
	templates := model.wizard.Templates().Templates
	if model.templateCursor < len(templates) {
		return templates[model.templateCursor].ID
	}
	return 0
}

// submit reads the typed paths and uploads them. Reading happens in the
// command so large files do not stall rendering.
func (model *Model) submit() tea.Cmd {
	paths := splitPaths(model.pathInput.Value())
	if len(paths) == 0 {
		model.notice = "Bitte mindestens eine Datei angeben."
		return nil
	}
	wizard, ctx, readFile := model.wizard, model.ctx, model.readFile
	return func() tea.Msg {
		files := make([]importwizard.File, 0, len(paths))
		for _, path := range paths {
			file, err := readFile(path)
			if err != nil {
				return operationDoneMsg{operation: "upload", err: fmt.Errorf("Datei %s kann nicht gelesen werden: %w", path, err)}
			}
			files = append(files, file)
		}
		return operationDoneMsg{operation: "upload", err: wizard.SubmitFiles(ctx, files)}
	}
}

// splitPaths splits comma-separated input into trimmed, non-empty paths.
func splitPaths(input string) []string {
	var paths []string
	for _, path := range strings.Split(input, ",") {
		if path = strings.TrimSpace(path); path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}

func (model Model) handleMappingKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := model.snapshot.PageMappings()
	var err error
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.Up):
		if len(rows) > 0 {
			model.rowCursor = (model.rowCursor - 1 + len(rows)) % len(rows)
		}
	case key.Matches(message, model.keys.Down):
		if len(rows) > 0 {
			model.rowCursor = (model.rowCursor + 1) % len(rows)
		}
	case key.Matches(message, model.keys.NextPage):
		err = model.wizard.NextPage()
	case key.Matches(message, model.keys.PrevPage):
		err = model.wizard.PrevPage()
	case key.Matches(message, model.keys.Select):
		model.openDropdown()
	case key.Matches(message, model.keys.Unmap):
		if model.rowCursor < len(rows) {
			err = model.wizard.SetMapping(rows[model.rowCursor].Property.Name, "")
		}
	}
	if err != nil {
		model.notice = userMessage(err)
	}
	return model, nil
}

func (model *Model) openDropdown() {
	rows := model.snapshot.PageMappings()
	if model.rowCursor >= len(rows) {
		return
	}
	row := rows[model.rowCursor]
	headers, err := model.wizard.AvailableHeaders(row.Property.Name)
	if err != nil {
		model.notice = userMessage(err)
		return
	}
	options := make([]tui.DropdownOption, 0, len(headers)+1)
	options = append(options, tui.DropdownOption{Label: unmappedLabel, Sticky: true})
	for _, header := range headers {
		options = append(options, tui.DropdownOption{Label: header, Value: header})
	}
	dropdown := tui.NewDropdown(row.Property.Name, options, row.Header)
	dropdown.AnchorX = 2 + propertyColumnWidth + 2
	dropdown.AnchorY = mappingRowsTop + model.rowCursor + 1
	model.dropdown = dropdown
	model.dropdownProperty = row.Property.Name
}

func (model *Model) dismissDropdown() {
	model.dropdown = nil
	model.dropdownProperty = ""
}

// handleDropdownKeys routes input to the open dropdown. Printable keys
// filter, so only arrows navigate.
func (model Model) handleDropdownKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		model.dismissDropdown()
	case tea.KeyUp:
		model.dropdown.MoveUp()
	case tea.KeyDown:
		model.dropdown.MoveDown()
	case tea.KeyBackspace:
		model.dropdown.Backspace()
	case tea.KeySpace:
		model.dropdown.TypeRune(' ')
	case tea.KeyRunes:
		for _, r := range message.Runes {
			model.dropdown.TypeRune(r)
		}
	case tea.KeyEnter:
		selected, ok := model.dropdown.Selected()
		if !ok {
			return model, nil
		}
		property := model.dropdownProperty
		model.dismissDropdown()
		if err := model.wizard.SetMapping(property, selected.Value); err != nil {
			model.notice = userMessage(err)
		}
	}
	return model, nil
}

func (model Model) handleReviewKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit
	case key.Matches(message, model.keys.PrevPage):
		if err := model.wizard.PrevPage(); err != nil {
			model.notice = userMessage(err)
		}
	case key.Matches(message, model.keys.Finalize):
		wizard, ctx := model.wizard, model.ctx
		return model, func() tea.Msg {
			_, err := wizard.Finalize(ctx)
			return operationDoneMsg{operation: "finalize", err: err}
		}
	}
	return model, nil
}

// userMessage returns the German text of a wizard failure, or the error
// text of anything else.
func userMessage(err error) string {
	var wizardErr *importwizard.Error
	if errors.As(err, &wizardErr) {
		return wizardErr.UserMessage()
	}
	return err.Error()
}

// View implements tea.Model.
func (model Model) View() string {
	if model.snapshot.Step == importwizard.StepClosed {
		return ""
	}

	separator := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.width))

	var body string
	switch model.snapshot.Step {
	case importwizard.StepSelectTemplate:
		body = model.renderSelect()
	case importwizard.StepUploading, importwizard.StepProcessing, importwizard.StepFinalizing:
		body = model.renderProgress()
	case importwizard.StepMapping:
		if model.snapshot.OnReviewPage() {
			body = model.renderReview()
		} else {
			body = model.renderMapping()
		}
	case importwizard.StepDone:
		body = model.renderDone()
	}

	output := strings.Join([]string{
		model.renderHeader(),
		separator,
		body,
		separator,
		model.renderStatus(),
		model.renderHelp(),
	}, "\n")

	if model.dropdown != nil {
		output = tui.SpliceOverlay(output, model.dropdown.Render(model.theme),
			model.dropdown.AnchorX, model.dropdown.AnchorY)
	}
	return output
}

func (model Model) renderHeader() string {
	title := lipgloss.NewStyle().Foreground(model.theme.HeaderForeground).Bold(true).Render("Kontakte importieren")
	step := lipgloss.NewStyle().Foreground(model.theme.Accent).Render(stepLabel(model.snapshot))
	header := title + "  " + step
	if model.snapshot.Template != nil {
		header += lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("  Vorlage: " + model.snapshot.Template.Name)
	}
	return header
}

func stepLabel(snapshot importwizard.Snapshot) string {
	switch snapshot.Step {
	case importwizard.StepSelectTemplate:
		return "Vorlage & Dateien"
	case importwizard.StepUploading:
		return "Hochladen"
	case importwizard.StepProcessing:
		return "Verarbeitung"
	case importwizard.StepMapping:
		if snapshot.OnReviewPage() {
			return "Prüfen"
		}
		return fmt.Sprintf("Zuordnung %d/%d", snapshot.Page+1, snapshot.GroupCount)
	case importwizard.StepFinalizing:
		return "Import läuft"
	case importwizard.StepDone:
		return "Fertig"
	}
	return ""
}

func (model Model) renderSelect() string {
	normal := lipgloss.NewStyle().Foreground(model.theme.NormalText)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	label := lipgloss.NewStyle().Foreground(model.theme.HeaderForeground).Bold(true)
	cursorStyle := lipgloss.NewStyle().Foreground(model.theme.Accent).Bold(true)

	lines := []string{label.Render("Vorlage")}
	for index, template := range model.wizard.Templates().Templates {
		marker := "  "
		style := normal
		if index == model.templateCursor {
			marker = "> "
			if model.focus == focusTemplates {
				style = cursorStyle
			}
		}
		line := style.Render(marker + template.Name)
		if template.IsStandard {
			line += faint.Render(" (Standard)")
		}
		lines = append(lines, "  "+line)
	}

	lines = append(lines, "", label.Render("Dateien")+faint.Render(" (durch Komma getrennt: .csv .txt .xlsx .vcf)"))
	lines = append(lines, "  "+model.pathInput.View())
	if len(model.snapshot.Files) > 0 {
		lines = append(lines, "", faint.Render("Zuletzt: "+strings.Join(model.snapshot.Files, ", ")))
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderProgress() string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	lines := []string{
		lipgloss.NewStyle().Foreground(model.theme.NormalText).Render(model.snapshot.Status),
		"",
	}
	if model.snapshot.Step != importwizard.StepFinalizing {
		lines = append(lines, model.progressBar.ViewAs(float64(model.snapshot.Progress)/100))
	}
	if len(model.snapshot.Files) > 0 {
		lines = append(lines, "", faint.Render(strings.Join(model.snapshot.Files, ", ")))
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderMapping() string {
	group, _ := model.snapshot.CurrentGroup()
	normal := lipgloss.NewStyle().Foreground(model.theme.NormalText)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	mapped := lipgloss.NewStyle().Foreground(model.theme.Mapped)
	unmapped := lipgloss.NewStyle().Foreground(model.theme.Unmapped).Italic(true)
	selected := lipgloss.NewStyle().
		Background(model.theme.SelectedBackground).
		Foreground(model.theme.SelectedForeground)

	lines := []string{
		lipgloss.NewStyle().Foreground(model.theme.HeaderForeground).Bold(true).Render(group.Name) +
			faint.Render(fmt.Sprintf("  Seite %d von %d", model.snapshot.Page+1, model.snapshot.GroupCount)),
		"",
	}

	rows := model.snapshot.PageMappings()
	for index, row := range rows {
		marker := "  "
		name := normal
		if index == model.rowCursor {
			marker = "> "
			name = selected
		}
		line := name.Render(marker+tui.FitCell(row.Property.Name, propertyColumnWidth)) + "  "
		if row.Header != "" {
			line += mapped.Render("← " + row.Header)
		} else {
			line += unmapped.Render("nicht zugeordnet")
		}
		lines = append(lines, line)
	}

	lines = append(lines, "")
	if model.rowCursor < len(rows) && rows[model.rowCursor].Header != "" {
		header := rows[model.rowCursor].Header
		var samples []string
		for _, row := range model.snapshot.Preview {
			if value := strings.TrimSpace(row[header]); value != "" {
				samples = append(samples, value)
			}
		}
		if len(samples) > 0 {
			lines = append(lines, faint.Render("Beispiele: "+tui.FitCell(strings.Join(samples, " · "), max(10, model.width-12))))
		}
	}
	lines = append(lines, model.renderFileErrors()...)
	return strings.Join(lines, "\n")
}

func (model Model) renderFileErrors() []string {
	style := lipgloss.NewStyle().Foreground(model.theme.ErrorText)
	var lines []string
	for _, fileError := range model.snapshot.FileErrors {
		lines = append(lines, style.Render(fmt.Sprintf("%s: %s", fileError.Filename, fileError.Error)))
	}
	return lines
}

func (model Model) renderReview() string {
	normal := lipgloss.NewStyle().Foreground(model.theme.NormalText)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	mapped := lipgloss.NewStyle().Foreground(model.theme.Mapped)

	lines := []string{
		lipgloss.NewStyle().Foreground(model.theme.HeaderForeground).Bold(true).Render("Zuordnung prüfen"),
		"",
	}
	inverse := model.snapshot.MappedHeaders()
	for _, header := range model.snapshot.Headers {
		cell := normal.Render("  " + tui.FitCell(header, propertyColumnWidth))
		if property, ok := inverse[header]; ok {
			lines = append(lines, cell+"  "+mapped.Render("→ "+property))
		} else {
			lines = append(lines, cell+"  "+faint.Render("wird nicht importiert"))
		}
	}
	if len(model.snapshot.Headers) == 0 {
		lines = append(lines, faint.Render("  Keine Spalten gefunden."))
	}

	lines = append(lines, "", normal.Render(fmt.Sprintf("%d Datensätze, %d von %d Eigenschaften zugeordnet.",
		model.snapshot.RowCount, len(inverse), len(model.snapshot.Mappings))))
	lines = append(lines, model.renderFileErrors()...)
	return strings.Join(lines, "\n")
}

func (model Model) renderDone() string {
	lines := []string{
		lipgloss.NewStyle().Foreground(model.theme.SuccessText).Bold(true).Render(model.snapshot.Status),
	}
	if model.snapshot.RedirectURL != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(model.theme.NormalText).Render("Weiter zu: "+model.snapshot.RedirectURL))
	}
	return strings.Join(lines, "\n")
}

// renderStatus shows, in order of precedence: a local notice, the
// session's last error, a recent log record, the wizard status text.
func (model Model) renderStatus() string {
	errorStyle := lipgloss.NewStyle().Foreground(model.theme.ErrorText).Bold(true)
	switch {
	case model.notice != "":
		return errorStyle.Render(model.notice)
	case model.snapshot.Err != nil:
		return errorStyle.Render(model.snapshot.Err.UserMessage())
	case model.logLine != "":
		style := lipgloss.NewStyle().Foreground(model.theme.FaintText)
		if model.logLevel >= slog.LevelWarn {
			style = errorStyle
		}
		return style.Render(model.logLine)
	case model.snapshot.Step == importwizard.StepDone:
		return lipgloss.NewStyle().Foreground(model.theme.SuccessText).Render(model.snapshot.Status)
	}
	return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(model.snapshot.Status)
}

func (model Model) renderHelp() string {
	var bindings []key.Binding
	switch {
	case model.dropdown != nil:
		return lipgloss.NewStyle().Foreground(model.theme.HelpText).
			Render("Tippen filtert  ↑↓ wählen  Enter übernehmen  Esc schließen")
	case model.snapshot.Step == importwizard.StepSelectTemplate:
		bindings = []key.Binding{model.keys.Up, model.keys.Down, model.keys.FocusToggle, model.keys.Select, model.keys.Quit}
	case model.snapshot.Step == importwizard.StepUploading, model.snapshot.Step == importwizard.StepProcessing:
		bindings = []key.Binding{model.keys.Cancel, model.keys.Quit}
	case model.snapshot.OnReviewPage():
		bindings = []key.Binding{model.keys.PrevPage, model.keys.Finalize, model.keys.Quit}
	case model.snapshot.Step == importwizard.StepMapping:
		bindings = []key.Binding{model.keys.Up, model.keys.Down, model.keys.Select, model.keys.Unmap, model.keys.PrevPage, model.keys.NextPage, model.keys.Quit}
	case model.snapshot.Step == importwizard.StepDone:
		bindings = []key.Binding{model.keys.Select, model.keys.Quit}
	}

	var parts []string
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(" " + strings.Join(parts, "  "))
}
