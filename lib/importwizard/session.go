// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importwizard

import (
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/bureau-foundation/kontakte/lib/importapi"
	"github.com/bureau-foundation/kontakte/lib/vorlage"
)

// Step is the position of a session in the import flow.
type Step int

const (
	StepClosed Step = iota
	StepSelectTemplate
	StepUploading
	StepProcessing
	StepMapping
	StepFinalizing
	StepDone
)

func (step Step) String() string {
	switch step {
	case StepClosed:
		return "closed"
	case StepSelectTemplate:
		return "select_template"
	case StepUploading:
		return "uploading"
	case StepProcessing:
		return "processing"
	case StepMapping:
		return "mapping"
	case StepFinalizing:
		return "finalizing"
	case StepDone:
		return "done"
	}
	return "unknown"
}

// busy reports whether a blocking operation owns the session.
func (step Step) busy() bool {
	return step == StepUploading || step == StepProcessing || step == StepFinalizing
}

// File is one file to upload.
type File struct {
	Name    string
	Content []byte
}

// ReadFile loads a file from disk, naming it by its base name.
func ReadFile(path string) (File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return File{Name: filepath.Base(path), Content: content}, nil
}

// session is the mutable import state guarded by Wizard.mu.
type session struct {
	step     Step
	template *vorlage.Template
	files    []string
	taskID   string
	data     *importapi.ImportData
	// mappings is keyed by property name; "" means unmapped.
	mappings map[string]string
	page     int
	progress int
	status   string
	err      *Error

	redirectURL string
	imported    int
}

// returnToSelection drops everything learned since the upload began
// and records failure for display. The target template and the file
// names survive so the user can retry.
func (s *session) returnToSelection(failure *Error) {
	s.step = StepSelectTemplate
	s.taskID = ""
	s.data = nil
	s.mappings = nil
	s.page = 0
	s.progress = 0
	s.status = ""
	s.err = failure
}

func (s *session) groupCount() int {
	if s.template == nil {
		return 0
	}
	return s.template.GroupCount()
}

// inverseMappings turns property→header into header→property, skipping
// unmapped properties.
func (s *session) inverseMappings() map[string]string {
	inverse := make(map[string]string, len(s.mappings))
	for property, header := range s.mappings {
		if header != "" {
			inverse[header] = property
		}
	}
	return inverse
}

// availableHeaders lists, in header order, the headers not mapped to a
// property other than the given one.
func (s *session) availableHeaders(property string) []string {
	if s.data == nil {
		return nil
	}
	consumed := make(map[string]bool)
	for other, header := range s.mappings {
		if other != property && header != "" {
			consumed[header] = true
		}
	}
	var available []string
	for _, header := range s.data.Headers {
		if !consumed[header] {
			available = append(available, header)
		}
	}
	return available
}

// Mapping is one property row of a mapping page.
type Mapping struct {
	// Page is the index of the property's group.
	Page     int
	Group    string
	Property vorlage.Property
	// Header is the source column feeding the property, or "".
	Header string
}

// Snapshot is a read-only copy of a session for rendering.
type Snapshot struct {
	Step     Step
	Template *vorlage.Template
	Files    []string
	TaskID   string
	// Progress is the upload or processing percentage in [0, 100].
	Progress int
	// Status is the German progress or outcome line.
	Status string
	Err    *Error

	// Page is the mapping page; Page == GroupCount is the review page.
	Page       int
	GroupCount int
	Headers    []string
	// Mappings lists every template property in template order.
	Mappings   []Mapping
	Preview    []importapi.Row
	RowCount   int
	FileErrors []importapi.FileError

	RedirectURL string
	Imported    int
}

// OnReviewPage reports whether the session is on the page after the
// last group.
func (snapshot Snapshot) OnReviewPage() bool {
	return snapshot.Step == StepMapping && snapshot.Page == snapshot.GroupCount
}

// CurrentGroup returns the group shown on the current mapping page.
func (snapshot Snapshot) CurrentGroup() (vorlage.Group, bool) {
	if snapshot.Template == nil || snapshot.Step != StepMapping || snapshot.Page >= snapshot.GroupCount {
		return vorlage.Group{}, false
	}
	return snapshot.Template.Groups[snapshot.Page], true
}

// PageMappings returns the rows of the current mapping page.
func (snapshot Snapshot) PageMappings() []Mapping {
	if _, ok := snapshot.CurrentGroup(); !ok {
		return nil
	}
	var rows []Mapping
	for _, mapping := range snapshot.Mappings {
		if mapping.Page == snapshot.Page {
			rows = append(rows, mapping)
		}
	}
	return rows
}

// MappedHeaders returns header→property for every mapped property,
// which is what finalize sends.
func (snapshot Snapshot) MappedHeaders() map[string]string {
	inverse := make(map[string]string)
	for _, mapping := range snapshot.Mappings {
		if mapping.Header != "" {
			inverse[mapping.Header] = mapping.Property.Name
		}
	}
	return inverse
}

func (s *session) snapshot() Snapshot {
	snapshot := Snapshot{
		Step:        s.step,
		Template:    s.template,
		Files:       slices.Clone(s.files),
		TaskID:      s.taskID,
		Progress:    s.progress,
		Status:      s.status,
		Err:         s.err,
		Page:        s.page,
		GroupCount:  s.groupCount(),
		RedirectURL: s.redirectURL,
		Imported:    s.imported,
	}
	if s.data != nil {
		snapshot.Headers = slices.Clone(s.data.Headers)
		snapshot.RowCount = len(s.data.OriginalData)
		snapshot.FileErrors = slices.Clone(s.data.Errors)
		for _, row := range s.data.PreviewData {
			snapshot.Preview = append(snapshot.Preview, maps.Clone(row))
		}
	}
	if s.template != nil && s.mappings != nil {
		for page, group := range s.template.Groups {
			for _, property := range group.Properties {
				snapshot.Mappings = append(snapshot.Mappings, Mapping{
					Page:     page,
					Group:    group.Name,
					Property: property,
					Header:   s.mappings[property.Name],
				})
			}
		}
	}
	return snapshot
}
