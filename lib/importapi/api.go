// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importapi

import (
	"fmt"
	"net/url"
)

const (
	UploadPath       = "/import/upload"
	StatusPathPrefix = "/import/status/"
	FinalizePath     = "/import/finalize"
	TemplatesPath    = "/api/vorlagen"
	AnredePathPrefix = "/api/get-anrede/"
	HealthPath       = "/health"

	// UploadField is the multipart field name, repeated once per file.
	UploadField = "files"
)

// StatusPath returns the poll path for a task.
func StatusPath(taskID string) string {
	return StatusPathPrefix + url.PathEscape(taskID)
}

// AnredePath returns the lookup path for a first name.
func AnredePath(vorname string) string {
	return AnredePathPrefix + url.PathEscape(vorname)
}

// AnredeResponse is the body of the Anrede lookup: "Herr", "Frau", or
// "" when the name is unknown or ambiguous.
type AnredeResponse struct {
	Anrede string `json:"anrede"`
}

// TaskStatus is the state reported by the status endpoint.
type TaskStatus string

const (
	StatusProcessing TaskStatus = "processing"
	StatusComplete   TaskStatus = "complete"
)

// Row is one imported record keyed by source header.
type Row map[string]string

// UploadResponse is the 202 body of an accepted upload.
type UploadResponse struct {
	TaskID string `json:"task_id"`
}

// StatusResponse is the body of a status poll. Progress and Total count
// processed and submitted files while processing; Data is set once
// complete.
type StatusResponse struct {
	Status   TaskStatus  `json:"status"`
	Progress int         `json:"progress"`
	Total    int         `json:"total"`
	Data     *ImportData `json:"data,omitempty"`
}

// Percent returns round(progress/total*100), or 0 before the total is
// known.
func (response StatusResponse) Percent() int {
	return Percent(int64(response.Progress), int64(response.Total))
}

// ImportData is the result of processing every uploaded file.
type ImportData struct {
	// Headers is the union of the headers of all files, in first-seen
	// order.
	Headers []string `json:"headers"`
	// PreviewData holds the first few rows for display.
	PreviewData  []Row       `json:"preview_data,omitempty"`
	OriginalData []Row       `json:"original_data"`
	Errors       []FileError `json:"errors,omitempty"`
}

// FileError reports a file that could not be parsed. The other files
// of the same upload are still imported.
type FileError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// FinalizeRequest asks the server to create one contact per row.
// Mappings is keyed by source header; the value is the template
// property the header feeds.
type FinalizeRequest struct {
	TemplateID   int64             `json:"vorlage_id"`
	Mappings     map[string]string `json:"mappings"`
	OriginalData []Row             `json:"original_data"`
}

// FinalizeResponse reports the outcome of a finalize call.
type FinalizeResponse struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Imported    int    `json:"imported,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ErrorResponse is the body of a failed upload or status call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Percent returns round(part/whole*100) clamped to [0, 100]. A
// non-positive whole yields 0.
func Percent(part, whole int64) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	if part >= whole {
		return 100
	}
	return int((part*200 + whole) / (whole * 2))
}

// ServerError is a non-success HTTP response from the contact server.
// Message is the server's "error" field and may be empty when the body
// was not JSON.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned HTTP %d", e.StatusCode)
}

// UserMessage renders the error for the wizard's status line.
func (e *ServerError) UserMessage() string {
	if e.Message != "" {
		return "Fehler: " + e.Message
	}
	return fmt.Sprintf("Ein Serverfehler ist aufgetreten (Status: %d).", e.StatusCode)
}
