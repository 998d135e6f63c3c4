// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importwizard

import (
	"errors"
	"fmt"
)

// Kind classifies wizard failures.
type Kind string

const (
	// KindValidation: the caller's input is incomplete, for example no
	// target template. The step does not change.
	KindValidation Kind = "validation"

	// KindUpload: the upload request did not reach the server or no
	// response arrived.
	KindUpload Kind = "upload"

	// KindServer: the server answered the upload with anything other
	// than 202 and a task id.
	KindServer Kind = "server"

	// KindPoll: a status request failed.
	KindPoll Kind = "poll"

	// KindPollTimeout: the task kept reporting "processing" past the
	// configured poll timeout or attempt limit.
	KindPollTimeout Kind = "poll_timeout"

	// KindFinalize: the finalize request failed or was rejected.
	KindFinalize Kind = "finalize"
)

// Status line texts.
const (
	messageSelectFirst = "Bitte zuerst eine Vorlage auswählen und dann eine oder mehrere Dateien hochladen."
	messageNetwork     = "Ein Netzwerkfehler ist aufgetreten."
	messagePoll        = "Fehler bei der Abfrage des Verarbeitungsstatus."
	messagePollTimeout = "Die Verarbeitung der Dateien dauert zu lange. Bitte erneut versuchen."
	messageUnknown     = "Unbekannter Fehler."
)

var (
	// ErrBusy is returned when an upload, poll or finalize is already
	// in flight for the session.
	ErrBusy = errors.New("import wizard is busy")

	// ErrWrongStep is returned when an operation does not apply to the
	// session's current step.
	ErrWrongStep = errors.New("operation not allowed in current step")

	// ErrSuperseded is returned by a blocking operation whose session
	// was replaced by Open or Close while it ran.
	ErrSuperseded = errors.New("import session was closed or reopened")
)

// Error is a classified wizard failure. Status is the German text shown
// to the user; Err carries the underlying cause.
type Error struct {
	Kind   Kind
	Status string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns the status line text.
func (e *Error) UserMessage() string { return e.Status }

// IsKind reports whether err is a wizard Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var wizardErr *Error
	return errors.As(err, &wizardErr) && wizardErr.Kind == kind
}

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Status: messageSelectFirst, Err: fmt.Errorf(format, args...)}
}

func finalizeError(detail string, cause error) *Error {
	if detail == "" {
		detail = messageUnknown
	}
	return &Error{Kind: KindFinalize, Status: "Import fehlgeschlagen: " + detail, Err: cause}
}
