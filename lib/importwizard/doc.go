// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package importwizard drives a contact import from file selection to
// the finished import, independent of how it is rendered.
//
// A [Wizard] owns at most one import session and moves it through the
// steps
//
//	Closed → SelectTemplate → Uploading → Processing → Mapping(page) → Finalizing → Done
//
// [Wizard.SubmitFiles] uploads the files, then polls the server's task
// status on a fixed interval until the parsed data arrives, and returns
// with the session on mapping page 0. Every template property starts
// mapped to the header with the same case-folded name. The mapping
// pages are the template's groups; the page after the last group is the
// review page, from which [Wizard.Finalize] sends the header to
// property mapping and the rows to the server.
//
// Failures never leave the wizard stuck: upload, server and poll
// failures return the session to SelectTemplate, finalize failures to
// the review page. Each failure is an [*Error] carrying a German
// message for the status line.
//
// Blocking operations run under a context derived from the caller's
// and registered with the session. [Wizard.Open] and [Wizard.Close]
// cancel it, so a superseded upload or poll stops promptly and returns
// [ErrSuperseded] without touching the new session.
package importwizard
