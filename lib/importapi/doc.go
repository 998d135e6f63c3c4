// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package importapi defines the HTTP contract between the import
// wizard and the contact server: paths, request and response bodies,
// and the error type for non-success responses.
//
// The flow is three calls. A multipart POST to [UploadPath] carrying
// one or more "files" parts answers 202 with a task id. GET
// [StatusPath] reports "processing" with progress/total until the task
// is "complete", at which point the parsed headers and rows are
// returned once and the task is forgotten. A JSON POST to
// [FinalizePath] carries the template id, the header to property
// mapping, and the rows.
package importapi
