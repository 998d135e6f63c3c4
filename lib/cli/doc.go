// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli holds what kontakte-import and kontakte-server share as
// command-line programs: categorized errors that map to exit codes,
// and the stderr logger.
//
// Each main calls a run function returning error. When the error
// implements ExitCode() int (both [ToolError] and [ExitError] do), main
// exits with that code; otherwise it prints the error and exits 1.
package cli
