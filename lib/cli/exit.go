// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. The command is expected to have already written its
// own output, as kontakte-import --batch does when the server could
// not read some of the uploaded files.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Exit terminates the process for an error returned by a run
// function: silently with the code of an ExitError, after printing to
// stderr otherwise.
func Exit(err error, stderr func(format string, args ...any)) int {
	if err == nil {
		return 0
	}
	if exit, ok := err.(*ExitError); ok {
		return exit.Code
	}
	stderr("error: %v\n", err)
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		return coder.ExitCode()
	}
	return 1
}
