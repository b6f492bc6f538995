// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. When a command handler returns an ExitError, the CLI
// main function exits with the specified code without printing the
// error string; the command is expected to have already written its
// own output.
//
// This is used for outcomes that are valid but non-zero, such as
// classifying a log in which no errors could be found: the command
// prints the explanation itself and exits 1.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. The CLI main function checks for
// this interface on returned errors to distinguish "handled non-zero
// exit" from "unexpected error to display".
func (e *ExitError) ExitCode() int {
	return e.Code
}
