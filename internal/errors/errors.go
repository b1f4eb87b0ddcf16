// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package errors provides the closed error taxonomy used throughout KotaDB.
//
// Every operation that can fail returns a *KotaError tagged with one of a
// fixed set of Kinds. Retryable wrappers inspect Kind (and, for IoFailed,
// Transient) to decide whether to retry; CLI front-ends use Format/ToJSON
// for user-facing output; library callers compare against Kind with Is.
//
// # Usage
//
//	err := errors.New(errors.NotFound, "document not found",
//	    "no document with that id exists", "check the id and try again", nil)
//	if errors.Is(err, errors.NotFound) {
//	    // handle
//	}
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Kind is the closed set of error categories KotaDB ever returns.
type Kind string

// The closed error taxonomy (spec.md §7).
const (
	ValidationFailed Kind = "validation_failed"
	NotFound         Kind = "not_found"
	AlreadyExists    Kind = "already_exists"
	Corrupt          Kind = "corrupt"
	IoFailed         Kind = "io_failed"
	Timeout          Kind = "timeout"
	Cancelled        Kind = "cancelled"
	CapacityExceeded Kind = "capacity_exceeded"
	Internal         Kind = "internal"
)

// ExitCode maps a Kind to a CLI exit code, following Unix-style exit
// code conventions.
func (k Kind) ExitCode() int {
	switch k {
	case ValidationFailed:
		return 4
	case NotFound:
		return 6
	case AlreadyExists:
		return 4
	case Corrupt:
		return 2
	case IoFailed:
		return 2
	case Timeout:
		return 3
	case Cancelled:
		return 3
	case CapacityExceeded:
		return 5
	case Internal:
		return 10
	default:
		return 10
	}
}

// KotaError is a structured error carrying enough context for both
// machine dispatch (Kind, Transient) and human display (Message, Cause,
// Fix).
type KotaError struct {
	// Kind is the closed error category.
	Kind Kind

	// Operation is the name of the operation that failed, e.g. "storage.insert".
	Operation string

	// Message describes what went wrong in user-friendly language.
	Message string

	// Cause explains why the error occurred (diagnostic information).
	Cause string

	// Fix provides an actionable suggestion on how to resolve the error.
	Fix string

	// Transient is meaningful only when Kind == IoFailed: true means the
	// Retryable wrapper should retry this failure.
	Transient bool

	// Err is the underlying error, if any (enables errors.Is/As chains).
	Err error
}

// Error implements the error interface.
func (e *KotaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Err)
	}
	if e.Operation != "" {
		return fmt.Sprintf("%s: %s", e.Operation, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *KotaError) Unwrap() error {
	return e.Err
}

// New constructs a KotaError of the given kind.
func New(kind Kind, message, cause, fix string, err error) *KotaError {
	return &KotaError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
		Fix:     fix,
		Err:     err,
	}
}

// WithOperation attaches an operation name and returns the same error for chaining.
func (e *KotaError) WithOperation(op string) *KotaError {
	e.Operation = op
	return e
}

// MarkTransient marks an IoFailed error as transient (retryable) and returns it.
func MarkTransient(e *KotaError) *KotaError {
	e.Transient = true
	return e
}

// Is reports whether err carries the given Kind. It supports both
// *KotaError values and chains wrapping one.
func Is(err error, kind Kind) bool {
	var ke *KotaError
	if errors.As(err, &ke) {
		return ke.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, defaulting to Internal for
// unrecognized error values so callers always get a valid exit code.
func KindOf(err error) Kind {
	var ke *KotaError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return Internal
}

// IsTransient reports whether err is an IoFailed error marked transient.
func IsTransient(err error) bool {
	var ke *KotaError
	if errors.As(err, &ke) {
		return ke.Kind == IoFailed && ke.Transient
	}
	return false
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display.
//
// Empty Cause or Fix fields are omitted from the output. Color output
// respects the NO_COLOR environment variable and the noColor parameter.
func (e *KotaError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// JSON is the JSON-serializable view of a KotaError.
type JSON struct {
	Error    string `json:"error"`
	Kind     Kind   `json:"kind"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the KotaError to a JSON-serializable structure.
func (e *KotaError) ToJSON() JSON {
	return JSON{
		Error:    e.Message,
		Kind:     e.Kind,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.Kind.ExitCode(),
	}
}

// FatalError prints err and exits with the appropriate code; for a
// non-nil err it never returns, and a nil err is a no-op. Non-KotaError
// values are treated as Internal errors.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	var ke *KotaError
	if errors.As(err, &ke) {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			_ = enc.Encode(ke.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ke.Format(false))
		}
		os.Exit(ke.Kind.ExitCode())
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(Internal.ExitCode())
}
