// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure the auth core surfaces carries a machine-readable Kind so callers
// can decide between "treat as logged out", "show inline form error" and
// "retry later" without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// NetworkError indicates that no response was received from the backend.
	// A session must not be assumed invalid because of it.
	NetworkError Kind = "network_error"
	// AuthRejected indicates that the backend explicitly denied the credential.
	AuthRejected Kind = "auth_rejected"
	// ValidationError indicates malformed input that should be fixed by the user.
	ValidationError Kind = "validation_error"
	// StorageUnavailable indicates that durable client storage could not be used.
	StorageUnavailable Kind = "storage_unavailable"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
	// Fields carries per-field messages for ValidationError.
	Fields map[string]string
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Invalid builds a ValidationError with per-field messages.
func Invalid(msg string, fields map[string]string) *E {
	return &E{Kind: ValidationError, Message: msg, Fields: fields}
}

// KindOf returns the Kind of the first *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FieldsOf returns per-field validation messages attached to err, if any.
func FieldsOf(err error) map[string]string {
	var e *E
	if stderrors.As(err, &e) {
		return e.Fields
	}
	return nil
}
