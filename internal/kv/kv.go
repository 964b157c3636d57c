// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package kv defines the durable key-value contract the token store writes to,
// together with an in-memory implementation used for tests and as the
// degraded-mode fallback when durable storage is unavailable.
package kv

import "errors"

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a string key-value store. Implementations must be safe for
// concurrent use. Remove of a missing key is not an error.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}
