// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

package kv

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Memory is a process-local Store. Values are sealed in memguard enclaves so
// tokens are not kept as plaintext on the Go heap.
type Memory struct {
	mu     sync.RWMutex
	values map[string]*memguard.Enclave
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]*memguard.Enclave)}
}

// Get returns the value stored under key.
func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	enclave, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	// nil enclave marks an empty value
	if enclave == nil {
		return "", nil
	}
	buf, err := enclave.Open()
	if err != nil {
		return "", err
	}
	defer buf.Destroy()
	return string(buf.Bytes()), nil
}

// Set stores value under key, replacing any previous value.
func (m *Memory) Set(key, value string) error {
	var enclave *memguard.Enclave
	if value != "" {
		enclave = memguard.NewEnclave([]byte(value))
	}
	m.mu.Lock()
	m.values[key] = enclave
	m.mu.Unlock()
	return nil
}

// Remove deletes key.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}
