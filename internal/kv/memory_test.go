package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	m := NewMemory()

	_, err := m.Get("token")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set("token", "abc"))
	got, err := m.Get("token")
	require.NoError(t, err)
	require.Equal(t, "abc", got)

	require.NoError(t, m.Set("token", "def"))
	got, err = m.Get("token")
	require.NoError(t, err)
	require.Equal(t, "def", got)

	require.NoError(t, m.Set("empty", ""))
	got, err = m.Get("empty")
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, m.Remove("token"))
	require.NoError(t, m.Remove("token"))
	_, err = m.Get("token")
	require.ErrorIs(t, err, ErrNotFound)
}
