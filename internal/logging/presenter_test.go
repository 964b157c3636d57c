package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresentErrorMasksSecrets(t *testing.T) {
	require.Empty(t, PresentError("login", nil))

	got := PresentError("login", errors.New(`request failed: {"password":"hunter22"}`))
	require.Contains(t, got, "login: request failed")
	require.NotContains(t, got, "hunter22")
}

func TestPresentErrorFoldsLines(t *testing.T) {
	got := PresentError("list", errors.New("upstream said:\n  service\tunavailable"))
	require.Equal(t, "list: upstream said: service unavailable", got)
}
