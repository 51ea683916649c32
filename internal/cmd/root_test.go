package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("plain failure")))
	assert.Equal(t, 2, ExitCode(statusExitError(2, "partial")))
	assert.Equal(t, 2, ExitCode(fmt.Errorf("wrapped: %w", statusExitError(2, "partial"))))
}

func TestRootCommandWiring(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{"run", "alias", "workspace", "history"} {
		sub, _, err := root.Find([]string{name})
		assert.NoError(t, err, name)
		assert.NotNil(t, sub, name)
	}

	ws, _, err := root.Find([]string{"ws"})
	assert.NoError(t, err)
	assert.Equal(t, "workspace", ws.Name())
}
