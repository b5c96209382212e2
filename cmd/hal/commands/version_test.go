package commands_test

import (
	"testing"

	"github.com/fivetwenty-io/hal-client/cmd/hal/commands"
	"github.com/stretchr/testify/assert"
)

func TestNewVersionCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewVersionCommand("1.2.3", "abc123", "2026-01-01")
	assert.Equal(t, "version", cmd.Use)
	assert.Equal(t, "Display version information", cmd.Short)
	assert.NotNil(t, cmd.RunE)
}
