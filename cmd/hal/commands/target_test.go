//nolint:testpackage // Need access to internal helpers
package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTargetCommand(t *testing.T) {
	t.Parallel()

	cmd := NewTargetCommand()
	assert.Equal(t, "target [ENDPOINT]", cmd.Use)
	assert.Equal(t, "Set or show the targeted API", cmd.Short)
	assert.NotNil(t, cmd.RunE)
	assert.NotNil(t, cmd.Args)

	nameFlag := cmd.Flags().Lookup("name")
	assert.NotNil(t, nameFlag)
	assert.Equal(t, "n", nameFlag.Shorthand)
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
		expected string
	}{
		{
			name:     "bare host gets https",
			endpoint: "api.example.com",
			expected: "https://api.example.com",
		},
		{
			name:     "existing scheme kept",
			endpoint: "http://localhost:8080",
			expected: "http://localhost:8080",
		},
		{
			name:     "trailing slash trimmed",
			endpoint: "https://api.example.com/",
			expected: "https://api.example.com",
		},
		{
			name:     "surrounding whitespace trimmed",
			endpoint: "  api.example.com ",
			expected: "https://api.example.com",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, normalizeEndpoint(tt.endpoint))
		})
	}
}

func TestHostKeyFromEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
		expected string
	}{
		{
			name:     "plain host",
			endpoint: "https://api.example.com",
			expected: "api.example.com",
		},
		{
			name:     "port kept so hosts stay distinct",
			endpoint: "http://localhost:8080",
			expected: "localhost:8080",
		},
		{
			name:     "path stripped",
			endpoint: "https://api.example.com/v2/base",
			expected: "api.example.com",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, hostKeyFromEndpoint(tt.endpoint))
		})
	}
}
