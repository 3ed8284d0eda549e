package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepoFromURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "standard API URL",
			url:      "https://api.github.com/repos/octocat/hello-world",
			expected: "octocat/hello-world",
		},
		{
			name:     "org repository",
			url:      "https://api.github.com/repos/golang/go",
			expected: "golang/go",
		},
		{
			name:     "no repos marker falls through",
			url:      "https://example.com/octocat/hello-world",
			expected: "https://example.com/octocat/hello-world",
		},
		{
			name:     "empty URL",
			url:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, repoFromURL(tt.url))
		})
	}
}
