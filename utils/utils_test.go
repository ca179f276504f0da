package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSafeRelativePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "Top level file", input: "package.json", expected: true},
		{name: "Nested file", input: "src/app/page.tsx", expected: true},
		{name: "Dotfile", input: ".gitignore", expected: true},
		{name: "Nested dotfile", input: "frontend/.gitignore", expected: true},
		{name: "Empty string", input: "", expected: false},
		{name: "Absolute path", input: "/etc/passwd", expected: false},
		{name: "Parent traversal", input: "../outside.txt", expected: false},
		{name: "Traversal in the middle", input: "src/../../outside.txt", expected: false},
		{name: "Current directory prefix", input: "./package.json", expected: false},
		{name: "Trailing slash", input: "src/", expected: false},
		{name: "Double slash", input: "src//app.tsx", expected: false},
		{name: "Backslash separator", input: "src\\app.tsx", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSafeRelativePath(tt.input))
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, SplitAndTrim(" http://a.test , http://b.test ,"))
	assert.Empty(t, SplitAndTrim(""))
}

func TestAssertInvariant(t *testing.T) {
	assert.NotPanics(t, func() { AssertInvariant(true, "holds") })
	assert.PanicsWithValue(t, "invariant violated - broken", func() { AssertInvariant(false, "broken") })
}
