package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{"fits in one window", "abcdef", 10, 2, []string{"abcdef"}},
		{"exact size", "abcd", 4, 1, []string{"abcd"}},
		{"overlapping windows", "abcdefghij", 4, 1, []string{"abcd", "defg", "ghij"}},
		{"short tail", "abcdefghijk", 4, 1, []string{"abcd", "defg", "ghij", "jk"}},
		{"no overlap", "abcdef", 2, 0, []string{"ab", "cd", "ef"}},
		{"empty", "", 5, 1, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.text, tt.size, tt.overlap)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), Count(utf8.RuneCountInString(tt.text), tt.size, tt.overlap))
		})
	}
}

func TestSplit_RuneSafe(t *testing.T) {
	text := strings.Repeat("ñö🎸", 10)
	chunks, err := Split(text, 7, 2)
	require.NoError(t, err)

	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 7)
	}
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
}

func TestSplit_OverlapRecoversBoundaryLine(t *testing.T) {
	line := "2025-07-01 20:00 Artist X"
	text := strings.Repeat("x", 90) + line + strings.Repeat("y", 90)

	chunks, err := Split(text, 100, 40)
	require.NoError(t, err)

	found := false
	for _, c := range chunks {
		if strings.Contains(c, line) {
			found = true
		}
	}
	assert.True(t, found, "a line shorter than the overlap must be whole in some window")
}

func TestSplit_InvalidArguments(t *testing.T) {
	_, err := Split("abc", 0, 0)
	assert.Error(t, err)

	_, err = Split("abc", 4, 4)
	assert.Error(t, err)

	_, err = Split("abc", 4, -1)
	assert.Error(t, err)
}
