package domain

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeContent(t *testing.T) {
	trimmed, ok := NormalizeContent("  hello world  ")
	assert.True(t, ok)
	assert.Equal(t, "hello world", trimmed)

	_, ok = NormalizeContent("   ")
	assert.False(t, ok)

	_, ok = NormalizeContent("")
	assert.False(t, ok)

	exact := strings.Repeat("a", MaxContentLength)
	_, ok = NormalizeContent(exact)
	assert.True(t, ok)

	_, ok = NormalizeContent(exact + "a")
	assert.False(t, ok)

	// whitespace padding does not count against the bound
	trimmed, ok = NormalizeContent("  " + exact + "  ")
	assert.True(t, ok)
	assert.Equal(t, exact, trimmed)
}

func TestNormalizeContentCountsCharactersNotBytes(t *testing.T) {
	// 2000 CJK characters occupy 6000 bytes but stay within the bound
	cjk := strings.Repeat("訊", 2000)
	trimmed, ok := NormalizeContent(cjk)
	assert.True(t, ok)
	assert.Equal(t, cjk, trimmed)

	exact := strings.Repeat("訊", MaxContentLength)
	_, ok = NormalizeContent(exact)
	assert.True(t, ok)

	_, ok = NormalizeContent(exact + "訊")
	assert.False(t, ok)
}

func TestPreview(t *testing.T) {
	short := "short message"
	assert.Equal(t, short, Preview(short))

	long := strings.Repeat("x", ContentPreviewLength+50)
	assert.Len(t, Preview(long), ContentPreviewLength)
}

func TestPreviewDoesNotSplitRunes(t *testing.T) {
	long := strings.Repeat("訊", ContentPreviewLength+10)
	preview := Preview(long)
	assert.True(t, utf8.ValidString(preview))
	assert.Equal(t, ContentPreviewLength, utf8.RuneCountInString(preview))
}
