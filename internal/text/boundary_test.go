package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuneLen(t *testing.T) {
	assert.Equal(t, 0, RuneLen(""))
	assert.Equal(t, 5, RuneLen("héllo"))
	assert.Equal(t, 3, RuneLen("日本語"))
}

func TestLastParagraphBreak(t *testing.T) {
	rs := []rune("first\n\nsecond\n\nthird")

	assert.Equal(t, 13, LastParagraphBreak(rs, len(rs)))
	// The window ends inside the second pair, so only the first qualifies.
	assert.Equal(t, 5, LastParagraphBreak(rs, 14))
	assert.Equal(t, -1, LastParagraphBreak(rs, 5))
	assert.Equal(t, -1, LastParagraphBreak([]rune("no breaks here"), 14))
}

func TestLastSentenceEnd(t *testing.T) {
	rs := []rune("One. Two! Three? Four")

	assert.Equal(t, 15, LastSentenceEnd(rs, len(rs)))
	assert.Equal(t, 8, LastSentenceEnd(rs, 15))
	assert.Equal(t, 3, LastSentenceEnd(rs, 6))
	assert.Equal(t, -1, LastSentenceEnd(rs, 3))
	// A period not followed by a space is not a sentence end.
	assert.Equal(t, -1, LastSentenceEnd([]rune("1.5 is not an end"), 17))
}

func TestLastSpace(t *testing.T) {
	rs := []rune("alpha beta gamma")

	assert.Equal(t, 10, LastSpace(rs, len(rs)))
	assert.Equal(t, 5, LastSpace(rs, 10))
	assert.Equal(t, -1, LastSpace(rs, 5))
}

func TestBoundaryLimitClamped(t *testing.T) {
	rs := []rune("a b")
	assert.Equal(t, 1, LastSpace(rs, 100))
	assert.Equal(t, -1, LastParagraphBreak(rs, 100))
	assert.Equal(t, -1, LastSentenceEnd(rs, 100))
}
