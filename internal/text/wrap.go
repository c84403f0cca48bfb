// Package text implements the word wrapping and boundary scanning used by
// the pagination engine. Positions handed out by this package are rune
// indexes, never byte offsets, so cuts cannot land inside a UTF-8 sequence.
package text

import "unicode"

// MeasureFunc returns the rendered width of s in points.
type MeasureFunc func(s string) float64

// Words splits text into whitespace-separated words.
func Words(text string) []string {
	var words []string
	var current string

	for _, r := range text {
		if unicode.IsSpace(r) {
			if current != "" {
				words = append(words, current)
				current = ""
			}
		} else {
			current += string(r)
		}
	}

	if current != "" {
		words = append(words, current)
	}

	return words
}

// WrapParagraph greedily wraps a single paragraph (text without newlines)
// into lines no wider than maxWidth points. Line width is measured with
// measure plus charSpacing per rune. A word that alone exceeds maxWidth stays
// on its own overlong line; wrapping never cuts inside a word.
func WrapParagraph(para string, maxWidth, charSpacing float64, measure MeasureFunc) []string {
	words := Words(para)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var buffer string

	for _, word := range words {
		candidate := word
		if buffer != "" {
			candidate = buffer + " " + word
		}
		width := measure(candidate) + charSpacing*float64(RuneLen(candidate))
		if width > maxWidth && buffer != "" {
			lines = append(lines, buffer)
			buffer = word
		} else {
			buffer = candidate
		}
	}

	if buffer != "" {
		lines = append(lines, buffer)
	}

	return lines
}
