package text

import "unicode/utf8"

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// LastParagraphBreak returns the rune index of the first newline of the last
// "\n\n" pair lying entirely within rs[:limit], or -1 if there is none.
func LastParagraphBreak(rs []rune, limit int) int {
	limit = min(limit, len(rs))
	for i := limit - 2; i >= 0; i-- {
		if rs[i] == '\n' && rs[i+1] == '\n' {
			return i
		}
	}
	return -1
}

// LastSentenceEnd returns the rune index of the last '.', '!' or '?'
// immediately followed by a space within rs[:limit], or -1.
func LastSentenceEnd(rs []rune, limit int) int {
	limit = min(limit, len(rs))
	for i := limit - 2; i >= 0; i-- {
		switch rs[i] {
		case '.', '!', '?':
			if rs[i+1] == ' ' {
				return i
			}
		}
	}
	return -1
}

// LastSpace returns the rune index of the last space within rs[:limit], or -1.
func LastSpace(rs []rune, limit int) int {
	limit = min(limit, len(rs))
	for i := limit - 1; i >= 0; i-- {
		if rs[i] == ' ' {
			return i
		}
	}
	return -1
}
