// Package pagination turns one long flowed text plus two page layouts into
// an ordered list of single-page render jobs.
package pagination

import (
	"strings"

	"github.com/r0ks0n/pdfflow/internal/text"
)

// Boundary acceptance thresholds, as fractions of the page capacity. A break
// below its threshold would leave too much of the page unused.
const (
	paragraphMinFill = 0.5
	sentenceMinFill  = 0.6
	wordMinFill      = 0.7
)

// Split partitions txt into page-sized chunks. The first chunk is cut
// against firstCap, every later one against contCap. Cuts prefer paragraph
// breaks, then sentence ends, then word gaps; when no boundary qualifies the
// text is broken hard at the capacity. All capacities and positions are rune
// counts. Chunks are whitespace-trimmed; chunks that trim to nothing are
// dropped. Split is a pure function of its three arguments.
func Split(txt string, firstCap, contCap int) []string {
	if txt == "" || text.RuneLen(txt) <= firstCap {
		return []string{txt}
	}

	var chunks []string
	remaining := txt
	capacity := firstCap

	for {
		rs := []rune(remaining)
		if len(rs) == 0 {
			break
		}
		if len(rs) <= capacity {
			if chunk := strings.TrimSpace(remaining); chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := cutPosition(rs, capacity)
		if chunk := strings.TrimSpace(string(rs[:cut])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = strings.TrimSpace(string(rs[cut:]))
		capacity = contCap
	}

	return chunks
}

// cutPosition picks the cut index for one page, looking only at the first
// capacity runes. The returned index is at least 1 so degenerate capacities
// still make progress, one rune per page.
func cutPosition(rs []rune, capacity int) int {
	if capacity < 1 {
		capacity = 1
	}

	if i := text.LastParagraphBreak(rs, capacity); i >= 0 && float64(i) > float64(capacity)*paragraphMinFill {
		return i + 2
	}
	if i := text.LastSentenceEnd(rs, capacity); i >= 0 && float64(i) > float64(capacity)*sentenceMinFill {
		return i + 2
	}
	if i := text.LastSpace(rs, capacity); i >= 0 && float64(i) > float64(capacity)*wordMinFill {
		return i + 1
	}
	return min(capacity, len(rs))
}
