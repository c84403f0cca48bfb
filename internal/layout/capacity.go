package layout

import (
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/r0ks0n/pdfflow/internal/logging"
	"github.com/r0ks0n/pdfflow/internal/text"
)

// Metrics measures rendered text width. *font.Provider implements it.
type Metrics interface {
	WidthOf(text string, fontRef string, fontSize float64) (float64, error)
}

// Estimator computes flow-field capacities. It is stateless apart from the
// injected metrics provider and safe for concurrent use.
type Estimator struct {
	Metrics Metrics
}

// NewEstimator returns an Estimator backed by m. A nil m forces the
// approximate fallback on every estimate.
func NewEstimator(m Metrics) *Estimator {
	return &Estimator{Metrics: m}
}

// Estimate returns the maximum number of characters of text that fit inside
// frame. Counts are runes, with one separator char charged per committed
// line, so the result is comparable against rune lengths of the input text.
//
// Empty text and degenerate frames yield 0.
func (e *Estimator) Estimate(txt string, frame TextFrame) int {
	if txt == "" || !frame.valid() {
		return 0
	}
	maxLines := frame.MaxLines()
	if maxLines <= 0 {
		return 0
	}

	measure, err := e.measureFunc(frame)
	if err != nil {
		logging.Logger().Warn("font metrics unavailable, using approximate capacity estimate",
			slog.String("font", frame.Font), slog.Any("error", err))
		return fallbackCapacity(frame)
	}

	widthPt := frame.WidthPt()
	count := 0
	used := 0

	for _, para := range strings.Split(txt, "\n") {
		if para == "" {
			// A blank line consumes one slot and counts its newline.
			if used >= maxLines {
				return count
			}
			used++
			count++
			continue
		}
		for _, line := range text.WrapParagraph(para, widthPt, frame.CharSpacing, measure) {
			count += text.RuneLen(line) + 1
			used++
			if used >= maxLines {
				return count
			}
		}
	}

	return count
}

// measureFunc binds the frame's font and size into a width function, probing
// the provider once so a broken backend is detected before wrapping starts.
func (e *Estimator) measureFunc(frame TextFrame) (text.MeasureFunc, error) {
	if e.Metrics == nil {
		return nil, errors.New("no metrics provider configured")
	}
	if _, err := e.Metrics.WidthOf("m", frame.Font, frame.FontSize); err != nil {
		return nil, err
	}
	m, ref, size := e.Metrics, frame.Font, frame.FontSize
	return func(s string) float64 {
		w, _ := m.WidthOf(s, ref, size)
		return w
	}, nil
}

// fallbackCapacity approximates capacity from average glyph width when no
// metrics are available.
func fallbackCapacity(frame TextFrame) int {
	lh := frame.LineHeightPt()
	if lh <= 0 {
		return 0
	}
	charsPerLine := math.Floor(frame.WidthPt() / (frame.FontSize * 0.42))
	linesPerPage := math.Floor(frame.UsableHeightPt() * 0.95 / lh)
	if charsPerLine <= 0 || linesPerPage <= 0 {
		return 0
	}
	return int(charsPerLine * linesPerPage * 0.92)
}
