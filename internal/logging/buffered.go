package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// BufferedLogHandler implements slog.Handler and captures records in memory
// as JSON lines. Tests use it to assert that a code path logged (or did not
// log) a particular message.
//
//	handler := logging.NewBufferedLogHandler(nil)
//	logging.SetLogger(slog.New(handler))
//	// ... exercise the code under test ...
//	if handler.Contains("falling back") { ... }
type BufferedLogHandler struct {
	level    slog.Leveler
	buffer   *bytes.Buffer
	mu       *sync.Mutex // shared with handlers derived via WithAttrs/WithGroup
	preAttrs []slog.Attr
	groups   []string
}

// NewBufferedLogHandler creates a handler with an empty buffer. Pass nil to
// capture all levels, or HandlerOptions with a Level to filter.
func NewBufferedLogHandler(opts *slog.HandlerOptions) *BufferedLogHandler {
	h := &BufferedLogHandler{buffer: &bytes.Buffer{}, mu: &sync.Mutex{}}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

// Enabled implements slog.Handler.
func (h *BufferedLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.level == nil {
		return true
	}
	return level >= h.level.Level()
}

// Handle implements slog.Handler, appending the record as one JSON line.
func (h *BufferedLogHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry := bufferedEntry{
		Level:   r.Level.String(),
		Message: r.Message,
		Time:    r.Time.Format(time.DateTime),
	}
	for _, attr := range h.preAttrs {
		entry.Attrs = append(entry.Attrs, h.qualified(attr))
	}
	r.Attrs(func(attr slog.Attr) bool {
		entry.Attrs = append(entry.Attrs, h.qualified(attr))
		return true
	})

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	h.buffer.Write(data)
	h.buffer.WriteByte('\n')
	return nil
}

func (h *BufferedLogHandler) qualified(attr slog.Attr) string {
	if len(h.groups) == 0 {
		return attr.String()
	}
	return strings.Join(h.groups, ".") + "." + attr.String()
}

// WithAttrs implements slog.Handler. The returned handler shares this
// handler's buffer.
func (h *BufferedLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.mu.Lock()
	defer h.mu.Unlock()

	merged := make([]slog.Attr, len(h.preAttrs), len(h.preAttrs)+len(attrs))
	copy(merged, h.preAttrs)
	merged = append(merged, attrs...)
	return &BufferedLogHandler{
		level:    h.level,
		buffer:   h.buffer,
		mu:       h.mu,
		preAttrs: merged,
		groups:   h.groups,
	}
}

// WithGroup implements slog.Handler. The returned handler shares this
// handler's buffer.
func (h *BufferedLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	groups := make([]string, len(h.groups), len(h.groups)+1)
	copy(groups, h.groups)
	groups = append(groups, name)
	return &BufferedLogHandler{
		level:    h.level,
		buffer:   h.buffer,
		mu:       h.mu,
		preAttrs: h.preAttrs,
		groups:   groups,
	}
}

// String returns all captured output.
func (h *BufferedLogHandler) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buffer.String()
}

// Contains reports whether the captured output contains the substring.
func (h *BufferedLogHandler) Contains(s string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return bytes.Contains(h.buffer.Bytes(), []byte(s))
}

// Reset clears the captured output.
func (h *BufferedLogHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buffer.Reset()
}

type bufferedEntry struct {
	Level   string   `json:"level"`
	Message string   `json:"message"`
	Time    string   `json:"time"`
	Attrs   []string `json:"attrs,omitempty"`
}
