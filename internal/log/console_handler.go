package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// levelColors maps slog levels to terminal colors. Debug output stays
// uncolored so that verbose runs remain readable.
var levelColors = map[slog.Level]*color.Color{
	slog.LevelInfo:  color.New(color.FgGreen),
	slog.LevelWarn:  color.New(color.FgYellow),
	slog.LevelError: color.New(color.FgRed, color.Bold),
}

// ConsoleHandler is a slog.Handler that writes compact, level-colored
// lines of the form:
//
//	warn: directory not under annex control path=/data/sub-01
//
// It implements the full slog.Handler contract including attribute
// and group accumulation via WithAttrs/WithGroup.
type ConsoleHandler struct {
	// mu guards output; slog may call Handle from multiple goroutines.
	mu *sync.Mutex

	// output is the destination writer, typically os.Stderr.
	output io.Writer

	// level is the minimum level this handler records.
	level slog.Level

	// noColor disables ANSI escapes regardless of terminal detection.
	noColor bool

	// attrs holds attributes accumulated through WithAttrs.
	attrs []slog.Attr

	// groups holds open group names from WithGroup, prefixed onto
	// attribute keys.
	groups []string
}

// Option configures a ConsoleHandler.
type Option func(*ConsoleHandler)

// WithLevel sets the minimum level the handler records.
func WithLevel(level slog.Level) Option {
	return func(h *ConsoleHandler) {
		h.level = level
	}
}

// WithoutColor disables colorized output. The fatih/color package
// already honors NO_COLOR and non-terminal writers; this option is for
// the explicit --no-color flag.
func WithoutColor(disable bool) Option {
	return func(h *ConsoleHandler) {
		h.noColor = disable
	}
}

// NewConsoleHandler creates a ConsoleHandler writing to output.
func NewConsoleHandler(output io.Writer, opts ...Option) *ConsoleHandler {
	h := &ConsoleHandler{
		mu:     &sync.Mutex{},
		output: output,
		level:  slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled implements slog.Handler.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder

	label := strings.ToLower(record.Level.String())
	if c, ok := levelColors[record.Level]; ok && !h.noColor {
		label = c.Sprint(label)
	}
	sb.WriteString(label)
	sb.WriteString(": ")
	sb.WriteString(record.Message)

	prefix := strings.Join(h.groups, ".")
	for _, attr := range h.attrs {
		h.writeAttr(&sb, prefix, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		h.writeAttr(&sb, prefix, attr)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.output, sb.String())
	return err
}

// writeAttr appends a single key=value pair, applying the group prefix.
func (h *ConsoleHandler) writeAttr(sb *strings.Builder, prefix string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	key := attr.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	fmt.Fprintf(sb, " %s=%v", key, attr.Value.Resolve())
}

// WithAttrs implements slog.Handler.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

// NewLogger is a convenience constructor returning a *slog.Logger
// backed by a ConsoleHandler. Verbose lowers the level to debug.
func NewLogger(output io.Writer, verbose, noColor bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(NewConsoleHandler(output, WithLevel(level), WithoutColor(noColor)))
}
