package logmux

import (
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/Paintersrp/foreman/internal/metrics"
	"github.com/Paintersrp/foreman/internal/runtime"
)

// DefaultWidth is the column width of the name label.
const DefaultWidth = 10

const labelSeparator = "|"

// palette follows the classic console color order, so color index k looks the
// same as it did in console-based foreman ports.
var palette = []color.Attribute{
	color.FgBlue,
	color.FgGreen,
	color.FgCyan,
	color.FgRed,
	color.FgMagenta,
	color.FgYellow,
	color.FgWhite,
	color.FgHiBlack,
	color.FgHiBlue,
	color.FgHiGreen,
	color.FgHiCyan,
	color.FgHiRed,
	color.FgHiMagenta,
	color.FgHiYellow,
	color.FgHiWhite,
}

// Option configures a Mux.
type Option func(*Mux)

// WithWidth sets the label column width.
func WithWidth(width int) Option {
	return func(m *Mux) {
		if width > 0 {
			m.width = width
		}
	}
}

// WithColor toggles ANSI label colors.
func WithColor(enabled bool) Option {
	return func(m *Mux) {
		m.color = enabled
	}
}

// Mux serialises output lines from many processes onto one writer. Each line
// is written as a colored name label followed by the line text, and the pair
// is emitted under a single lock so lines from different processes never tear.
type Mux struct {
	// mu owns both the writer and the terminal's current foreground color.
	mu      sync.Mutex
	w       io.Writer
	width   int
	color   bool
	colors  []*color.Color
	reset   *color.Color
	inputs  sync.WaitGroup
	written int
}

// New constructs a mux that renders to w.
func New(w io.Writer, opts ...Option) *Mux {
	m := &Mux{w: w, width: DefaultWidth, color: true}
	for _, opt := range opts {
		opt(m)
	}
	m.colors = make([]*color.Color, len(palette))
	for i, attr := range palette {
		m.colors[i] = newColor(attr)
	}
	m.reset = newColor(color.Reset)
	return m
}

func newColor(attr color.Attribute) *color.Color {
	c := color.New(attr)
	// Terminal detection happens once in the CLI; WithColor is authoritative.
	c.EnableColor()
	return c
}

// Add consumes source until it is closed, rendering every entry under name in
// the given palette color.
func (m *Mux) Add(name string, colorIndex int, source <-chan runtime.LogEntry) {
	if source == nil {
		return
	}
	m.inputs.Add(1)
	go func() {
		defer m.inputs.Done()
		for entry := range source {
			metrics.ObserveOutputLine(name, entry.Source)
			_ = m.Println(name, colorIndex, entry.Message)
		}
	}()
}

// Close waits for every source to be drained.
func (m *Mux) Close() {
	m.inputs.Wait()
}

// Println writes one labelled line.
func (m *Mux) Println(name string, colorIndex int, line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeLabel(name, colorIndex); err != nil {
		return err
	}
	_, err := io.WriteString(m.w, line+"\n")
	if err == nil {
		m.written++
	}
	return err
}

// Exclusive runs fn while holding the output lock, so no line is written
// until fn returns. fn must not write through the mux.
func (m *Mux) Exclusive(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

// Lines reports how many lines were written successfully.
func (m *Mux) Lines() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written
}

// writeLabel sets the foreground color, writes the label and restores the
// default color even when the write fails. Callers hold m.mu.
func (m *Mux) writeLabel(name string, colorIndex int) error {
	label := m.Label(name)
	c := m.colorFor(colorIndex)
	if c == nil {
		_, err := io.WriteString(m.w, label)
		return err
	}
	c.SetWriter(m.w)
	defer m.reset.SetWriter(m.w)
	_, err := io.WriteString(m.w, label)
	return err
}

func (m *Mux) colorFor(index int) *color.Color {
	if !m.color || index < 1 {
		return nil
	}
	return m.colors[(index-1)%len(m.colors)]
}

// Label renders name padded or truncated to the column width, followed by the
// separator.
func (m *Mux) Label(name string) string {
	n := utf8.RuneCountInString(name)
	switch {
	case n > m.width:
		name = string([]rune(name)[:m.width])
	case n < m.width:
		name += strings.Repeat(" ", m.width-n)
	}
	return name + labelSeparator
}
