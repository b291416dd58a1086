// Package procfile parses Procfiles: line-oriented lists of named shell
// commands of the form "name: command".
//
// A comment line directly above an entry may select the shell used for that
// one entry:
//
//	#wsl
//	web: bundle exec rails server
//
// Malformed lines never fail the parse; they are dropped.
package procfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Paintersrp/foreman/internal/shell"
)

// PaletteSize is the number of distinct label colors. The k-th entry gets
// color ((k-1) % PaletteSize) + 1.
const PaletteSize = 15

const (
	commentMarker = "#"
	separator     = ":"
	byteOrderMark = "\ufeff"
	maxLineBytes  = 1024 * 1024
)

// ErrNotFound reports a missing Procfile.
var ErrNotFound = errors.New("procfile not found")

// NotFoundError reports the path of a missing Procfile. It matches
// ErrNotFound with errors.Is.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return e.Path + " not found"
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Spec is a parsed, unlaunched Procfile entry.
type Spec struct {
	Name    string
	Command string
	// Shell is ModeUnset unless a directive comment selected a shell.
	Shell shell.Mode
	// Color is a 1-based palette index.
	Color int
}

// ParseFile reads and parses the Procfile at path.
func ParseFile(path string) ([]Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("open procfile: %w", err)
	}
	defer f.Close()

	specs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

// Parse reads Procfile entries from r in order.
func Parse(r io.Reader) ([]Spec, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		specs   []Spec
		pending string
	)
	first := true
	for scanner.Scan() {
		text := scanner.Text()
		if first {
			text = strings.TrimPrefix(text, byteOrderMark)
			first = false
		}
		line := strings.TrimSpace(text)
		if strings.HasPrefix(line, commentMarker) {
			pending = line
			continue
		}
		spec, ok := parseEntry(line)
		if !ok {
			// A rejected line replaces the pending directive, so a directive only
			// reaches an entry it immediately precedes.
			pending = line
			continue
		}
		spec.Shell = directiveMode(pending)
		pending = ""
		specs = append(specs, spec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read procfile: %w", err)
	}

	for i := range specs {
		specs[i].Color = ColorFor(i + 1)
	}
	return specs, nil
}

// ColorFor returns the palette color of the position-th entry (1-based).
func ColorFor(position int) int {
	if position < 1 {
		return 0
	}
	return (position-1)%PaletteSize + 1
}

// Names lists the entry names in file order.
func Names(specs []Spec) []string {
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.Name)
	}
	return names
}

func parseEntry(line string) (Spec, bool) {
	index := strings.Index(line, separator)
	if index <= 0 || index == len(line)-1 {
		return Spec{}, false
	}
	name := strings.TrimSpace(line[:index])
	command := strings.TrimSpace(line[index+1:])
	if name == "" || command == "" {
		return Spec{}, false
	}
	return Spec{Name: name, Command: command}, true
}

func directiveMode(directive string) shell.Mode {
	if !strings.HasPrefix(directive, commentMarker) {
		return shell.ModeUnset
	}
	keyword := strings.TrimLeft(directive, commentMarker)
	mode, err := shell.ParseMode(keyword)
	if err != nil {
		return shell.ModeUnset
	}
	return mode
}
