package procfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Paintersrp/foreman/internal/shell"
)

func mustParse(t *testing.T, text string) []Spec {
	t.Helper()
	specs, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return specs
}

func TestParseWebWorker(t *testing.T) {
	specs := mustParse(t, "web: echo hello\nworker: echo bye")

	want := []Spec{
		{Name: "web", Command: "echo hello", Color: 1},
		{Name: "worker", Command: "echo bye", Color: 2},
	}
	if !reflect.DeepEqual(specs, want) {
		t.Fatalf("unexpected specs:\n got %+v\nwant %+v", specs, want)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	text := "# app\n#wsl\nweb: rails s -p 3000\n\nbad line\nworker: sidekiq\n#powershell\nclock: Get-Date\n"
	first := mustParse(t, text)
	second := mustParse(t, text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("parse results differ:\n%+v\n%+v", first, second)
	}
}

func TestParseTrimsNameAndCommand(t *testing.T) {
	specs := mustParse(t, "   api  :   go run ./cmd/api --addr=:8080   \n")
	if len(specs) != 1 {
		t.Fatalf("expected 1 spec, got %d", len(specs))
	}
	if specs[0].Name != "api" {
		t.Fatalf("expected name api, got %q", specs[0].Name)
	}
	if specs[0].Command != "go run ./cmd/api --addr=:8080" {
		t.Fatalf("unexpected command %q", specs[0].Command)
	}
}

func TestParseDropsMalformedLines(t *testing.T) {
	lines := []string{
		"no separator here",
		":starts with separator",
		"ends with separator:",
		"   :   ",
		"name:   ",
		"# web: commented out",
		"",
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			if specs := mustParse(t, line+"\n"); len(specs) != 0 {
				t.Fatalf("expected no specs for %q, got %+v", line, specs)
			}
		})
	}
}

func TestParseDirectiveScopesToNextEntry(t *testing.T) {
	specs := mustParse(t, "#wsl\nweb: echo hi\nworker: echo yo\n")
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	if specs[0].Shell != shell.ModeWSL {
		t.Fatalf("expected web to use wsl, got %v", specs[0].Shell)
	}
	if specs[1].Shell != shell.ModeUnset {
		t.Fatalf("expected worker to keep default shell, got %v", specs[1].Shell)
	}

	resolver := &shell.Resolver{Platform: shell.HostPlatform(), Default: shell.ModeCmd}
	if got := resolver.Resolve(specs[0].Shell, specs[0].Command).Mode; got != shell.ModeWSL {
		t.Fatalf("expected web to resolve to wsl, got %v", got)
	}
	if got := resolver.Resolve(specs[1].Shell, specs[1].Command).Mode; got != shell.ModeCmd {
		t.Fatalf("expected worker to resolve to cmd, got %v", got)
	}
}

func TestParseDirectiveKeywords(t *testing.T) {
	tests := []struct {
		directive string
		want      shell.Mode
	}{
		{directive: "#wsl", want: shell.ModeWSL},
		{directive: "##  powershell", want: shell.ModePowerShell},
		{directive: "#cmd", want: shell.ModeCmd},
		{directive: "#WSL", want: shell.ModeWSL},
		{directive: "# start the web tier", want: shell.ModeUnset},
		{directive: "#", want: shell.ModeUnset},
	}
	for _, tc := range tests {
		t.Run(tc.directive, func(t *testing.T) {
			specs := mustParse(t, tc.directive+"\nweb: serve\n")
			if len(specs) != 1 {
				t.Fatalf("expected 1 spec, got %d", len(specs))
			}
			if specs[0].Shell != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, specs[0].Shell)
			}
		})
	}
}

func TestParseDirectiveErasedByInterveningLine(t *testing.T) {
	tests := map[string]string{
		"malformed": "#wsl\nnot an entry\nweb: serve\n",
		"blank":     "#wsl\n\nweb: serve\n",
		"entry":     "#wsl\napi: serve\nweb: serve\n",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			specs := mustParse(t, text)
			last := specs[len(specs)-1]
			if last.Name != "web" {
				t.Fatalf("expected last spec web, got %q", last.Name)
			}
			if last.Shell != shell.ModeUnset {
				t.Fatalf("expected directive to be erased, got %v", last.Shell)
			}
		})
	}
}

func TestParseLastCommentWins(t *testing.T) {
	specs := mustParse(t, "#wsl\n#powershell\nweb: serve\n")
	if specs[0].Shell != shell.ModePowerShell {
		t.Fatalf("expected powershell, got %v", specs[0].Shell)
	}
}

func TestParseStripsBOM(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		shell shell.Mode
	}{
		{name: "directive", text: "\ufeff#wsl\nweb: echo hi\n", shell: shell.ModeWSL},
		{name: "entry", text: "\ufeffweb: echo hi\n", shell: shell.ModeUnset},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			specs := mustParse(t, tc.text)
			if len(specs) != 1 {
				t.Fatalf("expected 1 spec, got %d", len(specs))
			}
			if specs[0].Name != "web" {
				t.Fatalf("expected name web, got %q", specs[0].Name)
			}
			if specs[0].Shell != tc.shell {
				t.Fatalf("expected shell %v, got %v", tc.shell, specs[0].Shell)
			}
		})
	}
}

func TestColorsDependOnlyOnPosition(t *testing.T) {
	var a, b strings.Builder
	for i := 0; i < 2*PaletteSize+3; i++ {
		a.WriteString("p" + strings.Repeat("x", i) + ": run\n")
		b.WriteString("#wsl\nq" + strings.Repeat("y", 2*i) + ": other command\n")
	}
	left := mustParse(t, a.String())
	right := mustParse(t, b.String())
	if len(left) != len(right) {
		t.Fatalf("expected equal lengths, got %d and %d", len(left), len(right))
	}
	for i := range left {
		if left[i].Color != right[i].Color {
			t.Fatalf("spec %d colors differ: %d vs %d", i+1, left[i].Color, right[i].Color)
		}
		want := (i % PaletteSize) + 1
		if left[i].Color != want {
			t.Fatalf("spec %d expected color %d, got %d", i+1, want, left[i].Color)
		}
	}
}

func TestParseAllowsDuplicateNames(t *testing.T) {
	specs := mustParse(t, "web: a\nweb: b\n")
	if len(specs) != 2 {
		t.Fatalf("expected duplicates to be kept, got %d specs", len(specs))
	}
	if !reflect.DeepEqual(Names(specs), []string{"web", "web"}) {
		t.Fatalf("unexpected names %v", Names(specs))
	}
}

func TestParseFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Procfile")
	_, err := ParseFile(path)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != path+" not found" {
		t.Fatalf("unexpected error message %q", err.Error())
	}
}

func TestParseFileReadsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Procfile")
	if err := os.WriteFile(path, []byte("web: echo hello\r\nworker: echo bye\r\n"), 0o644); err != nil {
		t.Fatalf("write procfile: %v", err)
	}
	specs, err := ParseFile(path)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if !reflect.DeepEqual(Names(specs), []string{"web", "worker"}) {
		t.Fatalf("unexpected names %v", Names(specs))
	}
	if specs[1].Command != "echo bye" {
		t.Fatalf("expected CR to be trimmed, got %q", specs[1].Command)
	}
}
