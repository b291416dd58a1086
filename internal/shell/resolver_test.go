package shell

import (
	"reflect"
	"testing"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

func windowsPlatform() Platform {
	return Platform{
		Windows:      true,
		NativeShell:  []string{"cmd", "/c"},
		WSLShell:     []string{"wsl", "bash", "--login", "-c"},
		PowerShell:   []string{"powershell", "-Command"},
		OEMCodePage:  437,
		ANSICodePage: 1252,
	}
}

func TestResolverInvocationTemplates(t *testing.T) {
	r := &Resolver{Platform: windowsPlatform()}

	tests := []struct {
		name     string
		mode     Mode
		command  string
		path     string
		args     []string
		cmdLine  string
		codePage int
	}{
		{
			name:     "cmd",
			mode:     ModeCmd,
			command:  "echo hello",
			path:     "cmd",
			args:     []string{"/c", "echo hello"},
			cmdLine:  `cmd /c "echo hello"`,
			codePage: 437,
		},
		{
			name:     "iisExpressUsesANSI",
			mode:     ModeCmd,
			command:  `"C:\Program Files\IIS Express\iisexpress.exe" /port:8080`,
			path:     "cmd",
			args:     []string{"/c", `"C:\Program Files\IIS Express\iisexpress.exe" /port:8080`},
			cmdLine:  `cmd /c ""C:\Program Files\IIS Express\iisexpress.exe" /port:8080"`,
			codePage: 1252,
		},
		{
			name:     "wsl",
			mode:     ModeWSL,
			command:  "ls -la",
			path:     "wsl",
			args:     []string{"bash", "--login", "-c", "ls -la"},
			cmdLine:  "wsl bash --login -c 'ls -la'",
			codePage: 65001,
		},
		{
			name:     "powershell",
			mode:     ModePowerShell,
			command:  "Get-Date",
			path:     "powershell",
			args:     []string{"-Command", "Get-Date"},
			cmdLine:  "powershell -Command Get-Date",
			codePage: 437,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inv := r.Resolve(tc.mode, tc.command)
			if inv.Mode != tc.mode {
				t.Fatalf("expected mode %v, got %v", tc.mode, inv.Mode)
			}
			if inv.Path != tc.path {
				t.Fatalf("expected path %q, got %q", tc.path, inv.Path)
			}
			if !reflect.DeepEqual(inv.Args, tc.args) {
				t.Fatalf("expected args %q, got %q", tc.args, inv.Args)
			}
			if inv.CmdLine != tc.cmdLine {
				t.Fatalf("expected command line %q, got %q", tc.cmdLine, inv.CmdLine)
			}
			if inv.CodePage != tc.codePage {
				t.Fatalf("expected code page %d, got %d", tc.codePage, inv.CodePage)
			}
		})
	}
}

func TestResolverModePrecedence(t *testing.T) {
	tests := []struct {
		name     string
		def      Mode
		override Mode
		want     Mode
	}{
		{name: "fallsBackToCmd", want: ModeCmd},
		{name: "globalDefault", def: ModeWSL, want: ModeWSL},
		{name: "entryOverrideWins", def: ModeWSL, override: ModePowerShell, want: ModePowerShell},
		{name: "cmdOverrideBeatsWSLDefault", def: ModeWSL, override: ModeCmd, want: ModeCmd},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &Resolver{Platform: windowsPlatform(), Default: tc.def}
			if got := r.Resolve(tc.override, "true").Mode; got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestResolverUnixLeavesCommandLineEmpty(t *testing.T) {
	r := &Resolver{Platform: Platform{
		NativeShell:  []string{"/bin/sh", "-c"},
		WSLShell:     []string{"bash", "--login", "-c"},
		PowerShell:   []string{"pwsh", "-Command"},
		OEMCodePage:  65001,
		ANSICodePage: 65001,
	}}
	inv := r.Resolve(ModeUnset, "echo hi")
	if inv.CmdLine != "" {
		t.Fatalf("expected no raw command line on unix, got %q", inv.CmdLine)
	}
	if inv.Path != "/bin/sh" || !reflect.DeepEqual(inv.Args, []string{"-c", "echo hi"}) {
		t.Fatalf("unexpected invocation %q %q", inv.Path, inv.Args)
	}
	if inv.Encoding != unicode.UTF8 {
		t.Fatalf("expected UTF-8 encoding, got %v", inv.Encoding)
	}
}

func TestEncodingForCodePage(t *testing.T) {
	tests := []struct {
		cp   int
		want encoding.Encoding
	}{
		{cp: 437, want: charmap.CodePage437},
		{cp: 1251, want: charmap.Windows1251},
		{cp: 10000, want: charmap.Macintosh},
		{cp: 28605, want: charmap.ISO8859_15},
		{cp: 54936, want: simplifiedchinese.GB18030},
		{cp: 65001, want: unicode.UTF8},
		{cp: 720, want: unicode.UTF8},
		{cp: 737, want: unicode.UTF8},
		{cp: 775, want: unicode.UTF8},
		{cp: 12345, want: unicode.UTF8},
	}
	for _, tc := range tests {
		if got := EncodingForCodePage(tc.cp); got != tc.want {
			t.Fatalf("code page %d: got %v, want %v", tc.cp, got, tc.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	for input, want := range map[string]Mode{
		"":            ModeUnset,
		"cmd":         ModeCmd,
		"WSL":         ModeWSL,
		" powershell": ModePowerShell,
	} {
		got, err := ParseMode(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %v, got %v", input, want, got)
		}
	}
	if _, err := ParseMode("zsh"); err == nil {
		t.Fatalf("expected error for unsupported shell")
	}
}
