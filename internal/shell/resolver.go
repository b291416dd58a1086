package shell

import (
	"strings"

	"golang.org/x/text/encoding"
)

// iisMarker identifies commands that start IIS Express, which writes its
// console output in the ANSI code page rather than the OEM one.
const iisMarker = "iisexpress"

// Platform describes how the host starts each shell flavour and which code
// pages its console tools emit.
type Platform struct {
	// Windows selects raw command-line construction (SysProcAttr.CmdLine).
	Windows bool

	NativeShell []string
	WSLShell    []string
	PowerShell  []string

	OEMCodePage  int
	ANSICodePage int
}

// Invocation is the concrete command to start for a Procfile entry together
// with the encoding of its output streams.
type Invocation struct {
	Mode Mode
	Path string
	Args []string
	// CmdLine, when set, is the literal Windows command line. It preserves
	// the quoting that cmd.exe and wsl.exe expect.
	CmdLine  string
	CodePage int
	Encoding encoding.Encoding
}

// Resolver maps shell modes to invocations.
type Resolver struct {
	Platform Platform
	Default  Mode
}

// NewResolver constructs a resolver for the running host.
func NewResolver(defaultMode Mode) *Resolver {
	return &Resolver{Platform: HostPlatform(), Default: defaultMode}
}

// EffectiveMode applies the precedence entry override, resolver default,
// ModeCmd.
func (r *Resolver) EffectiveMode(mode Mode) Mode {
	if mode != ModeUnset {
		return mode
	}
	if r.Default != ModeUnset {
		return r.Default
	}
	return ModeCmd
}

// Resolve builds the invocation for command under the given mode.
func (r *Resolver) Resolve(mode Mode, command string) Invocation {
	mode = r.EffectiveMode(mode)
	p := r.Platform

	var (
		argv     []string
		cmdLine  string
		codePage int
	)
	switch mode {
	case ModeWSL:
		argv = appendArgs(p.WSLShell, command)
		if p.Windows {
			cmdLine = joinCmdLine(p.WSLShell) + " '" + command + "'"
		}
		codePage = codePageUTF8
	case ModePowerShell:
		argv = appendArgs(p.PowerShell, command)
		if p.Windows {
			cmdLine = joinCmdLine(p.PowerShell) + " " + command
		}
		codePage = p.OEMCodePage
	default:
		argv = appendArgs(p.NativeShell, command)
		if p.Windows {
			cmdLine = joinCmdLine(p.NativeShell) + ` "` + command + `"`
		}
		codePage = p.OEMCodePage
		if strings.Contains(strings.ToLower(command), iisMarker) {
			codePage = p.ANSICodePage
		}
	}

	return Invocation{
		Mode:     mode,
		Path:     argv[0],
		Args:     argv[1:],
		CmdLine:  cmdLine,
		CodePage: codePage,
		Encoding: EncodingForCodePage(codePage),
	}
}

func appendArgs(prefix []string, command string) []string {
	argv := make([]string, 0, len(prefix)+1)
	argv = append(argv, prefix...)
	return append(argv, command)
}

func joinCmdLine(argv []string) string {
	return strings.Join(argv, " ")
}
