package shell

import (
	"fmt"
	"strings"
)

// Mode selects the command interpreter used to execute a Procfile entry.
type Mode int

const (
	// ModeUnset means no explicit choice was made; the resolver default applies.
	ModeUnset Mode = iota
	// ModeCmd runs the command through the host's native shell.
	ModeCmd
	// ModeWSL runs the command through a POSIX login shell (WSL on Windows).
	ModeWSL
	// ModePowerShell runs the command through PowerShell.
	ModePowerShell
)

func (m Mode) String() string {
	switch m {
	case ModeCmd:
		return "cmd"
	case ModeWSL:
		return "wsl"
	case ModePowerShell:
		return "powershell"
	default:
		return ""
	}
}

// ParseMode converts a keyword such as "wsl" into a Mode. The empty string
// yields ModeUnset.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return ModeUnset, nil
	case "cmd":
		return ModeCmd, nil
	case "wsl":
		return ModeWSL, nil
	case "powershell":
		return ModePowerShell, nil
	default:
		return ModeUnset, fmt.Errorf("unsupported shell type %q (want cmd, wsl or powershell)", value)
	}
}
