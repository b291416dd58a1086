//go:build windows

package shell

import "golang.org/x/sys/windows"

var (
	kernel32     = windows.NewLazySystemDLL("kernel32.dll")
	procGetOEMCP = kernel32.NewProc("GetOEMCP")
	procGetACP   = kernel32.NewProc("GetACP")
)

// HostPlatform reports the shells and console code pages of the Windows host.
func HostPlatform() Platform {
	return Platform{
		Windows:      true,
		NativeShell:  []string{"cmd", "/c"},
		WSLShell:     []string{"wsl", "bash", "--login", "-c"},
		PowerShell:   []string{"powershell", "-Command"},
		OEMCodePage:  queryCodePage(procGetOEMCP),
		ANSICodePage: queryCodePage(procGetACP),
	}
}

func queryCodePage(proc *windows.LazyProc) int {
	if err := proc.Find(); err != nil {
		return codePageUTF8
	}
	cp, _, _ := proc.Call()
	if cp == 0 {
		return codePageUTF8
	}
	return int(cp)
}
