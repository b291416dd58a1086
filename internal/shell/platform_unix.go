//go:build !windows

package shell

// HostPlatform reports the shells available on Unix-like hosts. Everything
// already speaks UTF-8 here, so no code page conversion happens.
func HostPlatform() Platform {
	return Platform{
		NativeShell:  []string{"/bin/sh", "-c"},
		WSLShell:     []string{"bash", "--login", "-c"},
		PowerShell:   []string{"pwsh", "-Command"},
		OEMCodePage:  codePageUTF8,
		ANSICodePage: codePageUTF8,
	}
}
