package daemon

import (
	"runtime"

	"nebulafleet.dev/sdk"
)

// defaultStateDir returns the OS-appropriate directory for persisted agent
// state (keypair, nebula.pid, metrics.json, cached_config.json).
func defaultStateDir() string {
	switch runtime.GOOS {
	case "windows":
		return `C:/ProgramData/Nebula`
	default:
		return "/var/lib/nebula"
	}
}

// detectOSType maps the running platform to the os_type value the control
// plane uses to choose default key/ca/cert paths.
func detectOSType() sdk.OSType {
	switch runtime.GOOS {
	case "windows":
		return sdk.OSTypeWindows
	case "darwin":
		return sdk.OSTypeMacOS
	default:
		return sdk.OSTypeLinux
	}
}

// hostKeyPath, caCertPath and hostCertPath return the OS-specific default
// paths the spec assigns per os_type.
func hostKeyPath() string {
	if runtime.GOOS == "windows" {
		return `C:/ProgramData/Nebula/host.key`
	}
	return "/var/lib/nebula/host.key"
}

func caCertPath() string {
	if runtime.GOOS == "windows" {
		return `C:/ProgramData/Nebula/ca.crt`
	}
	return "/etc/nebula/ca.crt"
}

func hostCertPath() string {
	if runtime.GOOS == "windows" {
		return `C:/ProgramData/Nebula/host.crt`
	}
	return "/etc/nebula/host.crt"
}
