package configbuild

import "nebulafleet.dev/models"

// osPaths is the filesystem location of each credential file the agent
// writes, chosen by the node's reported OSType.
type osPaths struct {
	Key  string
	CA   string
	Cert string
}

func pathsFor(osType models.OSType) osPaths {
	switch osType {
	case models.OSTypeWindows:
		return osPaths{
			Key:  `C:/ProgramData/Nebula/host.key`,
			CA:   `C:/ProgramData/Nebula/ca.crt`,
			Cert: `C:/ProgramData/Nebula/host.crt`,
		}
	default:
		// docker, macos, and linux all share the same layout.
		return osPaths{
			Key:  "/var/lib/nebula/host.key",
			CA:   "/etc/nebula/ca.crt",
			Cert: "/etc/nebula/host.crt",
		}
	}
}
