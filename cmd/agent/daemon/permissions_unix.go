//go:build !windows

package daemon

import "os"

// restrictKeyPermissions limits the private key to owner read/write on POSIX.
func restrictKeyPermissions(path string) error {
	return os.Chmod(path, 0600)
}
