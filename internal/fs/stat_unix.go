//go:build unix

package fs

import (
	"os"
	"syscall"
)

// identify returns the (device, inode) pair of info when the platform exposes it.
func identify(info os.FileInfo) (fileID, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileID{}, false
	}
	return fileID{dev: uint64(stat.Dev), ino: uint64(stat.Ino)}, true
}
