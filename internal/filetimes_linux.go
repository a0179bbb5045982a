//go:build linux

package internal

import (
	"os"
	"syscall"
	"time"
)

// fileTimes returns the inode change time and modification time.
func fileTimes(info os.FileInfo) (time.Time, time.Time) {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Unix()), info.ModTime()
	}
	return info.ModTime(), info.ModTime()
}
