//go:build darwin

package internal

import (
	"os"
	"syscall"
	"time"
)

// fileTimes returns the birth time and modification time.
func fileTimes(info os.FileInfo) (time.Time, time.Time) {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Birthtimespec.Unix()), info.ModTime()
	}
	return info.ModTime(), info.ModTime()
}
