//go:build !linux && !darwin

package internal

import (
	"os"
	"time"
)

func fileTimes(info os.FileInfo) (time.Time, time.Time) {
	return info.ModTime(), info.ModTime()
}
