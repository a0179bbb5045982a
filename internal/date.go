package internal

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
)

// DateSource names where a resolved capture time came from.
type DateSource string

const (
	SourceEmbedded   DateSource = "embedded"
	SourceSidecar    DateSource = "sidecar"
	SourceFilesystem DateSource = "filesystem"
)

// FileRecord is the filesystem view of one input file, read once.
type FileRecord struct {
	Path       string
	Name       string
	Extension  string // lowercased, without the dot
	Size       int64
	CreateTime time.Time
	ModifyTime time.Time
}

// NewFileRecord stats path on fsys.
func NewFileRecord(fsys afero.Fs, path string) (FileRecord, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return FileRecord{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	name := filepath.Base(path)
	ctime, mtime := fileTimes(info)
	return FileRecord{
		Path:       path,
		Name:       name,
		Extension:  strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		Size:       info.Size(),
		CreateTime: ctime,
		ModifyTime: mtime,
	}, nil
}

// ResolvedDate is the canonical capture time of a file.
// Trusted is false only when the filesystem timestamps had to be used.
type ResolvedDate struct {
	Timestamp time.Time
	Trusted   bool
	Source    DateSource
	Tag       string // embedded tag that supplied the time, if any
}

// DateResolver walks the fallback chain embedded tags -> sidecar JSON -> filesystem.
type DateResolver struct {
	Fs       afero.Fs
	Location *time.Location
}

func (r DateResolver) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// Resolve never fails: the filesystem timestamps are always available on rec.
func (r DateResolver) Resolve(rec FileRecord, fields TimeFields) ResolvedDate {
	if ts, tag, ok := embeddedDate(fields, r.location()); ok {
		return ResolvedDate{Timestamp: ts, Trusted: true, Source: SourceEmbedded, Tag: tag}
	}
	if ts, ok := r.sidecarDate(rec.Path); ok {
		return ResolvedDate{Timestamp: ts, Trusted: true, Source: SourceSidecar}
	}

	ts := rec.ModifyTime
	if !rec.CreateTime.IsZero() && !rec.CreateTime.After(rec.ModifyTime) {
		ts = rec.CreateTime
	}
	return ResolvedDate{Timestamp: ts.In(r.location()).Truncate(time.Second), Trusted: false, Source: SourceFilesystem}
}

// embeddedDate returns the first capture-time tag that parses.
func embeddedDate(fields TimeFields, loc *time.Location) (time.Time, string, bool) {
	for _, tag := range CaptureTimeTags {
		if ts, ok := ParseExifDate(fields[tag], loc); ok {
			return ts, tag, true
		}
	}
	return time.Time{}, "", false
}

// exifDayLayout is the date part of ExifDateLayout, as written by XMP DateCreated.
const exifDayLayout = "2006:01:02"

// ParseExifDate parses "YYYY:MM:DD HH:mm:ss". Trailing sub-second or zone suffixes
// (e.g. FileCreateDate's "+02:00") are ignored and the wall clock is read in loc.
// A bare "YYYY:MM:DD" is midnight of that day.
func ParseExifDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if len(value) >= len(ExifDateLayout) {
		if ts, err := time.ParseInLocation(ExifDateLayout, value[:len(ExifDateLayout)], loc); err == nil {
			return ts, true
		}
	}
	if len(value) >= len(exifDayLayout) {
		if ts, err := time.ParseInLocation(exifDayLayout, value[:len(exifDayLayout)], loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

type sidecarFile struct {
	PhotoTakenTime *struct {
		Timestamp interface{} `json:"timestamp"`
	} `json:"photoTakenTime"`
}

// SidecarPath is the companion description file exported next to a media file.
func SidecarPath(path string) string {
	return path + ".json"
}

// sidecarDate reads photoTakenTime.timestamp (epoch seconds, string or number,
// possibly fractional).
func (r DateResolver) sidecarDate(path string) (time.Time, bool) {
	if r.Fs == nil {
		return time.Time{}, false
	}
	data, err := afero.ReadFile(r.Fs, SidecarPath(path))
	if err != nil {
		return time.Time{}, false
	}

	var side sidecarFile
	if err := json.Unmarshal(data, &side); err != nil {
		return time.Time{}, false
	}
	if side.PhotoTakenTime == nil || side.PhotoTakenTime.Timestamp == nil {
		return time.Time{}, false
	}
	ts, err := cast.ToFloat64E(side.PhotoTakenTime.Timestamp)
	if err != nil || math.IsNaN(ts) || math.IsInf(ts, 0) {
		return time.Time{}, false
	}
	secs, frac := math.Modf(ts)
	return time.Unix(int64(secs), int64(math.Round(frac*1e9))).In(r.location()), true
}
