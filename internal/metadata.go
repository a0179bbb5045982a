package internal

import (
	"context"
	"errors"
	"strings"
)

// ExifDateLayout is the layout exiftool uses for date/time tags.
const ExifDateLayout = "2006:01:02 15:04:05"

// CaptureTimeTags are the embedded tags consulted, in this order, for the capture time.
// The same four tags are rewritten on every relocated copy.
var CaptureTimeTags = []string{"CreateDate", "DateTimeOriginal", "DateCreated", "FileCreateDate"}

// ErrWriteUnsupported is returned by backends that can only read metadata.
var ErrWriteUnsupported = errors.New("metadata backend does not support writing")

// TimeFields maps a tag name to its raw value as printed by the metadata tool.
type TimeFields map[string]string

// MetadataTool is the external capability the pipeline needs: a validation probe,
// a time-metadata probe and an in-place writer.
type MetadataTool interface {
	Validate(ctx context.Context, path string) (string, error)
	ReadTimeFields(ctx context.Context, path string) (TimeFields, error)
	WriteTimeFields(ctx context.Context, path string, fields TimeFields) error
	Close() error
}

// CaptureTimeFields returns the four capture-time tags all set to value.
func CaptureTimeFields(value string) TimeFields {
	fields := make(TimeFields, len(CaptureTimeTags))
	for _, tag := range CaptureTimeTags {
		fields[tag] = value
	}
	return fields
}

// splitReportLine splits "Key   : value" on the first colon. A line without a colon
// is all key.
func splitReportLine(line string) (string, string) {
	key, value, _ := strings.Cut(line, ":")
	return strings.TrimSpace(key), strings.TrimSpace(value)
}

// reportLines returns the non-blank lines of a tool report.
func reportLines(report string) []string {
	var lines []string
	for _, line := range strings.Split(report, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, strings.TrimRight(line, "\r"))
	}
	return lines
}

// ParseTimeReport turns a "-time:all -a -s" report into TimeFields.
// Repeated keys keep the last value.
func ParseTimeReport(report string) TimeFields {
	fields := TimeFields{}
	for _, line := range reportLines(report) {
		key, value := splitReportLine(line)
		fields[key] = value
	}
	return fields
}
