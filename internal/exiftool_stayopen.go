package internal

import (
	"context"
	"fmt"
	"strings"

	goexiftool "github.com/barasher/go-exiftool"
)

// ExifToolSession keeps a single exiftool process open for time reads and writes.
// The session only speaks JSON, so validation still goes through the CLI probe.
type ExifToolSession struct {
	et  *goexiftool.Exiftool
	cli ExifToolCLI
}

func NewExifToolSession(binary string) (*ExifToolSession, error) {
	var opts []func(*goexiftool.Exiftool) error
	if binary != "" {
		opts = append(opts, goexiftool.SetExiftoolBinaryPath(binary))
	}
	et, err := goexiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool session: %w", err)
	}
	return &ExifToolSession{et: et, cli: ExifToolCLI{Binary: binary}}, nil
}

func (s *ExifToolSession) Validate(ctx context.Context, path string) (string, error) {
	return s.cli.Validate(ctx, path)
}

func (s *ExifToolSession) ReadTimeFields(ctx context.Context, path string) (TimeFields, error) {
	if err := ctx.Err(); err != nil {
		return TimeFields{}, err
	}

	fields := TimeFields{}
	mds := s.et.ExtractMetadata(path)
	if len(mds) == 0 {
		return fields, fmt.Errorf("exiftool session returned no metadata for %s", path)
	}
	if mds[0].Err != nil {
		return fields, mds[0].Err
	}
	for key, value := range mds[0].Fields {
		if strings.Contains(key, "Date") || strings.Contains(key, "Time") {
			fields[key] = fmt.Sprint(value)
		}
	}
	return fields, nil
}

// WriteTimeFields overwrites the file in place; go-exiftool passes -overwrite_original
// unless a backup was requested.
func (s *ExifToolSession) WriteTimeFields(ctx context.Context, path string, fields TimeFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	md := goexiftool.FileMetadata{File: path, Fields: map[string]interface{}{}}
	for tag, value := range fields {
		md.SetString(tag, value)
	}
	batch := []goexiftool.FileMetadata{md}
	s.et.WriteMetadata(batch)
	if batch[0].Err != nil {
		return fmt.Errorf("exiftool session write %s: %w", path, batch[0].Err)
	}
	return nil
}

func (s *ExifToolSession) Close() error {
	return s.et.Close()
}
