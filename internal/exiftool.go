package internal

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

const defaultExifToolBinary = "exiftool"

// ExifToolCLI runs one exiftool process per probe or write.
type ExifToolCLI struct {
	Binary string
}

func (t ExifToolCLI) binary() string {
	if t.Binary == "" {
		return defaultExifToolBinary
	}
	return t.Binary
}

func validateArgs(path string) []string {
	return []string{"-validate", "-error", "-warning", path}
}

func timeArgs(path string) []string {
	return []string{"-time:all", "-a", "-s", path}
}

// writeArgs overwrites fields in place without keeping an "_original" backup.
// The capture-time tags come first in their canonical order.
func writeArgs(path string, fields TimeFields) []string {
	args := []string{"-overwrite_original"}
	done := make(map[string]bool, len(fields))
	for _, tag := range CaptureTimeTags {
		if v, ok := fields[tag]; ok {
			args = append(args, fmt.Sprintf("-%s=%s", tag, v))
			done[tag] = true
		}
	}

	var rest []string
	for tag := range fields {
		if !done[tag] {
			rest = append(rest, tag)
		}
	}
	sort.Strings(rest)
	for _, tag := range rest {
		args = append(args, fmt.Sprintf("-%s=%s", tag, fields[tag]))
	}
	return append(args, path)
}

// Validate returns whatever the tool printed. exiftool exits non-zero for files it
// cannot read while still printing their Error line, so the text is returned with
// the error and callers may use both.
func (t ExifToolCLI) Validate(ctx context.Context, path string) (string, error) {
	return t.run(ctx, validateArgs(path))
}

func (t ExifToolCLI) ReadTimeFields(ctx context.Context, path string) (TimeFields, error) {
	out, err := t.run(ctx, timeArgs(path))
	return ParseTimeReport(out), err
}

func (t ExifToolCLI) WriteTimeFields(ctx context.Context, path string, fields TimeFields) error {
	_, err := t.run(ctx, writeArgs(path, fields))
	return err
}

func (ExifToolCLI) Close() error { return nil }

func (t ExifToolCLI) run(ctx context.Context, args []string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary(), args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return stdout.String(), fmt.Errorf("%s %s: %w", t.binary(), args[0], err)
		}
		return stdout.String(), fmt.Errorf("%s %s: %w: %s", t.binary(), args[0], err, msg)
	}
	return stdout.String(), nil
}
