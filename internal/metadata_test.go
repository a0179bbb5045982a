package internal

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

func TestParseTimeReport(t *testing.T) {
	report := "FileModifyDate                  : 2021:06:01 08:00:00+02:00\n" +
		"CreateDate                      : 0000:00:00 00:00:00\n" +
		"\n" +
		"CreateDate                      : 2021:05:01 10:00:00\r\n" +
		"DateTimeOriginal                : 2021:05:01 10:00:00\n"

	fields := ParseTimeReport(report)

	if got := fields["CreateDate"]; got != "2021:05:01 10:00:00" {
		t.Errorf("Expected last CreateDate to win, got %q", got)
	}
	if got := fields["FileModifyDate"]; got != "2021:06:01 08:00:00+02:00" {
		t.Errorf("Expected value with colons to be kept whole, got %q", got)
	}
	if len(fields) != 3 {
		t.Errorf("Expected 3 fields, got %d", len(fields))
	}
}

func TestCaptureTimeFields(t *testing.T) {
	fields := CaptureTimeFields("2021:05:01 10:00:00")
	if len(fields) != 4 {
		t.Fatalf("Expected 4 fields, got %d", len(fields))
	}
	for _, tag := range []string{"CreateDate", "DateTimeOriginal", "DateCreated", "FileCreateDate"} {
		if fields[tag] != "2021:05:01 10:00:00" {
			t.Errorf("Expected %s to be set, got %q", tag, fields[tag])
		}
	}
}

func TestExifToolArgs(t *testing.T) {
	if got := validateArgs("/a/b.jpg"); !reflect.DeepEqual(got, []string{"-validate", "-error", "-warning", "/a/b.jpg"}) {
		t.Errorf("Unexpected validate args: %v", got)
	}
	if got := timeArgs("/a/b.jpg"); !reflect.DeepEqual(got, []string{"-time:all", "-a", "-s", "/a/b.jpg"}) {
		t.Errorf("Unexpected time args: %v", got)
	}

	got := writeArgs("/out/safe/x.jpg", CaptureTimeFields("2021:05:01 10:00:00"))
	expected := []string{
		"-overwrite_original",
		"-CreateDate=2021:05:01 10:00:00",
		"-DateTimeOriginal=2021:05:01 10:00:00",
		"-DateCreated=2021:05:01 10:00:00",
		"-FileCreateDate=2021:05:01 10:00:00",
		"/out/safe/x.jpg",
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

// fakeExifTool writes a shell script that echoes its arguments and fails writes.
func fakeExifTool(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	script := `#!/bin/sh
if [ "$1" = "-overwrite_original" ]; then
  echo "Error: boom" >&2
  exit 1
fi
echo "Args : $*"
`
	path := filepath.Join(t.TempDir(), "exiftool")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExifToolCLI(t *testing.T) {
	tool := ExifToolCLI{Binary: fakeExifTool(t)}
	ctx := context.Background()

	report, err := tool.Validate(ctx, "/in/a.jpg")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if strings.TrimSpace(report) != "Args : -validate -error -warning /in/a.jpg" {
		t.Errorf("Unexpected validate report: %q", report)
	}

	fields, err := tool.ReadTimeFields(ctx, "/in/a.jpg")
	if err != nil {
		t.Fatalf("ReadTimeFields failed: %v", err)
	}
	if fields["Args"] != "-time:all -a -s /in/a.jpg" {
		t.Errorf("Unexpected time probe args: %q", fields["Args"])
	}

	err = tool.WriteTimeFields(ctx, "/out/a.jpg", CaptureTimeFields("2021:05:01 10:00:00"))
	if err == nil {
		t.Fatal("Expected write failure")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Expected stderr in error, got %v", err)
	}
}

func TestExifToolCLI_MissingBinary(t *testing.T) {
	tool := ExifToolCLI{Binary: filepath.Join(t.TempDir(), "no-such-exiftool")}
	report, err := tool.Validate(context.Background(), "/in/a.jpg")
	if err == nil {
		t.Fatal("Expected error for missing binary")
	}
	if report != "" {
		t.Errorf("Expected empty report, got %q", report)
	}
	if got := ClassifyReport(report, PolicyLastWriteWins).Status; got != StatusOk {
		t.Errorf("Expected empty report to classify as ok, got %s", got)
	}
}
