package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// ManifestName is the JSONL outcome log written into the output root.
const ManifestName = "manifest.jsonl"

// RunSession tracks the statistics of one run and, optionally, appends every
// outcome to a manifest.
type RunSession struct {
	ID       string
	Manifest afero.File // nil when the manifest is disabled
	stats    RunStats
}

// RunStats tracks statistics for a run
type RunStats struct {
	Total         int
	ByBucket      map[Bucket]int
	Duplicates    int
	Untrusted     int
	BytesPlaced   int64
	Rewritten     int
	WriteFailures int
	Errors        int
}

// ManifestEvent represents a single event in the manifest log
type ManifestEvent struct {
	Event     string `json:"event"`
	Ts        string `json:"ts"`
	RunID     string `json:"run_id"`
	Src       string `json:"src,omitempty"`
	Dest      string `json:"dest,omitempty"`
	Status    string `json:"status,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
	Trusted   *bool  `json:"trusted,omitempty"`
	DateFrom  string `json:"date_from,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`

	ErrorCategory   string `json:"error_category,omitempty"`
	ErrorSeverity   string `json:"error_severity,omitempty"`
	ErrorSuggestion string `json:"error_suggestion,omitempty"`

	// Run start/end fields
	ScanDir    string         `json:"scan_dir,omitempty"`
	TotalFiles int            `json:"total_files,omitempty"`
	Buckets    map[Bucket]int `json:"buckets,omitempty"`
	ErrorCount int            `json:"errors,omitempty"`
}

// NewRunSession starts a session; with manifest set it creates
// <outputRoot>/manifest.jsonl on fsys.
func NewRunSession(fsys afero.Fs, outputRoot string, manifest bool) (*RunSession, error) {
	s := &RunSession{
		ID:    uuid.NewString(),
		stats: RunStats{ByBucket: make(map[Bucket]int)},
	}
	if !manifest {
		return s, nil
	}

	path := filepath.Join(outputRoot, ManifestName)
	f, err := fsys.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest file: %w", err)
	}
	s.Manifest = f
	return s, nil
}

// LogRunStart writes the run start event to the manifest
func (s *RunSession) LogRunStart(scanDir string, totalFiles int) error {
	return s.writeEvent(ManifestEvent{
		Event:      "run_start",
		ScanDir:    scanDir,
		TotalFiles: totalFiles,
	})
}

// Record counts an outcome and logs it to the manifest.
func (s *RunSession) Record(o Outcome) error {
	bucket := o.Identity.Bucket
	if o.Placement.Duplicate {
		bucket = BucketDuplicates
	}
	s.stats.Total++
	s.stats.ByBucket[bucket]++
	s.stats.BytesPlaced += o.Record.Size
	if o.Placement.Duplicate {
		s.stats.Duplicates++
	}
	if o.Validation.Status != StatusError && !o.Date.Trusted {
		s.stats.Untrusted++
	}
	if o.Wrote {
		s.stats.Rewritten++
	}

	event := ManifestEvent{
		Event:     "placed",
		Src:       o.Record.Path,
		Dest:      o.Placement.FinalPath,
		Status:    o.Validation.Status.String(),
		Bucket:    string(bucket),
		Size:      o.Record.Size,
		Duplicate: o.Placement.Duplicate,
	}
	if o.Placement.Duplicate {
		event.Event = "duplicate"
	}
	if o.Validation.Status != StatusError {
		trusted := o.Date.Trusted
		event.Trusted = &trusted
		event.DateFrom = string(o.Date.Source)
	}
	if o.WriteErr != nil {
		s.stats.WriteFailures++
		event.Event = "write_failed"
		event.Error = o.WriteErr.Error()
	}
	return s.writeEvent(event)
}

// LogError logs a categorized per-file error
func (s *RunSession) LogError(procErr *ProcessError) error {
	s.stats.Errors++
	return s.writeEvent(ManifestEvent{
		Event:           "error",
		Src:             procErr.FilePath,
		Error:           procErr.OriginalErr.Error(),
		ErrorCategory:   string(procErr.Category),
		ErrorSeverity:   string(procErr.Severity),
		ErrorSuggestion: procErr.Suggestion,
	})
}

// LogRunEnd writes the run end event to the manifest
func (s *RunSession) LogRunEnd() error {
	return s.writeEvent(ManifestEvent{
		Event:      "run_end",
		TotalFiles: s.stats.Total,
		Buckets:    s.stats.ByBucket,
		ErrorCount: s.stats.Errors,
	})
}

// Stats returns the current run statistics
func (s *RunSession) Stats() RunStats {
	return s.stats
}

// Close flushes and closes the manifest
func (s *RunSession) Close() error {
	if s.Manifest == nil {
		return nil
	}
	return multierr.Combine(s.Manifest.Sync(), s.Manifest.Close())
}

// writeEvent writes a manifest event as a JSON line
func (s *RunSession) writeEvent(event ManifestEvent) error {
	if s.Manifest == nil {
		return nil
	}
	event.Ts = time.Now().UTC().Format(time.RFC3339)
	event.RunID = s.ID

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := s.Manifest.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to manifest: %w", err)
	}
	return nil
}
