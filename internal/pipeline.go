package internal

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
)

// Outcome is the result of processing one file.
type Outcome struct {
	Index      int // zero-based discovery position
	Total      int
	Record     FileRecord
	Validation ValidationOutcome
	Date       ResolvedDate // zero for corrupted files
	Identity   OutputIdentity
	Placement  PlacementResult
	Wrote      bool  // capture-time tags were rewritten on the placed copy
	WriteErr   error // rewrite failure, unless failures are ignored
}

// Line is the one-line progress record "{status} {index}/{total} [{filename}]".
func (o Outcome) Line() string {
	return fmt.Sprintf("%s %d/%d [%s]", o.Validation.Status, o.Index+1, o.Total, o.Record.Name)
}

// Reporter receives outcomes in discovery order.
type Reporter interface {
	Outcome(o Outcome)
	FileError(index, total int, err *ProcessError)
}

// Pipeline classifies, names, places and rewrites files one at a time.
type Pipeline struct {
	Fs       afero.Fs
	Tool     MetadataTool
	Placer   *Placer
	Resolver DateResolver
	Policy   ClassifierPolicy
	Logger   *Logger
	Errors   *ErrorStats

	// IgnoreWriteFailures drops metadata rewrite errors instead of reporting them.
	IgnoreWriteFailures bool
	// DryRun skips the metadata rewrite.
	DryRun bool
	// AbortOnErrors stops the run on a critical I/O error or a streak of failing files.
	// Off by default: per-file failures are counted and reported and the run goes on.
	AbortOnErrors bool
}

func NewPipeline(fsys afero.Fs, tool MetadataTool, outputRoot string) *Pipeline {
	return &Pipeline{
		Fs:       fsys,
		Tool:     tool,
		Placer:   NewPlacer(fsys, outputRoot),
		Resolver: DateResolver{Fs: fsys},
		Policy:   PolicyLastWriteWins,
		Errors:   NewErrorStats(),
	}
}

// Run processes files sequentially. Per-file failures are reported and the run
// continues; only an unsupported status stops it, unless AbortOnErrors is set.
// Cancelling ctx stops the run between files.
func (p *Pipeline) Run(ctx context.Context, files []string, r Reporter) error {
	total := len(files)
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		o, err := p.ProcessFile(context.WithoutCancel(ctx), path, i, total)
		if err != nil {
			if errors.Is(err, ErrUnsupportedStatus) {
				return err
			}
			perr := CategorizeError(path, err)
			p.Errors.Add(perr)
			p.Logger.Log("error %s: %v", path, err)
			r.FileError(i, total, perr)
			if abort, reason := p.Errors.ShouldAbort(); abort && p.AbortOnErrors {
				return fmt.Errorf("%s: %w", reason, perr)
			}
			continue
		}

		p.Errors.ResetConsecutive()
		if o.WriteErr != nil {
			p.Errors.Add(&ProcessError{
				FilePath:    o.Placement.FinalPath,
				Category:    ErrorCategoryMetadata,
				Severity:    ErrorSeverityWarning,
				OriginalErr: o.WriteErr,
				Suggestion:  "The file was placed but its capture time tags were not rewritten",
			})
		}
		p.Logger.Log("%s", o.Line())
		r.Outcome(o)
	}
	return nil
}

// ProcessFile runs probe, classification, date resolution, naming, placement and
// metadata rewrite for the file at discovery position index.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, index, total int) (Outcome, error) {
	rec, err := NewFileRecord(p.Fs, path)
	if err != nil {
		return Outcome{}, err
	}
	o := Outcome{Index: index, Total: total, Record: rec}

	report, err := p.Tool.Validate(ctx, path)
	if err != nil {
		p.Logger.Log("validate %s: %v", path, err)
	}
	o.Validation = ClassifyReport(report, p.Policy)

	if o.Validation.Status == StatusError {
		o.Identity = OutputIdentity{FileName: rec.Name, Bucket: BucketCorrupted}
		o.Placement, err = p.Placer.Place(path, BucketCorrupted, rec.Name, index)
		if err != nil {
			return Outcome{}, err
		}
		p.Logger.Log("%s -> %s (corrupted)", path, o.Placement.FinalPath)
		return o, nil
	}

	fields, err := p.Tool.ReadTimeFields(ctx, path)
	if err != nil {
		p.Logger.Log("read time fields %s: %v", path, err)
	}
	o.Date = p.Resolver.Resolve(rec, fields)

	o.Identity, err = BuildIdentity(rec, o.Validation, o.Date)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", path, err)
	}

	o.Placement, err = p.Placer.Place(path, o.Identity.Bucket, o.Identity.FileName, index)
	if err != nil {
		return Outcome{}, err
	}
	p.Logger.Log("%s -> %s (date from %s %s, trusted=%t, duplicate=%t)",
		path, o.Placement.FinalPath, o.Date.Source, o.Date.Tag, o.Date.Trusted, o.Placement.Duplicate)

	if o.Placement.Duplicate || p.DryRun {
		return o, nil
	}

	value := o.Date.Timestamp.Format(ExifDateLayout)
	if err := p.Tool.WriteTimeFields(ctx, o.Placement.FinalPath, CaptureTimeFields(value)); err != nil {
		p.Logger.Log("write time fields %s: %v", o.Placement.FinalPath, err)
		if !p.IgnoreWriteFailures {
			o.WriteErr = err
		}
		return o, nil
	}
	o.Wrote = true
	return o, nil
}
