package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"photocleaner/internal"
)

var cleanCmd = &cobra.Command{
	Use:   "clean <scan-dir> <output-dir>",
	Short: "Classify, rename and relocate media files by capture date",
	Long: `Scan a directory for photos and videos, validate their metadata, resolve a
capture date (embedded tags, then <file>.json sidecar, then filesystem times) and copy
each file into safe/, unsafe/, warnings/, changed-extensions/, corrupted/ or duplicates/
under the output directory. The output directory must be empty or absent.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := internal.LoadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		if conf.NoColor {
			color.NoColor = true
		}
		return runClean(cmd.Context(), conf, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], args[1])
	},
}

func init() {
	cleanCmd.Flags().Bool("dry-run", false, "Plan placements without writing to the output directory")
	cleanCmd.Flags().Bool("manifest", false, "Write manifest.jsonl into the output directory")
	viper.BindPFlag("dry_run", cleanCmd.Flags().Lookup("dry-run"))
	viper.BindPFlag("manifest", cleanCmd.Flags().Lookup("manifest"))

	rootCmd.AddCommand(cleanCmd)
}

func runClean(ctx context.Context, conf *internal.Config, stdout, stderr io.Writer, scanArg, outputArg string) (err error) {
	scanDir, err := filepath.Abs(scanArg)
	if err != nil {
		return err
	}
	outputDir, err := filepath.Abs(outputArg)
	if err != nil {
		return err
	}

	var fsys afero.Fs = afero.NewOsFs()
	if conf.DryRun {
		fsys = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(fsys), afero.NewMemMapFs())
	}

	if err := internal.CheckScanDir(fsys, scanDir); err != nil {
		return err
	}
	if err := internal.PrepareOutput(fsys, outputDir); err != nil {
		return err
	}

	logger, err := internal.NewLogger(conf.LogFile)
	if err != nil {
		return err
	}
	if conf.Verbose {
		logger.Mirror = stderr
	}
	defer func() { err = multierr.Append(err, logger.Close()) }()

	tool, err := conf.OpenMetadataTool(fsys)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, tool.Close()) }()

	files, err := internal.ScanMediaFiles(fsys, scanDir, conf, outputDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Found %d media files\n", len(files))
	if conf.DryRun {
		fmt.Fprintln(stdout, "Dry run mode: no files will be copied")
	}

	session, err := internal.NewRunSession(fsys, outputDir, conf.Manifest)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, session.Close()) }()
	logger.Log("run %s: %s -> %s (%d files, backend %s)", session.ID, scanDir, outputDir, len(files), conf.Backend)

	pipeline := internal.NewPipeline(fsys, tool, outputDir)
	pipeline.Policy = internal.ClassifierPolicy(conf.Classifier)
	pipeline.Logger = logger
	pipeline.IgnoreWriteFailures = conf.WriteFailures == internal.WriteFailuresIgnore
	pipeline.DryRun = conf.DryRun
	pipeline.AbortOnErrors = conf.AbortOnErrors
	pipeline.Placer.MarkOnly = conf.DryRun

	printer := &consolePrinter{out: stdout, errOut: stderr, session: session}
	if err := session.LogRunStart(scanDir, len(files)); err != nil {
		return err
	}
	runErr := pipeline.Run(ctx, files, printer)
	if err := session.LogRunEnd(); err != nil {
		runErr = multierr.Append(runErr, err)
	}

	printSummary(stdout, session.Stats(), outputDir)
	if pipeline.Errors.Total > 0 {
		fmt.Fprint(stderr, pipeline.Errors.GenerateReport())
	}
	return runErr
}

// consolePrinter prints one status line per file, in discovery order.
type consolePrinter struct {
	out     io.Writer
	errOut  io.Writer
	session *internal.RunSession
}

var statusColors = map[internal.ValidationStatus]*color.Color{
	internal.StatusOk:                color.New(color.FgGreen),
	internal.StatusWarning:           color.New(color.FgYellow),
	internal.StatusExtensionMismatch: color.New(color.FgCyan),
	internal.StatusError:             color.New(color.FgRed),
}

func (p *consolePrinter) Outcome(o internal.Outcome) {
	if o.Placement.Duplicate {
		fmt.Fprintf(p.errOut, "Duplicate %s\n", o.Record.Path)
	}
	switch o.Validation.Status {
	case internal.StatusWarning, internal.StatusError:
		fmt.Fprintln(p.errOut, strings.TrimRight(o.Validation.RawReport, "\n"))
	}
	if o.WriteErr != nil {
		fmt.Fprintf(p.errOut, "Warning: capture time not rewritten on %s: %v\n", o.Placement.FinalPath, o.WriteErr)
	}

	line := o.Line()
	if c, ok := statusColors[o.Validation.Status]; ok {
		line = c.Sprint(line)
	}
	fmt.Fprintln(p.out, line)

	if err := p.session.Record(o); err != nil {
		fmt.Fprintf(p.errOut, "Warning: %v\n", err)
	}
}

func (p *consolePrinter) FileError(index, total int, procErr *internal.ProcessError) {
	fmt.Fprintf(p.errOut, "Error processing %d/%d %s: %v\n", index+1, total, procErr.FilePath, procErr.OriginalErr)
	if err := p.session.LogError(procErr); err != nil {
		fmt.Fprintf(p.errOut, "Warning: %v\n", err)
	}
}

func printSummary(w io.Writer, stats internal.RunStats, outputDir string) {
	fmt.Fprintf(w, "\nPlaced %s files (%s) under %s\n",
		humanize.Comma(int64(stats.Total)), humanize.Bytes(uint64(stats.BytesPlaced)), outputDir)
	for _, b := range internal.Buckets {
		if n := stats.ByBucket[b]; n > 0 {
			fmt.Fprintf(w, "  %-20s %s\n", b, humanize.Comma(int64(n)))
		}
	}
	if stats.Duplicates > 0 {
		fmt.Fprintf(w, "  %-20s %s\n", "rerouted duplicates", humanize.Comma(int64(stats.Duplicates)))
	}
	if stats.Untrusted > 0 {
		fmt.Fprintf(w, "  %-20s %s\n", "filesystem dates", humanize.Comma(int64(stats.Untrusted)))
	}
	if stats.WriteFailures > 0 {
		fmt.Fprintf(w, "  %-20s %s\n", "rewrite failures", humanize.Comma(int64(stats.WriteFailures)))
	}
}
