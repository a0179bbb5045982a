package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is overridden from the embedded VERSION file.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "photocleaner",
	Short: "Sort an exported photo library by verified capture date",
}

// ApplyVersion copies Version onto the root command.
func ApplyVersion() {
	rootCmd.Version = Version
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("backend", "exiftool", "Metadata backend: exiftool, stayopen or native")
	flags.String("exiftool", "exiftool", "Path to the exiftool binary")
	flags.String("classifier", "last-write-wins", "Validation report policy: last-write-wins or severity")
	flags.String("write-failures", "report", "Metadata rewrite failures: report or ignore")
	flags.Bool("abort-on-errors", false, "Stop on a critical I/O error or 10 failing files in a row")
	flags.String("log-file", "photocleaner.log", "Log file (empty to disable)")
	flags.Bool("verbose", false, "Mirror the log to stderr")
	flags.Bool("no-color", false, "Disable colored output")

	for key, flag := range map[string]string{
		"backend":         "backend",
		"exiftool_path":   "exiftool",
		"classifier":      "classifier",
		"write_failures":  "write-failures",
		"abort_on_errors": "abort-on-errors",
		"log_file":        "log-file",
		"verbose":         "verbose",
		"no_color":        "no-color",
	} {
		viper.BindPFlag(key, flags.Lookup(flag))
	}
}
