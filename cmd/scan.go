package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"photocleaner/internal"
)

var scanCmd = &cobra.Command{
	Use:   "scan [folder]",
	Short: "List the media files a clean run would pick up",
	Long: `Walk a folder with the configured extension filter and print file counts and
sizes per extension. Nothing is probed, copied or written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := internal.LoadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		fsys := afero.NewOsFs()
		if err := internal.CheckScanDir(fsys, args[0]); err != nil {
			return err
		}
		files, err := internal.ScanMediaFiles(fsys, args[0], conf)
		if err != nil {
			return err
		}

		summary, err := summarizeFiles(fsys, files)
		if err != nil {
			return err
		}
		printScanSummary(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

type extSummary struct {
	Ext   string
	Count int
	Size  int64
}

// summarizeFiles groups files by lowercased extension, largest groups first.
func summarizeFiles(fsys afero.Fs, files []string) ([]extSummary, error) {
	byExt := make(map[string]*extSummary)
	for _, f := range files {
		info, err := fsys.Stat(f)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", f, err)
		}
		ext := strings.ToLower(filepath.Ext(f))
		s, ok := byExt[ext]
		if !ok {
			s = &extSummary{Ext: ext}
			byExt[ext] = s
		}
		s.Count++
		s.Size += info.Size()
	}

	out := make([]extSummary, 0, len(byExt))
	for _, s := range byExt {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Ext < out[j].Ext
	})
	return out, nil
}

func printScanSummary(w io.Writer, summary []extSummary) {
	var count int
	var size int64
	for _, s := range summary {
		fmt.Fprintf(w, "  %-8s %8s  %10s\n", s.Ext, humanize.Comma(int64(s.Count)), humanize.Bytes(uint64(s.Size)))
		count += s.Count
		size += s.Size
	}
	fmt.Fprintf(w, "Found %s media files (%s)\n", humanize.Comma(int64(count)), humanize.Bytes(uint64(size)))
}
