package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dupescan/internal/config"
	"dupescan/internal/dupes"
	"dupescan/internal/progress"
	"dupescan/internal/report"
	"dupescan/internal/walker"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		workers    int
		minSize    int64
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "dupescan [directory]",
		Short: "Find byte-for-byte duplicate files and the space they waste",
		Long: "dupescan scans a directory tree for files with identical content\n" +
			"and reports, per duplicate group, the disk space reclaimable by\n" +
			"keeping a single copy. If no directory is given it is read from a\n" +
			"prompt.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var directory string
			if len(args) == 1 {
				directory = args[0]
			}
			return run(cmd.OutOrStdout(), directory, configPath, workers, minSize, jsonOut)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file path")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of worker goroutines (default 2x CPUs)")
	cmd.Flags().Int64Var(&minSize, "min-size", 0, "Ignore files smaller than this many bytes")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON")

	return cmd
}

func run(out io.Writer, directory, configPath string, workers int, minSize int64, jsonOut bool) error {
	if directory == "" {
		var err error
		directory, err = promptDirectory(os.Stdin, out)
		if err != nil {
			return err
		}
	}

	info, err := os.Stat(directory)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", directory)
		}
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", directory)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if workers <= 0 {
		workers = cfg.Workers
	}
	if minSize <= 0 {
		minSize = cfg.MinSize
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	fmt.Fprintf(out, "Scanning directory: %s\n", absDirectory)

	walkResult, err := walker.Walk(absDirectory, cfg.Exclude)
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}

	files := walkResult.Files
	if minSize > 0 {
		kept := files[:0]
		for _, f := range files {
			if f.Size >= minSize {
				kept = append(kept, f)
			}
		}
		files = kept
	}

	fmt.Fprintf(out, "Found %d files\n", len(files))

	sizeGroups := dupes.GroupBySize(files)
	fmt.Fprintf(out, "Found %d size groups with potential duplicates\n", len(sizeGroups))

	var candidates int64
	for _, paths := range sizeGroups {
		candidates += int64(len(paths))
	}

	fmt.Fprintln(out, "Hashing files...")
	bar := progress.New(candidates)

	result := dupes.FindGroups(sizeGroups, dupes.Options{
		Workers:  workers,
		Progress: bar,
	})

	bar.Finish()
	fmt.Fprintln(out)

	rep := report.New(absDirectory, len(files), result)
	if jsonOut {
		return report.WriteJSON(out, rep)
	}
	fmt.Fprint(out, report.FormatText(rep))

	if len(walkResult.Errors) > 0 {
		fmt.Fprintf(out, "Skipped %d entries during the scan due to errors\n", len(walkResult.Errors))
	}

	return nil
}

func promptDirectory(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter directory path: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read directory path: %w", err)
	}

	directory := trimQuotes(strings.TrimSpace(line))
	if directory == "" {
		return "", fmt.Errorf("no directory provided")
	}
	return directory, nil
}

// trimQuotes strips one matched pair of surrounding quotes, as produced by
// dragging a path with spaces into a terminal.
func trimQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
