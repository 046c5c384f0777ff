package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"snapsort/internal/catalog"
	"snapsort/internal/config"
	"snapsort/internal/logging"
	"snapsort/internal/runner"
	"snapsort/internal/scan"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		dirFlag      string
		outFlag      string
		prefixFlags  []string
		suffixFlags  []string
		excludeFlags []string
		logFlag      string
		workersFlag  int
		yesFlag      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan, resolve dates, and copy files into the output tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if err := mergeRunFlags(cmd, cfg, dirFlag, outFlag, prefixFlags, suffixFlags, excludeFlags, logFlag, workersFlag, yesFlag); err != nil {
				return err
			}
			if err := cfg.RunValidate(); err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			files, err := scan.Scan(cfg)
			if err != nil {
				return fmt.Errorf("scan source tree: %w", err)
			}

			out := cmd.OutOrStdout()
			printFilterSummary(out, cfg, len(files))
			if len(files) == 0 {
				fmt.Fprintln(out, "Nothing to do.")
				return nil
			}

			if !cfg.Run.AssumeYes {
				if !confirmProceed(cmd) {
					fmt.Fprintln(out, "Aborted; no files were touched.")
					return nil
				}
			}

			r := runner.New(cfg, store, logger)
			if isatty.IsTerminal(os.Stderr.Fd()) {
				r = r.WithProgress(os.Stderr)
			}

			run, err := r.Run(cmd.Context(), files)
			if err != nil {
				return err
			}

			printRunSummary(out, run)
			return nil
		},
	}

	cmd.Flags().StringVar(&dirFlag, "dir", "", "Root of the input tree to scan")
	cmd.Flags().StringVar(&outFlag, "out", "", "Root of the output tree (created if absent)")
	cmd.Flags().StringArrayVar(&prefixFlags, "prefix", nil, "Only process filenames starting with this prefix (repeatable)")
	cmd.Flags().StringArrayVar(&suffixFlags, "suffix", nil, "Only process filenames ending with this suffix, case-insensitive (repeatable)")
	cmd.Flags().StringArrayVar(&excludeFlags, "exclude", nil, "Skip files whose parent path contains this substring (repeatable)")
	cmd.Flags().StringVar(&logFlag, "log", "", "Also write log lines to this file")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Worker pool size (0 = one per CPU)")
	cmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func mergeRunFlags(cmd *cobra.Command, cfg *config.Config, dir, out string, prefixes, suffixes, exclude []string, logFile string, workers int, yes bool) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("dir") {
		if cfg.Paths.SourceDir, err = config.ExpandPath(dir); err != nil {
			return fmt.Errorf("--dir: %w", err)
		}
	}
	if flags.Changed("out") {
		if cfg.Paths.OutputDir, err = config.ExpandPath(out); err != nil {
			return fmt.Errorf("--out: %w", err)
		}
	}
	if flags.Changed("prefix") {
		cfg.Filters.Prefixes = prefixes
	}
	if flags.Changed("suffix") {
		cfg.Filters.Suffixes = normalizeSuffixes(suffixes)
	}
	if flags.Changed("exclude") {
		cfg.Filters.Exclude = exclude
	}
	if flags.Changed("log") {
		cfg.Logging.File = logFile
	}
	if flags.Changed("workers") {
		cfg.Run.Workers = workers
	}
	if yes {
		cfg.Run.AssumeYes = true
	}
	return nil
}

func normalizeSuffixes(suffixes []string) []string {
	out := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		out = append(out, strings.ToLower(s))
	}
	return out
}

func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	outputs := []string{"stderr"}
	if cfg.Logging.File != "" {
		outputs = append(outputs, cfg.Logging.File)
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
	})
}

// confirmProceed asks on stdin; only the exact line "y" proceeds. EOF or
// anything else aborts cleanly.
func confirmProceed(cmd *cobra.Command) bool {
	fmt.Fprint(cmd.OutOrStdout(), "Proceed? (y/n) ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimRight(line, "\r\n") == "y"
}

func printFilterSummary(out io.Writer, cfg *config.Config, fileCount int) {
	rows := [][]string{
		{"Input", cfg.Paths.SourceDir},
		{"Output", cfg.Paths.OutputDir},
		{"Prefixes", orAny(cfg.Filters.Prefixes)},
		{"Suffixes", strings.Join(cfg.Filters.Suffixes, " ")},
		{"Exclude", orNone(cfg.Filters.Exclude)},
		{"Matched files", fmt.Sprintf("%d", fileCount)},
	}
	fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil))
}

func printRunSummary(out io.Writer, run *catalog.RunSummary) {
	rows := [][]string{
		{"Copied", fmt.Sprintf("%d", run.Copied)},
		{"Collision renames", fmt.Sprintf("%d", run.Renamed)},
		{"Duplicates skipped", fmt.Sprintf("%d", run.Duplicates)},
		{"Quarantined", fmt.Sprintf("%d", run.Quarantined)},
		{"Failed", fmt.Sprintf("%d", run.Failed)},
	}
	fmt.Fprintln(out, renderTable([]string{"Outcome", "Files"}, rows, []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintln(out, runner.Describe(run))
}

func orAny(values []string) string {
	if len(values) == 0 {
		return "(any)"
	}
	return strings.Join(values, " ")
}

func orNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, " ")
}
