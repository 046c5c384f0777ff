package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"snapsort/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the run catalog",
	}

	catalogCmd.AddCommand(newCatalogRunsCommand(ctx))
	catalogCmd.AddCommand(newCatalogStatsCommand(ctx))
	catalogCmd.AddCommand(newCatalogClearCommand(ctx))

	return catalogCmd
}

func newCatalogRunsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context())
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Local().Format(time.DateTime),
					finishedLabel(run),
					run.SourceDir,
					strconv.Itoa(run.Total()),
					strconv.Itoa(run.Failed),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Finished", "Source", "Files", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newCatalogStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-outcome totals across all runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("collect stats: %w", err)
			}

			order := []catalog.Status{
				catalog.StatusCopied,
				catalog.StatusRenamed,
				catalog.StatusDuplicate,
				catalog.StatusQuarantined,
				catalog.StatusFailed,
			}
			rows := make([][]string, 0, len(order))
			total := 0
			for _, status := range order {
				rows = append(rows, []string{string(status), strconv.Itoa(stats[status])})
				total += stats[status]
			}
			rows = append(rows, []string{"total", strconv.Itoa(total)})

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Outcome", "Files"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newCatalogClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs and file records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to clear the catalog without --force")
			}
			store, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear catalog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s) from %s\n", removed, store.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Actually delete the catalog contents")
	return cmd
}

func openCatalog(ctx *commandContext) (*catalog.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return store, nil
}

func finishedLabel(run *catalog.RunSummary) string {
	if run.FinishedAt == nil {
		return "(in progress)"
	}
	return run.FinishedAt.Local().Format(time.DateTime)
}
