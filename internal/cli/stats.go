package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/reflectdev/commit-reflect/internal/analytics"
	"github.com/reflectdev/commit-reflect/internal/config"
	"github.com/reflectdev/commit-reflect/internal/storage"
)

var (
	statsProject string
	statsDays    int
	statsJSON    bool
)

// statsReadLimit bounds how many reflections a report loads into memory.
const statsReadLimit = 10000

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize stored reflections",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load settings, using defaults")
			cfg = config.Default()
		}

		store, err := storage.Open(cfg)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		reflections, err := store.ReadRecent(ctx, statsReadLimit)
		if err != nil {
			return fmt.Errorf("read reflections: %w", err)
		}

		report := analytics.New(reflections).Summary(analytics.Filter{
			Project: statsProject,
			Days:    statsDays,
		})

		if statsJSON {
			return printJSON(cmd, report)
		}
		printReport(cmd, report)
		return nil
	},
}

func printReport(cmd *cobra.Command, report *analytics.Report) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Reflections: %d", report.TotalReflections)
	if report.PeriodDays > 0 {
		fmt.Fprintf(out, " (last %d days)", report.PeriodDays)
	}
	fmt.Fprintf(out, "\nProject:     %s\n", report.Project)
	if report.AverageConfidence > 0 {
		fmt.Fprintf(out, "Confidence:  %.1f avg\n", report.AverageConfidence)
	}

	if len(report.ByProject) > 0 {
		fmt.Fprintln(out, "\nBy project:")
		for _, name := range sortedKeys(report.ByProject) {
			fmt.Fprintf(out, "  %-20s %d\n", name, report.ByProject[name])
		}
	}
	if len(report.ByBranch) > 0 {
		fmt.Fprintln(out, "\nBy branch:")
		for _, name := range sortedKeys(report.ByBranch) {
			fmt.Fprintf(out, "  %-20s %d\n", name, report.ByBranch[name])
		}
	}
	if len(report.RecentBlockers) > 0 {
		fmt.Fprintln(out, "\nRecent blockers:")
		for _, b := range report.RecentBlockers {
			fmt.Fprintf(out, "  - %s\n", b)
		}
	}
	if len(report.RecentLearnings) > 0 {
		fmt.Fprintln(out, "\nRecent learnings:")
		for _, l := range report.RecentLearnings {
			fmt.Fprintf(out, "  - %s\n", l)
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	statsCmd.Flags().StringVar(&statsProject, "project", "", "Filter by project name")
	statsCmd.Flags().IntVar(&statsDays, "days", 0, "Only include reflections from the last N days")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Emit the report as JSON")
}
