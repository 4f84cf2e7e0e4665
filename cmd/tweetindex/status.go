// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gwlib/tweetindex/internal/journal"
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show recent ingest runs from the local journal",
	Long: `Status lists recent ingest runs recorded in the local journal. With a
run id argument it shows that run's per-file outcomes instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	jrn, err := journal.Open(cfg.StateDir)
	if err != nil {
		return err
	}
	defer jrn.Close()

	if len(args) == 1 {
		return printRunFiles(jrn, args[0])
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := jrn.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No ingest runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-26s  %-6s  %-19s  %-8s  %-7s  %-6s  %s\n",
		"Run", "Source", "Started", "Indexed", "Skipped", "Failed", "Tweets")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 92))
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%-26s  %-6s  %-19s  %-8d  %-7d  %-6d  %d\n",
			r.ID, r.Source, r.StartedAt.Local().Format(time.DateTime),
			r.FilesIndexed, r.FilesSkipped, r.FilesFailed, r.TweetsIndexed)
	}
	return nil
}

func printRunFiles(jrn *journal.Journal, runID string) error {
	files, err := jrn.RunFiles(runID)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No files recorded for run %s.\n", runID)
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-40s  %-34s  %-8s  %s\n", "Source", "Checksum", "Tweets", "Error")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, f := range files {
		errText := f.Error
		if len(errText) > 40 {
			errText = errText[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-40s  %-34s  %-8d  %s\n", f.File, f.Checksum, f.Tweets, errText)
	}
	return nil
}

func init() {
	statusCmd.Flags().Int("limit", 10, "maximum number of runs to list")
	rootCmd.AddCommand(statusCmd)
}
