package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/pitchup/internal/stats"
	"github.com/verte-zerg/pitchup/internal/store"
)

var resultsLimit int

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "List, show, or delete stored results",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List results, newest first",
		Args:  cobra.NoArgs,
		RunE:  runResultsListCmd,
	}
	listCmd.Flags().IntVar(&resultsLimit, "limit", 20, "maximum results to list (0 for all)")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one result with every attempt",
		Args:  cobra.ExactArgs(1),
		RunE:  runResultsShowCmd,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one result",
		Args:  cobra.ExactArgs(1),
		RunE:  runResultsDeleteCmd,
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}

func runResultsListCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	summaries, err := st.ListSummaries(context.Background(), resultsLimit)
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}
	if len(summaries) == 0 {
		logErrln("No results found.")
		return nil
	}
	w := cmd.OutOrStdout()
	for _, s := range summaries {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%.1f%%\t%s\t%.1f%%\t%.1f%%\t%d notes\n",
			s.ID, s.Date.Local().Format("2006-01-02 15:04"), s.TotalScore,
			stats.FormatMs(s.AverageTimeToReach), s.AverageStability, s.AverageAccuracy, s.NoteCount); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runResultsShowCmd(cmd *cobra.Command, args []string) error {
	id, err := parseResultID(args[0])
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	r, ok, err := st.GetResult(context.Background(), id)
	if err != nil {
		return fmt.Errorf("failed to load result: %w", err)
	}
	if !ok {
		return fmt.Errorf("result %d not found", id)
	}
	if err := stats.RenderResult(cmd.OutOrStdout(), r); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runResultsDeleteCmd(_ *cobra.Command, args []string) error {
	id, err := parseResultID(args[0])
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.DeleteResult(context.Background(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("result %d not found", id)
		}
		return fmt.Errorf("failed to delete result: %w", err)
	}
	logErrf("Deleted result %d\n", id)
	return nil
}

func parseResultID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid result id %q", arg)
	}
	return id, nil
}
