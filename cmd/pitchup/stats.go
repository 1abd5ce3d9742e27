package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/notemath"
	"github.com/verte-zerg/pitchup/internal/stats"
	"github.com/verte-zerg/pitchup/internal/statsui"
)

const topNotesShown = 5

var (
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsNotes       string
	statsPlain       bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N results")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsNotes, "notes", "", "pitch classes for the note table, e.g. C,F#,Bb")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the browser")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	sinceTime, err := parseSince(statsSince)
	if err != nil {
		return err
	}
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	if _, err := stats.ParseNoteFilter(statsNotes); err != nil {
		return err
	}

	cfg := model.StatsConfig{
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Notes:       statsNotes,
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if statsPlain {
		report, err := stats.BuildReport(context.Background(), st, cfg)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		return writePlainReport(cmd.OutOrStdout(), report, cfg.CurveWindow)
	}

	ui := statsui.NewModel(st, cfg)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func writePlainReport(w io.Writer, report stats.Report, window int) error {
	if err := stats.RenderSummary(w, report.Results); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(report.Results) == 0 {
		return nil
	}
	if err := stats.RenderCurves(w, report.Results, window); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderNoteTable(w, report.NoteAggsWindow); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	top := stats.TopNotesByFrequency(report.NoteAggsAll, topNotesShown)
	if len(top) == 0 {
		return nil
	}
	names := make([]string, len(top))
	for i, pc := range top {
		names[i] = notemath.PitchClassName(pc)
	}
	if _, err := fmt.Fprintf(w, "Most practiced: %s\n", strings.Join(names, ", ")); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
