package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/pitchup/internal/challenge"
	"github.com/verte-zerg/pitchup/internal/config"
	"github.com/verte-zerg/pitchup/internal/generator"
	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/pitchsource"
	"github.com/verte-zerg/pitchup/internal/stats"
)

var (
	replayNotes     int
	replayTargets   string
	replayNotesFile string
	replaySeed      int64
	replaySave      bool
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <frames-or-audio>",
		Short: "Score a recorded take without the TUI",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplayCmd,
	}
	cmd.Flags().IntVar(&replayNotes, "notes", challenge.DefaultNotes, "target notes when drawing at random")
	cmd.Flags().StringVar(&replayTargets, "targets", "", "fixed target list, e.g. \"C4 E4 G4\"")
	cmd.Flags().StringVar(&replayNotesFile, "notes-file", "", "file with a fixed target note list")
	cmd.Flags().Int64Var(&replaySeed, "seed", 1, "seed for random targets")
	cmd.Flags().BoolVar(&replaySave, "save", false, "store the result")
	return cmd
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := challengeConfig(fileCfg)
	applyIntConfig(cmd, "notes", &replayNotes, fileCfg.Challenge.Notes)
	cfg.Notes = replayNotes
	cfg.FocusWeak = false
	targets, err := parseTargets(replayTargets, replayNotesFile)
	if err != nil {
		return err
	}
	cfg.FixedNotes = targets
	if err := validateConfig(cfg); err != nil {
		return err
	}

	log := openLogger(fileCfg)
	defer closeLogger(log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	src, closeSrc, err := openSource(ctx, args[0], aubioBin(fileCfg))
	if err != nil {
		return err
	}
	defer closeSrc()

	var (
		result model.ChallengeResult
		done   bool
	)
	clock := pitchsource.NewVirtualClock(time.Now())
	eng := challenge.New(
		challenge.WithConfig(cfg),
		challenge.WithClock(clock.Now),
		challenge.WithGenerator(generator.NewSeeded(replaySeed)),
		challenge.WithLogger(log),
		challenge.WithCompletionHandler(func(r model.ChallengeResult) {
			result, done = r, true
		}),
	)
	if err := eng.Start(); err != nil {
		return fmt.Errorf("failed to start challenge: %w", err)
	}
	frames, err := pitchsource.Replay(ctx, src, eng, clock)
	if err != nil {
		return fmt.Errorf("failed to replay %s: %w", args[0], err)
	}
	if !done {
		return fmt.Errorf("replay ended without a result")
	}
	logErrf("Replayed %d frames\n", frames)

	if replaySave {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(st)
		id, err := st.SaveResult(ctx, result)
		if err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}
		result.ID = id
	}
	if err := stats.RenderResult(cmd.OutOrStdout(), result); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
