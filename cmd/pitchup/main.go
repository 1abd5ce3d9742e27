// Package main provides the CLI entrypoint for pitchup.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/pitchup/internal/challenge"
	"github.com/verte-zerg/pitchup/internal/config"
	"github.com/verte-zerg/pitchup/internal/logging"
	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/notelist"
	"github.com/verte-zerg/pitchup/internal/notemath"
	"github.com/verte-zerg/pitchup/internal/pitchsource"
	"github.com/verte-zerg/pitchup/internal/practice"
	"github.com/verte-zerg/pitchup/internal/store"
	"github.com/verte-zerg/pitchup/internal/tui"
)

const (
	defaultWeakTop     = 3
	defaultWeakFactor  = 3.0
	defaultWeakWindow  = 20
	defaultCurveWindow = 20
)

var (
	configPath string
	dbPath     string

	practiceSource     string
	practiceNotes      int
	practiceNotesFile  string
	practiceOctaves    []int
	practiceFocusWeak  bool
	practiceWeakTop    int
	practiceWeakFactor float64
	practiceWeakWindow int
)

var audioExts = map[string]struct{}{
	".wav":  {},
	".flac": {},
	".mp3":  {},
	".ogg":  {},
	".aif":  {},
	".aiff": {},
	".m4a":  {},
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pitchup",
		Short:         "TUI vocal pitch trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "results database path")

	rootCmd.Flags().StringVar(&practiceSource, "source", "", "pitch source: '-' for stdin lines, a frame file, or an audio file")
	rootCmd.Flags().IntVar(&practiceNotes, "notes", challenge.DefaultNotes, "target notes per session")
	rootCmd.Flags().StringVar(&practiceNotesFile, "notes-file", "", "file with a fixed target note list")
	rootCmd.Flags().IntSliceVar(&practiceOctaves, "octaves", challenge.DefaultOctaves, "octaves targets are drawn from")
	rootCmd.Flags().BoolVar(&practiceFocusWeak, "focus-weak", false, "bias targets toward weak notes")
	rootCmd.Flags().IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak notes to focus on")
	rootCmd.Flags().Float64Var(&practiceWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak notes")
	rootCmd.Flags().IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent results to compute weak notes")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newResultsCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "notes", &practiceNotes, fileCfg.Challenge.Notes)
	applyIntSliceConfig(cmd, "octaves", &practiceOctaves, fileCfg.Challenge.Octaves)
	applyBoolConfig(cmd, "focus-weak", &practiceFocusWeak, fileCfg.Challenge.FocusWeak)
	applyIntConfig(cmd, "weak-top", &practiceWeakTop, fileCfg.Challenge.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &practiceWeakFactor, fileCfg.Challenge.WeakFactor)
	applyIntConfig(cmd, "weak-window", &practiceWeakWindow, fileCfg.Challenge.WeakWindow)

	cfg := challengeConfig(fileCfg)
	cfg.Notes = practiceNotes
	cfg.Octaves = practiceOctaves
	cfg.FocusWeak = practiceFocusWeak
	cfg.WeakTop = practiceWeakTop
	cfg.WeakFactor = practiceWeakFactor
	cfg.WeakWindow = practiceWeakWindow
	if practiceNotesFile != "" {
		notes, err := notelist.LoadNotes(practiceNotesFile)
		if err != nil {
			return fmt.Errorf("failed to load notes file: %w", err)
		}
		cfg.FixedNotes = notes
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	log := openLogger(fileCfg)
	defer closeLogger(log)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var frames chan pitchsource.Frame
	if practiceSource != "" {
		src, closeSrc, err := openSource(ctx, practiceSource, aubioBin(fileCfg))
		if err != nil {
			return err
		}
		defer closeSrc()
		frames = make(chan pitchsource.Frame, 64)
		pace := practiceSource != "-"
		go func() {
			if err := pitchsource.Pump(ctx, src, frames, pace); err != nil && ctx.Err() == nil {
				log.Warn("pitch source stopped", "error", err)
			}
		}()
	}

	svc := practice.New(st, cfg, practice.WithLogger(log))
	if err := svc.Refresh(ctx); err != nil {
		logErrf("failed to load results: %v\n", err)
	}
	if cfg.FocusWeak && len(svc.Results()) == 0 {
		logErrln("no stats available for weak-note focus yet; using uniform targets")
	}

	ui := tui.NewModel(svc, frames, log)
	defer ui.Close()

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if practiceSource == "-" {
		opts = append(opts, tea.WithInputTTY())
	}
	program := tea.NewProgram(ui, opts...)
	_, runErr := program.Run()
	cancel()
	svc.Wait()
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	return nil
}

// challengeConfig builds engine settings from defaults and the config file.
func challengeConfig(fileCfg config.FileConfig) model.Config {
	cfg := challenge.DefaultConfig()
	cfg.WeakTop = defaultWeakTop
	cfg.WeakFactor = defaultWeakFactor
	cfg.WeakWindow = defaultWeakWindow
	c := fileCfg.Challenge
	if c.Notes != nil {
		cfg.Notes = *c.Notes
	}
	if len(c.Octaves) > 0 {
		cfg.Octaves = append([]int(nil), c.Octaves...)
	}
	if c.ClarityFloor != nil {
		cfg.ClarityFloor = *c.ClarityFloor
	}
	if c.StabilityThreshold != nil {
		cfg.StabilityThreshold = *c.StabilityThreshold
	}
	if c.AccuracyThreshold != nil {
		cfg.AccuracyThreshold = *c.AccuracyThreshold
	}
	if c.MaxAttemptMs != nil {
		cfg.MaxAttemptMs = *c.MaxAttemptMs
	}
	if c.MinSamples != nil {
		cfg.MinSamples = *c.MinSamples
	}
	if c.FocusWeak != nil {
		cfg.FocusWeak = *c.FocusWeak
	}
	if c.WeakTop != nil {
		cfg.WeakTop = *c.WeakTop
	}
	if c.WeakFactor != nil {
		cfg.WeakFactor = *c.WeakFactor
	}
	if c.WeakWindow != nil {
		cfg.WeakWindow = *c.WeakWindow
	}
	return cfg
}

func validateConfig(cfg model.Config) error {
	if cfg.Notes <= 0 && len(cfg.FixedNotes) == 0 {
		return fmt.Errorf("--notes must be > 0")
	}
	if len(cfg.Octaves) == 0 {
		return fmt.Errorf("--octaves must not be empty")
	}
	for _, oct := range cfg.Octaves {
		if oct < 0 || oct > 8 {
			return fmt.Errorf("--octaves values must be between 0 and 8")
		}
	}
	if cfg.ClarityFloor < 0 || cfg.ClarityFloor > 1 {
		return fmt.Errorf("clarity-floor must be between 0 and 1")
	}
	if cfg.StabilityThreshold <= 0 || cfg.StabilityThreshold > 1 {
		return fmt.Errorf("stability-threshold must be in (0, 1]")
	}
	if cfg.MaxAttemptMs <= 0 {
		return fmt.Errorf("max-attempt-ms must be > 0")
	}
	if cfg.MinSamples < 0 {
		return fmt.Errorf("min-samples must be >= 0")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

// openSource resolves a --source value. The returned func releases the source.
func openSource(ctx context.Context, path, aubio string) (pitchsource.Source, func(), error) {
	if path == "-" {
		return pitchsource.NewLineSource(os.Stdin, pitchsource.DefaultFrameInterval), func() {}, nil
	}
	if _, ok := audioExts[strings.ToLower(filepath.Ext(path))]; ok {
		list, err := pitchsource.LoadAubio(ctx, aubio, path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to analyse %s: %w", path, err)
		}
		return list, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open source: %w", err)
	}
	closeFn := func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only frame file.
			_ = cerr
		}
	}
	return pitchsource.NewLineSource(file, pitchsource.DefaultFrameInterval), closeFn, nil
}

func aubioBin(fileCfg config.FileConfig) string {
	if fileCfg.Source.AubioBin != nil {
		return *fileCfg.Source.AubioBin
	}
	return pitchsource.DefaultAubioBin
}

func openStore() (*store.Store, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// openLogger falls back to a no-op logger when the log file cannot be opened.
func openLogger(fileCfg config.FileConfig) *logging.Logger {
	level := logging.LevelInfo
	if fileCfg.Log.Level != nil {
		level = *fileCfg.Log.Level
	}
	if !logging.IsValidLevel(level) {
		logErrf("unknown log level %q (valid: %s); using %s\n", level, strings.Join(logging.ValidLevels(), ", "), logging.LevelInfo)
		level = logging.LevelInfo
	}
	log, err := logging.NewLogger(config.DefaultLogDir(), level)
	if err != nil {
		logErrf("failed to open log file: %v\n", err)
		return logging.NopLogger()
	}
	return log
}

func closeLogger(log *logging.Logger) {
	if cerr := log.Close(); cerr != nil {
		_ = cerr
	}
}

func parseTargets(list, file string) ([]notemath.Note, error) {
	if file != "" {
		notes, err := notelist.LoadNotes(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load notes file: %w", err)
		}
		return notes, nil
	}
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	notes, err := notelist.ParseList(list)
	if err != nil {
		return nil, fmt.Errorf("invalid --targets value: %w", err)
	}
	return notes, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	if err := config.WriteTemplate(configPath); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], configPath)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func parseSince(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --since value: %w", err)
	}
	return &parsed, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntSliceConfig(cmd *cobra.Command, name string, target *[]int, value []int) {
	if len(value) == 0 {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]int(nil), value...)
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
