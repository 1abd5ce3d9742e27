package challenge

import (
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/pitchup/internal/generator"
	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/notemath"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(t *testing.T, clock *fakeClock, opts ...Option) (*Engine, *[]model.ChallengeResult) {
	t.Helper()
	var results []model.ChallengeResult
	base := []Option{
		WithClock(clock.Now),
		WithGenerator(generator.NewSeeded(1)),
		WithCompletionHandler(func(r model.ChallengeResult) {
			results = append(results, r)
		}),
	}
	return New(append(base, opts...)...), &results
}

func notes(names ...string) []notemath.Note {
	out := make([]notemath.Note, len(names))
	for i, n := range names {
		out[i] = notemath.MustParseNote(n)
	}
	return out
}

func sing(t *testing.T, e *Engine, freq, clarity float64, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		if err := e.ProcessSample(model.PitchSample{Frequency: freq, Clarity: clarity}); err != nil {
			t.Fatalf("process sample: %v", err)
		}
	}
}

func TestExactPitchScoresFull(t *testing.T) {
	clock := newFakeClock()
	e, results := newTestEngine(t, clock)
	if err := e.StartWith(notes("A4")); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(300 * time.Millisecond)
	sing(t, e, 440, 1.0, 4)
	if got := e.State(); len(got.Attempts) != 0 || got.CurrentAttempt == nil {
		t.Fatalf("expected open attempt after 4 samples, got %+v", got)
	}
	sing(t, e, 440, 1.0, 1)

	st := e.State()
	if st.Active {
		t.Fatalf("expected session to complete")
	}
	if len(st.Attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(st.Attempts))
	}
	a := st.Attempts[0]
	if !a.ReachedNote || a.StabilityScore != 100 || a.AccuracyScore != 100 {
		t.Fatalf("unexpected attempt: %+v", a)
	}
	if a.TimeToReachMs != 300 {
		t.Fatalf("expected time to reach 300ms, got %d", a.TimeToReachMs)
	}
	if a.AverageFrequency != 440 {
		t.Fatalf("expected average frequency 440, got %v", a.AverageFrequency)
	}
	if a.CentDifference == nil || *a.CentDifference != 0 {
		t.Fatalf("expected cent difference 0, got %v", a.CentDifference)
	}
	if len(*results) != 1 || (*results)[0].TotalScore != 100 {
		t.Fatalf("unexpected results: %+v", *results)
	}
}

func TestSilentTargetTimesOutAsFailure(t *testing.T) {
	clock := newFakeClock()
	e, results := newTestEngine(t, clock)
	if err := e.StartWith(notes("C4", "D4")); err != nil {
		t.Fatalf("start: %v", err)
	}
	for elapsed := 0; elapsed < 10000; elapsed += 1000 {
		sing(t, e, 261.63, 0.5, 1)
		clock.Advance(time.Second)
	}
	if st := e.State(); len(st.Attempts) != 0 || st.CurrentAttempt != nil {
		t.Fatalf("low clarity samples must not open an attempt: %+v", st)
	}
	// Exactly 10000ms have elapsed now.
	sing(t, e, 261.63, 0.5, 1)

	st := e.State()
	if len(st.Attempts) != 1 {
		t.Fatalf("expected timeout to close the attempt, got %d attempts", len(st.Attempts))
	}
	a := st.Attempts[0]
	if a.ReachedNote || a.TimeToReachMs != 10000 || a.StabilityScore != 0 || a.AccuracyScore != 0 || a.AverageFrequency != 0 {
		t.Fatalf("expected fully failed attempt, got %+v", a)
	}
	if a.TargetNote != notemath.MustParseNote("C4") {
		t.Fatalf("unexpected target %v", a.TargetNote)
	}
	if !st.Active || st.CurrentNoteIndex != 1 {
		t.Fatalf("expected session to move to the second note: %+v", st)
	}
	if len(*results) != 0 {
		t.Fatalf("unexpected completion")
	}
}

func TestTimeoutOneMillisecondEarlyKeepsAttemptOpen(t *testing.T) {
	clock := newFakeClock()
	e, _ := newTestEngine(t, clock)
	if err := e.StartWith(notes("C4")); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(9999 * time.Millisecond)
	sing(t, e, 300, 0.9, 1)
	if st := e.State(); len(st.Attempts) != 0 {
		t.Fatalf("attempt closed before the time budget: %+v", st.Attempts)
	}
}

func TestOctaveIsIgnoredForMatching(t *testing.T) {
	clock := newFakeClock()
	e, _ := newTestEngine(t, clock)
	if err := e.StartWith(notes("C4")); err != nil {
		t.Fatalf("start: %v", err)
	}
	c3 := notemath.ToFrequency(notemath.MustParseNote("C3"))
	sing(t, e, c3, 0.9, 1)
	st := e.State()
	if st.CurrentAttempt == nil || !st.CurrentAttempt.ReachedNote {
		t.Fatalf("expected C3 to count as reaching C4: %+v", st.CurrentAttempt)
	}
	sing(t, e, c3, 0.9, 4)
	st = e.State()
	if len(st.Attempts) != 1 || st.Attempts[0].StabilityScore != 100 {
		t.Fatalf("expected stable close on C3, got %+v", st.Attempts)
	}
	if st.Attempts[0].AccuracyScore != 0 {
		t.Fatalf("expected an octave off to score no accuracy, got %v", st.Attempts[0].AccuracyScore)
	}
}

func TestFirstMatchLatches(t *testing.T) {
	clock := newFakeClock()
	e, _ := newTestEngine(t, clock)
	if err := e.StartWith(notes("A4")); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(100 * time.Millisecond)
	sing(t, e, 300, 1, 1)
	st := e.State()
	if st.CurrentAttempt == nil || st.CurrentAttempt.ReachedNote || st.CurrentAttempt.TimeToReachMs != 100 {
		t.Fatalf("unexpected opened attempt: %+v", st.CurrentAttempt)
	}

	clock.Advance(200 * time.Millisecond)
	sing(t, e, 440, 1, 1)
	clock.Advance(200 * time.Millisecond)
	sing(t, e, 300, 1, 5)
	st = e.State()
	if !st.CurrentAttempt.ReachedNote || st.CurrentAttempt.TimeToReachMs != 300 {
		t.Fatalf("expected match latched at 300ms: %+v", st.CurrentAttempt)
	}

	clock.Advance(10 * time.Second)
	sing(t, e, 300, 1, 1)
	st = e.State()
	if len(st.Attempts) != 1 {
		t.Fatalf("expected timeout close")
	}
	a := st.Attempts[0]
	if !a.ReachedNote || a.TimeToReachMs != 300 {
		t.Fatalf("latched reach lost on timeout: %+v", a)
	}
	if a.StabilityScore >= 90 || a.StabilityScore <= 0 {
		t.Fatalf("expected partial stability, got %v", a.StabilityScore)
	}
	if a.CentDifference != nil {
		t.Fatalf("expected no cent difference when the mean misses the target, got %d", *a.CentDifference)
	}
}

func TestOpenedButUnreachedKeepsObservedTime(t *testing.T) {
	clock := newFakeClock()
	e, _ := newTestEngine(t, clock)
	if err := e.StartWith(notes("A4")); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(50 * time.Millisecond)
	sing(t, e, 300, 1, 1)
	clock.Advance(10 * time.Second)
	sing(t, e, 300, 1, 1)
	a := e.State().Attempts[0]
	if a.ReachedNote || a.TimeToReachMs != 50 {
		t.Fatalf("expected unreached attempt to keep its 50ms open time: %+v", a)
	}
}

func TestLowClarityMatchLatchesOpenAttempt(t *testing.T) {
	clock := newFakeClock()
	e, _ := newTestEngine(t, clock)
	if err := e.StartWith(notes("A4")); err != nil {
		t.Fatalf("start: %v", err)
	}
	sing(t, e, 300, 1, 1)
	clock.Advance(2 * time.Second)
	sing(t, e, 440, 0.5, 1)

	st := e.State()
	if st.CurrentAttempt == nil {
		t.Fatalf("expected open attempt")
	}
	if !st.CurrentAttempt.ReachedNote || st.CurrentAttempt.TimeToReachMs != 2000 {
		t.Fatalf("expected low clarity match latched at 2000ms: %+v", st.CurrentAttempt)
	}
	if len(st.FrequencySamples) != 1 {
		t.Fatalf("low clarity sample must stay out of the window, got %v", st.FrequencySamples)
	}
}

func TestLowClarityMatchDoesNotOpenAttempt(t *testing.T) {
	clock := newFakeClock()
	e, _ := newTestEngine(t, clock)
	if err := e.StartWith(notes("A4")); err != nil {
		t.Fatalf("start: %v", err)
	}
	sing(t, e, 440, 0.5, 3)
	if st := e.State(); st.CurrentAttempt != nil || len(st.Attempts) != 0 {
		t.Fatalf("low clarity samples must not open an attempt: %+v", st)
	}
}

func TestResultHasAttemptPerNote(t *testing.T) {
	clock := newFakeClock()
	e, results := newTestEngine(t, clock)
	targets := notes("A4", "A4", "A4", "A4", "A4", "A4", "A4", "A4", "A4", "A4")
	if err := e.StartWith(targets); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 6; i++ {
		clock.Advance(time.Second)
		sing(t, e, 440, 1, 5)
	}
	for i := 0; i < 4; i++ {
		clock.Advance(10 * time.Second)
		if !e.CheckTimeout() {
			t.Fatalf("expected timeout %d to close", i)
		}
	}
	if len(*results) != 1 {
		t.Fatalf("expected one result, got %d", len(*results))
	}
	r := (*results)[0]
	if len(r.Attempts) != len(targets) {
		t.Fatalf("expected %d attempts, got %d", len(targets), len(r.Attempts))
	}
	if r.TotalScore != 60 {
		t.Fatalf("expected score 60, got %v", r.TotalScore)
	}
	if r.AverageTimeToReach != 1000 {
		t.Fatalf("expected avg time 1000ms, got %v", r.AverageTimeToReach)
	}
	if r.AverageStability != 60 {
		t.Fatalf("expected avg stability 60, got %v", r.AverageStability)
	}
	if !r.Date.Equal(clock.Now()) {
		t.Fatalf("expected result date from clock")
	}
	if e.State().Active {
		t.Fatalf("expected session to be inactive")
	}
}

func TestCheckTimeoutBeforeBudget(t *testing.T) {
	clock := newFakeClock()
	e, _ := newTestEngine(t, clock)
	if e.CheckTimeout() {
		t.Fatalf("idle engine must not time out")
	}
	if err := e.StartWith(notes("A4")); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(5 * time.Second)
	if e.CheckTimeout() {
		t.Fatalf("timed out early")
	}
}

func TestCancelProducesNoResult(t *testing.T) {
	clock := newFakeClock()
	e, results := newTestEngine(t, clock)
	if err := e.StartWith(notes("A4", "B4")); err != nil {
		t.Fatalf("start: %v", err)
	}
	sing(t, e, 440, 1, 5)
	e.Cancel()
	st := e.State()
	if st.Active {
		t.Fatalf("expected inactive after cancel")
	}
	if len(*results) != 0 {
		t.Fatalf("cancel must not produce a result")
	}
	sing(t, e, 493.88, 1, 5)
	if got := e.State(); got.CurrentNoteIndex != 1 {
		t.Fatalf("samples after cancel must be ignored: %+v", got)
	}
}

func TestStartWhileActive(t *testing.T) {
	e, _ := newTestEngine(t, newFakeClock())
	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.Start(); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
	if err := e.StartWith(notes("C4")); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
}

func TestStartDrawsConfiguredTargets(t *testing.T) {
	e, _ := newTestEngine(t, newFakeClock(), WithNotes(12), WithOctaves(2, 6))
	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	st := e.State()
	if len(st.Notes) != 12 {
		t.Fatalf("expected 12 notes, got %d", len(st.Notes))
	}
	for _, n := range st.Notes {
		if n.Octave != 2 && n.Octave != 6 {
			t.Fatalf("unexpected octave in %v", n)
		}
	}
	if st.StabilityThreshold != DefaultStabilityThreshold || st.AccuracyThreshold != DefaultAccuracyThreshold {
		t.Fatalf("unexpected thresholds: %+v", st)
	}
}

func TestStartUsesFixedNotes(t *testing.T) {
	fixed := notes("E3", "G3")
	e, _ := newTestEngine(t, newFakeClock(), WithConfig(model.Config{FixedNotes: fixed}))
	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	st := e.State()
	if len(st.Notes) != 2 || st.Notes[0] != fixed[0] || st.Notes[1] != fixed[1] {
		t.Fatalf("expected fixed notes, got %v", st.Notes)
	}
}

func TestStartWithNoNotes(t *testing.T) {
	e, _ := newTestEngine(t, newFakeClock())
	if err := e.StartWith(nil); !errors.Is(err, ErrNoNotes) {
		t.Fatalf("expected ErrNoNotes, got %v", err)
	}
	if e.State().Active {
		t.Fatalf("engine must stay idle")
	}
}

func TestRestartDiscardsSession(t *testing.T) {
	clock := newFakeClock()
	e, results := newTestEngine(t, clock, WithNotes(3))
	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(10 * time.Second)
	e.CheckTimeout()
	if err := e.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	st := e.State()
	if !st.Active || st.CurrentNoteIndex != 0 || len(st.Attempts) != 0 {
		t.Fatalf("expected fresh session, got %+v", st)
	}
	if len(*results) != 0 {
		t.Fatalf("restart must not produce a result")
	}
}

func TestInvalidFrequency(t *testing.T) {
	e, _ := newTestEngine(t, newFakeClock())
	if err := e.ProcessSample(model.PitchSample{Frequency: -1, Clarity: 1}); err != nil {
		t.Fatalf("idle engine should ignore samples, got %v", err)
	}
	if err := e.StartWith(notes("A4")); err != nil {
		t.Fatalf("start: %v", err)
	}
	sing(t, e, 440, 1, 2)
	before := e.State()
	for _, f := range []float64{0, -440} {
		if err := e.ProcessSample(model.PitchSample{Frequency: f, Clarity: 1}); !errors.Is(err, ErrInvalidFrequency) {
			t.Fatalf("expected ErrInvalidFrequency for %v, got %v", f, err)
		}
	}
	after := e.State()
	if len(after.FrequencySamples) != len(before.FrequencySamples) {
		t.Fatalf("invalid sample changed state")
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	clock := newFakeClock()
	e, _ := newTestEngine(t, clock)
	var snaps []model.ChallengeState
	unsubscribe := e.Subscribe(func(s model.ChallengeState) {
		snaps = append(snaps, s)
	})
	defer unsubscribe()

	if err := e.StartWith(notes("A4", "C4")); err != nil {
		t.Fatalf("start: %v", err)
	}
	sing(t, e, 440, 1, 2)
	if len(snaps) != 3 {
		t.Fatalf("expected a snapshot per call, got %d", len(snaps))
	}
	if len(snaps[1].FrequencySamples) != 1 || len(snaps[2].FrequencySamples) != 2 {
		t.Fatalf("earlier snapshot changed: %v / %v", snaps[1].FrequencySamples, snaps[2].FrequencySamples)
	}

	snaps[2].FrequencySamples[0] = 1
	snaps[2].Notes[0] = notemath.MustParseNote("B2")
	snaps[2].CurrentAttempt.ReachedNote = false
	st := e.State()
	if st.FrequencySamples[0] != 440 || st.Notes[0] != notemath.MustParseNote("A4") || !st.CurrentAttempt.ReachedNote {
		t.Fatalf("mutating a snapshot leaked into the engine: %+v", st)
	}
}

func TestSubscribeReplaysLatest(t *testing.T) {
	e, _ := newTestEngine(t, newFakeClock())
	if err := e.StartWith(notes("A4")); err != nil {
		t.Fatalf("start: %v", err)
	}
	var got []model.ChallengeState
	unsubscribe := e.Subscribe(func(s model.ChallengeState) { got = append(got, s) })
	if len(got) != 1 || !got[0].Active {
		t.Fatalf("expected latest snapshot on subscribe, got %+v", got)
	}
	unsubscribe()
	e.Cancel()
	if len(got) != 1 {
		t.Fatalf("unsubscribed handler still called")
	}
}

func TestWeakNotesBiasTargets(t *testing.T) {
	e, _ := newTestEngine(t, newFakeClock(), WithNotes(200))
	e.SetWeakNotes(map[int]struct{}{1: {}}, 20)
	if err := e.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	count := 0
	for _, n := range e.State().Notes {
		if n.PitchClass == 1 {
			count++
		}
	}
	if count < 50 {
		t.Fatalf("expected C# to dominate, got %d of 200", count)
	}
}
