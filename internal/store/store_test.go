package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/notemath"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "pitchup.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func sampleResult(date time.Time, reached ...bool) model.ChallengeResult {
	r := model.ChallengeResult{Date: date, AverageTimeToReach: 10000}
	successes := 0
	for i, ok := range reached {
		a := model.NoteAttempt{
			TargetNote:    notemath.Note{PitchClass: i % 12, Octave: 3 + i%3},
			ReachedNote:   ok,
			TimeToReachMs: 10000,
		}
		if ok {
			successes++
			cents := i - 3
			a.TimeToReachMs = 1500
			a.StabilityScore = 92.5
			a.AccuracyScore = 81
			a.AverageFrequency = notemath.ToFrequency(a.TargetNote)
			a.CentDifference = &cents
		}
		r.Attempts = append(r.Attempts, a)
	}
	if len(reached) > 0 {
		r.TotalScore = 100 * float64(successes) / float64(len(reached))
	}
	return r
}

func TestSaveAndGetResult(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	date := time.Date(2024, 3, 2, 9, 30, 0, 123, time.UTC)
	in := sampleResult(date, true, false, true)

	id, err := st.SaveResult(ctx, in)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	got, ok, err := st.GetResult(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected result %d to exist", id)
	}
	if got.ID != id || !got.Date.Equal(date) {
		t.Fatalf("unexpected header: %+v", got)
	}
	if len(got.Attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(got.Attempts))
	}
	first := got.Attempts[0]
	if !first.ReachedNote || first.TimeToReachMs != 1500 || first.StabilityScore != 92.5 {
		t.Fatalf("unexpected first attempt: %+v", first)
	}
	if first.CentDifference == nil || *first.CentDifference != -3 {
		t.Fatalf("expected cent difference -3, got %v", first.CentDifference)
	}
	if got.Attempts[1].CentDifference != nil {
		t.Fatalf("expected missing cent difference for failed attempt")
	}
	if got.Attempts[1].TargetNote != (notemath.Note{PitchClass: 1, Octave: 4}) {
		t.Fatalf("unexpected target note: %v", got.Attempts[1].TargetNote)
	}
}

func TestGetResultMissing(t *testing.T) {
	st := openTestStore(t)
	_, ok, err := st.GetResult(context.Background(), 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected missing result")
	}
}

func TestListResultsOrderAndSince(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Saved out of order to check date ordering.
	for _, offset := range []int{2, 0, 1} {
		if _, err := st.SaveResult(ctx, sampleResult(base.Add(time.Duration(offset)*time.Hour), true)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	all, err := st.ListResults(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 results, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Date.Before(all[i-1].Date) {
			t.Fatalf("results not ordered by date: %+v", all)
		}
	}
	if len(all[0].Attempts) != 1 {
		t.Fatalf("expected attempts to be loaded, got %+v", all[0])
	}

	since := base.Add(time.Hour)
	recent, err := st.ListResults(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 results since %v, got %d", since, len(recent))
	}
}

func TestDeleteResult(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id, err := st.SaveResult(ctx, sampleResult(time.Now(), true, false))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.DeleteResult(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := st.GetResult(ctx, id); ok {
		t.Fatalf("expected result to be gone")
	}
	aggs, err := st.ListNoteAggregatesForResults(ctx, []int64{id})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 0 {
		t.Fatalf("expected attempts to cascade, got %+v", aggs)
	}
	if err := st.DeleteResult(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNoteAggregates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 3; i++ {
		// Attempt 0 targets C, attempt 1 targets C#.
		id, err := st.SaveResult(ctx, sampleResult(base.Add(time.Duration(i)*time.Minute), i != 0, false))
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		ids = append(ids, id)
	}

	aggs, err := st.ListNoteAggregatesForResults(ctx, ids)
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	byPC := map[int]model.NoteAggregate{}
	for _, agg := range aggs {
		byPC[agg.PitchClass] = agg
	}
	c := byPC[0]
	if c.Attempts != 3 || c.Reached != 2 || c.TimeSumMs != 3000 {
		t.Fatalf("unexpected C aggregate: %+v", c)
	}
	if cs := byPC[1]; cs.Attempts != 3 || cs.Reached != 0 || cs.TimeSumMs != 0 {
		t.Fatalf("unexpected C# aggregate: %+v", cs)
	}

	weak, err := st.GetWeakNotes(ctx, 1)
	if err != nil {
		t.Fatalf("weak notes: %v", err)
	}
	for _, agg := range weak {
		if agg.Attempts != 1 {
			t.Fatalf("expected window of one result, got %+v", agg)
		}
	}
	if len(weak) != 2 {
		t.Fatalf("expected two pitch classes in window, got %+v", weak)
	}
	if none, _ := st.GetWeakNotes(ctx, 0); none != nil {
		t.Fatalf("expected nil for empty window")
	}
}

func TestListSummariesNewestFirst(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := st.SaveResult(ctx, sampleResult(base.Add(time.Duration(i)*time.Hour), true, false)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	rows, err := st.ListSummaries(ctx, 2)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].Date.Equal(base.Add(2*time.Hour)) || rows[0].NoteCount != 2 || rows[0].TotalScore != 50 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
}
