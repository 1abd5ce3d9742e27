package stats

import (
	"context"
	"fmt"
	"strings"

	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/notemath"
)

// Source is the read side of the result store used for reporting.
type Source interface {
	ListResults(ctx context.Context, cfg model.StatsConfig) ([]model.ChallengeResult, error)
	ListNoteAggregatesForResults(ctx context.Context, resultIDs []int64) ([]model.NoteAggregate, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Results         []model.ChallengeResult
	WindowResultIDs []int64
	NoteAggsAll     []model.NoteAggregate
	NoteAggsWindow  []model.NoteAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig) (Report, error) {
	noteFilter, err := ParseNoteFilter(cfg.Notes)
	if err != nil {
		return Report{}, err
	}
	results, err := src.ListResults(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(results) > cfg.Last {
		results = results[len(results)-cfg.Last:]
	}

	allIDs := resultIDs(results)
	windowIDs := lastResultIDs(results, cfg.CurveWindow)
	aggsAll, err := src.ListNoteAggregatesForResults(ctx, allIDs)
	if err != nil {
		return Report{}, err
	}
	aggsWindow, err := src.ListNoteAggregatesForResults(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Results:         results,
		WindowResultIDs: windowIDs,
		NoteAggsAll:     FilterAggregates(aggsAll, noteFilter),
		NoteAggsWindow:  FilterAggregates(aggsWindow, noteFilter),
	}, nil
}

func resultIDs(results []model.ChallengeResult) []int64 {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func lastResultIDs(results []model.ChallengeResult, window int) []int64 {
	if window <= 0 || len(results) <= window {
		return resultIDs(results)
	}
	return resultIDs(results[len(results)-window:])
}

// ParseNoteFilter parses a comma-separated pitch class list such as "C,F#,Bb".
// An empty list means no filtering and yields a nil set.
func ParseNoteFilter(list string) (map[int]struct{}, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}
	set := map[int]struct{}{}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pc, err := notemath.ParsePitchClass(part)
		if err != nil {
			return nil, fmt.Errorf("invalid note filter: %w", err)
		}
		set[pc] = struct{}{}
	}
	return set, nil
}

// FilterAggregates keeps aggregates whose pitch class is in set. A nil set keeps everything.
func FilterAggregates(aggs []model.NoteAggregate, set map[int]struct{}) []model.NoteAggregate {
	if set == nil {
		return aggs
	}
	out := make([]model.NoteAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if _, ok := set[agg.PitchClass]; ok {
			out = append(out, agg)
		}
	}
	return out
}
