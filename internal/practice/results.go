package practice

import (
	"context"
	"sync"

	"github.com/verte-zerg/pitchup/internal/event"
	"github.com/verte-zerg/pitchup/internal/model"
)

// ResultList publishes the stored result list. Reloads are serialized so a
// slow read never overwrites a newer list. Services that share a store may
// share one ResultList so every observer sees every change.
type ResultList struct {
	store ResultStore
	mu    sync.Mutex
	feed  *event.Feed[[]model.ChallengeResult]
}

// NewResultList creates a list backed by store.
func NewResultList(store ResultStore) *ResultList {
	return &ResultList{store: store, feed: event.NewFeed[[]model.ChallengeResult]()}
}

// Reload reads the store and publishes the list.
func (l *ResultList) Reload(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	list, err := l.store.ListResults(ctx, model.StatsConfig{})
	if err != nil {
		return err
	}
	l.feed.Publish(list)
	return nil
}

// Subscribe registers fn for every published list.
func (l *ResultList) Subscribe(fn func([]model.ChallengeResult)) func() {
	return l.feed.Subscribe(fn)
}

// Latest returns a copy of the last published list.
func (l *ResultList) Latest() []model.ChallengeResult {
	list, _ := l.feed.Latest()
	return model.CloneResults(list)
}
