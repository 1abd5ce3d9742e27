// Package practice wires a challenge engine to result persistence.
package practice

import (
	"context"
	"sync"
	"time"

	"github.com/verte-zerg/pitchup/internal/challenge"
	"github.com/verte-zerg/pitchup/internal/logging"
	"github.com/verte-zerg/pitchup/internal/model"
	"github.com/verte-zerg/pitchup/internal/stats"
)

// DefaultStoreTimeout bounds each background store call.
const DefaultStoreTimeout = 5 * time.Second

// ResultStore persists completed results.
type ResultStore interface {
	SaveResult(ctx context.Context, r model.ChallengeResult) (int64, error)
	ListResults(ctx context.Context, cfg model.StatsConfig) ([]model.ChallengeResult, error)
	GetResult(ctx context.Context, id int64) (model.ChallengeResult, bool, error)
	DeleteResult(ctx context.Context, id int64) error
}

// WeakNoteSource is implemented by stores that can aggregate recent attempts
// per pitch class.
type WeakNoteSource interface {
	GetWeakNotes(ctx context.Context, window int) ([]model.NoteAggregate, error)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.log = logging.OrNop(l) }
}

// WithStoreTimeout bounds each background store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithResultList shares a result list between services over the same store.
func WithResultList(l *ResultList) Option {
	return func(s *Service) { s.results = l }
}

// WithEngineOptions passes options through to the engine.
func WithEngineOptions(opts ...challenge.Option) Option {
	return func(s *Service) { s.engineOpts = append(s.engineOpts, opts...) }
}

// Service runs sessions and persists their results without blocking the engine.
type Service struct {
	engine     *challenge.Engine
	engineOpts []challenge.Option
	store      ResultStore
	cfg        model.Config
	results    *ResultList
	log        *logging.Logger
	timeout    time.Duration
	wg         sync.WaitGroup
}

// New creates a service around store. cfg carries the engine settings and the
// weak-note focus options.
func New(store ResultStore, cfg model.Config, opts ...Option) *Service {
	s := &Service{
		store:   store,
		cfg:     cfg,
		log:     logging.NopLogger(),
		timeout: DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.results == nil {
		s.results = NewResultList(store)
	}
	engineOpts := []challenge.Option{
		challenge.WithConfig(cfg),
		challenge.WithLogger(s.log),
	}
	engineOpts = append(engineOpts, s.engineOpts...)
	engineOpts = append(engineOpts, challenge.WithCompletionHandler(s.handleComplete))
	s.engine = challenge.New(engineOpts...)
	s.log = s.log.With("component", "practice")
	return s
}

// Engine returns the underlying engine.
func (s *Service) Engine() *challenge.Engine {
	return s.engine
}

// Start begins a session.
func (s *Service) Start() error {
	return s.engine.Start()
}

// Restart discards the running session and begins a new one.
func (s *Service) Restart() error {
	return s.engine.Restart()
}

// Cancel stops the running session without saving.
func (s *Service) Cancel() {
	s.engine.Cancel()
}

// ProcessSample feeds one pitch estimate to the engine.
func (s *Service) ProcessSample(sample model.PitchSample) error {
	return s.engine.ProcessSample(sample)
}

// CheckTimeout closes a stalled attempt.
func (s *Service) CheckTimeout() bool {
	return s.engine.CheckTimeout()
}

// SubscribeState registers fn for engine snapshots.
func (s *Service) SubscribeState(fn func(model.ChallengeState)) func() {
	return s.engine.Subscribe(fn)
}

// SubscribeResults registers fn for the stored result list. It is called
// again after every successful save or delete.
func (s *Service) SubscribeResults(fn func([]model.ChallengeResult)) func() {
	return s.results.Subscribe(fn)
}

// Results returns the last published result list.
func (s *Service) Results() []model.ChallengeResult {
	return s.results.Latest()
}

// Refresh loads the stored results and publishes them.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.reload(ctx); err != nil {
		return err
	}
	s.refreshWeakNotes(ctx)
	return nil
}

// DeleteResult removes a stored result in the background.
func (s *Service) DeleteResult(id int64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.store.DeleteResult(ctx, id); err != nil {
			s.log.Error("failed to delete result", "id", id, "error", err)
			return
		}
		s.log.Info("result deleted", "id", id)
		if err := s.reload(ctx); err != nil {
			s.log.Error("failed to reload results", "error", err)
		}
	}()
}

// Wait blocks until background store work finishes.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) handleComplete(r model.ChallengeResult) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		id, err := s.store.SaveResult(ctx, r)
		if err != nil {
			s.log.Error("failed to save result", "error", err, "score", r.TotalScore)
			return
		}
		s.log.Info("result saved", "id", id, "score", r.TotalScore)
		if err := s.reload(ctx); err != nil {
			s.log.Error("failed to reload results", "error", err)
		}
		s.refreshWeakNotes(ctx)
	}()
}

func (s *Service) reload(ctx context.Context) error {
	return s.results.Reload(ctx)
}

func (s *Service) refreshWeakNotes(ctx context.Context) {
	if !s.cfg.FocusWeak {
		return
	}
	src, ok := s.store.(WeakNoteSource)
	if !ok {
		return
	}
	aggs, err := src.GetWeakNotes(ctx, s.cfg.WeakWindow)
	if err != nil {
		s.log.Warn("failed to load weak notes", "error", err)
		return
	}
	weak := stats.SelectWeakNotes(aggs, s.cfg.WeakTop)
	s.engine.SetWeakNotes(weak, s.cfg.WeakFactor)
	s.log.Debug("weak notes updated", "count", len(weak))
}
