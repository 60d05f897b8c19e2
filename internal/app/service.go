// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/tagboard/internal/adapters/mq/queue"
	"github.com/okian/tagboard/internal/adapters/mq/worker"
	repository "github.com/okian/tagboard/internal/adapters/repository"
	"github.com/okian/tagboard/internal/adapters/source"
	"github.com/okian/tagboard/internal/domain/dedupe"
	"github.com/okian/tagboard/internal/domain/leaderboard"
	"github.com/okian/tagboard/internal/domain/model"
	"github.com/okian/tagboard/internal/domain/scoring"
	"github.com/okian/tagboard/internal/domain/types"
	"github.com/okian/tagboard/pkg/logger"
	"github.com/okian/tagboard/pkg/metrics"
)

// Sentinel kinds for service errors. ErrNoSource and ErrNotStarted wrap the
// adapter kinds the HTTP layer maps to status codes.
var (
	ErrNoRoster      = errors.New("no roster configured")
	ErrNoSource      = fmt.Errorf("%w: no log source configured", source.ErrFetch)
	ErrNotStarted    = fmt.Errorf("service not started: %w", eventqueue.ErrClosed)
	ErrUnknownPlayer = errors.New("player not on roster")
)

// LogParser turns a fetched document into events.
type LogParser interface {
	Parse(doc source.Document) (*source.Result, error)
}

// Service owns the live game. All state changes run on one writer goroutine;
// readers only see published snapshots.
type Service struct {
	mu sync.RWMutex

	// Core components
	roster  *model.Roster
	rules   scoring.Rules
	fetcher source.Fetcher
	parser  LogParser
	store   repository.Store
	deduper dedupe.Deduper
	queue   eventqueue.Queue
	writer  *worker.InMemoryWorker

	// Configuration
	queueSize      int
	dedupeSize     int
	referenceYear  int
	location       *time.Location
	tickInterval   time.Duration
	reloadInterval time.Duration
	clock          func() time.Time

	// Writer-owned; touched only by load, applyAppend and advance.
	state *scoring.State
	log   []model.TagEvent
	runID string

	// Reload bookkeeping
	lastReload    time.Time
	lastReloadErr error

	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		rules:         scoring.NewRules(),
		queueSize:     1024,
		dedupeSize:    100_000,
		referenceYear: 2025,
		location:      time.UTC,
		tickInterval:  time.Second,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewSnapshotStore()
	}
	return s
}

// Start wires the components, publishes the zero state, runs the first load
// and starts the tick and reload loops. A failed first load is logged and
// the zero state kept.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.roster == nil {
		s.mu.Unlock()
		return ErrNoRoster
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting tag service...")

	if s.parser == nil {
		s.parser = source.NewFactory(source.Normalizer{
			Roster:        s.roster,
			ReferenceYear: s.referenceYear,
			Location:      s.location,
		})
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))

	s.state = scoring.NewState(s.roster, s.rules)
	s.publish(ctx)
	metrics.UpdatePlayers(s.roster.Len())

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.writer = worker.NewInMemoryWorker(s.queue, writerHandler{s}, worker.WithLogger(s.logger.Named("writer")))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.writer.Run(runCtx)
	}()

	s.started = true
	s.logger.Info(ctx, "tag service started",
		logger.Int("players", s.roster.Len()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("tickInterval", s.tickInterval),
		logger.Duration("reloadInterval", s.reloadInterval),
	)
	s.mu.Unlock()

	if s.fetcher != nil {
		if err := s.Reload(ctx); err != nil {
			s.logger.Warn(ctx, "initial load failed, keeping zero state", logger.Error(err))
		}
	}

	if s.tickInterval > 0 {
		s.startLoop(runCtx, s.tickInterval, s.tick)
	}
	if s.reloadInterval > 0 && s.fetcher != nil {
		s.startLoop(runCtx, s.reloadInterval, func(ctx context.Context) {
			if err := s.Reload(ctx); err != nil {
				s.logger.Warn(ctx, "periodic reload failed", logger.Error(err))
			}
		})
	}
	return nil
}

func (s *Service) startLoop(ctx context.Context, every time.Duration, fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

// tick asks the writer to advance the holder to now. Ticks are dropped, not
// queued behind, when the writer is busy.
func (s *Service) tick(ctx context.Context) {
	t := eventqueue.Task{Kind: eventqueue.KindTick, At: s.clock()}
	if !s.queue.Enqueue(ctx, t) {
		metrics.RecordTickDropped()
	}
}

// Stop gracefully shuts down the service. Tasks still queued are answered
// with ErrNotStarted.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping tag service...")

	s.cancel()
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.writer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "writer did not stop in time", logger.Error(err))
	}
	s.wg.Wait()

	_ = s.queue.Close()
	for t := range s.queue.Dequeue(ctx) {
		if t.Done != nil {
			t.Done <- eventqueue.Result{Err: ErrNotStarted}
		}
	}

	s.logger.Info(ctx, "tag service stopped")
}

// Reload fetches and parses the log, then replaces the state with a fresh
// run. On failure the current state is kept.
func (s *Service) Reload(ctx context.Context) error {
	start := time.Now()
	q, err := s.activeQueue()
	if err != nil {
		return err
	}
	if s.fetcher == nil {
		return ErrNoSource
	}

	runID := uuid.NewString()
	err = s.reload(ctx, q, runID)

	s.mu.Lock()
	s.lastReload = s.clock()
	s.lastReloadErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error(ctx, "reload failed", logger.String("runID", runID), logger.Error(err))
		return err
	}
	metrics.RecordRun(float64(time.Since(start).Milliseconds()))
	return nil
}

func (s *Service) reload(ctx context.Context, q eventqueue.Queue, runID string) error {
	doc, err := s.fetcher.Fetch(ctx)
	if err != nil {
		metrics.RecordRunFailure("fetch")
		return fmt.Errorf("reload: %w", err)
	}
	res, err := s.parser.Parse(doc)
	if err != nil {
		metrics.RecordRunFailure("parse")
		return fmt.Errorf("reload %s: %w", doc.Name, err)
	}
	if n := len(res.Rejected); n > 0 {
		metrics.RecordEventsDropped("parse", n)
		for _, re := range res.Rejected {
			s.logger.Debug(ctx, "dropped row", logger.Int("line", re.Line), logger.String("raw", re.Raw), logger.Error(re.Err))
		}
		s.logger.Warn(ctx, "rows dropped while parsing", logger.String("source", doc.Name), logger.Int("rejected", n))
	}

	task := eventqueue.NewTask(eventqueue.KindLoad)
	task.RunID = runID
	task.Events = res.Events
	if _, err := eventqueue.Submit(ctx, q, task); err != nil {
		metrics.RecordRunFailure("queue")
		return fmt.Errorf("reload: %w", err)
	}
	s.logger.Info(ctx, "log loaded",
		logger.String("runID", runID),
		logger.String("source", doc.Name),
		logger.Int("events", len(res.Events)),
	)
	return nil
}

// Append adds posted tags to the log. Instants are moved into the service's
// zone so they land on the same day as log rows. Events seen before are
// counted as duplicates and ignored; the rest trigger a full re-run.
func (s *Service) Append(ctx context.Context, events []model.TagEvent) (types.AppendResult, error) {
	q, err := s.activeQueue()
	if err != nil {
		return types.AppendResult{}, err
	}
	local := make([]model.TagEvent, len(events))
	for i, e := range events {
		if !s.roster.Contains(e.Player) {
			return types.AppendResult{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, e.Player)
		}
		e.At = e.At.In(s.location)
		local[i] = e
	}
	if len(local) == 0 {
		return types.AppendResult{}, nil
	}

	task := eventqueue.NewTask(eventqueue.KindAppend)
	task.RunID = uuid.NewString()
	task.Events = local
	res, err := eventqueue.Submit(ctx, q, task)
	if err != nil {
		return types.AppendResult{}, fmt.Errorf("append: %w", err)
	}
	return types.AppendResult{Accepted: res.Accepted, Duplicates: res.Duplicates}, nil
}

func (s *Service) activeQueue() (eventqueue.Queue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.queue, nil
}

// writerHandler exposes the writer-side operations to the worker.
type writerHandler struct{ s *Service }

func (h writerHandler) Load(ctx context.Context, runID string, events []model.TagEvent) error {
	return h.s.load(ctx, runID, events)
}

func (h writerHandler) Append(ctx context.Context, runID string, events []model.TagEvent) (int, int, error) {
	return h.s.applyAppend(ctx, runID, events)
}

func (h writerHandler) Advance(ctx context.Context, at time.Time) error {
	return h.s.advance(ctx, at)
}

// load replaces the log and state. Repeated rows in the source are folded
// as they are; their keys are remembered so posting them again is a
// duplicate. Writer goroutine only.
func (s *Service) load(ctx context.Context, runID string, events []model.TagEvent) error {
	s.deduper.Reset(ctx)
	dedupe.Remember(ctx, s.deduper, events)
	s.log = events
	s.runID = runID
	s.fold(ctx)
	return nil
}

// applyAppend drops tags already seen, extends the log with the rest and
// re-runs it. Writer goroutine only.
func (s *Service) applyAppend(ctx context.Context, runID string, events []model.TagEvent) (int, int, error) {
	fresh, dups := dedupe.Filter(ctx, s.deduper, events)
	if dups > 0 {
		metrics.RecordEventsDropped("duplicate", dups)
	}
	if len(fresh) == 0 {
		return 0, dups, nil
	}
	log := make([]model.TagEvent, 0, len(s.log)+len(fresh))
	log = append(log, s.log...)
	log = append(log, fresh...)
	s.log = log
	s.runID = runID
	s.fold(ctx)
	return len(fresh), dups, nil
}

// advance moves the holder's clock forward. Writer goroutine only.
func (s *Service) advance(ctx context.Context, at time.Time) error {
	if s.state == nil {
		return nil
	}
	if d := s.state.AdvanceTo(at); d > 0 {
		metrics.RecordTick(d.Seconds())
		s.publish(ctx)
	}
	return nil
}

func (s *Service) fold(ctx context.Context) {
	st := scoring.Run(s.roster, s.rules, s.log)
	if n := st.Skipped(); n > 0 {
		metrics.RecordEventsDropped("roster", n)
	}
	metrics.UpdateEventsLoaded(len(st.Events()))
	metrics.RecordTransitions(st.Transitions())
	metrics.RecordBonuses(st.BonusesAwarded())
	s.state = st
	s.publish(ctx)
}

func (s *Service) publish(ctx context.Context) {
	st := s.state
	holder := ""
	if p, ok := st.LastCaught(); ok {
		holder = string(p)
	}
	s.store.Publish(ctx, &repository.Snapshot{
		RunID:        s.runID,
		GeneratedAt:  s.clock(),
		Entries:      types.NewEntries(leaderboard.Rank(st)),
		Achievements: types.NewAchievements(leaderboard.Analyze(st)),
		Events:       len(st.Events()),
		Skipped:      st.Skipped(),
		Days:         len(st.Days()),
		Holder:       holder,
	})
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	return s.snapshots().TopN(ctx, n)
}

// Rank returns the leaderboard row of a player.
func (s *Service) Rank(ctx context.Context, player string) (types.Entry, error) {
	return s.snapshots().Rank(ctx, player)
}

// Achievements returns the superlatives of the current snapshot.
func (s *Service) Achievements(_ context.Context) types.Achievements {
	return s.snapshots().Current().Achievements
}

// Snapshot returns the current published snapshot.
func (s *Service) Snapshot() *repository.Snapshot {
	return s.snapshots().Current()
}

// Subscribe forwards to the snapshot store.
func (s *Service) Subscribe() (<-chan *repository.Snapshot, func()) {
	return s.snapshots().Subscribe()
}

// HasPlayer reports whether p is on the roster.
func (s *Service) HasPlayer(p string) bool {
	return s.roster != nil && s.roster.Contains(model.Player(p))
}

func (s *Service) snapshots() repository.Store { return s.store }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"queueSize":      s.queueSize,
		"dedupeSize":     s.dedupeSize,
		"tickInterval":   s.tickInterval.String(),
		"reloadInterval": s.reloadInterval.String(),
	}
	if s.roster != nil {
		stats["players"] = s.roster.Len()
	}
	if !s.lastReload.IsZero() {
		stats["lastReload"] = s.lastReload.Format(time.RFC3339)
		if s.lastReloadErr != nil {
			stats["lastReloadError"] = s.lastReloadErr.Error()
		}
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		metrics.UpdateQueueSize(queueLen)

		snap := s.store.Current()
		stats["snapshotVersion"] = snap.Version
		stats["runID"] = snap.RunID
		stats["events"] = snap.Events
		stats["skipped"] = snap.Skipped
		stats["days"] = snap.Days
		stats["holder"] = snap.Holder
		stats["generatedAt"] = snap.GeneratedAt.Format(time.RFC3339)
	}

	return stats
}
