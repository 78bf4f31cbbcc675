// Package daemon provides the long-running HTTP service for tax, breakdown,
// budget and jurisdiction data.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mackenziebowes/CanadaSpends/internal/budget"
	"github.com/mackenziebowes/CanadaSpends/internal/logging"
	"github.com/mackenziebowes/CanadaSpends/internal/model"
	"github.com/mackenziebowes/CanadaSpends/internal/pipeline"
	"github.com/mackenziebowes/CanadaSpends/internal/rescache"
	"github.com/mackenziebowes/CanadaSpends/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir      string
	UseCache     bool
	Watch        bool
	Interval     time.Duration
	Addr         string
	EventsBuffer int

	RateLimit  int
	RateWindow time.Duration
	CacheTTL   time.Duration

	// Query defaults.
	Province   string
	Income     float64
	Threshold  float64
	Live       bool
	Reductions budget.Reductions
}

// Snapshot is a compact data state for status/event payloads.
type Snapshot struct {
	At                 time.Time `json:"at"`
	Jurisdictions      int       `json:"jurisdictions"`
	Provincial         int       `json:"provincial"`
	Municipal          int       `json:"municipal"`
	ProvincialSpending float64   `json:"provincial_spending"`
	MunicipalSpending  float64   `json:"municipal_spending"`
	DebtInterest       float64   `json:"debt_interest"`
	Largest            string    `json:"largest,omitempty"`
}

// Delta captures what changed between two loads.
type Delta struct {
	Jurisdictions int      `json:"jurisdictions"`
	Spending      float64  `json:"spending"`
	Changed       []string `json:"changed,omitempty"`
}

func (d Delta) isZero() bool {
	return d.Jurisdictions == 0 && d.Spending == 0 && len(d.Changed) == 0
}

// Event is emitted whenever the loaded data changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time    `json:"started_at"`
	LastPollAt      time.Time    `json:"last_poll_at"`
	PollIntervalSec int          `json:"poll_interval_sec"`
	PollCount       int64        `json:"poll_count"`
	DataDir         string       `json:"data_dir"`
	Summary         Snapshot     `json:"summary"`
	FileErrors      []string     `json:"file_errors,omitempty"`
	LastError       string       `json:"last_error,omitempty"`
	EventCount      int          `json:"event_count"`
	SubscriberCount int          `json:"subscriber_count"`
	Watcher         WatcherStats `json:"watcher"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	logger  *zap.Logger
	cache   rescache.Cache
	limiter *RateLimiter
	handler http.Handler
	closing chan struct{}
	once    sync.Once

	reloadMu sync.Mutex

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	fileErrors  []string
	hasSnapshot bool
	snapshot    Snapshot
	stats       []model.JurisdictionStats
	nextEventID int64
	events      []Event
	watcher     *DataWatcher

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config. A nil logger
// discards logs and a nil cache keeps responses in memory. Call Close when
// the service is not started with Run.
func New(cfg Config, logger *zap.Logger, cache rescache.Cache) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.RateLimit < 1 {
		cfg.RateLimit = 60
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.Province == "" {
		cfg.Province = "ontario"
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 20
	}
	if cfg.Reductions == nil {
		cfg.Reductions = budget.DefaultReductions(cfg.Live)
	}
	if cache == nil {
		cache = rescache.NewMemory()
	}

	s := &Service{
		cfg:       cfg,
		logger:    logging.OrNop(logger),
		cache:     cache,
		limiter:   NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
		closing:   make(chan struct{}),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the service's HTTP handler with middleware applied.
func (s *Service) Handler() http.Handler {
	return s.handler
}

// Close stops background helpers and ends open event streams.
func (s *Service) Close() {
	s.once.Do(func() {
		close(s.closing)
		s.limiter.Stop()
	})
}

func (s *Service) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.HandleFunc("GET /v1/tax", s.handleTax)
	mux.HandleFunc("GET /v1/breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /v1/budget", s.handleBudget)
	mux.HandleFunc("GET /v1/jurisdictions", s.handleJurisdictions)
	mux.HandleFunc("GET /v1/jurisdictions/{slug...}", s.handleJurisdiction)

	return requestLogger(s.logger, rateLimit(s.limiter, mux))
}

// Run starts HTTP endpoints, the data watcher and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	defer s.Close()

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	server.RegisterOnShutdown(s.Close)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("daemon listening", zap.String("addr", s.cfg.Addr), zap.String("data_dir", s.cfg.DataDir))

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	if s.cfg.Watch {
		w, err := NewDataWatcher(s.cfg.DataDir, s.logger, func() { s.pollOnce(ctx) })
		if err != nil {
			s.logger.Warn("data watcher unavailable", zap.Error(err))
		} else {
			_ = w.Start(ctx)
			defer w.Stop()
			s.mu.Lock()
			s.watcher = w
			s.mu.Unlock()
		}
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// pollOnce reloads jurisdiction data and publishes an event when it changed.
func (s *Service) pollOnce(ctx context.Context) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	result, err := s.loadJurisdictions(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		s.logger.Error("daemon poll error", zap.Error(err))
		return
	}

	fileErrors := make([]string, 0, len(result.FileErrors))
	for _, fe := range result.FileErrors {
		fileErrors = append(fileErrors, fe.Error())
		s.logger.Warn("jurisdiction parse failed", zap.String("key", fe.Key), zap.Error(fe.Err))
	}

	now := time.Now()
	snap := snapshotFromOverview(pipeline.Aggregate(result.Jurisdictions), now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevStats := s.stats
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.stats = result.Jurisdictions
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""
	s.fileErrors = fileErrors

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		delta.Changed = pipeline.Changed(prevStats, result.Jurisdictions)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      "data_changed",
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.logger.Info("data reloaded",
			zap.Int64("event_id", ev.ID),
			zap.Int("jurisdictions", snap.Jurisdictions),
			zap.Strings("changed", ev.Delta.Changed),
		)
		s.publishEvent(ev)
	}
}

func (s *Service) loadJurisdictions(ctx context.Context) (*pipeline.LoadResult, error) {
	if s.cfg.UseCache {
		cache, err := store.Open(pipeline.CachePath())
		if err == nil {
			defer func() { _ = cache.Close() }()
			cr, loadErr := pipeline.LoadWithCache(ctx, s.cfg.DataDir, cache, nil)
			if loadErr == nil {
				return &cr.LoadResult, nil
			}
			s.logger.Warn("cached load failed, loading directly", zap.Error(loadErr))
		}
	}

	return pipeline.Load(ctx, s.cfg.DataDir, nil)
}

func snapshotFromOverview(o model.Overview, at time.Time) Snapshot {
	return Snapshot{
		At:                 at,
		Jurisdictions:      o.Jurisdictions,
		Provincial:         o.Provincial,
		Municipal:          o.Municipal,
		ProvincialSpending: o.ProvincialSpending,
		MunicipalSpending:  o.MunicipalSpending,
		DebtInterest:       o.TotalDebtInterest,
		Largest:            o.Largest,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Jurisdictions: curr.Jurisdictions - prev.Jurisdictions,
		Spending: (curr.ProvincialSpending + curr.MunicipalSpending) -
			(prev.ProvincialSpending + prev.MunicipalSpending),
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		Summary:         s.snapshot,
		FileErrors:      s.fileErrors,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	if s.watcher != nil {
		st.Watcher = s.watcher.Stats()
	}
	return st
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
