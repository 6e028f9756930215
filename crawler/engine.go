package crawler

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/webreap/crawlkit/fetcher"
	"github.com/webreap/crawlkit/model"
	"github.com/webreap/crawlkit/ratelimit"
	"github.com/webreap/crawlkit/store"
)

// Default construction parameters, per spec.md §4.1.
const (
	DefaultMaxConcurrency           = 50
	DefaultQueueCapacity            = 10_000
	DefaultResultBufferSize         = 1_000
	DefaultProgressReportInterval   = 5 * time.Second
	DefaultMaxRetries               = 3

	rpsWindowDuration  = 60 * time.Second
	rpsWindowMaxSample = 1000
)

// ErrAlreadyRunning is returned by Start when the engine is already RUNNING.
var ErrAlreadyRunning = errors.New("crawler: engine already running")

// ErrNotRunning is returned by Submit/SubmitMany when the engine is not RUNNING.
var ErrNotRunning = errors.New("crawler: engine not running")

// state is the Engine's IDLE -> RUNNING -> STOPPED state machine, per
// spec.md §4.1.
type state int32

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

// Settings holds the Engine's construction parameters, per spec.md §4.1.
type Settings struct {
	MaxConcurrency           int
	QueueCapacity            int
	ResultBufferSize         int
	ProgressReportInterval   time.Duration
	DefaultDelay             time.Duration
	MaxRetries               int
	UserAgent                string

	Fetcher fetcher.Fetcher
	Robots  robotsCache
	Store   store.ResultStore
	Logger  *zerolog.Logger
}

func (s *Settings) applyDefaults() {
	if s.MaxConcurrency <= 0 {
		s.MaxConcurrency = DefaultMaxConcurrency
	}
	if s.QueueCapacity <= 0 {
		s.QueueCapacity = DefaultQueueCapacity
	}
	if s.ResultBufferSize <= 0 {
		s.ResultBufferSize = DefaultResultBufferSize
	}
	if s.ProgressReportInterval <= 0 {
		s.ProgressReportInterval = DefaultProgressReportInterval
	}
	if s.DefaultDelay <= 0 {
		s.DefaultDelay = ratelimit.DefaultDelay
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = DefaultMaxRetries
	}
	if s.UserAgent == "" {
		s.UserAgent = model.DefaultPolicy().UserAgent
	}
	if s.Logger == nil {
		l := log.Logger.With().Str("component", "crawler").Logger()
		s.Logger = &l
	}
}

// Stats is the snapshot Engine.Stats returns, per spec.md §4.1.
type Stats struct {
	Running      bool
	Total        int64
	Processed    int64
	Successes    int64
	Failures     int64
	QueueSize    int
	RPS          float64
	SuccessRate  float64
}

// statsBlock is the Engine's live-stats counters: atomics plus a
// mutex-guarded ring of completion timestamps for the rps sliding window,
// per SPEC_FULL.md §4.1.
type statsBlock struct {
	total     atomic.Int64
	processed atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64

	mu          sync.Mutex
	completions []time.Time
}

func (b *statsBlock) recordCompletion(success bool) {
	b.processed.Add(1)
	if success {
		b.successes.Add(1)
	} else {
		b.failures.Add(1)
	}

	now := time.Now()
	b.mu.Lock()
	b.completions = append(b.completions, now)
	cutoff := now.Add(-rpsWindowDuration)
	i := 0
	for i < len(b.completions) && b.completions[i].Before(cutoff) {
		i++
	}
	b.completions = b.completions[i:]
	if len(b.completions) > rpsWindowMaxSample {
		b.completions = b.completions[len(b.completions)-rpsWindowMaxSample:]
	}
	b.mu.Unlock()
}

func (b *statsBlock) snapshot() (rps float64) {
	b.mu.Lock()
	n := len(b.completions)
	if n < 2 {
		b.mu.Unlock()
		return 0
	}
	span := b.completions[n-1].Sub(b.completions[0])
	b.mu.Unlock()
	if span <= 0 {
		return float64(n)
	}
	return float64(n) / span.Seconds()
}

// Engine is spec.md §4.1's scheduler + worker pool: a bounded request
// queue, N workers calling the pipeline, a bounded result channel, a
// live-stats block, and a start/stop lifecycle. Grounded on the
// teacher's WebCrawler, generalized from a goroutine-per-seed-URL loop
// into a fixed worker pool draining a shared queue.
type Engine struct {
	settings Settings
	pipeline *pipeline
	limiter  *ratelimit.Limiter

	state   atomic.Int32
	queue   chan model.Request
	results chan model.CrawlResult
	stopCh  chan struct{}
	wg      sync.WaitGroup
	stopMu  sync.Mutex

	stats statsBlock
}

// New builds an Engine in the IDLE state.
func New(settings Settings) *Engine {
	settings.applyDefaults()
	robots := settings.Robots
	return &Engine{
		settings: settings,
		pipeline: newPipeline(settings.Fetcher, robots, settings.Store, settings.Logger),
		limiter:  ratelimit.New(asRobotsDelay(robots), settings.UserAgent, settings.DefaultDelay),
	}
}

// asRobotsDelay adapts the Engine's robotsCache into ratelimit.RobotsDelay
// when it implements GetCrawlDelay (as robots.Cache does); falls back to
// nil (the limiter then always uses its default delay) otherwise.
func asRobotsDelay(r robotsCache) ratelimit.RobotsDelay {
	if rd, ok := r.(ratelimit.RobotsDelay); ok {
		return rd
	}
	return nil
}

// Start idempotently transitions the Engine to RUNNING, spawns
// maxConcurrency workers and a progress monitor, and returns the result
// channel the caller reads from, per spec.md §4.1.
func (e *Engine) Start() (<-chan model.CrawlResult, error) {
	if !e.state.CompareAndSwap(int32(stateIdle), int32(stateRunning)) {
		return nil, ErrAlreadyRunning
	}
	e.queue = make(chan model.Request, e.settings.QueueCapacity)
	e.results = make(chan model.CrawlResult, e.settings.ResultBufferSize)
	e.stopCh = make(chan struct{})

	for i := 0; i < e.settings.MaxConcurrency; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	go e.progressMonitor()

	return e.results, nil
}

// Submit enqueues req, suspending if the queue is full, per spec.md
// §4.1's backpressure requirement.
func (e *Engine) Submit(req model.Request) error {
	if state(e.state.Load()) != stateRunning {
		return ErrNotRunning
	}
	select {
	case e.queue <- req:
		e.stats.total.Add(1)
		return nil
	case <-e.stopCh:
		return ErrNotRunning
	}
}

// SubmitMany enqueues every request in reqs, in order, suspending as
// needed for each.
func (e *Engine) SubmitMany(reqs []model.Request) error {
	for _, req := range reqs {
		if err := e.Submit(req); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns a cheap, concurrency-safe snapshot of the Engine's
// counters, per spec.md §4.1.
func (e *Engine) Stats() Stats {
	processed := e.stats.processed.Load()
	successes := e.stats.successes.Load()
	var successRate float64
	if processed > 0 {
		successRate = float64(successes) / float64(processed)
	}
	return Stats{
		Running:     state(e.state.Load()) == stateRunning,
		Total:       e.stats.total.Load(),
		Processed:   processed,
		Successes:   successes,
		Failures:    e.stats.failures.Load(),
		QueueSize:   len(e.queue),
		RPS:         e.stats.snapshot(),
		SuccessRate: successRate,
	}
}

// Stop transitions the Engine to STOPPED, signals every worker to
// unwind, joins them, then closes the result channel. Idempotent.
//
// The request queue is never closed here: workers select on stopCh
// rather than ranging over queue, so a still-in-flight Submit or a
// worker's own child-request re-injection never races a send against a
// closed channel.
func (e *Engine) Stop() {
	e.stopMu.Lock()
	defer e.stopMu.Unlock()
	if !e.state.CompareAndSwap(int32(stateRunning), int32(stateStopped)) {
		return
	}
	close(e.stopCh)
	e.wg.Wait()
	close(e.results)
}

func (e *Engine) worker() {
	defer e.wg.Done()
	for {
		select {
		case req := <-e.queue:
			e.processOne(req)
		case <-e.stopCh:
			return
		}
	}
}

func (e *Engine) processOne(req model.Request) {
	if wait := e.limiter.ComputeWait(req.URL); wait > 0 {
		time.Sleep(wait)
	}
	result := e.pipeline.execute(req)
	e.limiter.NoteCrawl(req.URL)

	e.stats.recordCompletion(result.Status == model.StatusSuccess)

	select {
	case e.results <- result:
	case <-e.stopCh:
		return
	}

	if result.Status == model.StatusSuccess {
		for _, child := range result.ChildRequests {
			select {
			case e.queue <- child:
			case <-e.stopCh:
				return
			default:
				// Queue full: drop silently rather than deadlock, per
				// spec.md §4.1's worker-loop description.
				e.settings.Logger.Warn().Str("url", child.URL).Msg("request queue full, dropping discovered child request")
			}
		}
	}
}

func (e *Engine) progressMonitor() {
	ticker := time.NewTicker(e.settings.ProgressReportInterval)
	defer ticker.Stop()
	var lastMilestone int64
	for {
		select {
		case <-ticker.C:
			processed := e.stats.processed.Load()
			milestone := processed / 1000
			if milestone > lastMilestone {
				lastMilestone = milestone
				s := e.Stats()
				e.settings.Logger.Info().
					Str("processed", humanize.Comma(s.Processed)).
					Int64("successes", s.Successes).
					Int64("failures", s.Failures).
					Float64("rps", s.RPS).
					Float64("success_rate", s.SuccessRate).
					Msg("crawl progress")
			}
		case <-e.stopCh:
			return
		}
	}
}
