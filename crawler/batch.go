package crawler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/webreap/crawlkit/model"
	"github.com/webreap/crawlkit/ratelimit"
)

// batchResultBufferSize is spec.md §4.7's fixed result channel capacity.
const batchResultBufferSize = 1000

// batchProgressEvery is spec.md §4.7's "every 100 completions" cadence.
const batchProgressEvery = 100

// BatchCrawl runs a self-contained crawl over requests that shares no
// state with any Engine: its own unbounded request channel, its own
// capacity-1000 result channel, its own worker pool, completing when
// completed >= the initial request count, per spec.md §4.7. It is
// modeled on Engine's worker loop, sharing the pipeline type.
//
// ctx governs early cancellation: per spec.md §4.7/§5, workers must
// unwind if the caller stops reading from the returned channel instead
// of blocking forever on a full result buffer. A nil ctx runs to
// completion with no cancellation path, equivalent to
// context.Background().
func BatchCrawl(ctx context.Context, requests []model.Request, settings Settings) <-chan model.CrawlResult {
	settings.applyDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	p := newPipeline(settings.Fetcher, settings.Robots, settings.Store, settings.Logger)
	limiter := ratelimit.New(asRobotsDelay(settings.Robots), settings.UserAgent, settings.DefaultDelay)

	queue := make(chan model.Request) // unbounded in spirit: never closed, drained until done fires
	results := make(chan model.CrawlResult, batchResultBufferSize)
	done := make(chan struct{})

	var completed atomic.Int64
	var pending atomic.Int64
	var doneOnce sync.Once
	closeDone := func() { doneOnce.Do(func() { close(done) }) }
	pending.Add(int64(len(requests)))

	if len(requests) == 0 {
		close(results)
		return results
	}

	var wg sync.WaitGroup
	for i := 0; i < settings.MaxConcurrency; i++ {
		wg.Add(1)
		go batchWorker(&wg, queue, results, done, closeDone, p, limiter, &completed, &pending, settings.Logger)
	}

	go func() {
		for _, req := range requests {
			select {
			case queue <- req:
			case <-done:
				return
			}
		}
	}()

	// ctx cancellation is just another way done gets closed: it wakes
	// every worker blocked on a full results buffer or an empty queue.
	go func() {
		select {
		case <-ctx.Done():
			closeDone()
		case <-done:
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// batchWorker drains queue until pending (requests submitted but not yet
// completed, including not-yet-enqueued children) reaches zero, per
// spec.md §4.7's "completes when completed >= initial total" — tracked
// here as a live pending count rather than a static target, since
// successful crawls grow the total by their discovered children. The
// worker that drives pending to zero closes done, waking any sibling
// blocked waiting for the next (never-to-arrive) queue item.
func batchWorker(
	wg *sync.WaitGroup,
	queue chan model.Request,
	results chan<- model.CrawlResult,
	done chan struct{},
	closeDone func(),
	p *pipeline,
	limiter *ratelimit.Limiter,
	completed, pending *atomic.Int64,
	logger *zerolog.Logger,
) {
	defer wg.Done()
	if logger == nil {
		l := log.Logger.With().Str("component", "batch-crawl").Logger()
		logger = &l
	}
	for {
		var req model.Request
		select {
		case req = <-queue:
		case <-done:
			return
		}

		if wait := limiter.ComputeWait(req.URL); wait > 0 {
			time.Sleep(wait)
		}
		result := p.execute(req)
		limiter.NoteCrawl(req.URL)

		select {
		case results <- result:
		case <-done:
			return
		}
		n := completed.Add(1)
		if n%batchProgressEvery == 0 {
			logger.Info().Int64("completed", n).Msg("batch crawl progress")
		}

		if result.Status == model.StatusSuccess && len(result.ChildRequests) > 0 {
			pending.Add(int64(len(result.ChildRequests)))
			go func(children []model.Request) {
				for _, c := range children {
					select {
					case queue <- c:
					case <-done:
						return
					}
				}
			}(result.ChildRequests)
		}
		if pending.Add(-1) <= 0 {
			closeDone()
		}
	}
}
