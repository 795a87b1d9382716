package translation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultDebounce = 600 * time.Millisecond

// TranslateFunc performs one translation of source text.
type TranslateFunc func(ctx context.Context, source string) (string, error)

// Result describes the outcome of a translation request.
type Result struct {
	Source string
	Output string
	// Cached is true when the cache answered and no call was made.
	Cached bool
	// Committed is false when a newer request superseded this one.
	Committed bool
}

type AutoOptions struct {
	Debounce time.Duration
	// OnCommit runs after a result has been committed, outside the lock.
	OnCommit func(Result)
	// OnError receives failures of debounced requests that are still current.
	OnError func(source string, err error)
	Logger  *zap.Logger
}

// AutoTranslator serializes translation requests for one project.
//
// Every request takes a new generation token. A result is committed to the
// cache and the tracker only while its token is the latest one issued;
// anything older is dropped on arrival.
type AutoTranslator struct {
	projectID string
	cache     *Cache
	tracker   *Tracker
	translate TranslateFunc
	opts      AutoOptions
	log       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	token   uint64
	timer   *time.Timer
	stopped bool
}

func NewAutoTranslator(projectID string, cache *Cache, tracker *Tracker, fn TranslateFunc, opts AutoOptions) *AutoTranslator {
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AutoTranslator{
		projectID: projectID,
		cache:     cache,
		tracker:   tracker,
		translate: fn,
		opts:      opts,
		log:       log.With(zap.String("project_id", projectID)),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Schedule debounces a translation of source. Each call supersedes every
// earlier request, pending or in flight. A cache hit is committed at once
// without arming the timer.
func (a *AutoTranslator) Schedule(source string) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.token++
	tok := a.token
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	if source == "" {
		return
	}

	if out, ok := a.cache.Get(a.projectID, source); ok {
		a.commit(tok, Result{Source: source, Output: out, Cached: true})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped || tok != a.token {
		return
	}
	a.timer = time.AfterFunc(a.opts.Debounce, func() { a.run(tok, source) })
}

// TranslateNow translates source synchronously, consulting the cache first.
// It supersedes any pending automatic request.
func (a *AutoTranslator) TranslateNow(ctx context.Context, source string) (Result, error) {
	if source == "" {
		return Result{}, nil
	}
	a.mu.Lock()
	a.token++
	tok := a.token
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	if out, ok := a.cache.Get(a.projectID, source); ok {
		return a.commit(tok, Result{Source: source, Output: out, Cached: true}), nil
	}
	out, err := a.translate(ctx, source)
	if err != nil {
		return Result{Source: source}, err
	}
	return a.commit(tok, Result{Source: source, Output: out}), nil
}

// Stop cancels the pending timer and any in-flight call made by Schedule.
func (a *AutoTranslator) Stop() {
	a.mu.Lock()
	a.stopped = true
	a.token++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	a.cancel()
}

func (a *AutoTranslator) run(tok uint64, source string) {
	if !a.current(tok) {
		return
	}
	if out, ok := a.cache.Get(a.projectID, source); ok {
		a.commit(tok, Result{Source: source, Output: out, Cached: true})
		return
	}
	out, err := a.translate(a.ctx, source)
	if err != nil {
		if a.current(tok) {
			a.log.Warn("auto translation failed", zap.Error(err))
			if a.opts.OnError != nil {
				a.opts.OnError(source, err)
			}
		}
		return
	}
	if res := a.commit(tok, Result{Source: source, Output: out}); !res.Committed {
		a.log.Debug("discarded superseded translation", zap.Uint64("token", tok))
	}
}

func (a *AutoTranslator) current(tok uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.stopped && tok == a.token
}

func (a *AutoTranslator) commit(tok uint64, res Result) Result {
	a.mu.Lock()
	if a.stopped || tok != a.token {
		a.mu.Unlock()
		return res
	}
	if !res.Cached {
		a.cache.Put(a.projectID, res.Source, res.Output)
	}
	a.tracker.Accept(res.Source)
	res.Committed = true
	a.mu.Unlock()

	if a.opts.OnCommit != nil {
		a.opts.OnCommit(res)
	}
	return res
}
