// Package workspace orchestrates the prompt engine for each project: slot
// editing, translation, versioning, reference assets and generation.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"promptlab/internal/apperr"
	artifactrepo "promptlab/internal/gateway/repository/artifact"
	"promptlab/internal/llm"
	"promptlab/internal/project"
	"promptlab/internal/prompt"
	"promptlab/internal/translation"
)

// BackendFactory builds an unwrapped backend for an API key. An empty key
// may yield an offline backend.
type BackendFactory func(ctx context.Context, apiKey string) (llm.Backend, error)

type Options struct {
	Store     *project.Store
	Cache     *translation.Cache
	Artifacts artifactrepo.Store
	Factory   BackendFactory
	APIKey    string
	Backoff   llm.Backoff
	// Limiter throttles each backend attempt. Nil disables throttling.
	Limiter   llm.Limiter
	Debounce  time.Duration
	Logger    *zap.Logger
	Now       func() time.Time
}

// Service owns the per-project translation sessions and the active backend.
type Service struct {
	store     *project.Store
	cache     *translation.Cache
	artifacts artifactrepo.Store
	factory   BackendFactory
	backoff   llm.Backoff
	limiter   llm.Limiter
	debounce  time.Duration
	log       *zap.Logger
	now       func() time.Time

	backendMu sync.RWMutex
	backend   llm.Backend

	credentialPresent atomic.Bool

	sessMu   sync.Mutex
	sessions map[string]*session
}

// session is the non-persisted translation state of one project.
type session struct {
	tracker *translation.Tracker
	auto    *translation.AutoTranslator
}

func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("workspace: project store is required")
	}
	if opts.Factory == nil {
		return nil, errors.New("workspace: backend factory is required")
	}
	s := &Service{
		store:     opts.Store,
		cache:     opts.Cache,
		artifacts: opts.Artifacts,
		factory:   opts.Factory,
		backoff:   opts.Backoff,
		limiter:   opts.Limiter,
		debounce:  opts.Debounce,
		log:       opts.Logger,
		now:       opts.Now,
		sessions:  make(map[string]*session),
	}
	if s.cache == nil {
		s.cache = translation.NewCache(translation.DefaultCacheSize)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.backoff.MaxRetries == 0 && s.backoff.InitialDelay == 0 {
		s.backoff = llm.DefaultBackoff()
	}
	if s.debounce <= 0 {
		s.debounce = translation.DefaultDebounce
	}
	if err := s.installBackend(ctx, opts.APIKey); err != nil {
		return nil, err
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// Backend & credential
// ---------------------------------------------------------------------------

func (s *Service) installBackend(ctx context.Context, apiKey string) error {
	raw, err := s.factory(ctx, strings.TrimSpace(apiKey))
	if err != nil {
		return fmt.Errorf("build backend: %w", err)
	}
	wrapped := llm.Wrap(raw,
		llm.OnCredentialExpired(s.clearCredential),
		llm.Retry(s.backoff),
		llm.RateLimit(s.limiter),
		llm.Logging(s.log),
	)
	s.backendMu.Lock()
	s.backend = wrapped
	s.backendMu.Unlock()
	s.credentialPresent.Store(true)
	s.log.Info("backend installed", zap.String("backend", raw.Name()))
	return nil
}

func (s *Service) currentBackend() llm.Backend {
	s.backendMu.RLock()
	defer s.backendMu.RUnlock()
	return s.backend
}

func (s *Service) clearCredential() {
	if s.credentialPresent.Swap(false) {
		s.log.Warn("credential expired, re-authentication required")
	}
}

type SessionInfo struct {
	CredentialPresent bool   `json:"credentialPresent"`
	Backend           string `json:"backend"`
}

func (s *Service) Session() SessionInfo {
	return SessionInfo{
		CredentialPresent: s.credentialPresent.Load(),
		Backend:           s.currentBackend().Name(),
	}
}

// SetCredential rebuilds the backend with a new API key.
func (s *Service) SetCredential(ctx context.Context, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return apperr.Validation(apperr.CodeInvalidConfig, "api key is required")
	}
	return s.installBackend(ctx, apiKey)
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// sessionFor returns the project's session, seeding the translation cache
// from the persisted map on first use. A persisted translation of the
// current text counts as accepted.
func (s *Service) sessionFor(p project.Project) *session {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	if sess, ok := s.sessions[p.ID]; ok {
		return sess
	}
	canonical := prompt.ComposeCanonical(p.Slots)
	s.cache.Seed(p.ID, p.TranslationCache)
	s.cache.Pin(p.ID, canonical)

	id := p.ID
	tracker := translation.NewTracker()
	if _, ok := s.cache.Get(id, canonical); ok && canonical != "" {
		tracker.Accept(canonical)
	}
	sess := &session{tracker: tracker}
	sess.auto = translation.NewAutoTranslator(id, s.cache, tracker, s.translateFunc(id), translation.AutoOptions{
		Debounce: s.debounce,
		OnCommit: func(res translation.Result) { s.persistCache(id) },
		Logger:   s.log.With(zap.String("module", "auto_translate")),
	})
	s.sessions[id] = sess
	return sess
}

func (s *Service) translateFunc(projectID string) translation.TranslateFunc {
	return func(ctx context.Context, source string) (string, error) {
		p, err := s.store.Get(projectID)
		if err != nil {
			return "", err
		}
		return s.currentBackend().Translate(ctx, p.Config.TranslatePrompt, source)
	}
}

// persistCache copies the in-memory cache into the project document.
func (s *Service) persistCache(projectID string) {
	snapshot := s.cache.Snapshot(projectID)
	_, err := s.store.Update(context.Background(), projectID, func(p *project.Project) error {
		p.TranslationCache = snapshot
		return nil
	})
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		s.log.Warn("persist translation cache", zap.String("project_id", projectID), zap.Error(err))
	}
}

func (s *Service) dropSession(projectID string) {
	s.sessMu.Lock()
	sess, ok := s.sessions[projectID]
	delete(s.sessions, projectID)
	s.sessMu.Unlock()
	if ok {
		sess.auto.Stop()
	}
	s.cache.Forget(projectID)
}

// slotsChanged pins the new canonical text and, in auto mode, schedules
// its translation.
func (s *Service) slotsChanged(p project.Project) {
	sess := s.sessionFor(p)
	canonical := prompt.ComposeCanonical(p.Slots)
	s.cache.Pin(p.ID, canonical)
	if p.Config.AutoTranslate {
		sess.auto.Schedule(canonical)
	}
}

// Close stops every translation session.
func (s *Service) Close() {
	s.sessMu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.sessMu.Unlock()
	for _, sess := range sessions {
		sess.auto.Stop()
	}
}

// Subscribe streams project change events until ctx ends.
func (s *Service) Subscribe(ctx context.Context) <-chan project.Event {
	return s.store.Subscribe(ctx)
}
