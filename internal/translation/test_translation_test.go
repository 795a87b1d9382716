package translation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutOverwrites(t *testing.T) {
	c := NewCache(4)
	c.Put("p1", "猫", "cat")
	c.Put("p1", "猫", "a cat")
	got, ok := c.Get("p1", "猫")
	require.True(t, ok)
	assert.Equal(t, "a cat", got)

	_, ok = c.Get("p2", "猫")
	assert.False(t, ok, "entries must be scoped per project")
}

func TestCacheEvictsButNeverPinned(t *testing.T) {
	c := NewCache(2)
	c.Put("p", "live", "LIVE")
	c.Pin("p", "live")
	for _, k := range []string{"a", "b", "c", "d"} {
		c.Put("p", k, k)
	}
	got, ok := c.Get("p", "live")
	require.True(t, ok, "pinned entry was evicted")
	assert.Equal(t, "LIVE", got)

	_, ok = c.Get("p", "a")
	assert.False(t, ok, "oldest unpinned entry should be evicted")
	assert.Equal(t, 3, c.Len("p"))
}

func TestCachePinBeforePut(t *testing.T) {
	c := NewCache(1)
	c.Pin("p", "next")
	c.Put("p", "next", "NEXT")
	c.Put("p", "x", "x")
	c.Put("p", "y", "y")
	got, ok := c.Get("p", "next")
	require.True(t, ok)
	assert.Equal(t, "NEXT", got)

	// Re-pinning releases the old key back into the LRU.
	c.Pin("p", "other")
	got, ok = c.Get("p", "next")
	require.True(t, ok)
	assert.Equal(t, "NEXT", got)
}

func TestCacheUnboundedSeedAndSnapshot(t *testing.T) {
	c := NewCache(0)
	c.Seed("p", map[string]string{"a": "A", "b": "B"})
	for i := 0; i < 100; i++ {
		c.Put("p", string(rune('c'+i)), "v")
	}
	snap := c.Snapshot("p")
	assert.Len(t, snap, 102)
	assert.Equal(t, "A", snap["a"])

	c.Forget("p")
	assert.Empty(t, c.Snapshot("p"))
}

func TestTrackerIsDirty(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.IsDirty(""), "empty text is never dirty")
	assert.True(t, tr.IsDirty("Subject: 猫"))
	tr.Accept("Subject: 猫")
	assert.False(t, tr.IsDirty("Subject: 猫"))
	assert.True(t, tr.IsDirty("Subject: 狗"))
}

// gatedTranslator blocks each call until the test releases it.
type gatedTranslator struct {
	mu      sync.Mutex
	calls   []string
	started chan string
	release map[string]chan string
}

func newGatedTranslator(sources ...string) *gatedTranslator {
	g := &gatedTranslator{
		started: make(chan string, 16),
		release: make(map[string]chan string),
	}
	for _, s := range sources {
		g.release[s] = make(chan string, 1)
	}
	return g
}

func (g *gatedTranslator) Translate(ctx context.Context, source string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, source)
	ch := g.release[source]
	g.mu.Unlock()
	g.started <- source
	select {
	case out := <-ch:
		return out, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gatedTranslator) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting")
	}
	var zero T
	return zero
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	cache := NewCache(16)
	tracker := NewTracker()
	gate := newGatedTranslator("A", "B")
	commits := make(chan Result, 4)
	at := NewAutoTranslator("p", cache, tracker, gate.Translate, AutoOptions{
		OnCommit: func(r Result) { commits <- r },
	})
	defer at.Stop()

	resA := make(chan Result, 1)
	go func() {
		res, err := at.TranslateNow(context.Background(), "A")
		if err != nil {
			t.Errorf("TranslateNow: %v", err)
		}
		resA <- res
	}()
	require.Equal(t, "A", waitFor(t, gate.started))

	at.Schedule("B")
	require.Equal(t, "B", waitFor(t, gate.started))
	gate.release["B"] <- "b"
	committed := waitFor(t, commits)
	require.Equal(t, "B", committed.Source)

	gate.release["A"] <- "a"
	res := waitFor(t, resA)
	assert.False(t, res.Committed, "superseded result must not commit")

	assert.Equal(t, "B", tracker.LastAccepted())
	_, ok := cache.Get("p", "A")
	assert.False(t, ok, "stale result leaked into cache")
	got, ok := cache.Get("p", "B")
	require.True(t, ok)
	assert.Equal(t, "b", got)
}

func TestScheduleDropsLateResult(t *testing.T) {
	cache := NewCache(16)
	tracker := NewTracker()
	gate := newGatedTranslator("A", "B")
	commits := make(chan Result, 4)
	at := NewAutoTranslator("p", cache, tracker, gate.Translate, AutoOptions{
		OnCommit: func(r Result) { commits <- r },
	})
	defer at.Stop()

	at.Schedule("A")
	require.Equal(t, "A", waitFor(t, gate.started))
	at.Schedule("B")
	require.Equal(t, "B", waitFor(t, gate.started))
	gate.release["B"] <- "b"
	require.Equal(t, "B", waitFor(t, commits).Source)

	gate.release["A"] <- "a"
	select {
	case r := <-commits:
		t.Fatalf("late result committed: %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, "B", tracker.LastAccepted())
	assert.Equal(t, 1, cache.Len("p"))
}

func TestScheduleDebouncesBursts(t *testing.T) {
	cache := NewCache(16)
	tracker := NewTracker()
	gate := newGatedTranslator("x", "xy", "xyz")
	gate.release["xyz"] <- "XYZ"
	commits := make(chan Result, 4)
	at := NewAutoTranslator("p", cache, tracker, gate.Translate, AutoOptions{
		Debounce: 50 * time.Millisecond,
		OnCommit: func(r Result) { commits <- r },
	})
	defer at.Stop()

	at.Schedule("x")
	at.Schedule("xy")
	at.Schedule("xyz")
	r := waitFor(t, commits)
	assert.Equal(t, "xyz", r.Source)
	assert.Equal(t, []string{"xyz"}, gate.Calls())
}

func TestCacheHitSkipsTranslator(t *testing.T) {
	cache := NewCache(16)
	cache.Put("p", "Subject: 猫", "cat")
	tracker := NewTracker()
	called := false
	at := NewAutoTranslator("p", cache, tracker, func(context.Context, string) (string, error) {
		called = true
		return "", errors.New("unexpected call")
	}, AutoOptions{})
	defer at.Stop()

	res, err := at.TranslateNow(context.Background(), "Subject: 猫")
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.True(t, res.Committed)
	assert.Equal(t, "cat", res.Output)
	assert.False(t, called)
	assert.False(t, tracker.IsDirty("Subject: 猫"))
}

func TestManualTranslateClearsDirty(t *testing.T) {
	cache := NewCache(16)
	tracker := NewTracker()
	calls := 0
	at := NewAutoTranslator("p", cache, tracker, func(_ context.Context, s string) (string, error) {
		calls++
		return "EN(" + s + ")", nil
	}, AutoOptions{})
	defer at.Stop()

	text := "Subject: 猫"
	assert.True(t, tracker.IsDirty(text))
	assert.Equal(t, 0, calls, "nothing translates until asked")

	res, err := at.TranslateNow(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, "EN(Subject: 猫)", res.Output)
	assert.False(t, tracker.IsDirty(text))
	assert.True(t, tracker.IsDirty(text+"!"))
	assert.Equal(t, 1, calls)
}

func TestTranslateNowEmptyIsNoop(t *testing.T) {
	at := NewAutoTranslator("p", NewCache(1), NewTracker(), func(context.Context, string) (string, error) {
		t.Fatalf("translator must not be called for empty text")
		return "", nil
	}, AutoOptions{})
	defer at.Stop()
	res, err := at.TranslateNow(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, res.Committed)
}

func TestScheduleCacheHitCommitsImmediately(t *testing.T) {
	cache := NewCache(16)
	tracker := NewTracker()
	calls := 0
	at := NewAutoTranslator("p", cache, tracker, func(_ context.Context, s string) (string, error) {
		calls++
		return "EN(" + s + ")", nil
	}, AutoOptions{Debounce: time.Hour})
	defer at.Stop()

	_, err := at.TranslateNow(context.Background(), "A")
	require.NoError(t, err)
	_, err = at.TranslateNow(context.Background(), "B")
	require.NoError(t, err)
	require.True(t, tracker.IsDirty("A"))

	at.Schedule("A")
	assert.False(t, tracker.IsDirty("A"), "cached text must be accepted without waiting for the debounce")
	assert.Equal(t, "A", tracker.LastAccepted())
	assert.Equal(t, 2, calls)
}
