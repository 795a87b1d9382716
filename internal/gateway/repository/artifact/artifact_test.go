package artifact

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Put(ctx, "p1", "/results/r1.png", []byte("img")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "p1", "results/r1.png")
	if err != nil || string(got) != "img" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if err := s.Delete(ctx, "p1", "results/r1.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "p1", "results/r1.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Put(ctx, "", "x", nil); err == nil {
		t.Fatalf("expected error for empty project id")
	}
}

func TestRefRoundTrip(t *testing.T) {
	ref := Ref("p1", "results/r1.png")
	if ref != "artifact://p1/results/r1.png" {
		t.Fatalf("unexpected ref %q", ref)
	}
	pid, path, ok := ParseRef(ref)
	if !ok || pid != "p1" || path != "results/r1.png" {
		t.Fatalf("ParseRef = %q %q %v", pid, path, ok)
	}
	if _, _, ok := ParseRef("data:image/png;base64,AAAA"); ok {
		t.Fatalf("data url parsed as ref")
	}
}

type countingStore struct {
	*MemoryStore
	gets int
}

func (c *countingStore) Get(ctx context.Context, projectID, path string) ([]byte, error) {
	c.gets++
	return c.MemoryStore.Get(ctx, projectID, path)
}

func TestCachedStoreServesRepeatReads(t *testing.T) {
	ctx := context.Background()
	origin := &countingStore{MemoryStore: NewMemoryStore()}
	if err := origin.MemoryStore.Put(ctx, "p", "a.png", []byte("A")); err != nil {
		t.Fatal(err)
	}
	s := NewCachedStore(origin, CacheConfig{})
	for i := 0; i < 3; i++ {
		got, err := s.Get(ctx, "p", "a.png")
		if err != nil || string(got) != "A" {
			t.Fatalf("Get = %q, %v", got, err)
		}
	}
	if origin.gets != 1 {
		t.Fatalf("expected one origin read, got %d", origin.gets)
	}
	m := s.Metrics()
	if m.BlobHits != 2 || m.BlobMisses != 1 {
		t.Fatalf("unexpected metrics %+v", m)
	}

	if err := s.Delete(ctx, "p", "a.png"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "p", "a.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted artifact still served: %v", err)
	}
}

func TestS3Store(t *testing.T) {
	endpoint := os.Getenv("ARTIFACT_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("ARTIFACT_S3_ENDPOINT not set")
	}
	s, err := NewS3Store(S3Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("ARTIFACT_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("ARTIFACT_S3_SECRET_KEY"),
		Bucket:    "promptlab-test",
	})
	if err != nil {
		t.Fatalf("NewS3Store: %v", err)
	}
	ctx := context.Background()
	if err := s.Put(ctx, "p", "t.png", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "p", "t.png")
	if err != nil || string(got) != "x" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if err := s.Delete(ctx, "p", "t.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
