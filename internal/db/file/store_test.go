package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/varsearch/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestNewStore_EmptyDir(t *testing.T) {
	if _, err := NewStore(""); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestSetGet_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "codex:saved-filters", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "codex:saved-filters")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[{"id":"a"}]` {
		t.Errorf("Get = %s", got)
	}

	if _, err := os.Stat(filepath.Join(s.Dir(), "codex_saved-filters.json")); err != nil {
		t.Errorf("expected file on disk: %v", err)
	}
}

func TestSet_Overwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("first value, longer"))
	if err := s.Set(ctx, "k", []byte("second")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _ := s.Get(ctx, "k")
	if string(got) != "second" {
		t.Errorf("Get = %q, want second", got)
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestDel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "k", []byte("v"))
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after Del, got %v", err)
	}
	if err := s.Del(ctx, "k"); err != nil {
		t.Errorf("Del of missing key should succeed, got %v", err)
	}
}

func TestInvalidKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"", ".", "..", "a/b", `a\b`} {
		if err := s.Set(ctx, key, []byte("v")); !errors.Is(err, db.ErrInvalidKey) {
			t.Errorf("Set(%q): expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestClose(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.WaitForReady(ctx, 0); err != nil {
		t.Fatalf("WaitForReady: %v", err)
	}
	s.Close()

	if err := s.Ping(ctx); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Ping after Close: %v", err)
	}
	if err := s.Set(ctx, "k", nil); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Set after Close: %v", err)
	}
	var dbErr *db.Error
	if _, err := s.Get(ctx, "k"); !errors.As(err, &dbErr) || dbErr.Op != db.OpGet {
		t.Errorf("Get after Close: %v", err)
	}
}
