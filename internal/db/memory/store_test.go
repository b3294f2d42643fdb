package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/varsearch/internal/db"
)

func TestStore_CRUD(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := s.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v1" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after Del, got %v", err)
	}
}

func TestStore_CopiesValues(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	in := []byte("abc")
	_ = s.Set(ctx, "k", in)
	in[0] = 'X'

	out, _ := s.Get(ctx, "k")
	if string(out) != "abc" {
		t.Errorf("store aliased input: %q", out)
	}
	out[1] = 'Y'
	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("store aliased output: %q", again)
	}
}

func TestStore_Closed(t *testing.T) {
	s := NewStore()
	s.Close()
	if err := s.Ping(context.Background()); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Ping after Close: %v", err)
	}
	if err := s.Set(context.Background(), "k", nil); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Set after Close: %v", err)
	}
}
