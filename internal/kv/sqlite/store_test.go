package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, ok, err := s.Get(ctx, "smartpause_hero_cache"); ok || err != nil {
		t.Fatalf("Get on empty db = %v, %v", ok, err)
	}

	payload := "data:image/png;base64," + strings.Repeat("A", 4096)
	if err := s.Set(ctx, "smartpause_hero_cache", payload); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(ctx, "smartpause_hero_cache")
	if err != nil || !ok || got != payload {
		t.Errorf("Get = %d bytes, %v, %v", len(got), ok, err)
	}
}

func TestStore_FirstWriteWins(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	_ = s.Set(ctx, "k", "first")
	if err := s.Set(ctx, "k", "second"); err != nil {
		t.Fatalf("second Set: %v", err)
	}
	if v, _, _ := s.Get(ctx, "k"); v != "first" {
		t.Errorf("value = %q, want first", v)
	}
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(ctx, "smartpause_logo_cache", "data:image/png;base64,AAAA"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "smartpause_logo_cache")
	if err != nil || !ok || v != "data:image/png;base64,AAAA" {
		t.Errorf("Get after reopen = %q, %v, %v", v, ok, err)
	}
}
