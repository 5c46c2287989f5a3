package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestResponseCacheEviction(t *testing.T) {
	c := NewResponseCache(2, time.Minute)
	c.Set("a", []byte("first"))
	c.Set("b", []byte("second"))
	c.Set("c", []byte("third")) // evicts "a"

	if _, ok := c.Get("a"); ok {
		t.Fatal("oldest body should have been evicted")
	}
	if body, ok := c.Get("b"); !ok || !bytes.Equal(body, []byte("second")) {
		t.Fatalf("expected body for b, got %q (ok=%v)", body, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 bodies, got %d", c.Len())
	}
	if want := int64(len("second") + len("third")); c.SizeBytes() != want {
		t.Fatalf("expected %d cached bytes, got %d", want, c.SizeBytes())
	}
}

func TestResponseCacheRecencyOrder(t *testing.T) {
	c := NewResponseCache(2, time.Minute)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Get("a")              // refresh "a"
	c.Set("c", []byte("3")) // should evict "b", not "a"

	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used body should survive")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used body should be gone")
	}
}

func TestResponseCacheReplace(t *testing.T) {
	c := NewResponseCache(10, time.Minute)
	c.Set("k", []byte("short"))
	c.Set("k", []byte("a longer body"))

	if c.Len() != 1 {
		t.Fatalf("expected 1 body after replace, got %d", c.Len())
	}
	if want := int64(len("a longer body")); c.SizeBytes() != want {
		t.Fatalf("expected %d cached bytes after replace, got %d", want, c.SizeBytes())
	}
	if body, ok := c.Get("k"); !ok || !bytes.Equal(body, []byte("a longer body")) {
		t.Fatalf("expected replaced body, got %q (ok=%v)", body, ok)
	}
}

func TestResponseCacheTTL(t *testing.T) {
	c := NewResponseCache(10, 10*time.Millisecond)
	c.Set("k", []byte("v"))
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expired body should not be returned")
	}

	c.Set("k", []byte("v"))
	time.Sleep(20 * time.Millisecond)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 cleaned body, got %d", n)
	}
	if c.SizeBytes() != 0 {
		t.Fatalf("expected 0 cached bytes after cleanup, got %d", c.SizeBytes())
	}
}
