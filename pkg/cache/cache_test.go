package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 100*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	c.Delete("key1")
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestInvalidate(t *testing.T) {
	c := New()
	c.Set("wardrobe:alice", "a", 1*time.Second)
	c.Set("wardrobe:bob", "b", 1*time.Second)
	c.Set("catalog:all", "c", 1*time.Second)
	c.Invalidate("wardrobe:")
	_, ok1 := c.Get("wardrobe:alice")
	_, ok2 := c.Get("wardrobe:bob")
	_, ok3 := c.Get("catalog:all")
	if ok1 || ok2 {
		t.Fatalf("expected wardrobe keys to be invalidated")
	}
	if !ok3 {
		t.Fatalf("expected catalog:all to still exist")
	}
}
