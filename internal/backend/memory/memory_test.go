package memory

import (
	"context"
	"testing"

	"github.com/juju/errors"
)

func TestSetAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Set(ctx, "test/set-get", "hello-world"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, err := s.Get(ctx, "test/set-get")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "hello-world" {
		t.Errorf("expected 'hello-world', got %q", val)
	}
}

func TestGetNotFound(t *testing.T) {
	_, err := New().Get(context.Background(), "test/nonexistent")
	if !errors.Is(err, errors.NotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.Set(ctx, "test/overwrite", "first")
	_ = s.Set(ctx, "test/overwrite", "second")

	val, err := s.Get(ctx, "test/overwrite")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "second" {
		t.Errorf("expected 'second', got %q", val)
	}
	if n := len(s.secrets); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}

func TestHasAndDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.Set(ctx, "test/delete", "to-delete")
	if ok, _ := s.Has(ctx, "test/delete"); !ok {
		t.Fatal("expected key to be present")
	}
	if err := s.Delete(ctx, "test/delete"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := s.Has(ctx, "test/delete"); ok {
		t.Error("expected key to be absent after delete")
	}
	if err := s.Delete(ctx, "test/delete"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}
