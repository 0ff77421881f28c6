//go:build !darwin

package osxkeychain

import (
	"context"
	"testing"

	"github.com/juju/errors"
)

func TestNew_Unsupported(t *testing.T) {
	_, err := New("kc1")
	if !errors.Is(err, errors.NotSupported) {
		t.Fatalf("expected not supported error, got %v", err)
	}
}

func TestOperations_Unsupported(t *testing.T) {
	b := &Backend{service: "kc1"}
	ctx := context.Background()

	if _, err := b.Get(ctx, "k"); !errors.Is(err, errors.NotSupported) {
		t.Errorf("Get: expected not supported, got %v", err)
	}
	if _, err := b.Has(ctx, "k"); !errors.Is(err, errors.NotSupported) {
		t.Errorf("Has: expected not supported, got %v", err)
	}
	if err := b.Set(ctx, "k", "v"); !errors.Is(err, errors.NotSupported) {
		t.Errorf("Set: expected not supported, got %v", err)
	}
	if err := b.Delete(ctx, "k"); !errors.Is(err, errors.NotSupported) {
		t.Errorf("Delete: expected not supported, got %v", err)
	}
}
