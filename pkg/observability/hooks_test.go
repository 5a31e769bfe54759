package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Placement hooks
	p := NoopPlacementHooks{}
	p.OnPlaceRowsStart(ctx, "inv_core", 2)
	p.OnPlaceRowsComplete(ctx, "inv_core", 480, time.Second, nil)
	p.OnTileBuilt(ctx, "inv_core", 2, 480)
	p.OnTableStart(ctx, 3)
	p.OnTableComplete(ctx, 3, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "table")
	c.OnCacheMiss(ctx, "table")
	c.OnCacheSet(ctx, "table", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Placement().(NoopPlacementHooks); !ok {
		t.Error("Placement() should return NoopPlacementHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	// Set custom hooks
	customPlacement := &testPlacementHooks{}
	SetPlacementHooks(customPlacement)
	if Placement() != customPlacement {
		t.Error("SetPlacementHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Placement().(NoopPlacementHooks); !ok {
		t.Error("Reset() should restore NoopPlacementHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPlacementHooks{}
	SetPlacementHooks(custom)

	// Setting nil should be ignored
	SetPlacementHooks(nil)

	if Placement() != custom {
		t.Error("SetPlacementHooks(nil) should be ignored")
	}

	Reset()
}

func TestRunContext(t *testing.T) {
	ctx := context.Background()
	if got := RunID(ctx); got != "" {
		t.Errorf("RunID on bare context = %q, want empty", got)
	}

	ctx, id := NewRunContext(ctx)
	if id == "" {
		t.Fatal("NewRunContext returned empty ID")
	}
	if got := RunID(ctx); got != id {
		t.Errorf("RunID = %q, want %q", got, id)
	}

	// A second run gets a distinct ID.
	_, id2 := NewRunContext(ctx)
	if id2 == id {
		t.Error("NewRunContext returned duplicate IDs")
	}
}

// Test implementations
type testPlacementHooks struct{ NoopPlacementHooks }
type testCacheHooks struct{ NoopCacheHooks }
