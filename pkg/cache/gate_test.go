package cache

import (
	"context"
	"testing"
	"time"

	"github.com/kadirpekel/usagegate/pkg/kv"
)

func TestGate_CooldownGatesDisplay(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC))
	g := NewGate("upsell_prompt", 24*time.Hour, WithGateClock(clock.Now))

	if !g.Allow(ctx) {
		t.Fatal("never-shown gate should allow")
	}

	g.Mark(ctx)
	if g.Allow(ctx) {
		t.Error("gate must refuse inside the cooldown")
	}

	clock.Advance(23 * time.Hour)
	if g.Allow(ctx) {
		t.Error("gate must refuse just inside the cooldown")
	}

	clock.Advance(time.Hour)
	if !g.Allow(ctx) {
		t.Error("gate should allow once the cooldown passes")
	}
}

func TestGate_PersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC))
	store := kv.NewMemoryStore()

	g := NewGate("upsell_prompt", 24*time.Hour,
		WithGateClock(clock.Now), WithGateStore(store, "upsell_prompt_last_shown"))
	g.Mark(ctx)

	// A second gate over the same store simulates a restart
	g2 := NewGate("upsell_prompt", 24*time.Hour,
		WithGateClock(clock.Now), WithGateStore(store, "upsell_prompt_last_shown"))
	if g2.Allow(ctx) {
		t.Error("cooldown must survive a restart")
	}

	clock.Advance(25 * time.Hour)
	if !g2.Allow(ctx) {
		t.Error("gate should allow after the cooldown, restart or not")
	}
}

func TestGate_CorruptedRecordIgnored(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	if err := store.Set(ctx, "gate_key", []byte("not a timestamp")); err != nil {
		t.Fatal(err)
	}

	g := NewGate("prompt", time.Hour, WithGateStore(store, "gate_key"))
	if !g.Allow(ctx) {
		t.Error("corrupted record should read as never-shown")
	}
}

func TestGate_Reset(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC))
	store := kv.NewMemoryStore()

	g := NewGate("prompt", 24*time.Hour,
		WithGateClock(clock.Now), WithGateStore(store, "prompt_last_shown"))
	g.Mark(ctx)

	if err := g.Reset(ctx); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if !g.Allow(ctx) {
		t.Error("reset gate should allow immediately")
	}
	if _, ok, _ := store.Get(ctx, "prompt_last_shown"); ok {
		t.Error("reset should remove the stored timestamp")
	}
}

func TestGate_ZeroCooldownAlwaysAllows(t *testing.T) {
	ctx := context.Background()
	g := NewGate("prompt", 0)
	g.Mark(ctx)
	if !g.Allow(ctx) {
		t.Error("zero cooldown should always allow")
	}
}
