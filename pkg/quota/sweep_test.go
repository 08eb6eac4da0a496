package quota

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/kadirpekel/usagegate/pkg/kv"
)

func putWindow(t *testing.T, store kv.Store, key string, w Window) {
	t.Helper()
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(context.Background(), key, data); err != nil {
		t.Fatal(err)
	}
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	now := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC) // Monday

	policies := map[string]Policy{
		"ai_scan":  {Limit: 3, Mode: WindowWeekly},
		"onboard":  {Limit: 1, Mode: WindowLifetime},
		"trial_up": {Limit: 5, Mode: WindowDuration, Duration: time.Hour},
	}

	lastWeek := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	thisWeek := startOfWeek(now)

	// Expired weekly record, live weekly record
	putWindow(t, store, storageKey("ai_scan", WindowWeekly, Scoped("stale-user")),
		Window{WindowStart: lastWeek, Used: 3})
	putWindow(t, store, storageKey("ai_scan", WindowWeekly, Scoped("live-user")),
		Window{WindowStart: thisWeek, Used: 1})

	// Lifetime record: ancient but never swept
	putWindow(t, store, storageKey("onboard", WindowLifetime, Scoped("stale-user")),
		Window{WindowStart: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Used: 1})

	// Expired duration record, plus a corrupted one
	putWindow(t, store, storageKey("trial_up", WindowDuration, Scoped("stale-user")),
		Window{WindowStart: now.Add(-2 * time.Hour), Used: 5})
	if err := store.Set(ctx, storageKey("trial_up", WindowDuration, Scoped("broken")), []byte("garbage")); err != nil {
		t.Fatal(err)
	}

	deleted, err := SweepExpired(ctx, store, policies, now)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deletions, got %d", deleted)
	}

	// Live and lifetime records survive
	if _, ok, _ := store.Get(ctx, storageKey("ai_scan", WindowWeekly, Scoped("live-user"))); !ok {
		t.Error("live weekly record must survive the sweep")
	}
	if _, ok, _ := store.Get(ctx, storageKey("onboard", WindowLifetime, Scoped("stale-user"))); !ok {
		t.Error("lifetime records must survive the sweep")
	}

	// Stale records are gone
	if _, ok, _ := store.Get(ctx, storageKey("ai_scan", WindowWeekly, Scoped("stale-user"))); ok {
		t.Error("expired weekly record should be deleted")
	}
	if _, ok, _ := store.Get(ctx, storageKey("trial_up", WindowDuration, Scoped("broken"))); ok {
		t.Error("corrupted record should be deleted")
	}
}

func TestSweepExpired_EmptyStore(t *testing.T) {
	deleted, err := SweepExpired(context.Background(), kv.NewMemoryStore(),
		map[string]Policy{"f": {Limit: 1, Mode: WindowWeekly}}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected no deletions, got %d", deleted)
	}
}
