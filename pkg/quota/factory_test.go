package quota

import (
	"context"
	"testing"
	"time"

	"github.com/kadirpekel/usagegate/pkg/config"
	"github.com/kadirpekel/usagegate/pkg/kv"
)

func TestPolicyFromConfig(t *testing.T) {
	p, err := PolicyFromConfig(&config.QuotaConfig{Limit: 3, Window: "weekly"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != 3 || p.Mode != WindowWeekly {
		t.Errorf("unexpected policy: %+v", p)
	}

	p, err = PolicyFromConfig(&config.QuotaConfig{Limit: 5, Window: "duration", Duration: time.Hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Mode != WindowDuration || p.Duration != time.Hour {
		t.Errorf("unexpected policy: %+v", p)
	}

	if _, err := PolicyFromConfig(&config.QuotaConfig{Limit: 3, Window: "monthly"}); err == nil {
		t.Error("expected error for unknown window")
	}
	if _, err := PolicyFromConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestNewManagersFromConfig(t *testing.T) {
	cfg := &config.Config{
		Quotas: map[string]*config.QuotaConfig{
			"ai_scan": {Limit: 3, Window: "weekly"},
			"onboard": {Limit: 1, Window: "lifetime"},
		},
	}

	store := kv.NewMemoryStore()
	managers, err := NewManagersFromConfig(cfg, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(managers) != 2 {
		t.Fatalf("expected 2 managers, got %d", len(managers))
	}

	mgr := managers["ai_scan"]
	if mgr == nil {
		t.Fatal("expected ai_scan manager")
	}
	mgr.SetOwner(Scoped("user-1"))
	if got := mgr.Remaining(context.Background()); got != 3 {
		t.Errorf("expected 3 remaining, got %d", got)
	}
}

func TestNewManagersFromConfig_InvalidQuota(t *testing.T) {
	cfg := &config.Config{
		Quotas: map[string]*config.QuotaConfig{
			"bad": {Limit: 0, Window: "weekly"},
		},
	}
	if _, err := NewManagersFromConfig(cfg, kv.NewMemoryStore()); err == nil {
		t.Error("expected error for invalid quota config")
	}
}
