package quota

import (
	"testing"
	"time"
)

func TestStartOfWeek_MondayBoundary(t *testing.T) {
	// Wednesday 2025-06-11 15:30 UTC -> Monday 2025-06-09 00:00 UTC
	wed := time.Date(2025, 6, 11, 15, 30, 0, 0, time.UTC)
	want := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	if got := startOfWeek(wed); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// Monday itself maps to its own midnight
	mon := time.Date(2025, 6, 9, 23, 59, 59, 0, time.UTC)
	if got := startOfWeek(mon); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// Sunday belongs to the preceding Monday-start week
	sun := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)
	if got := startOfWeek(sun); !got.Equal(want) {
		t.Errorf("expected Sunday to map to %v, got %v", want, got)
	}
}

func TestStartOfWeek_NonUTCInput(t *testing.T) {
	// Monday 01:00 in UTC+3 is still Sunday in UTC; the boundary is UTC-based.
	loc := time.FixedZone("UTC+3", 3*3600)
	localMonday := time.Date(2025, 6, 16, 1, 0, 0, 0, loc)
	want := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	if got := startOfWeek(localMonday); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPolicy_Expired_Weekly(t *testing.T) {
	p := Policy{Limit: 3, Mode: WindowWeekly}

	start := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC) // Monday

	// Same week: not expired
	if p.Expired(start, time.Date(2025, 6, 13, 10, 0, 0, 0, time.UTC)) {
		t.Error("window should not expire within the same week")
	}

	// Next Monday: expired
	if !p.Expired(start, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)) {
		t.Error("window should expire at the next Monday boundary")
	}

	// Many weeks later: still just expired
	if !p.Expired(start, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("window should expire across multiple weeks")
	}
}

func TestPolicy_Expired_Lifetime(t *testing.T) {
	p := Policy{Limit: 1, Mode: WindowLifetime}
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	if p.Expired(start, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("lifetime windows never expire")
	}
}

func TestPolicy_Expired_Duration(t *testing.T) {
	p := Policy{Limit: 5, Mode: WindowDuration, Duration: time.Hour}
	start := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)

	if p.Expired(start, start.Add(59*time.Minute)) {
		t.Error("window should not expire before the duration elapses")
	}
	if !p.Expired(start, start.Add(time.Hour)) {
		t.Error("window should expire exactly at the duration boundary")
	}
}

func TestPolicy_Expired_FutureStart(t *testing.T) {
	// A start ahead of the clock (rollback, corrupted record) must not
	// count as expired; otherwise the window would reset on every check.
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)

	for _, p := range []Policy{
		{Limit: 1, Mode: WindowWeekly},
		{Limit: 1, Mode: WindowLifetime},
		{Limit: 1, Mode: WindowDuration, Duration: time.Minute},
	} {
		if p.Expired(future, now) {
			t.Errorf("%s: future window start must not read as expired", p.Mode)
		}
	}
}

func TestPolicy_NextStart(t *testing.T) {
	now := time.Date(2025, 6, 11, 15, 30, 0, 0, time.UTC) // Wednesday

	weekly := Policy{Limit: 1, Mode: WindowWeekly}
	if got := weekly.NextStart(now); !got.Equal(startOfWeek(now)) {
		t.Errorf("weekly window should start at the week boundary, got %v", got)
	}

	lifetime := Policy{Limit: 1, Mode: WindowLifetime}
	if got := lifetime.NextStart(now); !got.Equal(now) {
		t.Errorf("lifetime window should start now, got %v", got)
	}
}

func TestPolicy_Validate(t *testing.T) {
	cases := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"valid weekly", Policy{Limit: 3, Mode: WindowWeekly}, false},
		{"valid lifetime", Policy{Limit: 1, Mode: WindowLifetime}, false},
		{"valid duration", Policy{Limit: 5, Mode: WindowDuration, Duration: time.Hour}, false},
		{"zero limit", Policy{Limit: 0, Mode: WindowWeekly}, true},
		{"negative limit", Policy{Limit: -1, Mode: WindowWeekly}, true},
		{"duration mode without duration", Policy{Limit: 1, Mode: WindowDuration}, true},
		{"unknown mode", Policy{Limit: 1, Mode: "monthly"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseWindowMode(t *testing.T) {
	if mode, err := ParseWindowMode("weekly"); err != nil || mode != WindowWeekly {
		t.Errorf("expected weekly, got %v (%v)", mode, err)
	}
	if _, err := ParseWindowMode("hourly"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
