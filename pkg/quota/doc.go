// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package quota tracks per-feature usage against windowed limits without
// contacting a server on every check.
//
// Features:
//   - Three reset modes: weekly (ISO weeks, Monday start, UTC), lifetime
//     (never resets), and fixed duration
//   - Owner scoping with an explicit anonymous state that never persists
//   - Lazy window roll-forward on every check
//   - Durable persistence through the kv store; failures degrade to
//     in-memory tracking instead of blocking the gated feature
//
// # Basic Usage
//
//	mgr, err := quota.NewManager("ai_scan", quota.Policy{
//	    Limit: 3,
//	    Mode:  quota.WindowWeekly,
//	}, store)
//
//	mgr.SetOwner(quota.Scoped(userID))
//	if mgr.CanUse(ctx) {
//	    // perform the gated action, then:
//	    mgr.Consume(ctx)
//	}
//
// This is a client-side soft gate for UX purposes only. Local storage can
// be bypassed; server-side enforcement remains the authority for abuse
// prevention.
//
// # Window Modes
//
//   - weekly: resets at the start of each ISO week (Monday 00:00 UTC)
//   - lifetime: accumulates until an external reset (e.g. account deletion)
//   - duration: resets a fixed interval after the window started
package quota
