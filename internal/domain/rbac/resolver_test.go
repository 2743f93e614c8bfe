package rbac

import (
	"testing"
	"time"
)

func codes(effective map[string]struct{}) []string {
	out := make([]string, 0, len(effective))
	for c := range effective {
		out = append(out, c)
	}
	return out
}

func TestEffectivePermissionsMerge(t *testing.T) {
	now := time.Now()

	rolePerms := []string{"a", "b"}
	overrides := []Override{
		{Code: "c", Effect: EffectAllow},
		{Code: "b", Effect: EffectDeny},
	}

	effective := EffectivePermissions(rolePerms, overrides, now)

	if len(effective) != 2 {
		t.Fatalf("expected 2 effective permissions, got %d: %v", len(effective), codes(effective))
	}
	for _, want := range []string{"a", "c"} {
		if _, ok := effective[want]; !ok {
			t.Fatalf("expected %q in effective set", want)
		}
	}
	if _, ok := effective["b"]; ok {
		t.Fatalf("deny override must remove role-granted permission")
	}
}

func TestDenyBeatsExplicitAllow(t *testing.T) {
	now := time.Now()

	// Both an allow and a deny for the same code, in allow-last order: the
	// deny must still win because it is applied as a final subtraction.
	overrides := []Override{
		{Code: "users.delete", Effect: EffectDeny},
		{Code: "users.delete", Effect: EffectAllow},
	}

	effective := EffectivePermissions(nil, overrides, now)
	if _, ok := effective["users.delete"]; ok {
		t.Fatalf("deny must win regardless of override ordering")
	}
}

func TestExpiredOverridesAreInert(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	rolePerms := []string{"users.delete"}
	overrides := []Override{
		{Code: "users.delete", Effect: EffectDeny, ExpiresAt: &past},
		{Code: "reports.view", Effect: EffectAllow, ExpiresAt: &past},
		{Code: "reports.export", Effect: EffectAllow, ExpiresAt: &future},
	}

	effective := EffectivePermissions(rolePerms, overrides, now)

	if _, ok := effective["users.delete"]; !ok {
		t.Fatalf("expired deny must not suppress a role-granted permission")
	}
	if _, ok := effective["reports.view"]; ok {
		t.Fatalf("expired allow must not grant anything")
	}
	if _, ok := effective["reports.export"]; !ok {
		t.Fatalf("unexpired allow must grant")
	}
}

func TestHasAll(t *testing.T) {
	effective := map[string]struct{}{"a": {}, "b": {}}

	if !HasAll(effective, nil) {
		t.Fatalf("empty requirement must pass")
	}
	if !HasAll(effective, []string{"a", "b"}) {
		t.Fatalf("expected all required codes present")
	}
	if HasAll(effective, []string{"a", "z"}) {
		t.Fatalf("missing code must fail the check")
	}
}
