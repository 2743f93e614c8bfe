package rbac

import "time"

// EffectivePermissions merges role-granted permission codes with the user's
// allow/deny overrides:
//
//	effective = (rolePerms ∪ activeAllows) − activeDenies
//
// Deny always wins, over role grants and explicit allows alike; the
// subtraction happens last, so ordering of the inputs never matters.
// Expired overrides contribute to neither set.
func EffectivePermissions(rolePerms []string, overrides []Override, now time.Time) map[string]struct{} {
	effective := make(map[string]struct{}, len(rolePerms))
	for _, code := range rolePerms {
		effective[code] = struct{}{}
	}

	var denies []string
	for _, ov := range overrides {
		if !ov.Active(now) {
			continue
		}
		switch ov.Effect {
		case EffectAllow:
			effective[ov.Code] = struct{}{}
		case EffectDeny:
			denies = append(denies, ov.Code)
		}
	}

	for _, code := range denies {
		delete(effective, code)
	}

	return effective
}

// HasAll reports whether every required code is in the effective set.
// An empty requirement list always passes.
func HasAll(effective map[string]struct{}, required []string) bool {
	for _, code := range required {
		if _, ok := effective[code]; !ok {
			return false
		}
	}
	return true
}
