package models

import "testing"

// Every alias RoleAliases reports must normalize back to its canonical role,
// and every canonical role must appear in its own alias set.
func TestRoleAliases_RoundTripsWithNormalizeRole(t *testing.T) {
	for _, role := range []PaymentRole{PaymentRoleDeposit, PaymentRoleRest, PaymentRoleSingle} {
		aliases := RoleAliases(role)
		if len(aliases) == 0 {
			t.Fatalf("role %s: no aliases", role)
		}
		foundSelf := false
		for _, alias := range aliases {
			normalized, ok := NormalizeRole(alias)
			if !ok || normalized != role {
				t.Fatalf("alias %q of role %s normalizes to %q (ok=%v)", alias, role, normalized, ok)
			}
			if alias == string(role) {
				foundSelf = true
			}
		}
		if !foundSelf {
			t.Fatalf("role %s missing from its own alias set %v", role, aliases)
		}
	}
}

func TestNormalizeRole_RejectsUnknownSpellings(t *testing.T) {
	for _, raw := range []string{"", "Deposit", "REST", "installment"} {
		if role, ok := NormalizeRole(raw); ok {
			t.Fatalf("expected %q to be rejected, got %s", raw, role)
		}
	}
}
