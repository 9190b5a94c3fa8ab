package auth

import (
	"context"
	"testing"
)

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}

	for _, role := range Roles {
		perms := RolePermissions[role]
		if len(perms) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
		for _, perm := range perms {
			if _, ok := allowed[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
	}
}

func TestDefaultPermissionsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		if _, ok := seen[perm]; ok {
			t.Fatalf("duplicate permission %s", perm)
		}
		seen[perm] = struct{}{}
	}
}

func TestStaticPermissions(t *testing.T) {
	tests := []struct {
		role string
		perm string
		want bool
	}{
		{role: RoleAdmin, perm: PermUsersManage, want: true},
		{role: RoleManager, perm: PermPayslipsSend, want: true},
		{role: RoleManager, perm: PermEmailConfigure, want: false},
		{role: RoleUser, perm: PermPayrollRead, want: true},
		{role: RoleUser, perm: PermEmployeesWrite, want: false},
		{role: "ghost", perm: PermPayrollRead, want: false},
	}
	for _, tc := range tests {
		got, err := StaticPermissions{}.HasPermission(context.Background(), tc.role, tc.perm)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("%s/%s: expected %v, got %v", tc.role, tc.perm, tc.want, got)
		}
	}
}
