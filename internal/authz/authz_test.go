package authz_test

import (
	"testing"

	"account_service/internal/authz"

	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		resource string
		action   string
		want     bool
	}{
		{"admin deletes users", authz.RoleAdmin, "users", authz.ActionDelete, true},
		{"manager reads users", authz.RoleManager, "users", authz.ActionRead, true},
		{"manager cannot delete products", authz.RoleManager, "products", authz.ActionDelete, false},
		{"member creates orders", authz.RoleMember, "orders", authz.ActionCreate, true},
		{"member cannot touch users", authz.RoleMember, "users", authz.ActionRead, false},
		{"guest reads products", authz.RoleGuest, "products", authz.ActionRead, true},
		{"guest cannot create", authz.RoleGuest, "products", authz.ActionCreate, false},
		{"unknown role denies", "superuser", "products", authz.ActionRead, false},
		{"unknown resource denies", authz.RoleAdmin, "invoices", authz.ActionRead, false},
		{"unknown action denies", authz.RoleAdmin, "products", "approve", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, authz.Can(tt.role, tt.resource, tt.action))
		})
	}
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, authz.IsValidRole(authz.RoleAdmin))
	assert.True(t, authz.IsValidRole(authz.RoleMember))
	assert.False(t, authz.IsValidRole("root"))
	assert.False(t, authz.IsValidRole(""))
}
