package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yingmeanshard/yingshop/internal/user/domain"
)

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := &domain.User{ID: 7, Role: domain.RoleStaff}

	token, err := issuer.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, role, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)
	assert.Equal(t, domain.RoleStaff, role)
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Issue(&domain.User{ID: 7, Role: domain.RoleCustomer})
	require.NoError(t, err)

	other := NewTokenIssuer("different-secret", time.Hour)
	_, _, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_ExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)
	token, err := issuer.Issue(&domain.User{ID: 7, Role: domain.RoleCustomer})
	require.NoError(t, err)

	_, _, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	_, _, err := issuer.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAllowed_PolicyTable(t *testing.T) {
	cases := []struct {
		role   domain.Role
		action Action
		want   bool
	}{
		{domain.RoleAdmin, ActionManageCatalog, true},
		{domain.RoleStaff, ActionManageCatalog, false},
		{domain.RoleCustomer, ActionManageCatalog, false},
		{domain.RoleAdmin, ActionManageStock, true},
		{domain.RoleStaff, ActionManageStock, true},
		{domain.RoleCustomer, ActionManageStock, false},
		{domain.RoleStaff, ActionViewAllOrders, true},
		{domain.RoleCustomer, ActionViewAllOrders, false},
		{domain.RoleStaff, ActionUpdateStatus, true},
		{domain.RoleCustomer, ActionUpdateStatus, false},
		{domain.RoleAdmin, ActionManageUsers, true},
		{domain.RoleStaff, ActionManageUsers, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Allowed(tc.role, tc.action), "%s / %s", tc.role, tc.action)
	}
}

func TestAllowed_UnknownActionDenied(t *testing.T) {
	assert.False(t, Allowed(domain.RoleAdmin, Action("nonexistent")))
}
