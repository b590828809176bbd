package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, role := range AllRoles {
		parsed, err := ParseRole(string(role))
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	_, err := ParseRole("root")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestRoleIn(t *testing.T) {
	admins := []Role{RoleSuperAdmin, RoleOrgAdmin}

	assert.True(t, RoleOrgAdmin.In(admins))
	assert.False(t, RoleObserver.In(admins))
	assert.False(t, RoleObserver.In(nil))
}

func TestAssignableBy(t *testing.T) {
	assert.Equal(t, []Role{RoleOrgAdmin, RoleAuthorityUser, RoleObserver}, AssignableBy(RoleSuperAdmin))
	assert.Equal(t, []Role{RoleAuthorityUser, RoleObserver}, AssignableBy(RoleOrgAdmin))
	assert.Nil(t, AssignableBy(RoleAuthorityUser))
	assert.Nil(t, AssignableBy(RoleObserver))

	// super_admin is never assignable, by anyone.
	for _, editor := range AllRoles {
		assert.False(t, RoleSuperAdmin.In(AssignableBy(editor)))
	}
}
