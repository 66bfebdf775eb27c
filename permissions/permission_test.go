package permissions_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking/permissions"
	"parking/shared/constant"
)

func TestGet_EmbeddedTable(t *testing.T) {
	table := permissions.Get()
	require.NotNil(t, table)

	known := []string{constant.RoleUser, constant.RoleWatchman, constant.RoleAdmin, constant.RoleSystem}

	for _, endpoint := range table.Endpoints {
		assert.NotEmpty(t, endpoint.Permissions, "%s %s has no roles", endpoint.Method, endpoint.Path)

		for _, role := range endpoint.Permissions {
			assert.Contains(t, known, role, "%s %s", endpoint.Method, endpoint.Path)
		}
	}

	assert.True(t, table.FindPermissions("/v1/bookings", http.MethodPost).Allows(constant.RoleUser))
	assert.False(t, table.FindPermissions("/v1/bookings", http.MethodPost).Allows(constant.RoleWatchman))
	assert.False(t, table.FindPermissions("/v1/payments/results", http.MethodPost).Allows(constant.RoleAdmin))
	assert.Equal(t, permissions.Permission{}, table.FindPermissions("/v1/unknown", http.MethodGet))
}

func TestParse(t *testing.T) {
	_, err := permissions.Parse([]byte(`{"endpoints":[{"path":"/v1/x","method":"GET"},{"path":"/v1/x","method":"GET"}]}`))
	assert.Error(t, err)

	_, err = permissions.Parse([]byte(`{`))
	assert.Error(t, err)

	table, err := permissions.Parse([]byte(`{"endpoints":[{"path":"/v1/x","method":"GET","skip":true}]}`))
	require.NoError(t, err)
	assert.True(t, table.FindPermissions("/v1/x", http.MethodGet).Skip)
}
