package libadmin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected Role
		wantErr  bool
	}{
		{input: "ADMIN", expected: RoleAdmin},
		{input: "admin", expected: RoleAdmin},
		{input: "ROLE_STAFF", expected: RoleStaff},
		{input: " staff ", expected: RoleStaff},
		{input: "guest", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			role, err := ParseRole(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRole)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, role)
		})
	}
}

func TestRole_Can(t *testing.T) {
	t.Parallel()

	assert.True(t, RoleAdmin.Can(CapDeleteRecords))
	assert.True(t, RoleAdmin.Can(CapViewReports))
	assert.True(t, RoleStaff.Can(CapManageLoans))
	assert.False(t, RoleStaff.Can(CapDeleteRecords))
	assert.False(t, Role("GUEST").Can(CapManageCatalog))

	caps := RoleStaff.Capabilities()
	caps[0] = CapDeleteRecords

	assert.False(t, RoleStaff.Can(CapDeleteRecords), "capabilities are returned as a copy")
	assert.Empty(t, Role("GUEST").Capabilities())
}
