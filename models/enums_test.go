package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRoleUnmarshal(t *testing.T) {
	cases := map[string]UserRole{
		`"ADMIN"`:      UserRoleAdmin,
		`" cashier "`:  UserRoleCashier,
		`"JEFE_LOCAL"`: UserRoleShiftLead,
		`"vendedor"`:   UserRoleCashier,
	}
	for raw, want := range cases {
		var r UserRole
		require.NoError(t, json.Unmarshal([]byte(raw), &r), raw)
		assert.Equal(t, want, r, raw)
		assert.True(t, r.IsValid())
	}

	var r UserRole
	assert.Error(t, json.Unmarshal([]byte(`"OWNER"`), &r))
	assert.Error(t, json.Unmarshal([]byte(`3`), &r))
	assert.False(t, UserRole("JEFE_LOCAL").IsValid())
}

func TestPaymentMethodUnmarshal(t *testing.T) {
	var m PaymentMethod
	require.NoError(t, json.Unmarshal([]byte(`"card"`), &m))
	assert.Equal(t, PaymentMethodCard, m)
	assert.Error(t, json.Unmarshal([]byte(`"BITCOIN"`), &m))
}
