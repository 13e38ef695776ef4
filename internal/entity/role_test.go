package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" author ")
	require.NoError(t, err)
	assert.Equal(t, RoleAuthor, role)

	_, err = ParseRole("moderator")
	assert.Error(t, err)

	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestRoleUnmarshalJSON(t *testing.T) {
	var body struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"admin"}`), &body))
	assert.Equal(t, RoleAdmin, body.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"root"}`), &body))
}

func TestParseRoleRequestStatus(t *testing.T) {
	status, err := ParseRoleRequestStatus("pending")
	require.NoError(t, err)
	assert.Equal(t, RoleRequestPending, status)

	_, err = ParseRoleRequestStatus("CANCELLED")
	assert.Error(t, err)
}

func TestRoleRequestStatusTransitions(t *testing.T) {
	all := []RoleRequestStatus{RoleRequestPending, RoleRequestApproved, RoleRequestDenied}

	for _, from := range all {
		for _, to := range all {
			want := from == RoleRequestPending && to != RoleRequestPending
			assert.Equalf(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.False(t, RoleRequestPending.Terminal())
	assert.True(t, RoleRequestApproved.Terminal())
	assert.True(t, RoleRequestDenied.Terminal())
}

func TestOutstandingStatusesExcludeDenied(t *testing.T) {
	assert.ElementsMatch(t, []RoleRequestStatus{RoleRequestPending, RoleRequestApproved}, OutstandingStatuses())
}
