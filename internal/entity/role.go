package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the authorization level of a user. A user holds exactly one.
type Role string

const (
	RoleUser   Role = "USER"
	RoleAuthor Role = "AUTHOR"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole accepts any casing and rejects values outside the enum.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return role, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAuthor, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleRequestStatus is the lifecycle state of a role request.
type RoleRequestStatus string

const (
	RoleRequestPending  RoleRequestStatus = "PENDING"
	RoleRequestApproved RoleRequestStatus = "APPROVED"
	RoleRequestDenied   RoleRequestStatus = "DENIED"
)

func ParseRoleRequestStatus(s string) (RoleRequestStatus, error) {
	status := RoleRequestStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("invalid role request status %q", s)
	}
	return status, nil
}

func (s RoleRequestStatus) Valid() bool {
	switch s {
	case RoleRequestPending, RoleRequestApproved, RoleRequestDenied:
		return true
	}
	return false
}

func (s RoleRequestStatus) String() string {
	return string(s)
}

// Terminal reports whether no transition leaves this state.
func (s RoleRequestStatus) Terminal() bool {
	return s == RoleRequestApproved || s == RoleRequestDenied
}

// CanTransitionTo encodes PENDING -> APPROVED | DENIED. Nothing leaves a terminal state.
func (s RoleRequestStatus) CanTransitionTo(next RoleRequestStatus) bool {
	if s != RoleRequestPending {
		return false
	}
	return next == RoleRequestApproved || next == RoleRequestDenied
}

// OutstandingStatuses block a new request for the same role.
func OutstandingStatuses() []RoleRequestStatus {
	return []RoleRequestStatus{RoleRequestPending, RoleRequestApproved}
}
