// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"strings"
)

type Role string

const (
	RoleTop     Role = "TOP"
	RoleMid     Role = "MID"
	RoleBottom  Role = "BOTTOM"
	RoleSupport Role = "SUPPORT"
	RoleTank    Role = "TANK"
)

// Roles lists every role in roster order. A team roster index i always holds Roles[i].
var Roles = []Role{RoleTop, RoleMid, RoleBottom, RoleSupport, RoleTank}

// SlotsPerRole is the number of players holding the same role in one match, one per team.
const SlotsPerRole = 2

func (r Role) Valid() bool {
	return r.Index() >= 0
}

// Index returns the roster index of the role, -1 if unknown.
func (r Role) Index() int {
	for i, role := range Roles {
		if role == r {
			return i
		}
	}
	return -1
}

// ParseRole accepts any casing.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// NormalizeRoles drops unknown and duplicated roles, keeping the input order.
func NormalizeRoles(roles []Role) []Role {
	seen := make(map[Role]struct{}, len(roles))
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		r, ok := ParseRole(string(r))
		if !ok {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// RoleAssignment is one of the ten role slots of a match.
// SlotIndex 0 and 1 are the two holders of the same role; which one lands on team A is
// decided by the balancer, not by the slot index.
type RoleAssignment struct {
	Role      Role `json:"role"`
	SlotIndex int  `json:"slotIndex"`
}

// SlotCount is the number of role slots in a match.
func SlotCount() int {
	return len(Roles) * SlotsPerRole
}

// AssignmentForSlot maps a flat slot number in [0, SlotCount()) to its role slot.
func AssignmentForSlot(slot int) RoleAssignment {
	return RoleAssignment{Role: Roles[slot/SlotsPerRole], SlotIndex: slot % SlotsPerRole}
}

// Slot is the inverse of AssignmentForSlot.
func (a RoleAssignment) Slot() int {
	return a.Role.Index()*SlotsPerRole + a.SlotIndex
}
