package models

import (
	"encoding/json"
	"errors"
)

// LiveStatus describes how a livestream session ran during a shift.
// A session that died and was restarted ("DeadRelive") resets the sales
// counter, so its opening balance never carries over.
type LiveStatus string

const (
	LiveStatusSmooth     LiveStatus = "Smooth"
	LiveStatusDeadRelive LiveStatus = "DeadRelive"
)

func (t LiveStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

func (t *LiveStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("live status must be string")
	}
	switch str {
	case "Smooth":
		*t = LiveStatusSmooth
	case "DeadRelive":
		*t = LiveStatusDeadRelive
	default:
		return errors.New("invalid live status")
	}
	return nil
}

type UserRole string

const (
	UserRoleAdmin    UserRole = "Admin"
	UserRoleManager  UserRole = "Manager"
	UserRoleTeamLead UserRole = "TeamLead"
	UserRoleFinance  UserRole = "Finance"
	UserRoleStaff    UserRole = "Staff"
)

func (t UserRole) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

func (t *UserRole) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("user role must be string")
	}
	userRoles := map[string]UserRole{
		"Admin":    UserRoleAdmin,
		"Manager":  UserRoleManager,
		"TeamLead": UserRoleTeamLead,
		"Finance":  UserRoleFinance,
		"Staff":    UserRoleStaff,
	}
	var ok bool
	*t, ok = userRoles[str]
	if !ok {
		return errors.New("invalid user role")
	}
	return nil
}

type OutboxPublishStatus string

const (
	OutboxPublishStatusPending OutboxPublishStatus = "PENDING"
	OutboxPublishStatusSent    OutboxPublishStatus = "SENT"
	OutboxPublishStatusSkipped OutboxPublishStatus = "SKIPPED"
	OutboxPublishStatusFailed  OutboxPublishStatus = "FAILED"
)
