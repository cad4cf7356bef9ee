package model

import "time"

// ActionType distinguishes check-out from check-in events.
type ActionType string

const (
	ActionCheckOut ActionType = "check_out"
	ActionCheckIn  ActionType = "check_in"
)

// Assignment is one check-out or check-in event. Rows are append-only;
// the current holder of a dongle is derived from them.
type Assignment struct {
	ID        int64      `gorm:"autoIncrement;primaryKey" json:"id"`
	DongleID  string     `gorm:"size:64;index;not null" json:"dongleId"`
	Action    ActionType `gorm:"size:16;not null" json:"action"`
	Assignee  string     `gorm:"size:128" json:"assignee"`
	Notes     string     `json:"notes"`
	Timestamp time.Time  `gorm:"not null;index" json:"timestamp"`

	// Associations
	Dongle Dongle `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
