package model

import "time"

// DongleEdit is one audit record of a single field change. A single edit
// submission that changes three fields produces three rows.
type DongleEdit struct {
	ID           int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	DongleID     string    `gorm:"size:64;index;not null" json:"dongleId"`
	FieldChanged string    `gorm:"size:64;not null" json:"fieldChanged"`
	OldValue     string    `json:"oldValue"`
	NewValue     string    `json:"newValue"`
	ChangedBy    string    `gorm:"size:128;not null" json:"changedBy"`
	Reason       string    `json:"reason"`
	Timestamp    time.Time `gorm:"not null;index" json:"timestamp"`

	// Associations
	Dongle Dongle `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
