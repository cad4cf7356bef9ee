package model

import "time"

// DongleState is the condition label of a dongle.
type DongleState string

const (
	StateWorking    DongleState = "Working"
	StateNotWorking DongleState = "Not Working"
	StateMissing    DongleState = "Missing"
	StateRetired    DongleState = "Retired"
)

// AllStates lists every recognized dongle state.
var AllStates = []DongleState{StateWorking, StateNotWorking, StateMissing, StateRetired}

// Valid reports whether s is one of the recognized states.
func (s DongleState) Valid() bool {
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

// Dongle represents one physical license dongle.
// The ID is user-assigned and immutable once created; dongles are never
// hard-deleted, retirement is state = Retired.
type Dongle struct {
	ID           string      `gorm:"primaryKey;size:64" json:"dongleId"`
	Version      string      `gorm:"size:128" json:"version"`
	State        DongleState `gorm:"size:32;not null;default:Working" json:"state"`
	DefaultOwner string      `gorm:"size:128" json:"defaultOwner"`
	Notes        string      `json:"notes"`
	CreatedAt    time.Time   `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time   `gorm:"not null" json:"updatedAt"`
}
