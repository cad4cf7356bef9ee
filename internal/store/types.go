package store

import (
	"time"

	"dongle-tracker-backend/internal/model"
)

// AddDongleRequest carries the fields of a new dongle.
type AddDongleRequest struct {
	DongleID     string `json:"dongleId" binding:"required"`
	Version      string `json:"version"`
	State        string `json:"state"`
	DefaultOwner string `json:"defaultOwner"`
	Notes        string `json:"notes"`
}

// EditDongleRequest carries one edit submission. Changes maps field name
// (version, state, default_owner, notes) to the new value; ChangedBy is
// required, Reason is free text.
type EditDongleRequest struct {
	DongleID  string            `json:"-"`
	Changes   map[string]string `json:"changes" binding:"required"`
	ChangedBy string            `json:"changedBy"`
	Reason    string            `json:"reason"`
}

// CheckOutRequest records a dongle leaving pool custody.
type CheckOutRequest struct {
	DongleID string `json:"-"`
	Assignee string `json:"assignee"`
	Notes    string `json:"notes"`
}

// CheckInRequest records a dongle returning to pool custody.
type CheckInRequest struct {
	DongleID string `json:"-"`
	Notes    string `json:"notes"`
}

// DongleFilter narrows ListDongles. Nil fields mean "no constraint".
type DongleFilter struct {
	State     *model.DongleState
	Available *bool
}

// AssignmentFilter narrows ListAssignments. Zero Limit falls back to
// DefaultHistoryLimit.
type AssignmentFilter struct {
	DongleID string
	Assignee string
	Action   model.ActionType
	From     *time.Time
	To       *time.Time
	Limit    int
}

// EditFilter narrows ListEdits.
type EditFilter struct {
	DongleID  string
	ChangedBy string
	Field     string
	From      *time.Time
	To        *time.Time
	Limit     int
}

// DongleInfo is a dongle snapshot plus its derived assignment status.
type DongleInfo struct {
	model.Dongle
	AssignedTo string     `json:"assignedTo,omitempty"`
	AssignedAt *time.Time `json:"assignedAt,omitempty"`
	Available  bool       `json:"available"`
}

// Summary holds the dashboard counts.
type Summary struct {
	Total      int64                       `json:"total"`
	ByState    map[model.DongleState]int64 `json:"byState"`
	CheckedOut int64                       `json:"checkedOut"`
	Available  int64                       `json:"available"`
}

// FilterOptions feeds the history-view dropdowns.
type FilterOptions struct {
	DongleIDs []string `json:"dongleIds"`
	Assignees []string `json:"assignees"`
	Editors   []string `json:"editors"`
	Fields    []string `json:"fields"`
}
