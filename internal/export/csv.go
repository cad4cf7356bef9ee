// Package export renders history views as comma-separated values, one row
// per record with a header row, timestamps in RFC 3339 so text sorts
// chronologically.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"dongle-tracker-backend/internal/model"
)

var assignmentHeader = []string{"row_id", "dongle_id", "action", "assignee", "notes", "timestamp"}

var editHeader = []string{"row_id", "dongle_id", "field_changed", "old_value", "new_value", "changed_by", "reason", "timestamp"}

// WriteAssignments serializes assignment history to w.
func WriteAssignments(w io.Writer, rows []model.Assignment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(assignmentHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.ID, 10),
			r.DongleID,
			string(r.Action),
			r.Assignee,
			r.Notes,
			r.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEdits serializes edit history to w.
func WriteEdits(w io.Writer, rows []model.DongleEdit) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(editHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.ID, 10),
			r.DongleID,
			r.FieldChanged,
			r.OldValue,
			r.NewValue,
			r.ChangedBy,
			r.Reason,
			r.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
