package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"dongle-tracker-backend/internal/model"
)

// DefaultHistoryLimit caps history listings when the caller does not ask
// for a specific recency window.
const DefaultHistoryLimit = 100

// MaxHistoryLimit bounds any single history listing.
const MaxHistoryLimit = 500

// editableFields are the dongle fields an edit submission may touch, in the
// order edit rows are written. The id is immutable once created.
var editableFields = []string{"version", "state", "default_owner", "notes"}

// Store defines the persistence operations of the tracker.
type Store interface {
	AddDongle(ctx context.Context, req AddDongleRequest) (*model.Dongle, error)
	GetDongle(ctx context.Context, dongleID string) (*DongleInfo, error)
	ListDongles(ctx context.Context, filter DongleFilter) ([]DongleInfo, error)
	EditDongle(ctx context.Context, req EditDongleRequest) ([]string, error)
	CheckOut(ctx context.Context, req CheckOutRequest) error
	CheckIn(ctx context.Context, req CheckInRequest) error
	CurrentHolder(ctx context.Context, dongleID string) (string, error)
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]model.Assignment, error)
	ListEdits(ctx context.Context, filter EditFilter) ([]model.DongleEdit, error)
	Summary(ctx context.Context) (*Summary, error)
	FilterOptions(ctx context.Context) (*FilterOptions, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// AddDongle inserts a new dongle. Ids are unique forever, including ids of
// retired dongles.
func (s *gormStore) AddDongle(ctx context.Context, req AddDongleRequest) (*model.Dongle, error) {
	id := strings.TrimSpace(req.DongleID)
	if id == "" {
		return nil, fmt.Errorf("%w: dongle id is required", ErrValidation)
	}

	state := model.DongleState(req.State)
	if req.State == "" {
		state = model.StateWorking
	}
	if !state.Valid() {
		return nil, fmt.Errorf("%w: unknown state %q", ErrValidation, req.State)
	}

	dongle := model.Dongle{
		ID:           id,
		Version:      req.Version,
		State:        state,
		DefaultOwner: req.DefaultOwner,
		Notes:        req.Notes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Dongle
		err := tx.Where("id = ?", id).First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check for existing dongle: %w", err)
		}
		if err := tx.Create(&dongle).Error; err != nil {
			return fmt.Errorf("failed to insert dongle %q: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dongle, nil
}

// GetDongle returns one dongle with its derived assignment status.
func (s *gormStore) GetDongle(ctx context.Context, dongleID string) (*DongleInfo, error) {
	var dongle model.Dongle
	if err := s.db.WithContext(ctx).Where("id = ?", dongleID).First(&dongle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, dongleID)
		}
		return nil, fmt.Errorf("failed to load dongle %q: %w", dongleID, err)
	}

	open, err := s.openCheckOut(s.db.WithContext(ctx), dongleID)
	if err != nil {
		return nil, err
	}
	return newDongleInfo(dongle, open), nil
}

// ListDongles returns a snapshot of all dongles, optionally filtered by
// state and/or availability, sorted by dongle id.
func (s *gormStore) ListDongles(ctx context.Context, filter DongleFilter) ([]DongleInfo, error) {
	q := s.db.WithContext(ctx).Order("id")
	if filter.State != nil {
		q = q.Where("state = ?", *filter.State)
	}

	var dongles []model.Dongle
	if err := q.Find(&dongles).Error; err != nil {
		return nil, fmt.Errorf("failed to list dongles: %w", err)
	}

	openByID, err := s.fetchOpenCheckOuts(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]DongleInfo, 0, len(dongles))
	for _, d := range dongles {
		open := openByID[d.ID]
		info := newDongleInfo(d, open)
		if filter.Available != nil && info.Available != *filter.Available {
			continue
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

// EditDongle applies one edit submission: one audit row per field that
// actually changed, plus the record update, in a single transaction.
// Returns the names of the changed fields; an empty slice means no-op.
func (s *gormStore) EditDongle(ctx context.Context, req EditDongleRequest) ([]string, error) {
	if strings.TrimSpace(req.ChangedBy) == "" {
		return nil, fmt.Errorf("%w: changed_by is required", ErrValidation)
	}
	for field := range req.Changes {
		if !isEditable(field) {
			return nil, fmt.Errorf("%w: field %q is not editable", ErrValidation, field)
		}
	}
	if newState, ok := req.Changes["state"]; ok && !model.DongleState(newState).Valid() {
		return nil, fmt.Errorf("%w: unknown state %q", ErrValidation, newState)
	}

	var changed []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dongle model.Dongle
		if err := tx.Where("id = ?", req.DongleID).First(&dongle).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %q", ErrNotFound, req.DongleID)
			}
			return fmt.Errorf("failed to load dongle %q: %w", req.DongleID, err)
		}

		now := time.Now().UTC()
		updates := make(map[string]any)
		for _, field := range editableFields {
			newValue, ok := req.Changes[field]
			if !ok {
				continue
			}
			oldValue := fieldValue(&dongle, field)
			if newValue == oldValue {
				continue
			}
			edit := model.DongleEdit{
				DongleID:     dongle.ID,
				FieldChanged: field,
				OldValue:     oldValue,
				NewValue:     newValue,
				ChangedBy:    req.ChangedBy,
				Reason:       req.Reason,
				Timestamp:    now,
			}
			if err := tx.Create(&edit).Error; err != nil {
				return fmt.Errorf("failed to record edit of %q: %w", field, err)
			}
			updates[field] = newValue
			changed = append(changed, field)
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&model.Dongle{}).Where("id = ?", dongle.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update dongle %q: %w", dongle.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// CheckOut records a dongle leaving pool custody. The dongle must be in
// state Working and must not already be checked out; both preconditions
// are re-checked inside the transaction.
func (s *gormStore) CheckOut(ctx context.Context, req CheckOutRequest) error {
	if strings.TrimSpace(req.Assignee) == "" {
		return fmt.Errorf("%w: assignee is required", ErrValidation)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dongle model.Dongle
		if err := tx.Where("id = ?", req.DongleID).First(&dongle).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %q", ErrNotFound, req.DongleID)
			}
			return fmt.Errorf("failed to load dongle %q: %w", req.DongleID, err)
		}
		if dongle.State != model.StateWorking {
			return fmt.Errorf("%w: dongle %q is %s", ErrConflict, dongle.ID, dongle.State)
		}

		open, err := s.openCheckOut(tx, dongle.ID)
		if err != nil {
			return err
		}
		if open != nil {
			return fmt.Errorf("%w: dongle %q is checked out to %s", ErrConflict, dongle.ID, open.Assignee)
		}

		assignment := model.Assignment{
			DongleID:  dongle.ID,
			Action:    model.ActionCheckOut,
			Assignee:  req.Assignee,
			Notes:     req.Notes,
			Timestamp: time.Now().UTC(),
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("failed to record check-out of %q: %w", dongle.ID, err)
		}
		return nil
	})
}

// CheckIn records a dongle returning to pool custody. The dongle must be
// currently checked out.
func (s *gormStore) CheckIn(ctx context.Context, req CheckInRequest) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dongle model.Dongle
		if err := tx.Where("id = ?", req.DongleID).First(&dongle).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %q", ErrNotFound, req.DongleID)
			}
			return fmt.Errorf("failed to load dongle %q: %w", req.DongleID, err)
		}

		open, err := s.openCheckOut(tx, dongle.ID)
		if err != nil {
			return err
		}
		if open == nil {
			return fmt.Errorf("%w: dongle %q is not checked out", ErrConflict, dongle.ID)
		}

		assignment := model.Assignment{
			DongleID:  dongle.ID,
			Action:    model.ActionCheckIn,
			Notes:     req.Notes,
			Timestamp: time.Now().UTC(),
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("failed to record check-in of %q: %w", dongle.ID, err)
		}
		return nil
	})
}

// CurrentHolder derives who holds a dongle: the assignee of the open
// check-out, or the default owner when none exists. Pure read.
func (s *gormStore) CurrentHolder(ctx context.Context, dongleID string) (string, error) {
	var dongle model.Dongle
	if err := s.db.WithContext(ctx).Where("id = ?", dongleID).First(&dongle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %q", ErrNotFound, dongleID)
		}
		return "", fmt.Errorf("failed to load dongle %q: %w", dongleID, err)
	}

	open, err := s.openCheckOut(s.db.WithContext(ctx), dongleID)
	if err != nil {
		return "", err
	}
	if open != nil {
		return open.Assignee, nil
	}
	return dongle.DefaultOwner, nil
}

// ListAssignments returns assignment history, most recent first.
func (s *gormStore) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]model.Assignment, error) {
	q := s.db.WithContext(ctx).Model(&model.Assignment{})
	if filter.DongleID != "" {
		q = q.Where("dongle_id = ?", filter.DongleID)
	}
	if filter.Assignee != "" {
		q = q.Where("assignee = ?", filter.Assignee)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.From != nil {
		q = q.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("timestamp <= ?", *filter.To)
	}

	var rows []model.Assignment
	if err := q.Order("id DESC").Limit(historyLimit(filter.Limit)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return rows, nil
}

// ListEdits returns edit history, most recent first.
func (s *gormStore) ListEdits(ctx context.Context, filter EditFilter) ([]model.DongleEdit, error) {
	q := s.db.WithContext(ctx).Model(&model.DongleEdit{})
	if filter.DongleID != "" {
		q = q.Where("dongle_id = ?", filter.DongleID)
	}
	if filter.ChangedBy != "" {
		q = q.Where("changed_by = ?", filter.ChangedBy)
	}
	if filter.Field != "" {
		q = q.Where("field_changed = ?", filter.Field)
	}
	if filter.From != nil {
		q = q.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("timestamp <= ?", *filter.To)
	}

	var rows []model.DongleEdit
	if err := q.Order("id DESC").Limit(historyLimit(filter.Limit)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list edits: %w", err)
	}
	return rows, nil
}

// Summary aggregates the dashboard counts.
func (s *gormStore) Summary(ctx context.Context) (*Summary, error) {
	type stateRow struct {
		State model.DongleState
		N     int64
	}
	var rows []stateRow
	if err := s.db.WithContext(ctx).
		Model(&model.Dongle{}).
		Select("state as state, COUNT(*) as n").
		Group("state").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate dongle states: %w", err)
	}

	summary := &Summary{ByState: make(map[model.DongleState]int64, len(rows))}
	for _, r := range rows {
		summary.ByState[r.State] = r.N
		summary.Total += r.N
	}

	openDongleIDs := s.openCheckOutIDs(ctx)
	if err := s.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Where("id IN (?)", s.latestAssignmentIDs(ctx)).
		Where("action = ?", model.ActionCheckOut).
		Count(&summary.CheckedOut).Error; err != nil {
		return nil, fmt.Errorf("failed to count open check-outs: %w", err)
	}
	if err := s.db.WithContext(ctx).
		Model(&model.Dongle{}).
		Where("state = ?", model.StateWorking).
		Where("id NOT IN (?)", openDongleIDs).
		Count(&summary.Available).Error; err != nil {
		return nil, fmt.Errorf("failed to count available dongles: %w", err)
	}
	return summary, nil
}

// FilterOptions returns the distinct values populating history dropdowns.
func (s *gormStore) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	opts := &FilterOptions{}

	if err := s.db.WithContext(ctx).Model(&model.Dongle{}).
		Distinct("id").Order("id").Pluck("id", &opts.DongleIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to list dongle ids: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.Assignment{}).
		Distinct("assignee").Where("assignee <> ''").Order("assignee").
		Pluck("assignee", &opts.Assignees).Error; err != nil {
		return nil, fmt.Errorf("failed to list assignees: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.DongleEdit{}).
		Distinct("changed_by").Where("changed_by <> ''").Order("changed_by").
		Pluck("changed_by", &opts.Editors).Error; err != nil {
		return nil, fmt.Errorf("failed to list editors: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&model.DongleEdit{}).
		Distinct("field_changed").Order("field_changed").
		Pluck("field_changed", &opts.Fields).Error; err != nil {
		return nil, fmt.Errorf("failed to list changed fields: %w", err)
	}
	return opts, nil
}

// --- Helpers ---

// openCheckOut returns the unmatched check-out for a dongle, or nil when
// the dongle is in pool custody. Because assignments are append-only and
// check-out/check-in strictly alternate per dongle, the latest row decides.
func (s *gormStore) openCheckOut(tx *gorm.DB, dongleID string) (*model.Assignment, error) {
	var last model.Assignment
	err := tx.Where("dongle_id = ?", dongleID).Order("id DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments for %q: %w", dongleID, err)
	}
	if last.Action != model.ActionCheckOut {
		return nil, nil
	}
	return &last, nil
}

// fetchOpenCheckOuts maps dongle id to its unmatched check-out, for all
// dongles at once.
func (s *gormStore) fetchOpenCheckOuts(ctx context.Context) (map[string]*model.Assignment, error) {
	var open []model.Assignment
	if err := s.db.WithContext(ctx).
		Where("id IN (?)", s.latestAssignmentIDs(ctx)).
		Where("action = ?", model.ActionCheckOut).
		Find(&open).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch open check-outs: %w", err)
	}
	byID := make(map[string]*model.Assignment, len(open))
	for i := range open {
		byID[open[i].DongleID] = &open[i]
	}
	return byID, nil
}

// latestAssignmentIDs is the subquery selecting each dongle's most recent
// assignment row.
func (s *gormStore) latestAssignmentIDs(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&model.Assignment{}).
		Select("MAX(id)").Group("dongle_id")
}

// openCheckOutIDs is the subquery selecting the dongle ids with an
// unmatched check-out.
func (s *gormStore) openCheckOutIDs(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&model.Assignment{}).
		Select("dongle_id").
		Where("id IN (?)", s.latestAssignmentIDs(ctx)).
		Where("action = ?", model.ActionCheckOut)
}

func newDongleInfo(d model.Dongle, open *model.Assignment) *DongleInfo {
	info := &DongleInfo{Dongle: d}
	if open != nil {
		info.AssignedTo = open.Assignee
		at := open.Timestamp
		info.AssignedAt = &at
	}
	info.Available = d.State == model.StateWorking && open == nil
	return info
}

func fieldValue(d *model.Dongle, field string) string {
	switch field {
	case "version":
		return d.Version
	case "state":
		return string(d.State)
	case "default_owner":
		return d.DefaultOwner
	case "notes":
		return d.Notes
	}
	return ""
}

func isEditable(field string) bool {
	for _, f := range editableFields {
		if f == field {
			return true
		}
	}
	return false
}

func historyLimit(requested int) int {
	switch {
	case requested <= 0:
		return DefaultHistoryLimit
	case requested > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return requested
	}
}
