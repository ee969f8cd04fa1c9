package conversation

import (
	"context"

	"atendo/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssigneeType scopes a conversation listing to an assignee bucket
type AssigneeType int

const (
	AssigneeTypeMe AssigneeType = iota
	AssigneeTypeUnassigned
	AssigneeTypeAll
)

// ParseAssigneeType maps a raw assignee-type id to its bucket. Any
// unrecognized or absent value falls back to "me"; the zero value of an
// unset request parameter lands there on purpose.
func ParseAssigneeType(raw int) AssigneeType {
	switch raw {
	case int(AssigneeTypeUnassigned):
		return AssigneeTypeUnassigned
	case int(AssigneeTypeAll):
		return AssigneeTypeAll
	default:
		return AssigneeTypeMe
	}
}

// DefaultPageSize is the finder page length
const DefaultPageSize = 25

// FinderParams are the viewer-supplied listing filters
type FinderParams struct {
	InboxID        *uuid.UUID
	AssigneeTypeID int
	Status         *models.ConversationStatus
	Page           int
}

// ConversationCounts are the three badge counts of a listing scope.
// All three are always computed together, whatever assignee type the
// viewer requested.
type ConversationCounts struct {
	Mine       int64 `json:"mine_count"`
	Unassigned int64 `json:"unassigned_count"`
	All        int64 `json:"all_count"`
}

// FinderResult is a role-scoped conversation listing with its counts
type FinderResult struct {
	Conversations []models.Conversation `json:"conversations"`
	Counts        ConversationCounts    `json:"count"`
}

// Finder builds role-scoped, inbox-scoped, status-filtered conversation
// listings with aggregate counts.
type Finder struct {
	db *gorm.DB
}

// NewFinder creates a conversation finder
func NewFinder(db *gorm.DB) *Finder {
	return &Finder{db: db}
}

// Perform lists the viewer's conversations. Counts are taken on the
// status-filtered, inbox-scoped base before the assignee-type filter
// narrows the result set.
func (f *Finder) Perform(ctx context.Context, viewer *models.User, params FinderParams) (*FinderResult, error) {
	result := &FinderResult{Conversations: []models.Conversation{}}
	if viewer.TenantID == nil {
		return result, nil
	}
	tenantID := *viewer.TenantID

	inboxIDs, err := f.inboxScope(ctx, viewer, tenantID, params.InboxID)
	if err != nil {
		return nil, err
	}
	if len(inboxIDs) == 0 {
		return result, nil
	}

	status := models.ConversationStatusOpen
	if params.Status != nil {
		status = *params.Status
	}

	base := func() *gorm.DB {
		return f.db.WithContext(ctx).Model(&models.Conversation{}).
			Where("tenant_id = ?", tenantID).
			Where("inbox_id IN ?", inboxIDs).
			Where("status = ?", status)
	}

	if err := base().Where("assignee_id = ?", viewer.ID).Count(&result.Counts.Mine).Error; err != nil {
		return nil, err
	}
	if err := base().Where("assignee_id IS NULL").Count(&result.Counts.Unassigned).Error; err != nil {
		return nil, err
	}
	if err := base().Count(&result.Counts.All).Error; err != nil {
		return nil, err
	}

	query := base().Preload("Contact").Preload("Assignee")
	switch ParseAssigneeType(params.AssigneeTypeID) {
	case AssigneeTypeMe:
		query = query.Where("assignee_id = ?", viewer.ID)
	case AssigneeTypeUnassigned:
		query = query.Where("assignee_id IS NULL")
	case AssigneeTypeAll:
	}

	query = query.Order("last_activity_at DESC")
	if params.Page > 0 {
		query = query.Limit(DefaultPageSize).Offset((params.Page - 1) * DefaultPageSize)
	}

	if err := query.Find(&result.Conversations).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// inboxScope resolves which inboxes the viewer may see: an explicit
// inbox is checked against the tenant, administrators see every tenant
// inbox, agents see their member inboxes, anyone else sees none.
func (f *Finder) inboxScope(ctx context.Context, viewer *models.User, tenantID uuid.UUID, explicit *uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	if explicit != nil {
		err := f.db.WithContext(ctx).Model(&models.Inbox{}).
			Where("id = ? AND tenant_id = ?", *explicit, tenantID).
			Pluck("id", &ids).Error
		return ids, err
	}

	switch {
	case viewer.Administrator():
		err := f.db.WithContext(ctx).Model(&models.Inbox{}).
			Where("tenant_id = ?", tenantID).
			Pluck("id", &ids).Error
		return ids, err
	case viewer.Agent():
		err := f.db.WithContext(ctx).Model(&models.InboxMember{}).
			Where("tenant_id = ? AND user_id = ?", tenantID, viewer.ID).
			Pluck("inbox_id", &ids).Error
		return ids, err
	}
	return nil, nil
}
