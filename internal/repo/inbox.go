package repo

import (
	"atendo/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InboxRepository handles inbox and inbox membership data access
type InboxRepository struct {
	db *gorm.DB
}

// NewInboxRepository creates a new inbox repository
func NewInboxRepository(db *gorm.DB) *InboxRepository {
	return &InboxRepository{db: db}
}

// GetByIDAndTenant gets an inbox by ID and tenant ID
func (r *InboxRepository) GetByIDAndTenant(id, tenantID uuid.UUID) (*models.Inbox, error) {
	var inbox models.Inbox
	err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&inbox).Error
	if err != nil {
		return nil, err
	}
	return &inbox, nil
}

// Create creates a new inbox
func (r *InboxRepository) Create(inbox *models.Inbox) error {
	return r.db.Create(inbox).Error
}

// Update updates an inbox
func (r *InboxRepository) Update(inbox *models.Inbox) error {
	return r.db.Save(inbox).Error
}

// Delete deletes an inbox (soft delete)
func (r *InboxRepository) Delete(id, tenantID uuid.UUID) error {
	result := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&models.Inbox{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByTenant lists inboxes for a tenant with pagination
func (r *InboxRepository) ListByTenant(tenantID uuid.UUID, limit, offset int) (models.PaginationResult[models.Inbox], error) {
	var inboxes []models.Inbox
	var total int64

	if err := r.db.Model(&models.Inbox{}).Where("tenant_id = ?", tenantID).Count(&total).Error; err != nil {
		return models.PaginationResult[models.Inbox]{}, err
	}

	err := r.db.Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&inboxes).Error
	if err != nil {
		return models.PaginationResult[models.Inbox]{}, err
	}

	page := 1
	totalPages := 1
	if limit > 0 {
		page = (offset / limit) + 1
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	return models.PaginationResult[models.Inbox]{
		Data:       inboxes,
		Total:      total,
		Page:       page,
		PerPage:    limit,
		TotalPages: totalPages,
	}, nil
}

// ListIDsByTenant returns all inbox ids of a tenant
func (r *InboxRepository) ListIDsByTenant(tenantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Model(&models.Inbox{}).
		Where("tenant_id = ?", tenantID).
		Pluck("id", &ids).Error
	return ids, err
}

// ListIDsByMember returns the inbox ids an agent is a member of
func (r *InboxRepository) ListIDsByMember(tenantID, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Model(&models.InboxMember{}).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Pluck("inbox_id", &ids).Error
	return ids, err
}

// AddMember appends an agent to the inbox's rotation pool
func (r *InboxRepository) AddMember(member *models.InboxMember) error {
	return r.db.Create(member).Error
}

// RemoveMember removes an agent from the inbox's rotation pool
func (r *InboxRepository) RemoveMember(inboxID, userID, tenantID uuid.UUID) error {
	result := r.db.Where("inbox_id = ? AND user_id = ? AND tenant_id = ?", inboxID, userID, tenantID).
		Delete(&models.InboxMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListMembers lists the inbox's members with their users, in pool order
func (r *InboxRepository) ListMembers(inboxID, tenantID uuid.UUID) ([]models.InboxMember, error) {
	var members []models.InboxMember
	err := r.db.Preload("User").
		Where("inbox_id = ? AND tenant_id = ?", inboxID, tenantID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// ListMemberIDs returns the ordered agent pool for round-robin
// assignment. Order is membership creation time, so the rotation is
// stable across rebuilds.
func (r *InboxRepository) ListMemberIDs(inboxID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Model(&models.InboxMember{}).
		Where("inbox_id = ?", inboxID).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
