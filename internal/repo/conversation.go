package repo

import (
	"errors"

	"atendo/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// displayIDAttempts bounds retries when two creates race for the same
// per-tenant display id. The unique index on (tenant_id, display_id)
// rejects the loser, which simply re-reads the sequence.
const displayIDAttempts = 3

// ConversationRepository handles conversation data access
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a conversation, allocating the next display id in the
// tenant's sequence inside the same transaction. Display ids are
// strictly increasing per tenant and never reused.
func (r *ConversationRepository) Create(conversation *models.Conversation) error {
	return CreateConversation(r.db, conversation)
}

// CreateConversation is the transactional insert used by both the
// repository and the conversation service (which runs its own
// transaction).
func CreateConversation(db *gorm.DB, conversation *models.Conversation) error {
	var lastErr error
	for attempt := 0; attempt < displayIDAttempts; attempt++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			var next int
			if err := tx.Model(&models.Conversation{}).
				Unscoped().
				Where("tenant_id = ?", conversation.TenantID).
				Select("COALESCE(MAX(display_id), 0) + 1").
				Scan(&next).Error; err != nil {
				return err
			}
			conversation.DisplayID = next
			return tx.Create(conversation).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		conversation.ID = uuid.Nil
		lastErr = err
	}
	return lastErr
}

// GetByIDAndTenant gets a conversation by ID scoped to a tenant
func (r *ConversationRepository) GetByIDAndTenant(id, tenantID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.Preload("Contact").Preload("Assignee").Preload("Inbox").
		Where("id = ? AND tenant_id = ?", id, tenantID).First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// GetByDisplayID gets a conversation by its tenant-scoped display id
func (r *ConversationRepository) GetByDisplayID(tenantID uuid.UUID, displayID int) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.Preload("Contact").Preload("Assignee").Preload("Inbox").
		Where("tenant_id = ? AND display_id = ?", tenantID, displayID).First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// Update updates a conversation
func (r *ConversationRepository) Update(conversation *models.Conversation) error {
	return r.db.Save(conversation).Error
}

// CountByInbox counts conversations for a specific inbox
func (r *ConversationRepository) CountByInbox(inboxID, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.Conversation{}).
		Where("inbox_id = ? AND tenant_id = ?", inboxID, tenantID).
		Count(&count).Error
	return count, err
}
