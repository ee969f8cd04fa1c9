package repo

import (
	"time"

	"atendo/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageRepository handles message data access
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// GetByID gets a message by ID
func (r *MessageRepository) GetByID(id uuid.UUID) (*models.Message, error) {
	var message models.Message
	err := r.db.Preload("User").Preload("Attachment").
		Where("id = ?", id).First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// Create creates a new message
func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

// ListByConversation lists messages in creation order, the default
// retrieval order for a conversation timeline.
func (r *MessageRepository) ListByConversation(conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	q := r.db.Preload("User").Preload("Attachment").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Find(&messages).Error
	return messages, err
}

// CountOutgoing counts the outgoing messages recorded for a conversation
func (r *MessageRepository) CountOutgoing(conversationID uuid.UUID) (int64, error) {
	return CountOutgoing(r.db, conversationID)
}

// CountOutgoing counts outgoing messages using the given handle, so the
// conversation service can run it inside its own transaction.
func CountOutgoing(db *gorm.DB, conversationID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&models.Message{}).
		Where("conversation_id = ? AND message_type = ?", conversationID, models.MessageTypeOutgoing).
		Count(&count).Error
	return count, err
}

// UnreadSince lists chat messages created strictly after the watermark
// second. The comparison is integer-second: a message within the
// watermark second itself is not unread.
func (r *MessageRepository) UnreadSince(conversationID uuid.UUID, watermark *time.Time) ([]models.Message, error) {
	var messages []models.Message
	err := r.unreadQuery(conversationID, watermark).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// UnreadCount counts chat messages created after the watermark second
func (r *MessageRepository) UnreadCount(conversationID uuid.UUID, watermark *time.Time) (int64, error) {
	var count int64
	err := r.unreadQuery(conversationID, watermark).Count(&count).Error
	return count, err
}

func (r *MessageRepository) unreadQuery(conversationID uuid.UUID, watermark *time.Time) *gorm.DB {
	var seen int64
	if watermark != nil {
		seen = watermark.Unix()
	}
	return r.db.Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Where("message_type <> ?", models.MessageTypeActivity).
		Where("private = false").
		Where("FLOOR(EXTRACT(EPOCH FROM created_at)) > ?", seen)
}
