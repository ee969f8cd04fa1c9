package models

import (
	"time"

	"github.com/google/uuid"
)

// ConversationStatus is the lifecycle status of a conversation
type ConversationStatus int

const (
	ConversationStatusOpen ConversationStatus = iota
	ConversationStatusResolved
	ConversationStatusPending
)

// String returns the status name
func (s ConversationStatus) String() string {
	switch s {
	case ConversationStatusOpen:
		return "open"
	case ConversationStatusResolved:
		return "resolved"
	case ConversationStatusPending:
		return "pending"
	}
	return "unknown"
}

// ParseConversationStatus maps a status name to its code, defaulting to open
func ParseConversationStatus(raw string) ConversationStatus {
	switch raw {
	case "resolved":
		return ConversationStatusResolved
	case "pending":
		return ConversationStatusPending
	}
	return ConversationStatusOpen
}

// MessageType describes who (or what) authored a message
type MessageType int

const (
	MessageTypeIncoming MessageType = iota
	MessageTypeOutgoing
	MessageTypeActivity
	MessageTypeTemplate
)

// String returns the message type name
func (t MessageType) String() string {
	switch t {
	case MessageTypeIncoming:
		return "incoming"
	case MessageTypeOutgoing:
		return "outgoing"
	case MessageTypeActivity:
		return "activity"
	case MessageTypeTemplate:
		return "template"
	}
	return "unknown"
}

// MessageStatus is the delivery status of a message
type MessageStatus int

const (
	MessageStatusSent MessageStatus = iota
	MessageStatusDelivered
	MessageStatusRead
	MessageStatusFailed
)

// Inbox represents a channel-bound message source with its pool of
// eligible agents
type Inbox struct {
	BaseTenantModel
	Name        string `gorm:"not null" json:"name" validate:"required"`
	ChannelType string `gorm:"not null;default:'webchat'" json:"channel_type"` // webchat, page, etc.
	IsActive    bool   `gorm:"default:true" json:"is_active"`
}

// InboxMember links an agent to an inbox. The member rows, ordered by
// creation time, are the round-robin rotation pool for the inbox.
type InboxMember struct {
	BaseTenantModel
	InboxID uuid.UUID `gorm:"type:uuid;not null;index;constraint:OnDelete:CASCADE" json:"inbox_id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;constraint:OnDelete:CASCADE" json:"user_id"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// Contact represents the customer identity on the other side of a
// conversation
type Contact struct {
	BaseTenantModel
	Name  string `gorm:"not null" json:"name" validate:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Conversation represents a support conversation between a contact and
// the tenant's agents within one inbox
type Conversation struct {
	BaseTenantModel
	DisplayID       int                `gorm:"not null" json:"display_id"` // per-tenant sequence, see idx_conversations_tenant_display
	InboxID         uuid.UUID          `gorm:"type:uuid;not null;index;constraint:OnDelete:RESTRICT" json:"inbox_id"`
	ContactID       uuid.UUID          `gorm:"type:uuid;not null;constraint:OnDelete:RESTRICT" json:"contact_id"`
	AssigneeID      *uuid.UUID         `gorm:"type:uuid;index;constraint:OnDelete:SET NULL" json:"assignee_id"`
	Status          ConversationStatus `gorm:"not null;default:0" json:"status"`
	Locked          bool               `gorm:"default:false" json:"locked"`
	UserLastSeenAt  *time.Time         `json:"user_last_seen_at"`
	AgentLastSeenAt *time.Time         `json:"agent_last_seen_at"`
	LastActivityAt  time.Time          `gorm:"index" json:"last_activity_at"`

	// Relations
	Inbox    *Inbox   `gorm:"foreignKey:InboxID" json:"inbox,omitempty"`
	Contact  *Contact `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	Assignee *User    `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}

// Resolved reports whether the conversation is in the resolved status.
func (c *Conversation) Resolved() bool {
	return c.Status == ConversationStatusResolved
}

// Message represents a message in a conversation. Activity messages are
// system-authored audit entries recording state transitions.
type Message struct {
	BaseTenantModel
	ConversationID uuid.UUID     `gorm:"type:uuid;not null;index;constraint:OnDelete:CASCADE" json:"conversation_id"`
	InboxID        uuid.UUID     `gorm:"type:uuid;not null;constraint:OnDelete:RESTRICT" json:"inbox_id"`
	UserID         *uuid.UUID    `gorm:"type:uuid;constraint:OnDelete:SET NULL" json:"user_id"` // null for contact-authored messages
	MessageType    MessageType   `gorm:"not null;default:0" json:"message_type"`
	Status         MessageStatus `gorm:"not null;default:0" json:"status"`
	Content        string        `gorm:"type:text" json:"content"`
	Private        bool          `gorm:"default:false" json:"private"`

	// Relations
	Conversation *Conversation `gorm:"foreignKey:ConversationID" json:"conversation,omitempty"`
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Attachment   *Attachment   `gorm:"foreignKey:MessageID" json:"attachment,omitempty"`
}

// Incoming reports whether the message came from the contact.
func (m *Message) Incoming() bool {
	return m.MessageType == MessageTypeIncoming
}

// Outgoing reports whether the message was sent by an agent.
func (m *Message) Outgoing() bool {
	return m.MessageType == MessageTypeOutgoing
}

// Chat reports whether the message is part of the visible chat stream:
// activity entries and private notes are excluded.
func (m *Message) Chat() bool {
	return m.MessageType != MessageTypeActivity && !m.Private
}

// Attachment represents a file attached to a message
type Attachment struct {
	BaseTenantModel
	MessageID uuid.UUID `gorm:"type:uuid;not null;index;constraint:OnDelete:CASCADE" json:"message_id"`
	FileName  string    `json:"file_name"`
	FileType  string    `json:"file_type"`
	FileSize  int64     `json:"file_size"`
	URL       string    `json:"url"`
}
