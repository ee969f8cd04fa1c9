package models

import "time"

// Push/event-stream payloads. The key sets and value encodings here are
// consumed by the web client and must stay stable: ids are display ids,
// enums are their integer codes, timestamps are epoch seconds.

// ConversationMeta carries the participants of a conversation payload
type ConversationMeta struct {
	Sender   *ContactPayload `json:"sender"`
	Assignee *User           `json:"assignee"`
}

// ConversationPayload is the push payload for a conversation
type ConversationPayload struct {
	Meta            ConversationMeta `json:"meta"`
	ID              int              `json:"id"`
	Messages        []MessagePayload `json:"messages"`
	InboxID         string           `json:"inbox_id"`
	Status          int              `json:"status"`
	Timestamp       int64            `json:"timestamp"`
	UserLastSeenAt  int64            `json:"user_last_seen_at"`
	AgentLastSeenAt int64            `json:"agent_last_seen_at"`
	UnreadCount     int              `json:"unread_count"`
}

// LockPayload is the push payload for a lock toggle
type LockPayload struct {
	ID     int  `json:"id"`
	Locked bool `json:"locked"`
}

// MessagePayload is the push payload for a message
type MessagePayload struct {
	ID             string             `json:"id"`
	ConversationID int                `json:"conversation_id"` // display id, not the internal key
	InboxID        string             `json:"inbox_id"`
	MessageType    int                `json:"message_type"`
	Status         int                `json:"status"`
	Content        string             `json:"content"`
	Private        bool               `json:"private"`
	CreatedAt      int64              `json:"created_at"`
	Attachment     *AttachmentPayload `json:"attachment,omitempty"`
	Sender         *User              `json:"sender,omitempty"`
}

// AttachmentPayload is the push payload fragment for an attachment
type AttachmentPayload struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
	URL      string `json:"url"`
}

// ContactPayload is the push payload fragment for a contact
type ContactPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func epochSeconds(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}

// PushEventData builds the conversation payload. Messages and the unread
// count are supplied by the caller so the payload reflects the watermark
// in effect at build time.
func (c *Conversation) PushEventData(messages []MessagePayload, unreadCount int) ConversationPayload {
	if messages == nil {
		messages = []MessagePayload{}
	}
	var sender *ContactPayload
	if c.Contact != nil {
		sender = c.Contact.PushEventData()
	}
	return ConversationPayload{
		Meta: ConversationMeta{
			Sender:   sender,
			Assignee: c.Assignee,
		},
		ID:              c.DisplayID,
		Messages:        messages,
		InboxID:         c.InboxID.String(),
		Status:          int(c.Status),
		Timestamp:       c.CreatedAt.Unix(),
		UserLastSeenAt:  epochSeconds(c.UserLastSeenAt),
		AgentLastSeenAt: epochSeconds(c.AgentLastSeenAt),
		UnreadCount:     unreadCount,
	}
}

// LockEventData builds the lock toggle payload.
func (c *Conversation) LockEventData() LockPayload {
	return LockPayload{ID: c.DisplayID, Locked: c.Locked}
}

// PushEventData builds the message payload. The conversation display id
// replaces the internal conversation key.
func (m *Message) PushEventData(displayID int) MessagePayload {
	p := MessagePayload{
		ID:             m.ID.String(),
		ConversationID: displayID,
		InboxID:        m.InboxID.String(),
		MessageType:    int(m.MessageType),
		Status:         int(m.Status),
		Content:        m.Content,
		Private:        m.Private,
		CreatedAt:      m.CreatedAt.Unix(),
	}
	if m.Attachment != nil {
		p.Attachment = m.Attachment.PushEventData()
	}
	if m.User != nil {
		p.Sender = m.User
	}
	return p
}

// PushEventData builds the attachment payload fragment.
func (a *Attachment) PushEventData() *AttachmentPayload {
	return &AttachmentPayload{
		ID:       a.ID.String(),
		FileName: a.FileName,
		FileType: a.FileType,
		FileSize: a.FileSize,
		URL:      a.URL,
	}
}

// PushEventData builds the contact payload fragment.
func (c *Contact) PushEventData() *ContactPayload {
	return &ContactPayload{
		ID:    c.ID.String(),
		Name:  c.Name,
		Email: c.Email,
		Phone: c.Phone,
	}
}
