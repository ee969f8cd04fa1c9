package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLockEventData(t *testing.T) {
	conv := &Conversation{DisplayID: 505, Locked: false}

	data, err := json.Marshal(conv.LockEventData())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(data); got != `{"id":505,"locked":false}` {
		t.Errorf("lock payload = %s", got)
	}
}

func TestConversationPushEventData(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	seen := created.Add(30 * time.Minute)

	conv := &Conversation{
		DisplayID:       12,
		InboxID:         uuid.New(),
		Status:          ConversationStatusResolved,
		AgentLastSeenAt: &seen,
		Contact:         &Contact{Name: "Ana"},
	}
	conv.CreatedAt = created

	payload := conv.PushEventData(nil, 3)

	if payload.ID != 12 {
		t.Errorf("id = %d, want display id 12", payload.ID)
	}
	if payload.Status != 1 {
		t.Errorf("status = %d, want integer code 1 for resolved", payload.Status)
	}
	if payload.Timestamp != created.Unix() {
		t.Errorf("timestamp = %d, want %d", payload.Timestamp, created.Unix())
	}
	if payload.AgentLastSeenAt != seen.Unix() {
		t.Errorf("agent_last_seen_at = %d, want %d", payload.AgentLastSeenAt, seen.Unix())
	}
	if payload.UserLastSeenAt != 0 {
		t.Errorf("user_last_seen_at = %d, want 0 for unset watermark", payload.UserLastSeenAt)
	}
	if payload.UnreadCount != 3 {
		t.Errorf("unread_count = %d, want 3", payload.UnreadCount)
	}
	if payload.Messages == nil || len(payload.Messages) != 0 {
		t.Errorf("messages should marshal as an empty array, got %v", payload.Messages)
	}
	if payload.Meta.Sender == nil || payload.Meta.Sender.Name != "Ana" {
		t.Errorf("meta.sender not populated from contact")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"meta", "id", "messages", "inbox_id", "status", "timestamp", "user_last_seen_at", "agent_last_seen_at", "unread_count"} {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if _, ok := m[key]; !ok {
			t.Errorf("payload missing key %q", key)
		}
	}
}

func TestMessagePushEventData(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 5, 0, time.UTC)

	msg := &Message{
		MessageType: MessageTypeOutgoing,
		Status:      MessageStatusDelivered,
		Content:     "hello",
	}
	msg.ID = uuid.New()
	msg.CreatedAt = created

	payload := msg.PushEventData(77)

	if payload.ConversationID != 77 {
		t.Errorf("conversation_id = %d, want display id 77", payload.ConversationID)
	}
	if payload.MessageType != 1 {
		t.Errorf("message_type = %d, want integer code 1 for outgoing", payload.MessageType)
	}
	if payload.CreatedAt != created.Unix() {
		t.Errorf("created_at = %d, want epoch seconds %d", payload.CreatedAt, created.Unix())
	}
	if payload.Attachment != nil || payload.Sender != nil {
		t.Errorf("optional sub-payloads should be absent")
	}
}

func TestMessagePushEventDataIncludesOptionalSubPayloads(t *testing.T) {
	msg := &Message{
		MessageType: MessageTypeIncoming,
		Attachment:  &Attachment{FileName: "receipt.pdf"},
		User:        &User{Name: "Agent"},
	}

	payload := msg.PushEventData(1)

	if payload.Attachment == nil || payload.Attachment.FileName != "receipt.pdf" {
		t.Errorf("attachment sub-payload missing")
	}
	if payload.Sender == nil || payload.Sender.Name != "Agent" {
		t.Errorf("sender sub-payload missing")
	}
}
