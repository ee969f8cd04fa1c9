package conversation

import (
	"testing"
	"time"

	"atendo/pkg/models"
)

func chatMessage(messageType models.MessageType, createdAt time.Time) models.Message {
	m := models.Message{MessageType: messageType}
	m.CreatedAt = createdAt
	return m
}

func TestUnreadMessagesWatermarkBoundary(t *testing.T) {
	watermark := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

	atWatermark := chatMessage(models.MessageTypeIncoming, watermark)
	oneSecondLater := chatMessage(models.MessageTypeIncoming, watermark.Add(time.Second))

	unread := UnreadMessages([]models.Message{atWatermark, oneSecondLater}, &watermark)

	if len(unread) != 1 {
		t.Fatalf("got %d unread messages, want 1", len(unread))
	}
	if !unread[0].CreatedAt.Equal(oneSecondLater.CreatedAt) {
		t.Errorf("message at exactly the watermark second was counted unread")
	}
}

func TestUnreadMessagesExcludesActivityAndPrivate(t *testing.T) {
	watermark := time.Now().Add(-time.Hour)

	activity := chatMessage(models.MessageTypeActivity, time.Now())
	private := chatMessage(models.MessageTypeOutgoing, time.Now())
	private.Private = true
	visible := chatMessage(models.MessageTypeOutgoing, time.Now())

	unread := UnreadMessages([]models.Message{activity, private, visible}, &watermark)

	if len(unread) != 1 {
		t.Fatalf("got %d unread messages, want 1", len(unread))
	}
	if unread[0].MessageType != models.MessageTypeOutgoing || unread[0].Private {
		t.Errorf("wrong message survived the chat filter: %+v", unread[0])
	}
}

func TestUnreadMessagesNilWatermarkCountsEverything(t *testing.T) {
	msgs := []models.Message{
		chatMessage(models.MessageTypeIncoming, time.Now().Add(-24*time.Hour)),
		chatMessage(models.MessageTypeOutgoing, time.Now()),
	}

	if got := UnreadMessages(msgs, nil); len(got) != 2 {
		t.Errorf("nil watermark: got %d unread, want 2", len(got))
	}
}

func TestUnreadWatermarkIsTheAgentSide(t *testing.T) {
	agentSeen := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	userSeen := agentSeen.Add(time.Hour)

	conv := &models.Conversation{
		AgentLastSeenAt: &agentSeen,
		UserLastSeenAt:  &userSeen,
	}

	got := UnreadWatermark(conv)
	if got == nil || !got.Equal(agentSeen) {
		t.Fatalf("UnreadWatermark() = %v, want agent side %v", got, agentSeen)
	}

	// A message that arrived after the agent last looked but before the
	// contact did must still count as unread for the agent.
	midway := chatMessage(models.MessageTypeIncoming, agentSeen.Add(30*time.Minute))
	if unread := UnreadMessages([]models.Message{midway}, UnreadWatermark(conv)); len(unread) != 1 {
		t.Errorf("got %d unread against the agent watermark, want 1", len(unread))
	}
}

func TestUnreadIncomingMessagesFiltersDirection(t *testing.T) {
	watermark := time.Now().Add(-time.Hour)
	incoming := chatMessage(models.MessageTypeIncoming, time.Now())
	outgoing := chatMessage(models.MessageTypeOutgoing, time.Now())

	unread := UnreadIncomingMessages([]models.Message{incoming, outgoing}, &watermark)

	if len(unread) != 1 {
		t.Fatalf("got %d unread incoming, want 1", len(unread))
	}
	if !unread[0].Incoming() {
		t.Errorf("non-incoming message in unread incoming set")
	}
}
