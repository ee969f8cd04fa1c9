package handlers

import (
	"context"

	"atendo/internal/conversation"
	"atendo/internal/events"
	"atendo/internal/repo"
)

// eventBroadcaster pushes committed lifecycle events to the tenant's
// websocket clients using the stable payload shapes.
type eventBroadcaster struct {
	ws          *WebSocketHandler
	messageRepo *repo.MessageRepository
}

// RegisterBroadcasts subscribes the websocket fan-out to every
// conversation lifecycle topic.
func RegisterBroadcasts(dispatcher *events.Dispatcher, ws *WebSocketHandler, messageRepo *repo.MessageRepository) {
	b := &eventBroadcaster{ws: ws, messageRepo: messageRepo}

	for _, topic := range []events.Topic{
		events.ConversationCreated,
		events.ConversationResolved,
		events.ConversationReopened,
		events.ConversationRead,
		events.AssigneeChanged,
	} {
		dispatcher.Subscribe(topic, b.broadcastConversation)
	}
	dispatcher.Subscribe(events.ConversationLockToggle, b.broadcastLock)
	dispatcher.Subscribe(events.MessageCreated, b.broadcastMessage)
	dispatcher.Subscribe(events.FirstReplyCreated, b.broadcastMessage)
}

func (b *eventBroadcaster) broadcastConversation(ctx context.Context, ev events.Event) error {
	conv := ev.Conversation
	if conv == nil {
		return nil
	}

	unread, err := b.messageRepo.UnreadCount(conv.ID, conversation.UnreadWatermark(conv))
	if err != nil {
		return err
	}

	b.ws.BroadcastToTenant(conv.TenantID.String(), string(ev.Topic), conv.PushEventData(nil, int(unread)))
	return nil
}

func (b *eventBroadcaster) broadcastLock(ctx context.Context, ev events.Event) error {
	conv := ev.Conversation
	if conv == nil {
		return nil
	}

	b.ws.BroadcastToTenant(conv.TenantID.String(), string(ev.Topic), conv.LockEventData())
	return nil
}

func (b *eventBroadcaster) broadcastMessage(ctx context.Context, ev events.Event) error {
	conv := ev.Conversation
	if conv == nil || ev.Message == nil {
		return nil
	}

	b.ws.BroadcastToTenant(conv.TenantID.String(), string(ev.Topic), ev.Message.PushEventData(conv.DisplayID))
	return nil
}
