package conversation

import (
	"fmt"
	"time"

	"atendo/internal/events"
	"atendo/pkg/models"

	"github.com/google/uuid"
)

// snapshot captures the event-relevant dimensions of a conversation
// before a mutation, so the committed result can be diffed into events.
type snapshot struct {
	status         models.ConversationStatus
	locked         bool
	assigneeID     *uuid.UUID
	userLastSeenAt *time.Time
}

func snapshotOf(c *models.Conversation) snapshot {
	return snapshot{
		status:         c.Status,
		locked:         c.Locked,
		assigneeID:     c.AssigneeID,
		userLastSeenAt: c.UserLastSeenAt,
	}
}

// nextStatus implements the status toggle: open and resolved flip into
// each other, pending resolves.
func nextStatus(s models.ConversationStatus) models.ConversationStatus {
	switch s {
	case models.ConversationStatusResolved:
		return models.ConversationStatusOpen
	default:
		return models.ConversationStatusResolved
	}
}

// pendingTopics diffs a committed conversation against its pre-mutation
// snapshot and returns one topic per changed dimension. A single update
// can therefore emit several independent events.
func pendingTopics(prev snapshot, curr *models.Conversation) []events.Topic {
	var topics []events.Topic

	statusChanged := prev.status != curr.Status
	if statusChanged && curr.Resolved() {
		topics = append(topics, events.ConversationResolved)
	}
	if statusChanged || !equalTimes(prev.userLastSeenAt, curr.UserLastSeenAt) {
		topics = append(topics, events.ConversationRead)
	}
	if prev.locked != curr.Locked {
		topics = append(topics, events.ConversationLockToggle)
	}
	if !equalIDs(prev.assigneeID, curr.AssigneeID) {
		topics = append(topics, events.AssigneeChanged)
	}
	return topics
}

// reopensConversation reports whether inserting msg must flip a
// resolved conversation back open. Only public incoming chat traffic
// reopens; private notes and activity entries never do.
func reopensConversation(msg *models.Message, conv *models.Conversation) bool {
	return msg.Incoming() && !msg.Private && conv.Resolved()
}

// isFirstReply reports whether msg is the conversation's first outgoing
// message, given the count of outgoing messages recorded before it.
func isFirstReply(msg *models.Message, priorOutgoing int64) bool {
	return msg.Outgoing() && priorOutgoing == 0
}

// messageTopics orders the events a message insert emits. Reopening
// precedes the message event, first-reply trails it.
func messageTopics(reopened, firstReply bool) []events.Topic {
	topics := make([]events.Topic, 0, 3)
	if reopened {
		topics = append(topics, events.ConversationReopened)
	}
	topics = append(topics, events.MessageCreated)
	if firstReply {
		topics = append(topics, events.FirstReplyCreated)
	}
	return topics
}

func equalIDs(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalTimes(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Activity message content. The wording is part of the product surface
// and must not drift.

func resolvedActivityContent(actorName string) string {
	return fmt.Sprintf("Conversation was marked resolved by %s", actorName)
}

func assignedActivityContent(assigneeName, actorName string) string {
	return fmt.Sprintf("Assigned to %s by %s", assigneeName, actorName)
}
