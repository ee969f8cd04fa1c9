package conversation

import (
	"time"

	"atendo/pkg/models"
)

// Unread computation derives unread state from message creation times
// against the agent's last-seen watermark. Comparison is at second
// granularity with an exclusive boundary: a message within the
// watermark second itself is already seen.

// UnreadWatermark returns the watermark unread computation keys on.
// Unread is always relative to the agent's last-seen time; the user
// watermark tracks the contact side and never affects the badge count.
func UnreadWatermark(c *models.Conversation) *time.Time {
	return c.AgentLastSeenAt
}

func unreadCutoff(watermark *time.Time) int64 {
	if watermark == nil {
		return 0
	}
	return watermark.Unix()
}

// UnreadMessages filters the chat messages (activity entries and private
// notes excluded) created strictly after the watermark second.
func UnreadMessages(messages []models.Message, agentLastSeenAt *time.Time) []models.Message {
	cutoff := unreadCutoff(agentLastSeenAt)
	var unread []models.Message
	for _, m := range messages {
		if !m.Chat() {
			continue
		}
		if m.CreatedAt.Unix() > cutoff {
			unread = append(unread, m)
		}
	}
	return unread
}

// UnreadIncomingMessages narrows UnreadMessages to contact-authored
// messages.
func UnreadIncomingMessages(messages []models.Message, agentLastSeenAt *time.Time) []models.Message {
	var incoming []models.Message
	for _, m := range UnreadMessages(messages, agentLastSeenAt) {
		if m.Incoming() {
			incoming = append(incoming, m)
		}
	}
	return incoming
}
