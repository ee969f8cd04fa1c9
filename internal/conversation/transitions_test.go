package conversation

import (
	"testing"
	"time"

	"atendo/internal/events"
	"atendo/pkg/models"

	"github.com/google/uuid"
)

func TestNextStatusTogglesAsInvolution(t *testing.T) {
	tests := []struct {
		name string
		from models.ConversationStatus
		want models.ConversationStatus
	}{
		{"open resolves", models.ConversationStatusOpen, models.ConversationStatusResolved},
		{"resolved reopens", models.ConversationStatusResolved, models.ConversationStatusOpen},
		{"pending resolves", models.ConversationStatusPending, models.ConversationStatusResolved},
	}

	for _, tt := range tests {
		if got := nextStatus(tt.from); got != tt.want {
			t.Errorf("%s: nextStatus(%v) = %v, want %v", tt.name, tt.from, got, tt.want)
		}
	}

	// Toggling twice returns an open conversation to open
	if got := nextStatus(nextStatus(models.ConversationStatusOpen)); got != models.ConversationStatusOpen {
		t.Errorf("double toggle of open = %v, want open", got)
	}
}

func TestPendingTopicsEmitsOnePerChangedDimension(t *testing.T) {
	agentA := uuid.New()
	agentB := uuid.New()
	seen := time.Now()

	conv := &models.Conversation{
		Status:         models.ConversationStatusResolved,
		Locked:         true,
		AssigneeID:     &agentB,
		UserLastSeenAt: &seen,
	}
	prev := snapshot{
		status:     models.ConversationStatusOpen,
		locked:     false,
		assigneeID: &agentA,
	}

	got := pendingTopics(prev, conv)
	want := []events.Topic{
		events.ConversationResolved,
		events.ConversationRead,
		events.ConversationLockToggle,
		events.AssigneeChanged,
	}

	if len(got) != len(want) {
		t.Fatalf("pendingTopics = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("topic[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPendingTopicsNoChangeNoEvents(t *testing.T) {
	id := uuid.New()
	conv := &models.Conversation{Status: models.ConversationStatusOpen, AssigneeID: &id}
	prev := snapshotOf(conv)

	if got := pendingTopics(prev, conv); len(got) != 0 {
		t.Errorf("unchanged conversation emitted %v", got)
	}
}

func TestPendingTopicsReopeningIsNotResolved(t *testing.T) {
	conv := &models.Conversation{Status: models.ConversationStatusOpen}
	prev := snapshot{status: models.ConversationStatusResolved}

	got := pendingTopics(prev, conv)
	if len(got) != 1 || got[0] != events.ConversationRead {
		t.Errorf("resolved->open emitted %v, want only ConversationRead", got)
	}
}

func TestPendingTopicsWatermarkChangeEmitsRead(t *testing.T) {
	seen := time.Now()
	conv := &models.Conversation{Status: models.ConversationStatusOpen, UserLastSeenAt: &seen}
	prev := snapshot{status: models.ConversationStatusOpen}

	got := pendingTopics(prev, conv)
	if len(got) != 1 || got[0] != events.ConversationRead {
		t.Errorf("watermark change emitted %v, want only ConversationRead", got)
	}
}

func TestReopensConversation(t *testing.T) {
	resolved := &models.Conversation{Status: models.ConversationStatusResolved}
	open := &models.Conversation{Status: models.ConversationStatusOpen}

	tests := []struct {
		name string
		msg  models.Message
		conv *models.Conversation
		want bool
	}{
		{"incoming on resolved", models.Message{MessageType: models.MessageTypeIncoming}, resolved, true},
		{"incoming on open", models.Message{MessageType: models.MessageTypeIncoming}, open, false},
		{"private incoming on resolved", models.Message{MessageType: models.MessageTypeIncoming, Private: true}, resolved, false},
		{"outgoing on resolved", models.Message{MessageType: models.MessageTypeOutgoing}, resolved, false},
		{"activity on resolved", models.Message{MessageType: models.MessageTypeActivity}, resolved, false},
	}

	for _, tt := range tests {
		if got := reopensConversation(&tt.msg, tt.conv); got != tt.want {
			t.Errorf("%s: reopensConversation = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsFirstReply(t *testing.T) {
	tests := []struct {
		name  string
		msg   models.Message
		prior int64
		want  bool
	}{
		{"first outgoing", models.Message{MessageType: models.MessageTypeOutgoing}, 0, true},
		{"second outgoing", models.Message{MessageType: models.MessageTypeOutgoing}, 1, false},
		{"incoming never replies", models.Message{MessageType: models.MessageTypeIncoming}, 0, false},
		{"activity never replies", models.Message{MessageType: models.MessageTypeActivity}, 0, false},
	}

	for _, tt := range tests {
		if got := isFirstReply(&tt.msg, tt.prior); got != tt.want {
			t.Errorf("%s: isFirstReply = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMessageTopicsOrdering(t *testing.T) {
	tests := []struct {
		name       string
		reopened   bool
		firstReply bool
		want       []events.Topic
	}{
		{"plain message", false, false, []events.Topic{events.MessageCreated}},
		{"reopening message", true, false, []events.Topic{events.ConversationReopened, events.MessageCreated}},
		{"first reply", false, true, []events.Topic{events.MessageCreated, events.FirstReplyCreated}},
		{"both", true, true, []events.Topic{events.ConversationReopened, events.MessageCreated, events.FirstReplyCreated}},
	}

	for _, tt := range tests {
		got := messageTopics(tt.reopened, tt.firstReply)
		if len(got) != len(tt.want) {
			t.Fatalf("%s: messageTopics = %v, want %v", tt.name, got, tt.want)
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("%s: topic[%d] = %v, want %v", tt.name, i, got[i], tt.want[i])
			}
		}
	}
}

func TestActivityContentWording(t *testing.T) {
	if got := resolvedActivityContent("Maria"); got != "Conversation was marked resolved by Maria" {
		t.Errorf("resolved activity = %q", got)
	}
	if got := assignedActivityContent("John", "Maria"); got != "Assigned to John by Maria" {
		t.Errorf("assigned activity = %q", got)
	}
}
