package conversation

import (
	"context"
	"errors"
	"time"

	"atendo/internal/events"
	"atendo/internal/repo"
	"atendo/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrMissingReference is returned when a message or conversation lacks
// one of its required tenant/inbox/conversation references.
var ErrMissingReference = errors.New("missing required reference")

// Assigner hands out the next agent of an inbox's rotation
type Assigner interface {
	NextAgent(ctx context.Context, inboxID uuid.UUID) (uuid.UUID, error)
}

// Service owns the conversation state machine. Every mutation commits
// first and dispatches its lifecycle events afterwards, so subscribers
// only ever observe durable state.
type Service struct {
	db         *gorm.DB
	dispatcher *events.Dispatcher
	assigner   Assigner // nil disables round-robin assignment
}

// NewService creates a conversation service
func NewService(db *gorm.DB, dispatcher *events.Dispatcher, assigner Assigner) *Service {
	return &Service{db: db, dispatcher: dispatcher, assigner: assigner}
}

// Create persists a new conversation and emits ConversationCreated.
// Unassigned conversations are handed to round-robin assignment
// best-effort: an assignment failure never fails the creation.
func (s *Service) Create(ctx context.Context, actor *models.User, conv *models.Conversation) error {
	if conv.TenantID == uuid.Nil || conv.InboxID == uuid.Nil || conv.ContactID == uuid.Nil {
		return ErrMissingReference
	}

	if conv.LastActivityAt.IsZero() {
		conv.LastActivityAt = time.Now()
	}
	if err := repo.CreateConversation(s.db.WithContext(ctx), conv); err != nil {
		return err
	}

	s.dispatcher.Dispatch(ctx, events.Event{
		Topic:        events.ConversationCreated,
		Timestamp:    time.Now(),
		Conversation: conv,
	})

	if conv.AssigneeID == nil {
		s.runRoundRobin(ctx, actor, conv)
	}
	return nil
}

// runRoundRobin assigns the inbox's next agent to the conversation.
func (s *Service) runRoundRobin(ctx context.Context, actor *models.User, conv *models.Conversation) {
	if s.assigner == nil {
		return
	}

	agentID, err := s.assigner.NextAgent(ctx, conv.InboxID)
	if err != nil {
		log.Warn().Err(err).
			Str("conversation_id", conv.ID.String()).
			Str("inbox_id", conv.InboxID.String()).
			Msg("Round-robin assignment failed, conversation left unassigned")
		return
	}
	if agentID == uuid.Nil {
		return
	}

	var agent models.User
	if err := s.db.WithContext(ctx).Where("id = ?", agentID).First(&agent).Error; err != nil {
		log.Warn().Err(err).Str("agent_id", agentID.String()).Msg("Rotation returned unknown agent")
		return
	}
	s.UpdateAssignee(ctx, actor, conv, &agent)
}

// UpdateAssignee sets the conversation's assignee and reports success.
// When the assignee changes away from a previous one, an activity
// message records who reassigned it.
func (s *Service) UpdateAssignee(ctx context.Context, actor *models.User, conv *models.Conversation, assignee *models.User) bool {
	prev := snapshotOf(conv)

	if assignee != nil {
		id := assignee.ID
		conv.AssigneeID = &id
	} else {
		conv.AssigneeID = nil
	}
	conv.Assignee = assignee

	var activities []string
	if prev.assigneeID != nil && !equalIDs(prev.assigneeID, conv.AssigneeID) && assignee != nil && actor != nil {
		activities = append(activities, assignedActivityContent(assignee.Name, actor.Name))
	}
	return s.persist(ctx, conv, prev, activities)
}

// ToggleStatus flips the conversation between open and resolved
// (pending resolves) and reports success.
func (s *Service) ToggleStatus(ctx context.Context, actor *models.User, conv *models.Conversation) bool {
	prev := snapshotOf(conv)
	conv.Status = nextStatus(conv.Status)

	var activities []string
	if conv.Resolved() && actor != nil {
		activities = append(activities, resolvedActivityContent(actor.Name))
	}
	return s.persist(ctx, conv, prev, activities)
}

// Lock marks the conversation locked and reports success.
func (s *Service) Lock(ctx context.Context, conv *models.Conversation) bool {
	prev := snapshotOf(conv)
	conv.Locked = true
	return s.persist(ctx, conv, prev, nil)
}

// Unlock marks the conversation unlocked and reports success.
func (s *Service) Unlock(ctx context.Context, conv *models.Conversation) bool {
	prev := snapshotOf(conv)
	conv.Locked = false
	return s.persist(ctx, conv, prev, nil)
}

// UpdateLastSeen records viewer watermarks. A nil argument leaves the
// corresponding watermark untouched.
func (s *Service) UpdateLastSeen(ctx context.Context, conv *models.Conversation, userSeenAt, agentSeenAt *time.Time) bool {
	prev := snapshotOf(conv)
	if userSeenAt != nil {
		conv.UserLastSeenAt = userSeenAt
	}
	if agentSeenAt != nil {
		conv.AgentLastSeenAt = agentSeenAt
	}
	return s.persist(ctx, conv, prev, nil)
}

// persist commits the mutated conversation together with its activity
// messages, then dispatches one event per changed dimension. The
// dispatcher runs outside the transaction so a slow subscriber never
// holds the row lock.
func (s *Service) persist(ctx context.Context, conv *models.Conversation, prev snapshot, activities []string) bool {
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(conv).Error; err != nil {
			return err
		}
		for _, content := range activities {
			activity := models.Message{
				BaseTenantModel: models.BaseTenantModel{TenantID: conv.TenantID},
				ConversationID:  conv.ID,
				InboxID:         conv.InboxID,
				MessageType:     models.MessageTypeActivity,
				Content:         content,
			}
			if err := tx.Create(&activity).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conv.ID.String()).Msg("Conversation update failed")
		return false
	}

	for _, topic := range pendingTopics(prev, conv) {
		s.dispatcher.Dispatch(ctx, events.Event{
			Topic:        topic,
			Timestamp:    now,
			Conversation: conv,
		})
	}
	return true
}

// CreateMessage inserts a message and runs the transitions it triggers:
// an incoming chat message reopens a resolved conversation in the same
// transaction, and the first outgoing message ever recorded emits
// FirstReplyCreated alongside MessageCreated.
func (s *Service) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg.TenantID == uuid.Nil || msg.InboxID == uuid.Nil || msg.ConversationID == uuid.Nil {
		return ErrMissingReference
	}

	var (
		conv       models.Conversation
		reopened   bool
		firstReply bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the row so concurrent message creation serializes the
		// reopen and first-reply checks.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND tenant_id = ?", msg.ConversationID, msg.TenantID).
			First(&conv).Error; err != nil {
			return err
		}

		if reopensConversation(msg, &conv) {
			conv.Status = models.ConversationStatusOpen
			reopened = true
		}

		if msg.Outgoing() {
			prior, err := repo.CountOutgoing(tx, conv.ID)
			if err != nil {
				return err
			}
			firstReply = isFirstReply(msg, prior)
		}

		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		conv.LastActivityAt = msg.CreatedAt
		return tx.Omit(clause.Associations).Save(&conv).Error
	})
	if err != nil {
		return err
	}

	now := time.Now()
	for _, topic := range messageTopics(reopened, firstReply) {
		ev := events.Event{
			Topic:        topic,
			Timestamp:    now,
			Conversation: &conv,
		}
		if topic != events.ConversationReopened {
			ev.Message = msg
		}
		s.dispatcher.Dispatch(ctx, ev)
	}
	return nil
}
