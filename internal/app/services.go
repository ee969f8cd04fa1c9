package app

import (
	"context"

	"atendo/internal/assignment"
	"atendo/internal/auth"
	"atendo/internal/conversation"
	"atendo/internal/events"
	"atendo/internal/queue"
	"atendo/internal/repo"
	"atendo/internal/services"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Services holds all application services
type Services struct {
	DB                  *gorm.DB
	AuthService         *auth.Service
	EmailService        *services.EmailService
	Dispatcher          *events.Dispatcher
	AssignmentService   *assignment.Service
	ConversationService *conversation.Service
	Finder              *conversation.Finder
	QueueClient         *queue.Client

	UserRepo         *repo.UserRepository
	TenantRepo       *repo.TenantRepository
	ContactRepo      *repo.ContactRepository
	InboxRepo        *repo.InboxRepository
	ConversationRepo *repo.ConversationRepository
	MessageRepo      *repo.MessageRepository
}

// NewServices creates a new services container
func NewServices(db *gorm.DB) *Services {
	// Initialize repositories
	userRepo := repo.NewUserRepository(db)
	tenantRepo := repo.NewTenantRepository(db)
	contactRepo := repo.NewContactRepository(db)
	inboxRepo := repo.NewInboxRepository(db)
	conversationRepo := repo.NewConversationRepository(db)
	messageRepo := repo.NewMessageRepository(db)

	authService := auth.NewService(userRepo)

	// Email delivery is optional; assignment notifications are dropped
	// when no provider is configured
	emailService, err := services.NewEmailService()
	if err != nil {
		log.Warn().Err(err).Msg("Email service not configured, assignment emails disabled")
		emailService = nil
	}

	dispatcher := events.NewDispatcher()

	// Round-robin assignment needs Redis; without it conversations
	// stay unassigned until an agent picks them up
	var assignmentService *assignment.Service
	if rotator, err := assignment.NewRedisRotator(); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, round-robin assignment disabled")
	} else {
		assignmentService = assignment.NewService(rotator, inboxRepo)
	}

	var assigner conversation.Assigner
	if assignmentService != nil {
		assigner = assignmentService
	}
	conversationService := conversation.NewService(db, dispatcher, assigner)
	finder := conversation.NewFinder(db)

	queueClient, err := queue.NewClientFromEnv()
	if err != nil {
		log.Warn().Err(err).Msg("Task queue not configured, assignment emails disabled")
		queueClient = nil
	}

	s := &Services{
		DB:                  db,
		AuthService:         authService,
		EmailService:        emailService,
		Dispatcher:          dispatcher,
		AssignmentService:   assignmentService,
		ConversationService: conversationService,
		Finder:              finder,
		QueueClient:         queueClient,

		UserRepo:         userRepo,
		TenantRepo:       tenantRepo,
		ContactRepo:      contactRepo,
		InboxRepo:        inboxRepo,
		ConversationRepo: conversationRepo,
		MessageRepo:      messageRepo,
	}

	s.registerSubscribers()
	return s
}

// registerSubscribers wires the background reactions to lifecycle
// events. Subscribers run after commit; a failure in one never affects
// the others or the originating request.
func (s *Services) registerSubscribers() {
	// Audit trail of every lifecycle transition
	for _, topic := range []events.Topic{
		events.ConversationCreated,
		events.ConversationResolved,
		events.ConversationReopened,
		events.ConversationRead,
		events.ConversationLockToggle,
		events.AssigneeChanged,
		events.MessageCreated,
		events.FirstReplyCreated,
	} {
		s.Dispatcher.Subscribe(topic, s.logEvent)
	}

	if s.QueueClient != nil {
		s.Dispatcher.Subscribe(events.AssigneeChanged, s.enqueueAssignmentEmail)
	}
}

func (s *Services) logEvent(ctx context.Context, ev events.Event) error {
	entry := log.Info().Str("topic", string(ev.Topic))
	if ev.Conversation != nil {
		entry = entry.
			Int("display_id", ev.Conversation.DisplayID).
			Str("tenant_id", ev.Conversation.TenantID.String())
	}
	if ev.Message != nil {
		entry = entry.Str("message_id", ev.Message.ID.String())
	}
	entry.Msg("Conversation event")
	return nil
}

func (s *Services) enqueueAssignmentEmail(ctx context.Context, ev events.Event) error {
	conv := ev.Conversation
	if conv == nil || conv.AssigneeID == nil {
		return nil
	}
	return s.QueueClient.EnqueueAssignmentEmail(ctx, queue.AssignmentEmailPayload{
		TenantID:       conv.TenantID,
		ConversationID: conv.ID,
		AssigneeID:     *conv.AssigneeID,
	})
}
