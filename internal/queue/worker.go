package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"atendo/internal/repo"
	"atendo/internal/services"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Worker consumes queued notification tasks
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker constructs the background worker from REDIS_URL. The mailer
// may be nil when outbound delivery is not configured; assignment tasks
// are then acknowledged without sending.
func NewWorker(db *gorm.DB, mailer *services.EmailService) (*Worker, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, errors.New("queue: REDIS_URL environment variable is not set")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse REDIS_URL: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{"mailers": 1},
	})

	h := &assignmentEmailHandler{
		conversations: repo.NewConversationRepository(db),
		users:         repo.NewUserRepository(db),
		mailer:        mailer,
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAssignmentEmail, h.ProcessTask)

	return &Worker{server: server, mux: mux}, nil
}

// Start runs the worker until Shutdown is called.
func (w *Worker) Start() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

type assignmentEmailHandler struct {
	conversations *repo.ConversationRepository
	users         *repo.UserRepository
	mailer        *services.EmailService
}

func (h *assignmentEmailHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p AssignmentEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", t.Type(), err)
	}

	if h.mailer == nil {
		log.Debug().Str("conversation_id", p.ConversationID.String()).Msg("Mailer not configured, dropping assignment email")
		return nil
	}

	conv, err := h.conversations.GetByIDAndTenant(p.ConversationID, p.TenantID)
	if err != nil {
		return fmt.Errorf("load conversation %s: %w", p.ConversationID, err)
	}
	assignee, err := h.users.GetByID(p.AssigneeID)
	if err != nil {
		return fmt.Errorf("load assignee %s: %w", p.AssigneeID, err)
	}

	if err := h.mailer.SendConversationAssigned(conv, assignee); err != nil {
		log.Warn().Err(err).
			Str("conversation_id", p.ConversationID.String()).
			Str("assignee_id", p.AssigneeID.String()).
			Msg("Assignment email delivery failed, will retry")
		return err
	}
	return nil
}
