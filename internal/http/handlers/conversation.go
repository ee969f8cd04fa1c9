package handlers

import (
	"net/http"
	"strconv"
	"time"

	"atendo/internal/conversation"
	"atendo/internal/http/middleware"
	"atendo/internal/repo"
	"atendo/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ConversationHandler handles conversation lifecycle endpoints
type ConversationHandler struct {
	service          *conversation.Service
	finder           *conversation.Finder
	conversationRepo *repo.ConversationRepository
	messageRepo      *repo.MessageRepository
	contactRepo      *repo.ContactRepository
	userRepo         *repo.UserRepository
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(
	service *conversation.Service,
	finder *conversation.Finder,
	conversationRepo *repo.ConversationRepository,
	messageRepo *repo.MessageRepository,
	contactRepo *repo.ContactRepository,
	userRepo *repo.UserRepository,
) *ConversationHandler {
	return &ConversationHandler{
		service:          service,
		finder:           finder,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		contactRepo:      contactRepo,
		userRepo:         userRepo,
	}
}

// List godoc
// @Summary List conversations
// @Description List the viewer's conversations with mine/unassigned/all counts
// @Tags conversations
// @Produce json
// @Param inbox_id query string false "Inbox ID"
// @Param assignee_type query int false "0 me, 1 unassigned, 2 all"
// @Param status query string false "open, resolved or pending"
// @Param page query int false "Page number"
// @Success 200 {object} conversation.FinderResult
// @Failure 400 {object} map[string]string
// @Router /conversations [get]
func (h *ConversationHandler) List(c echo.Context) error {
	viewer := middleware.GetCurrentUser(c)
	if viewer == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User context required"})
	}

	params := conversation.FinderParams{}

	if raw := c.QueryParam("inbox_id"); raw != "" {
		inboxID, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid inbox ID format"})
		}
		params.InboxID = &inboxID
	}
	if raw := c.QueryParam("assignee_type"); raw != "" {
		params.AssigneeTypeID, _ = strconv.Atoi(raw)
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := models.ParseConversationStatus(raw)
		params.Status = &status
	}
	if raw := c.QueryParam("page"); raw != "" {
		params.Page, _ = strconv.Atoi(raw)
	}

	result, err := h.finder.Perform(c.Request().Context(), viewer, params)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list conversations"})
	}

	return c.JSON(http.StatusOK, result)
}

// CreateConversationRequest represents conversation creation data
type CreateConversationRequest struct {
	InboxID    string  `json:"inbox_id" validate:"required,uuid"`
	ContactID  string  `json:"contact_id" validate:"required,uuid"`
	AssigneeID *string `json:"assignee_id,omitempty"`
	Status     string  `json:"status,omitempty"`
}

// Create godoc
// @Summary Create conversation
// @Description Open a new conversation, assigning an agent round-robin when none is given
// @Tags conversations
// @Accept json
// @Produce json
// @Param request body CreateConversationRequest true "Conversation data"
// @Success 201 {object} models.Conversation
// @Failure 400 {object} map[string]string
// @Router /conversations [post]
func (h *ConversationHandler) Create(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)
	actor := middleware.GetCurrentUser(c)

	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	inboxID, err := uuid.Parse(req.InboxID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid inbox ID format"})
	}
	contactID, err := uuid.Parse(req.ContactID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid contact ID format"})
	}
	if _, err := h.contactRepo.GetByIDAndTenant(contactID, tenantID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Contact not found"})
	}

	conv := &models.Conversation{
		BaseTenantModel: models.BaseTenantModel{TenantID: tenantID},
		InboxID:         inboxID,
		ContactID:       contactID,
		Status:          models.ParseConversationStatus(req.Status),
	}
	if req.AssigneeID != nil {
		assigneeID, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid assignee ID format"})
		}
		conv.AssigneeID = &assigneeID
	}

	if err := h.service.Create(c.Request().Context(), actor, conv); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create conversation"})
	}

	return c.JSON(http.StatusCreated, conv)
}

// GetByDisplayID godoc
// @Summary Get conversation
// @Description Get a conversation by its display id with messages and unread count
// @Tags conversations
// @Produce json
// @Param display_id path int true "Display ID"
// @Success 200 {object} models.ConversationPayload
// @Failure 404 {object} map[string]string
// @Router /conversations/{display_id} [get]
func (h *ConversationHandler) GetByDisplayID(c echo.Context) error {
	conv, err := h.loadConversation(c)
	if err != nil {
		return err
	}

	messages, err := h.messageRepo.ListByConversation(conv.ID, 0, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load messages"})
	}
	payloads := make([]models.MessagePayload, 0, len(messages))
	for i := range messages {
		payloads = append(payloads, messages[i].PushEventData(conv.DisplayID))
	}

	unread, err := h.messageRepo.UnreadCount(conv.ID, conversation.UnreadWatermark(conv))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to count unread messages"})
	}

	return c.JSON(http.StatusOK, conv.PushEventData(payloads, int(unread)))
}

// ToggleStatus godoc
// @Summary Toggle conversation status
// @Description Flip the conversation between open and resolved
// @Tags conversations
// @Produce json
// @Param display_id path int true "Display ID"
// @Success 200 {object} models.Conversation
// @Failure 404 {object} map[string]string
// @Router /conversations/{display_id}/toggle_status [post]
func (h *ConversationHandler) ToggleStatus(c echo.Context) error {
	conv, err := h.loadConversation(c)
	if err != nil {
		return err
	}

	actor := middleware.GetCurrentUser(c)
	if !h.service.ToggleStatus(c.Request().Context(), actor, conv) {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update conversation"})
	}

	return c.JSON(http.StatusOK, conv)
}

// UpdateAssigneeRequest represents assignee update data
type UpdateAssigneeRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// UpdateAssignee godoc
// @Summary Update conversation assignee
// @Description Assign the conversation to an agent, or unassign with a null assignee
// @Tags conversations
// @Accept json
// @Produce json
// @Param display_id path int true "Display ID"
// @Param request body UpdateAssigneeRequest true "Assignee data"
// @Success 200 {object} models.Conversation
// @Failure 400 {object} map[string]string
// @Router /conversations/{display_id}/assignee [post]
func (h *ConversationHandler) UpdateAssignee(c echo.Context) error {
	conv, err := h.loadConversation(c)
	if err != nil {
		return err
	}

	var req UpdateAssigneeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	var assignee *models.User
	if req.AssigneeID != nil {
		assigneeID, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid assignee ID format"})
		}
		assignee, err = h.userRepo.GetByIDAndTenant(assigneeID, conv.TenantID)
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Assignee not found"})
		}
	}

	actor := middleware.GetCurrentUser(c)
	if !h.service.UpdateAssignee(c.Request().Context(), actor, conv, assignee) {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update assignee"})
	}

	return c.JSON(http.StatusOK, conv)
}

// Lock godoc
// @Summary Lock conversation
// @Tags conversations
// @Produce json
// @Param display_id path int true "Display ID"
// @Success 200 {object} models.LockPayload
// @Router /conversations/{display_id}/lock [post]
func (h *ConversationHandler) Lock(c echo.Context) error {
	conv, err := h.loadConversation(c)
	if err != nil {
		return err
	}

	if !h.service.Lock(c.Request().Context(), conv) {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to lock conversation"})
	}

	return c.JSON(http.StatusOK, conv.LockEventData())
}

// Unlock godoc
// @Summary Unlock conversation
// @Tags conversations
// @Produce json
// @Param display_id path int true "Display ID"
// @Success 200 {object} models.LockPayload
// @Router /conversations/{display_id}/unlock [post]
func (h *ConversationHandler) Unlock(c echo.Context) error {
	conv, err := h.loadConversation(c)
	if err != nil {
		return err
	}

	if !h.service.Unlock(c.Request().Context(), conv) {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to unlock conversation"})
	}

	return c.JSON(http.StatusOK, conv.LockEventData())
}

// UpdateLastSeen godoc
// @Summary Mark conversation as read
// @Description Advance the viewer's read watermark to now
// @Tags conversations
// @Produce json
// @Param display_id path int true "Display ID"
// @Success 200 {object} models.Conversation
// @Router /conversations/{display_id}/update_last_seen [post]
func (h *ConversationHandler) UpdateLastSeen(c echo.Context) error {
	conv, err := h.loadConversation(c)
	if err != nil {
		return err
	}

	now := time.Now()
	if !h.service.UpdateLastSeen(c.Request().Context(), conv, &now, &now) {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update last seen"})
	}

	return c.JSON(http.StatusOK, conv)
}

// CreateMessageRequest represents message creation data
type CreateMessageRequest struct {
	Content     string `json:"content" validate:"required"`
	MessageType int    `json:"message_type"`
	Private     bool   `json:"private"`
}

// CreateMessage godoc
// @Summary Create message
// @Description Append a message to the conversation; an incoming message reopens a resolved one
// @Tags conversations
// @Accept json
// @Produce json
// @Param display_id path int true "Display ID"
// @Param request body CreateMessageRequest true "Message data"
// @Success 201 {object} models.MessagePayload
// @Failure 400 {object} map[string]string
// @Router /conversations/{display_id}/messages [post]
func (h *ConversationHandler) CreateMessage(c echo.Context) error {
	conv, err := h.loadConversation(c)
	if err != nil {
		return err
	}

	var req CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	msg := &models.Message{
		BaseTenantModel: models.BaseTenantModel{TenantID: conv.TenantID},
		ConversationID:  conv.ID,
		InboxID:         conv.InboxID,
		MessageType:     models.MessageType(req.MessageType),
		Content:         req.Content,
		Private:         req.Private,
	}
	if actor := middleware.GetCurrentUser(c); actor != nil {
		id := actor.ID
		msg.UserID = &id
	}

	if err := h.service.CreateMessage(c.Request().Context(), msg); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create message"})
	}

	return c.JSON(http.StatusCreated, msg.PushEventData(conv.DisplayID))
}

// ListMessages godoc
// @Summary List conversation messages
// @Tags conversations
// @Produce json
// @Param display_id path int true "Display ID"
// @Success 200 {array} models.MessagePayload
// @Router /conversations/{display_id}/messages [get]
func (h *ConversationHandler) ListMessages(c echo.Context) error {
	conv, err := h.loadConversation(c)
	if err != nil {
		return err
	}

	messages, err := h.messageRepo.ListByConversation(conv.ID, 0, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load messages"})
	}

	payloads := make([]models.MessagePayload, 0, len(messages))
	for i := range messages {
		payloads = append(payloads, messages[i].PushEventData(conv.DisplayID))
	}

	return c.JSON(http.StatusOK, payloads)
}

// loadConversation resolves the :display_id path param within the
// request's tenant.
func (h *ConversationHandler) loadConversation(c echo.Context) (*models.Conversation, error) {
	tenantID := middleware.GetTenantID(c)
	if tenantID == uuid.Nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Tenant context required")
	}

	displayID, err := strconv.Atoi(c.Param("display_id"))
	if err != nil || displayID <= 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid display ID")
	}

	conv, err := h.conversationRepo.GetByDisplayID(tenantID, displayID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}
	return conv, nil
}
