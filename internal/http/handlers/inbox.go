package handlers

import (
	"net/http"
	"strconv"

	"atendo/internal/assignment"
	"atendo/internal/http/middleware"
	"atendo/internal/repo"
	"atendo/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// InboxHandler handles inbox and rotation pool endpoints
type InboxHandler struct {
	inboxRepo  *repo.InboxRepository
	userRepo   *repo.UserRepository
	assignment *assignment.Service
}

// NewInboxHandler creates a new inbox handler
func NewInboxHandler(inboxRepo *repo.InboxRepository, userRepo *repo.UserRepository, assignmentService *assignment.Service) *InboxHandler {
	return &InboxHandler{
		inboxRepo:  inboxRepo,
		userRepo:   userRepo,
		assignment: assignmentService,
	}
}

// List godoc
// @Summary List inboxes
// @Tags inboxes
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} models.PaginationResult[models.Inbox]
// @Router /inboxes [get]
func (h *InboxHandler) List(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)

	limit := 20
	offset := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}

	result, err := h.inboxRepo.ListByTenant(tenantID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list inboxes"})
	}

	return c.JSON(http.StatusOK, result)
}

// CreateInboxRequest represents inbox creation data
type CreateInboxRequest struct {
	Name        string `json:"name" validate:"required"`
	ChannelType string `json:"channel_type"`
}

// Create godoc
// @Summary Create inbox
// @Tags inboxes
// @Accept json
// @Produce json
// @Param request body CreateInboxRequest true "Inbox data"
// @Success 201 {object} models.Inbox
// @Failure 400 {object} map[string]string
// @Router /inboxes [post]
func (h *InboxHandler) Create(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)

	var req CreateInboxRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	channelType := req.ChannelType
	if channelType == "" {
		channelType = "webchat"
	}

	inbox := &models.Inbox{
		BaseTenantModel: models.BaseTenantModel{TenantID: tenantID},
		Name:            req.Name,
		ChannelType:     channelType,
		IsActive:        true,
	}
	if err := h.inboxRepo.Create(inbox); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create inbox"})
	}

	return c.JSON(http.StatusCreated, inbox)
}

// GetByID godoc
// @Summary Get inbox
// @Tags inboxes
// @Produce json
// @Param id path string true "Inbox ID"
// @Success 200 {object} models.Inbox
// @Failure 404 {object} map[string]string
// @Router /inboxes/{id} [get]
func (h *InboxHandler) GetByID(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid inbox ID format"})
	}

	inbox, err := h.inboxRepo.GetByIDAndTenant(id, tenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Inbox not found"})
	}

	return c.JSON(http.StatusOK, inbox)
}

// Update godoc
// @Summary Update inbox
// @Tags inboxes
// @Accept json
// @Produce json
// @Param id path string true "Inbox ID"
// @Param request body CreateInboxRequest true "Inbox data"
// @Success 200 {object} models.Inbox
// @Failure 404 {object} map[string]string
// @Router /inboxes/{id} [put]
func (h *InboxHandler) Update(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid inbox ID format"})
	}

	inbox, err := h.inboxRepo.GetByIDAndTenant(id, tenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Inbox not found"})
	}

	var req CreateInboxRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	inbox.Name = req.Name
	if req.ChannelType != "" {
		inbox.ChannelType = req.ChannelType
	}
	if err := h.inboxRepo.Update(inbox); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update inbox"})
	}

	return c.JSON(http.StatusOK, inbox)
}

// Delete godoc
// @Summary Delete inbox
// @Tags inboxes
// @Param id path string true "Inbox ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /inboxes/{id} [delete]
func (h *InboxHandler) Delete(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid inbox ID format"})
	}

	if err := h.inboxRepo.Delete(id, tenantID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Inbox not found"})
	}

	return c.NoContent(http.StatusNoContent)
}

// ListMembers godoc
// @Summary List inbox members
// @Description List the inbox's agents in rotation pool order
// @Tags inboxes
// @Produce json
// @Param id path string true "Inbox ID"
// @Success 200 {array} models.InboxMember
// @Router /inboxes/{id}/members [get]
func (h *InboxHandler) ListMembers(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid inbox ID format"})
	}

	members, err := h.inboxRepo.ListMembers(id, tenantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list members"})
	}

	return c.JSON(http.StatusOK, members)
}

// AddMemberRequest represents member addition data
type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// AddMember godoc
// @Summary Add inbox member
// @Description Add an agent to the inbox's rotation pool
// @Tags inboxes
// @Accept json
// @Produce json
// @Param id path string true "Inbox ID"
// @Param request body AddMemberRequest true "Member data"
// @Success 201 {object} models.InboxMember
// @Failure 400 {object} map[string]string
// @Router /inboxes/{id}/members [post]
func (h *InboxHandler) AddMember(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)

	inboxID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid inbox ID format"})
	}
	if _, err := h.inboxRepo.GetByIDAndTenant(inboxID, tenantID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Inbox not found"})
	}

	var req AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid user ID format"})
	}
	if _, err := h.userRepo.GetByIDAndTenant(userID, tenantID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}

	member := &models.InboxMember{
		BaseTenantModel: models.BaseTenantModel{TenantID: tenantID},
		InboxID:         inboxID,
		UserID:          userID,
	}
	if err := h.inboxRepo.AddMember(member); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to add member"})
	}

	h.resetRotation(c, inboxID)

	return c.JSON(http.StatusCreated, member)
}

// RemoveMember godoc
// @Summary Remove inbox member
// @Description Remove an agent from the inbox's rotation pool
// @Tags inboxes
// @Param id path string true "Inbox ID"
// @Param user_id path string true "User ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /inboxes/{id}/members/{user_id} [delete]
func (h *InboxHandler) RemoveMember(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)

	inboxID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid inbox ID format"})
	}
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid user ID format"})
	}

	if err := h.inboxRepo.RemoveMember(inboxID, userID, tenantID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Member not found"})
	}

	h.resetRotation(c, inboxID)

	return c.NoContent(http.StatusNoContent)
}

// resetRotation rebuilds the inbox's round-robin queue after a
// membership change. Assignment keeps working from the stale queue if
// the rebuild fails, so this only logs.
func (h *InboxHandler) resetRotation(c echo.Context, inboxID uuid.UUID) {
	if h.assignment == nil {
		return
	}
	if err := h.assignment.ResetQueue(c.Request().Context(), inboxID); err != nil {
		log.Warn().Err(err).Str("inbox_id", inboxID.String()).Msg("Failed to reset rotation queue")
	}
}
