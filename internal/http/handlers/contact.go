package handlers

import (
	"net/http"
	"strconv"

	"atendo/internal/http/middleware"
	"atendo/internal/repo"
	"atendo/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ContactHandler handles contact endpoints
type ContactHandler struct {
	contactRepo *repo.ContactRepository
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactRepo *repo.ContactRepository) *ContactHandler {
	return &ContactHandler{contactRepo: contactRepo}
}

// List godoc
// @Summary List contacts
// @Tags contacts
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Contact
// @Router /contacts [get]
func (h *ContactHandler) List(c echo.Context) error {
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

	contacts, err := h.contactRepo.ListByTenant(tenantID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list contacts"})
	}

	return c.JSON(http.StatusOK, contacts)
}

// CreateContactRequest represents contact creation data
type CreateContactRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

// Create godoc
// @Summary Create contact
// @Tags contacts
// @Accept json
// @Produce json
// @Param request body CreateContactRequest true "Contact data"
// @Success 201 {object} models.Contact
// @Failure 400 {object} map[string]string
// @Router /contacts [post]
func (h *ContactHandler) Create(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)

	var req CreateContactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	contact := &models.Contact{
		BaseTenantModel: models.BaseTenantModel{TenantID: tenantID},
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
	}
	if err := h.contactRepo.Create(contact); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create contact"})
	}

	return c.JSON(http.StatusCreated, contact)
}

// GetByID godoc
// @Summary Get contact
// @Tags contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} models.Contact
// @Failure 404 {object} map[string]string
// @Router /contacts/{id} [get]
func (h *ContactHandler) GetByID(c echo.Context) error {
	tenantID := middleware.GetTenantID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid contact ID format"})
	}

	contact, err := h.contactRepo.GetByIDAndTenant(id, tenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Contact not found"})
	}

	return c.JSON(http.StatusOK, contact)
}
