package handlers

import (
	"net/http"
	"strconv"

	"atendo/internal/repo"
	"atendo/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TenantHandler handles tenant management endpoints
type TenantHandler struct {
	tenantRepo *repo.TenantRepository
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenantRepo *repo.TenantRepository) *TenantHandler {
	return &TenantHandler{tenantRepo: tenantRepo}
}

// List godoc
// @Summary List tenants
// @Tags tenants
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} models.PaginationResult[models.Tenant]
// @Router /admin/tenants [get]
func (h *TenantHandler) List(c echo.Context) error {
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

	result, err := h.tenantRepo.List(limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list tenants"})
	}

	return c.JSON(http.StatusOK, result)
}

// CreateTenantRequest represents tenant creation data
type CreateTenantRequest struct {
	Name     string `json:"name" validate:"required"`
	Domain   string `json:"domain"`
	MaxUsers int    `json:"max_users"`
}

// Create godoc
// @Summary Create tenant
// @Tags tenants
// @Accept json
// @Produce json
// @Param request body CreateTenantRequest true "Tenant data"
// @Success 201 {object} models.Tenant
// @Failure 400 {object} map[string]string
// @Router /admin/tenants [post]
func (h *TenantHandler) Create(c echo.Context) error {
	var req CreateTenantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	maxUsers := req.MaxUsers
	if maxUsers <= 0 {
		maxUsers = 5
	}

	tenant := &models.Tenant{
		Name:     req.Name,
		Domain:   req.Domain,
		Status:   "active",
		MaxUsers: maxUsers,
	}
	if err := h.tenantRepo.Create(tenant); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create tenant"})
	}

	return c.JSON(http.StatusCreated, tenant)
}

// GetByID godoc
// @Summary Get tenant
// @Tags tenants
// @Produce json
// @Param id path string true "Tenant ID"
// @Success 200 {object} models.Tenant
// @Failure 404 {object} map[string]string
// @Router /admin/tenants/{id} [get]
func (h *TenantHandler) GetByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid tenant ID format"})
	}

	tenant, err := h.tenantRepo.GetByID(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Tenant not found"})
	}

	return c.JSON(http.StatusOK, tenant)
}

// Update godoc
// @Summary Update tenant
// @Tags tenants
// @Accept json
// @Produce json
// @Param id path string true "Tenant ID"
// @Param request body CreateTenantRequest true "Tenant data"
// @Success 200 {object} models.Tenant
// @Failure 404 {object} map[string]string
// @Router /admin/tenants/{id} [put]
func (h *TenantHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid tenant ID format"})
	}

	tenant, err := h.tenantRepo.GetByID(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Tenant not found"})
	}

	var req CreateTenantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	tenant.Name = req.Name
	tenant.Domain = req.Domain
	if req.MaxUsers > 0 {
		tenant.MaxUsers = req.MaxUsers
	}
	if err := h.tenantRepo.Update(tenant); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update tenant"})
	}

	return c.JSON(http.StatusOK, tenant)
}
