package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"atendo/internal/repo"
	"atendo/pkg/models"
)

// TenantResolver middleware resolves tenant from JWT token or header
func TenantResolver() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var tenantID uuid.UUID
			var err error

			// Check if tenant_id was already set by JWT middleware
			if existingTenantID := c.Get("tenant_id"); existingTenantID != nil {
				if tid, ok := existingTenantID.(uuid.UUID); ok {
					tenantID = tid
				}
			}

			// If not set, try to get from X-Tenant-ID header
			if tenantID == uuid.Nil {
				tenantIDHeader := c.Request().Header.Get("X-Tenant-ID")
				if tenantIDHeader != "" {
					if tenantID, err = uuid.Parse(tenantIDHeader); err != nil {
						return echo.NewHTTPError(400, "Invalid tenant ID format")
					}
					c.Set("tenant_id", tenantID)
				}
			}

			return next(c)
		}
	}
}

// RequireTenant middleware ensures a tenant is present
func RequireTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// System admins operate without a tenant context
			userRole := c.Get("user_role")
			if userRole != nil && userRole.(string) == "system_admin" {
				return next(c)
			}

			tenantID := c.Get("tenant_id")
			if tenantID == nil {
				return echo.NewHTTPError(400, "Tenant ID is required")
			}

			if tenantID.(uuid.UUID) == uuid.Nil {
				return echo.NewHTTPError(400, "Valid tenant ID is required")
			}

			return next(c)
		}
	}
}

// CurrentUser middleware loads the authenticated user so handlers can
// attribute actions to a concrete agent
func CurrentUser(userRepo *repo.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get("user_id").(uuid.UUID)
			if !ok {
				return next(c)
			}

			user, err := userRepo.GetByID(userID)
			if err != nil {
				log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to load current user")
				return echo.NewHTTPError(401, "User not found")
			}

			c.Set("current_user", user)
			return next(c)
		}
	}
}

// GetCurrentUser returns the user loaded by CurrentUser, or nil
func GetCurrentUser(c echo.Context) *models.User {
	user, _ := c.Get("current_user").(*models.User)
	return user
}

// GetTenantID returns the resolved tenant ID, or uuid.Nil
func GetTenantID(c echo.Context) uuid.UUID {
	tenantID, _ := c.Get("tenant_id").(uuid.UUID)
	return tenantID
}
