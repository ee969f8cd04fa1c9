package handlers

import (
	"atendo/internal/app"
	"atendo/internal/http/middleware"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all API routes. The returned websocket handler
// must be shut down when the server drains.
func SetupRoutes(api *echo.Group, services *app.Services) *WebSocketHandler {
	// WebSocket fan-out of lifecycle events
	wsHandler := NewWebSocketHandler(services.AuthService)
	RegisterBroadcasts(services.Dispatcher, wsHandler, services.MessageRepo)

	// Auth routes (no authentication required)
	authHandler := NewAuthHandler(services.AuthService, services.UserRepo)
	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	// WebSocket endpoint (handles authentication manually via query parameter)
	api.GET("/ws", wsHandler.HandleWebSocket)

	// Protected routes (require authentication)
	protected := api.Group("")
	protected.Use(middleware.JWTAuth(services.AuthService))
	protected.Use(middleware.TenantResolver())

	// User profile routes (authenticated users)
	profileAuth := protected.Group("/auth")
	profileAuth.GET("/me", authHandler.Me)
	profileAuth.PUT("/profile", authHandler.UpdateProfile)
	profileAuth.PUT("/change-password", authHandler.ChangePassword)

	// System admin routes
	admin := protected.Group("/admin")
	admin.Use(middleware.SystemAdminOnly())
	tenantHandler := NewTenantHandler(services.TenantRepo)
	admin.GET("/tenants", tenantHandler.List)
	admin.POST("/tenants", tenantHandler.Create)
	admin.GET("/tenants/:id", tenantHandler.GetByID)
	admin.PUT("/tenants/:id", tenantHandler.Update)

	// Tenant routes (require tenant context)
	tenant := protected.Group("")
	tenant.Use(middleware.AgentOrAbove())
	tenant.Use(middleware.RequireTenant())
	tenant.Use(middleware.CurrentUser(services.UserRepo))

	// User management (administrators only)
	userHandler := NewUserHandler(services.UserRepo, services.AuthService)
	users := tenant.Group("/users", middleware.AdministratorOrAbove())
	users.POST("", userHandler.Create)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.GetByID)
	users.PUT("/:id", userHandler.Update)
	tenant.GET("/agents", userHandler.ListAgents)

	// Inboxes and rotation pools
	inboxHandler := NewInboxHandler(services.InboxRepo, services.UserRepo, services.AssignmentService)
	inboxes := tenant.Group("/inboxes")
	inboxes.GET("", inboxHandler.List)
	inboxes.GET("/:id", inboxHandler.GetByID)
	inboxes.GET("/:id/members", inboxHandler.ListMembers)
	inboxAdmin := tenant.Group("/inboxes", middleware.AdministratorOrAbove())
	inboxAdmin.POST("", inboxHandler.Create)
	inboxAdmin.PUT("/:id", inboxHandler.Update)
	inboxAdmin.DELETE("/:id", inboxHandler.Delete)
	inboxAdmin.POST("/:id/members", inboxHandler.AddMember)
	inboxAdmin.DELETE("/:id/members/:user_id", inboxHandler.RemoveMember)

	// Contacts
	contactHandler := NewContactHandler(services.ContactRepo)
	contacts := tenant.Group("/contacts")
	contacts.GET("", contactHandler.List)
	contacts.POST("", contactHandler.Create)
	contacts.GET("/:id", contactHandler.GetByID)

	// Conversations
	conversationHandler := NewConversationHandler(
		services.ConversationService,
		services.Finder,
		services.ConversationRepo,
		services.MessageRepo,
		services.ContactRepo,
		services.UserRepo,
	)
	conversations := tenant.Group("/conversations")
	conversations.GET("", conversationHandler.List)
	conversations.POST("", conversationHandler.Create)
	conversations.GET("/:display_id", conversationHandler.GetByDisplayID)
	conversations.POST("/:display_id/toggle_status", conversationHandler.ToggleStatus)
	conversations.POST("/:display_id/assignee", conversationHandler.UpdateAssignee)
	conversations.POST("/:display_id/lock", conversationHandler.Lock)
	conversations.POST("/:display_id/unlock", conversationHandler.Unlock)
	conversations.POST("/:display_id/update_last_seen", conversationHandler.UpdateLastSeen)
	conversations.GET("/:display_id/messages", conversationHandler.ListMessages)
	conversations.POST("/:display_id/messages", conversationHandler.CreateMessage)

	return wsHandler
}
