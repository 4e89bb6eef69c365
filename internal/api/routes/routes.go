package routes

import (
	"time"

	"marketplace-chat/internal/api/handlers"
	"marketplace-chat/internal/api/middleware"
	"marketplace-chat/internal/services"
	"marketplace-chat/internal/websocket"

	"github.com/gin-gonic/gin"
)

type Router struct {
	engine         *gin.Engine
	wsHandler      *handlers.WSHandler
	chatHandler    *handlers.ChatHandler
	userHandler    *handlers.UserHandler
	authHandler    *handlers.AuthHandler
	projectHandler *handlers.ProjectHandler
	rateLimitMW    *middleware.RateLimitMiddleware
	authMW         *middleware.AuthMiddleware
}

func NewRouter(
	hub *websocket.Hub,
	chatService services.ChatService,
	userService services.UserService,
	projectService services.ProjectService,
	presence *services.PresenceService,
	jwtSecret string,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogAPI())

	return &Router{
		engine:         engine,
		wsHandler:      handlers.NewWSHandler(hub),
		chatHandler:    handlers.NewChatHandler(chatService),
		userHandler:    handlers.NewUserHandler(userService, presence),
		authHandler:    handlers.NewAuthHandler(userService),
		projectHandler: handlers.NewProjectHandler(projectService),
		rateLimitMW:    middleware.NewRateLimitMiddleware(presence),
		authMW:         middleware.NewAuthMiddleware(jwtSecret),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/v1")

	// The socket authenticates itself in-band via the register action, so
	// only an IP rate limit guards the upgrade endpoint.
	api.GET("/ws",
		r.rateLimitMW.RateLimitIP(10, time.Minute),
		r.wsHandler.HandleWebSocket,
	)

	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		users := auth.Group("/users")
		users.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			users.GET("/profile", r.userHandler.GetProfile)
			users.PUT("/profile", r.userHandler.UpdateProfile)
			users.GET("/profile/:id", r.userHandler.GetProfile)
			users.GET("/status/:id", r.userHandler.GetOnlineStatus)
		}

		chats := auth.Group("/chats")
		chats.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			chats.GET("/", r.chatHandler.GetUserChats)
			chats.POST("/", r.chatHandler.CreateChat)
			chats.GET("/exists", r.chatHandler.CheckChatExists)
		}

		messages := auth.Group("/messages")
		messages.Use(r.rateLimitMW.RateLimit(200, time.Minute))
		{
			messages.GET("/chat/:id", r.chatHandler.GetChatMessages)
			messages.POST("/chat/:id", r.chatHandler.SendMessage)
		}

		projects := auth.Group("/projects")
		projects.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			projects.POST("/", r.projectHandler.CreateProject)
			projects.GET("/approved", r.projectHandler.GetApprovedProjects)
			projects.PUT("/assign/:id", r.projectHandler.AssignFreelancer)
			projects.PUT("/complete/:id", r.projectHandler.CompleteProject)
		}
	}

	public := api.Group("/auth")
	public.Use(r.rateLimitMW.RateLimitIP(50, time.Minute))
	{
		public.POST("/register", r.authHandler.Register)
		public.POST("/login", r.authHandler.Login)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
