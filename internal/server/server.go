package server

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"anoa.com/authorhub/internal/config"
	"anoa.com/authorhub/internal/entity"
	"anoa.com/authorhub/internal/middleware"
	"anoa.com/authorhub/pkg/database"
	"anoa.com/authorhub/pkg/response"
	"anoa.com/authorhub/pkg/storage"

	adminHttp "anoa.com/authorhub/internal/modules/admin/delivery/http"
	adminService "anoa.com/authorhub/internal/modules/admin/service"

	notiHttp "anoa.com/authorhub/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/authorhub/internal/modules/notification/repository"
	notifService "anoa.com/authorhub/internal/modules/notification/service"

	roleRequestHttp "anoa.com/authorhub/internal/modules/rolerequest/delivery/http"
	roleRequestRepo "anoa.com/authorhub/internal/modules/rolerequest/repository"
	roleRequestService "anoa.com/authorhub/internal/modules/rolerequest/service"

	statHttp "anoa.com/authorhub/internal/modules/stat/delivery/http"
	statService "anoa.com/authorhub/internal/modules/stat/service"

	userHttp "anoa.com/authorhub/internal/modules/user/delivery/http"
	userRepo "anoa.com/authorhub/internal/modules/user/repository"
	userService "anoa.com/authorhub/internal/modules/user/service"
)

// Deps are the long-lived collaborators the server is built from.
// RedisClient and Avatars are optional.
type Deps struct {
	Config      *config.Config
	Log         zerolog.Logger
	Store       *database.Store
	RedisClient *redis.Client
	Avatars     storage.AvatarStorage
}

type Server struct {
	engine *gin.Engine
	server *http.Server
	log    zerolog.Logger
}

func NewServer(deps Deps) (*Server, error) {
	cfg := deps.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db := deps.Store.DB()
	render := response.NewRenderer(deps.Log, cfg.IsProduction())

	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth, render)
	if err != nil {
		return nil, err
	}

	userRepository := userRepo.NewUserRepository(db)
	userSvc := userService.NewUserService(userRepository, deps.Avatars, deps.Log)
	userHandler := userHttp.NewUserHandler(userSvc, render)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, userRepository, deps.RedisClient, deps.Log)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, deps.RedisClient, render, deps.Log, originChecker(cfg.AllowedOrigins))

	requestRepository := roleRequestRepo.NewRoleRequestRepository(db)
	roleRequestSvc := roleRequestService.NewRoleRequestService(deps.Store, userRepository, requestRepository, deps.RedisClient, cfg.RoleRequestCooldown, deps.Log)
	roleRequestHandler := roleRequestHttp.NewRoleRequestHandler(roleRequestSvc, render)

	adminSvc := adminService.NewAdminService(deps.Store, userRepository, requestRepository, notificationSvc, deps.Log)
	adminHandler := adminHttp.NewAdminHandler(adminSvc, render)

	statHandler := statHttp.NewStatHandler(statService.NewStatService(userRepository, requestRepository), render)

	health := newHealthHandler(deps.Store, deps.RedisClient)

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(deps.Log, "/health"),
		middleware.Recovery(deps.Log),
	)
	setupCORS(router, cfg.AllowedOrigins)

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API đang hoạt động")
	})
	router.GET("/health", health.Check)

	api := router.Group(cfg.APIPrefix)

	// Public registration
	api.POST("/users", userHandler.CreateUser)

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// User routes
		protected.GET("/users/:cognitoId", userHandler.GetUser)
		protected.PUT("/users/:cognitoId", userHandler.UpdateUser)
		protected.PUT("/users/:cognitoId/avatar", userHandler.UpdateAvatar)

		// Role request routes
		protected.POST("/request-author", authMiddleware.RequireRoles(entity.RoleUser), roleRequestHandler.RequestAuthor)
		protected.GET("/my-role-requests", roleRequestHandler.ListMine)
		protected.DELETE("/role-requests/:requestId", roleRequestHandler.Cancel)

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireRoles(entity.RoleAdmin))
		{
			adminGroup.GET("/role-requests", adminHandler.GetRoleRequests)
			adminGroup.PUT("/role-requests/:requestId/approve", adminHandler.ApproveRoleRequest)
			adminGroup.PUT("/role-requests/:requestId/deny", adminHandler.DenyRoleRequest)
			adminGroup.GET("/stats", statHandler.GetOverview)
		}

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	router.NoRoute(func(c *gin.Context) {
		render.Fail(c, http.StatusNotFound, "Không tìm thấy tài nguyên yêu cầu")
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer.RegisterOnShutdown(notificationHandler.Close)

	return &Server{
		engine: router,
		server: httpServer,
		log:    deps.Log,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	s.log.Info().
		Str("addr", s.server.Addr).
		Msg("http server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

// originChecker accepts non-browser clients and the configured origins.
func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}
