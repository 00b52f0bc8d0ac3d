package http

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	appsvc "powerbi-portal/internal/app"
	"powerbi-portal/internal/bootstrap"
	"powerbi-portal/internal/config"
	"powerbi-portal/internal/pkg/passhash"
	"powerbi-portal/internal/platform/rabbitmq"
	"powerbi-portal/internal/repository"
	"powerbi-portal/internal/session"
	"powerbi-portal/internal/transport/http/handler"
	"powerbi-portal/internal/transport/http/middleware"
)

// Services bundles everything the route table needs. Tests build it from
// fakes; NewRouter wires the real thing from bootstrap.
type Services struct {
	Auth     *appsvc.AuthService
	Feedback *appsvc.FeedbackService
	Chat     *appsvc.ChatService
	Sessions *session.Manager
}

func NewRouter(app *bootstrap.App) (*gin.Engine, error) {
	cfg := app.Config

	sessionTTL := time.Duration(cfg.Session.TTLMinute) * time.Minute
	var store session.Store
	switch cfg.Session.Store {
	case "memory":
		memStore, err := session.NewMemoryStore(sessionTTL)
		if err != nil {
			return nil, err
		}
		store = memStore
	case "redis", "":
		store = session.NewRedisStore(app.Redis, sessionTTL)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
	sessions := session.NewManager(store, cfg.Session.Secret, sessionTTL)

	userRepo := repository.NewUserRepository(app.MySQL)
	feedbackRepo := repository.NewFeedbackRepository(app.MySQL)
	audit := rabbitmq.NewAuditPublisher(app.MQConn, cfg.RabbitMQ.AuditQueue)

	svcs := Services{
		Auth:     appsvc.NewAuthService(userRepo, passhash.New(cfg.Auth.BcryptCost), audit, app.Logger),
		Feedback: appsvc.NewFeedbackService(feedbackRepo, audit, app.Logger),
		Chat:     appsvc.NewChatService(cfg.Chat, app.Logger),
		Sessions: sessions,
	}

	router := BuildRouter(cfg, svcs)

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.StaticFile("/", filepath.Join(cfg.App.WebDir, "index.html"))

	return router, nil
}

// BuildRouter assembles the route table around the given services.
func BuildRouter(cfg *config.Config, svcs Services) *gin.Engine {
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	authHandler := handler.NewAuthHandler(svcs.Auth, svcs.Sessions, cfg.Session)
	feedbackHandler := handler.NewFeedbackHandler(svcs.Feedback)
	chatHandler := handler.NewChatHandler(svcs.Chat)
	dashboardHandler := handler.NewDashboardHandler(cfg.Dashboard.EmbedURL)

	api := router.Group("/api")
	api.POST("/signup", authHandler.Signup)
	api.POST("/login", authHandler.Login)
	api.GET("/user", authHandler.Me)
	api.POST("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(middleware.AuthSession(svcs.Sessions, cfg.Session.CookieName))
	protected.POST("/feedback", feedbackHandler.Submit)
	protected.POST("/chat", chatHandler.Send)
	protected.GET("/dashboard-url", dashboardHandler.EmbedURL)

	return router
}
