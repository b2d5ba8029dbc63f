package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"siteops/internal/handler"
	"siteops/pkg/mq"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Project      *handler.ProjectHandler
	Task         *handler.TaskHandler
	Material     *handler.MaterialHandler
	Equipment    *handler.EquipmentHandler
	Contract     *handler.ContractHandler
	Report       *handler.ReportHandler
	Purchase     *handler.PurchaseHandler
	Notification *handler.NotificationHandler
	Chat         *handler.ChatHandler
	WS           *handler.WSHandler
}

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	h Handlers,
	jwtSecret string,
	db *pgxpool.Pool,
	consumer *mq.Consumer,
	logger *zap.Logger,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogMiddleware(logger))

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if consumer != nil && !consumer.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/register", h.Auth.Register)
	r.POST("/login", h.Auth.Login)

	// WebSocket authenticates itself (token query param fallback)
	r.GET("/ws", h.WS.Serve)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/me", h.Auth.Me)
		auth.GET("/users", h.Auth.ListUsers)

		auth.GET("/projects", h.Project.List)
		auth.POST("/projects", h.Project.Create)
		auth.GET("/projects/:id", h.Project.Get)
		auth.PUT("/projects/:id", h.Project.Update)
		auth.DELETE("/projects/:id", h.Project.Delete)

		auth.GET("/projects/:id/tasks", h.Task.ListTree)
		auth.POST("/projects/:id/tasks", h.Task.Create)
		auth.PUT("/tasks/:id", h.Task.Update)
		auth.POST("/tasks/:id/status", h.Task.ChangeStatus)
		auth.DELETE("/tasks/:id", h.Task.Delete)
		auth.GET("/tasks/:id/activity", h.Task.Activity)

		auth.GET("/projects/:id/materials", h.Material.List)
		auth.POST("/projects/:id/materials", h.Material.Create)
		auth.PUT("/materials/:id", h.Material.Update)
		auth.POST("/materials/:id/adjust", h.Material.Adjust)
		auth.DELETE("/materials/:id", h.Material.Delete)

		auth.GET("/projects/:id/equipment", h.Equipment.List)
		auth.POST("/projects/:id/equipment", h.Equipment.Create)
		auth.POST("/equipment/:id/status", h.Equipment.SetStatus)
		auth.DELETE("/equipment/:id", h.Equipment.Delete)

		auth.GET("/projects/:id/contracts", h.Contract.List)
		auth.POST("/projects/:id/contracts", h.Contract.Create)
		auth.POST("/contracts/:id/sign", h.Contract.Sign)
		auth.POST("/contracts/:id/terminate", h.Contract.Terminate)

		auth.GET("/projects/:id/reports", h.Report.List)
		auth.POST("/projects/:id/reports", h.Report.Create)

		auth.GET("/projects/:id/purchases", h.Purchase.List)
		auth.POST("/projects/:id/purchases", h.Purchase.Create)
		auth.POST("/purchases/:id/decide", h.Purchase.Decide)

		auth.GET("/notifications", h.Notification.List)
		auth.POST("/notifications/:id/read", h.Notification.MarkRead)

		auth.GET("/projects/:id/chat", h.Chat.History)
		auth.GET("/chat/direct/:id", h.Chat.DirectHistory)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
