package routes

import (
	"net/http"

	"smartorder/configs"
	"smartorder/controllers"
	"smartorder/entity"
	"smartorder/events"
	"smartorder/middlewares"
	"smartorder/repository"
	"smartorder/services"
	"smartorder/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators the handlers are built from.
type Deps struct {
	Config  *configs.Config
	DB      *gorm.DB
	Log     *logrus.Logger
	Hub     *ws.OrderHub        // nil disables /ws/orders
	Events  events.Publisher    // nil drops events
	Limiter middlewares.Limiter // nil disables rate limiting
	Mailer  services.Mailer     // nil logs reset tokens
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.RateLimit(d.Limiter, d.Log))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	// Repositories
	userRepo := repository.NewUserRepository(d.DB)
	menuRepo := repository.NewMenuRepository(d.DB)
	cartRepo := repository.NewCartRepository(d.DB)
	orderRepo := repository.NewOrderRepository(d.DB)
	feedbackRepo := repository.NewFeedbackRepository(d.DB)
	reportRepo := repository.NewReportRepository(d.DB)

	// Services
	authSvc := services.NewAuthService(userRepo, d.Mailer, d.Log, cfg.JWTSecret, cfg.JWTTTL)
	menuSvc := services.NewMenuService(menuRepo)
	cartSvc := services.NewCartService(d.DB, cartRepo, menuRepo)
	orderSvc := services.NewOrderService(d.DB, orderRepo, cartRepo, d.Events, d.Log)
	feedbackSvc := services.NewFeedbackService(orderRepo, feedbackRepo, d.Log)
	reportSvc := services.NewReportService(reportRepo, userRepo, feedbackRepo, cfg.Timezone)

	// Controllers
	authCtrl := controllers.NewAuthController(authSvc)
	menuCtrl := controllers.NewMenuController(menuSvc)
	cartCtrl := controllers.NewCartController(cartSvc)
	orderCtrl := controllers.NewOrderController(orderSvc)
	feedbackCtrl := controllers.NewFeedbackController(feedbackSvc)
	adminCtrl := controllers.NewAdminController(reportSvc)

	auth := middlewares.AuthMiddleware(cfg.JWTSecret)
	optional := middlewares.OptionalAuth(cfg.JWTSecret)
	staff := middlewares.AuthMiddleware(cfg.JWTSecret, entity.RoleChef, entity.RoleAdmin)
	admin := middlewares.AuthMiddleware(cfg.JWTSecret, entity.RoleAdmin)

	// Auth
	a := r.Group("/auth")
	{
		a.POST("/register", authCtrl.Register)
		a.POST("/login", authCtrl.Login)
		a.POST("/forgot-password", authCtrl.ForgotPassword)
		a.POST("/reset-password", authCtrl.ResetPassword)
		a.GET("/me", auth, authCtrl.Me)
	}

	// Menu (public, read-only)
	r.GET("/menu", menuCtrl.List)
	r.GET("/menu/:id", menuCtrl.Get)

	// Cart
	cart := r.Group("/cart", auth)
	{
		cart.GET("", cartCtrl.Get)
		cart.PUT("", cartCtrl.Save)
		cart.DELETE("", cartCtrl.Clear)
	}

	// Orders: guests may order and track by id
	o := r.Group("/orders")
	{
		o.POST("", optional, orderCtrl.Create)
		o.GET("/:id", optional, orderCtrl.Get)
		o.GET("/:id/history", optional, orderCtrl.History)
		o.PATCH("/:id/status", staff, orderCtrl.UpdateStatus)
	}
	r.GET("/profile/orders", auth, orderCtrl.ListMine)
	r.GET("/kitchen/orders", staff, orderCtrl.Kitchen)

	// Feedback
	fb := r.Group("/feedback", auth)
	{
		fb.POST("", feedbackCtrl.Create)
		fb.GET("/exists", feedbackCtrl.Exists)
		fb.GET("/eligibility/:orderId", feedbackCtrl.Eligibility)
	}

	// Admin
	ad := r.Group("/admin", admin)
	{
		ad.GET("/feedback", feedbackCtrl.List)
		ad.PATCH("/feedback/:id/response", feedbackCtrl.Respond)
		ad.GET("/analytics", adminCtrl.Analytics)
		ad.GET("/dashboard", adminCtrl.Dashboard)
	}
	r.DELETE("/admin/carts/:userId", staff, cartCtrl.ClearForUser)

	// Live kitchen board
	if d.Hub != nil {
		r.GET("/ws/orders", middlewares.WSAuthMiddleware(cfg.JWTSecret, entity.RoleChef, entity.RoleAdmin), d.Hub.HandleWebSocket)
	}
}
