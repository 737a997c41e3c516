package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/mood-map/api-go/controllers"
	"github.com/mood-map/api-go/middleware"
	"github.com/mood-map/api-go/services"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, engine *services.Engine, jwtSecret string) {
	// Initialize controllers
	healthController := controllers.NewHealthController(db)
	pinController := controllers.NewPinController(engine)
	screeningController := controllers.NewScreeningController(engine)
	identityController := controllers.NewIdentityController(engine)
	adminController := controllers.NewAdminController(engine)

	// Public routes
	r.GET("/health", healthController.Health)

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtSecret, engine))
	{
		SetupPinRoutes(protected, pinController)
		SetupScreeningRoutes(protected, screeningController)
		SetupIdentityRoutes(protected, identityController)
		SetupAdminRoutes(protected, adminController)
	}
}

func SetupPinRoutes(protected *gin.RouterGroup, pinController *controllers.PinController) {
	pins := protected.Group("/pins")
	{
		pins.GET("", pinController.ListPins)
		pins.POST("", pinController.CreatePin)
		pins.GET("/:id", pinController.GetPin)
		pins.POST("/:id/report", pinController.ReportPin)
	}
}

func SetupScreeningRoutes(protected *gin.RouterGroup, screeningController *controllers.ScreeningController) {
	protected.POST("/qc/check", screeningController.CheckText)
}

func SetupIdentityRoutes(protected *gin.RouterGroup, identityController *controllers.IdentityController) {
	me := protected.Group("/me")
	{
		me.GET("", identityController.GetMe)
		me.GET("/streak", identityController.GetStreak)
	}
}

func SetupAdminRoutes(protected *gin.RouterGroup, adminController *controllers.AdminController) {
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole("admin"))
	{
		admin.POST("/identities/:id/reset-moderation", adminController.ResetModeration)
	}
}
