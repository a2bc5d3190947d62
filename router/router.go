package router

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/abeme/go_bm_api/controller"
	"github.com/abeme/go_bm_api/events"
	"github.com/abeme/go_bm_api/logger"
	"github.com/abeme/go_bm_api/middleware"
	"github.com/abeme/go_bm_api/service"
)

// New wires services and routes onto a gin engine. rdb may be nil; the event
// bus and prompt cache then run instance-local.
func New(db *gorm.DB, rdb *redis.Client, log *logger.Logger) (*gin.Engine, *events.Bus) {
	bus := events.NewBus(rdb, log)

	userSvc := service.NewUserService(db)
	relSvc := service.NewRelationshipService(db, bus, log)
	ratingSvc := service.NewRatingService(db, relSvc)
	msgSvc := service.NewMessageService(db, relSvc, bus)
	lovePrintSvc := service.NewLovePrintService(db)
	promptSvc := service.NewDailyPromptService(db, rdb)

	authCtrl := controller.NewAuthController(userSvc)
	ratingCtrl := controller.NewRatingController(ratingSvc)
	relCtrl := controller.NewRelationshipController(relSvc)
	msgCtrl := controller.NewMessageController(msgSvc)
	lpCtrl := controller.NewLovePrintController(lovePrintSvc)
	promptCtrl := controller.NewPromptController(promptSvc)
	profileCtrl := controller.NewProfileController(userSvc, relSvc)

	r := gin.Default()
	r.POST("/signup", authCtrl.SignUp)
	r.POST("/login", authCtrl.Login)

	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/candidates", ratingCtrl.Candidates)
	protected.POST("/ratings", ratingCtrl.Submit)
	protected.GET("/relationships", relCtrl.List)
	protected.GET("/relationships/:id/messages", msgCtrl.List)
	protected.POST("/relationships/:id/messages", msgCtrl.Send)
	protected.POST("/relationships/:id/reveal", relCtrl.RequestReveal)
	protected.GET("/relationships/:id/report", relCtrl.Report)
	protected.POST("/loveprints", lpCtrl.Submit)
	protected.GET("/prompts/daily", promptCtrl.Today)
	protected.POST("/prompts/daily/answer", promptCtrl.Answer)
	protected.GET("/users/:id/profile", profileCtrl.Get)

	return r, bus
}
