package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"chama/config"
	"chama/internal/handler"
	"chama/internal/middleware"
	"chama/internal/repository"
	"chama/internal/service"
)

// Setup wires repositories, services and handlers and returns the engine plus
// the reconciliation service so main can run the sweep on its own schedule.
func Setup(cfg *config.Config, db *gorm.DB) (*gin.Engine, *service.ReconcileService) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CorrelationID())
	r.Use(middleware.RateLimit(middleware.NewSlidingWindowLimiter(100, 60*time.Second)))

	// Repositories
	tontineRepo := repository.NewTontineRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	contributionRepo := repository.NewContributionRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	locks := service.NewTontineLocks()
	notifSvc := service.NewNotificationService(notificationRepo)
	tontineSvc := service.NewTontineService(db, &cfg.Tontine, tontineRepo, memberRepo)
	inviteSvc := service.NewInviteService(db, &cfg.Tontine, locks, notifSvc, tontineRepo, memberRepo, inviteRepo, contributionRepo)
	roundSvc := service.NewRoundService(db, locks, notifSvc, tontineRepo, memberRepo, contributionRepo, payoutRepo, auditRepo)
	reconcileSvc := service.NewReconcileService(db, locks, roundSvc, tontineRepo, memberRepo, contributionRepo, payoutRepo, auditRepo)
	statsSvc := service.NewStatsService(tontineRepo, memberRepo, contributionRepo, payoutRepo)

	// Handlers
	tontineHandler := handler.NewTontineHandler(tontineSvc, statsSvc, roundSvc, inviteSvc)
	inviteHandler := handler.NewInviteHandler(inviteSvc)
	contributionHandler := handler.NewContributionHandler(roundSvc)
	dashboardHandler := handler.NewDashboardHandler(statsSvc, notificationRepo)
	webhookHandler := handler.NewPaymentWebhookHandler(reconcileSvc, cfg)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		tontines := api.Group("/tontines")
		tontines.Use(authMw)
		{
			tontines.POST("", tontineHandler.Create)
			tontines.GET("", tontineHandler.List)
			tontines.GET("/:id", tontineHandler.Get)
			tontines.PATCH("/:id", tontineHandler.Update)
			tontines.POST("/:id/cancel", tontineHandler.Cancel)
			tontines.DELETE("/:id", tontineHandler.Delete)
			tontines.GET("/:id/stats", tontineHandler.Stats)
			tontines.GET("/:id/members", tontineHandler.Members)
			tontines.POST("/:id/members", tontineHandler.AddMembers)
			tontines.DELETE("/:id/members/:userID", tontineHandler.RemoveMember)
			tontines.POST("/:id/payout", tontineHandler.TriggerPayout)
			tontines.POST("/:id/invites", inviteHandler.Create)
			tontines.GET("/:id/invites", inviteHandler.ListForTontine)
			tontines.POST("/:id/invites/:inviteID/approve", inviteHandler.Approve)
		}

		invites := api.Group("/invites")
		invites.Use(authMw)
		{
			invites.POST("/accept", inviteHandler.AcceptByToken)
			invites.POST("/:id/accept", inviteHandler.Accept)
			invites.POST("/:id/decline", inviteHandler.Decline)
			invites.POST("/:id/resend", inviteHandler.Resend)
		}

		contributions := api.Group("/contributions")
		contributions.Use(authMw)
		{
			contributions.POST("", contributionHandler.Record)
			contributions.GET("", contributionHandler.List)
			contributions.POST("/:id/pay", contributionHandler.MarkPaid)
			contributions.POST("/:id/late", contributionHandler.MarkLate)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/dashboard", dashboardHandler.Dashboard)
			me.GET("/notifications", dashboardHandler.Notifications)
			me.PATCH("/notifications/:id/read", dashboardHandler.MarkNotificationRead)
		}

		// Webhook is authenticated by signature, not JWT.
		api.POST("/webhooks/payments", webhookHandler.Handle)
	}

	return r, reconcileSvc
}
