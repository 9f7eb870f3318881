package app

import (
	"net/http"

	"goalpact/internal/service/matching"
	"goalpact/internal/service/notification"
	"goalpact/internal/service/partnership"
	"goalpact/internal/service/preference"
	"goalpact/internal/service/sharedgoal"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Routes struct {
	r *gin.Engine
}

func NewRoutes(r *gin.Engine) *Routes {
	return &Routes{
		r: r,
	}
}

func (o *Routes) setupInfraRoutes() {
	o.r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	o.r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	o.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// identityMiddleware resolves the caller from the X-User-ID header set
// by the edge proxy. Requests without it are rejected.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

// setupPreferenceRoutes registers matching-preference endpoints
func (o *Routes) setupPreferenceRoutes(pv *preference.Service) {
	preferenceHandler := preference.NewHandler(pv)

	authorized := o.r.Group("/", identityMiddleware())
	{
		authorized.PUT("/preferences", preferenceHandler.UpsertPreferences)
		authorized.GET("/preferences", preferenceHandler.GetPreferences)
	}
}

// setupMatchingRoutes registers candidate discovery and match creation
func (o *Routes) setupMatchingRoutes(mv *matching.Service) {
	matchingHandler := matching.NewHandler(mv)

	authorized := o.r.Group("/", identityMiddleware())
	{
		authorized.GET("/matching/candidates", matchingHandler.FindCandidates)
		authorized.POST("/matching/find", matchingHandler.FindPartner)
	}
}

// setupPartnershipRoutes registers partnership lifecycle endpoints
func (o *Routes) setupPartnershipRoutes(pv *partnership.Service, sv *sharedgoal.Service) {
	partnershipHandler := partnership.NewHandler(pv)
	statsHandler := sharedgoal.NewHandler(sv)

	authorized := o.r.Group("/", identityMiddleware())
	{
		authorized.POST("/partnerships/request", partnershipHandler.RequestPartnership)
		authorized.GET("/partnerships/current", partnershipHandler.GetCurrent)
		authorized.POST("/partnerships/:id/accept", partnershipHandler.Accept)
		authorized.POST("/partnerships/:id/decline", partnershipHandler.Decline)
		authorized.POST("/partnerships/:id/pause", partnershipHandler.Pause)
		authorized.POST("/partnerships/:id/resume", partnershipHandler.Resume)
		authorized.POST("/partnerships/:id/end", partnershipHandler.End)
		authorized.GET("/partnerships/:id/stats", statsHandler.Stats)
	}
}

// setupGoalRoutes registers shared-goal and task endpoints
func (o *Routes) setupGoalRoutes(sv *sharedgoal.Service) {
	goalHandler := sharedgoal.NewHandler(sv)

	authorized := o.r.Group("/", identityMiddleware())
	{
		authorized.POST("/goals", goalHandler.CreateGoal)
		authorized.GET("/goals", goalHandler.ListGoals)
		authorized.POST("/goals/:id/tasks", goalHandler.CreateTask)
		authorized.GET("/goals/:id/tasks", goalHandler.ListTasks)
		authorized.POST("/tasks/:id/start", goalHandler.StartTask)
		authorized.POST("/tasks/:id/done", goalHandler.MarkDone)
		authorized.POST("/tasks/:id/verify", goalHandler.Verify)
		authorized.GET("/tasks/pending-verification", goalHandler.PendingVerification)
	}
}

// setupNotificationRoutes registers notification feed endpoints
func (o *Routes) setupNotificationRoutes(nv *notification.Service) {
	notificationHandler := notification.NewHandler(nv)

	authorized := o.r.Group("/", identityMiddleware())
	{
		authorized.GET("/notifications", notificationHandler.ListNotifications)
		authorized.POST("/notifications/:id/read", notificationHandler.MarkRead)
	}
}
