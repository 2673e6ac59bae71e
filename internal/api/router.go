package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/openbook/hub/internal/account"
	"github.com/openbook/hub/internal/auth"
	"github.com/openbook/hub/internal/cache"
	"github.com/openbook/hub/internal/category"
	"github.com/openbook/hub/internal/community"
	"github.com/openbook/hub/internal/db"
	"github.com/openbook/hub/internal/feed"
	"github.com/openbook/hub/pkg/logging"
)

// Services bundles what the handlers call into
type Services struct {
	Accounts    *account.Service
	Communities *community.Service
	Categories  *category.Service
	Feed        *feed.Service
	Tokens      *auth.Tokens
}

// Router sets up API routes
type Router struct {
	services Services
	db       *db.DB
	cache    *cache.Cache
	logger   *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(database *db.DB, redisCache *cache.Cache, services Services) *Router {
	return &Router{
		services: services,
		db:       database,
		cache:    redisCache,
		logger:   logging.WithComponent("api-router"),
	}
}

// Engine builds a gin engine with the middleware stack and every route
func (r *Router) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), Tracing(), AccessLog(logging.WithComponent("http")))
	r.SetupRoutes(engine)
	return engine
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := engine.Group("/", Authenticate(r.services.Tokens, r.services.Accounts, r.logger))

	communities := authed.Group("/communities")
	communities.POST("", r.createCommunity)
	communities.GET("/:name", r.getCommunity)
	communities.POST("/:name/members/join", r.joinCommunity)
	communities.POST("/:name/members/leave", r.leaveCommunity)

	communities.GET("/:name/administrators", r.listUsers(r.services.Communities.ListAdministrators))
	communities.PUT("/:name/administrators", r.addUser(r.services.Communities.AddAdministrator))
	communities.DELETE("/:name/administrators/:username", r.removeUser(r.services.Communities.RemoveAdministrator))

	communities.GET("/:name/moderators", r.listUsers(r.services.Communities.ListModerators))
	communities.PUT("/:name/moderators", r.addUser(r.services.Communities.AddModerator))
	communities.DELETE("/:name/moderators/:username", r.removeUser(r.services.Communities.RemoveModerator))

	communities.GET("/:name/banned-users", r.listUsers(r.services.Communities.ListBannedUsers))
	communities.PUT("/:name/banned-users", r.addUser(r.services.Communities.BanUser))
	communities.DELETE("/:name/banned-users/:username", r.removeUser(r.services.Communities.UnbanUser))

	communities.GET("/:name/logs", r.listLogs)

	categories := authed.Group("/categories")
	categories.GET("", r.listCategories)
	categories.POST("", r.createCategory)
	categories.GET("/:name/communities", r.listCategoryCommunities)
	categories.PUT("/:name/communities", r.addCategoryCommunity)

	authed.GET("/hashtags/:name/posts", r.hashtagPosts)

	authed.DELETE("/users/me", r.deleteMe)
	authed.POST("/users/:username/block", r.blockUser)
	authed.POST("/users/:username/unblock", r.unblockUser)
	authed.POST("/posts/:id/report", r.reportPost)
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":  "OK",
		"service": "hub-api",
	}

	if err := r.db.Health(ctx); err != nil {
		r.logger.Warn("Database health check failed", zap.Error(err))
		status = http.StatusServiceUnavailable
		body["status"] = "DEGRADED"
		body["database"] = "unreachable"
	}
	if r.cache != nil {
		if err := r.cache.Health(ctx); err != nil {
			r.logger.Warn("Cache health check failed", zap.Error(err))
			body["cache"] = "unreachable"
		}
	}

	c.JSON(status, body)
}
