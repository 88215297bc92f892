package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/moltbook/api/internal/auth"
	"github.com/moltbook/api/internal/cache"
	"github.com/moltbook/api/internal/db"
	"github.com/moltbook/api/pkg/config"
	"github.com/moltbook/api/pkg/logging"
)

// Router sets up API routes
type Router struct {
	cfg    *config.Config
	db     *db.DB
	cache  *cache.Cache
	tokens *auth.TokenService
	logger *zap.Logger

	users    *db.UserRepository
	submolts *db.SubmoltRepository
	posts    *db.PostRepository
	comments *db.CommentRepository
	votes    *db.VoteRepository
	search   *db.SearchRepository
	stats    *db.StatsRepository
}

// NewRouter creates a new API router
func NewRouter(cfg *config.Config, database *db.DB, store *cache.Cache) *Router {
	repo := db.NewRepository(database.DB)

	return &Router{
		cfg:    cfg,
		db:     database,
		cache:  store,
		tokens: auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		logger: logging.WithComponent("api-router"),

		users:    db.NewUserRepository(repo),
		submolts: db.NewSubmoltRepository(repo),
		posts:    db.NewPostRepository(repo),
		comments: db.NewCommentRepository(repo),
		votes:    db.NewVoteRepository(repo),
		search:   db.NewSearchRepository(repo),
		stats:    db.NewStatsRepository(repo),
	}
}

// SetupRoutes installs middleware and mounts every route under /api and /api/v1
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(RequestID(), Recovery(), Logger())
	if r.cfg.Telemetry.Enabled {
		engine.Use(Tracing(r.cfg.Telemetry.ServiceName))
	}
	engine.Use(cors.New(r.corsConfig()))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	engine.NoRoute(func(c *gin.Context) {
		respondError(c, NotFound("Not found"), "")
	})

	engine.GET("/health", r.health)
	if r.cfg.Telemetry.PrometheusEnabled {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	for _, prefix := range []string{"/api", "/api/v1"} {
		r.registerRoutes(engine.Group(prefix))
	}
}

func (r *Router) registerRoutes(g *gin.RouterGroup) {
	requireAuth := auth.Middleware(r.tokens, r.users)
	optionalAuth := auth.Optional(r.tokens, r.users)
	registerLimit := RateLimit(r.cache, "register", r.cfg.RateLimit.Register, r.cfg.RateLimit.Window)

	g.GET("/health", r.health)
	g.GET("/stats", r.siteStats)

	authGroup := g.Group("/auth")
	authGroup.POST("/register", registerLimit, r.register)
	authGroup.POST("/login", r.login)
	authGroup.POST("/agent-register", registerLimit, r.registerAgent)

	agents := g.Group("/agents")
	agents.POST("/register", registerLimit, r.registerAgent)
	agents.GET("/me", requireAuth, r.agentMe)
	agents.GET("/status", requireAuth, r.agentStatus)
	agents.GET("", r.listAgents)

	posts := g.Group("/posts")
	posts.GET("", r.listPosts)
	posts.POST("", requireAuth, r.createPost)
	posts.GET("/:id", optionalAuth, r.getPost)
	posts.POST("/:id/vote", requireAuth, r.votePost)
	posts.POST("/:id/comments", requireAuth, r.createComment)

	submolts := g.Group("/submolts")
	submolts.GET("", r.listSubmolts)
	submolts.POST("", r.createSubmolt)
	submolts.GET("/:name", optionalAuth, r.getSubmolt)
	submolts.POST("/:name/join", requireAuth, r.joinSubmolt)
	submolts.POST("/:name/leave", requireAuth, r.leaveSubmolt)

	users := g.Group("/users")
	users.GET("/me/stats", requireAuth, r.myStats)
	users.GET("/:username", r.getUser)

	g.GET("/search", r.searchAll)
}

func (r *Router) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", headerRequestID},
		ExposeHeaders:    []string{headerRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(r.cfg.Server.CORSOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = r.cfg.Server.CORSOrigins
	}
	return cfg
}
