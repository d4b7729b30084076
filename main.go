package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/rayen-brigui/altv-athena/api/rest"
	apows "github.com/rayen-brigui/altv-athena/api/ws"
	"github.com/rayen-brigui/altv-athena/audit"
	"github.com/rayen-brigui/altv-athena/cache"
	"github.com/rayen-brigui/altv-athena/config"
	dbadapter "github.com/rayen-brigui/altv-athena/db"
	"github.com/rayen-brigui/altv-athena/game/inventory"
	"github.com/rayen-brigui/altv-athena/game/player"
	"github.com/rayen-brigui/altv-athena/game/world"
	mw "github.com/rayen-brigui/altv-athena/middleware"
	"github.com/rayen-brigui/altv-athena/model"
	"github.com/rayen-brigui/altv-athena/plugin/hook"
	"github.com/rayen-brigui/altv-athena/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Game Systems ----
	hooks := hook.NewHookCenter()
	rules := inventory.NewRuleRegistry(logger)
	ground := inventory.NewGroundStore()
	sm := player.NewSessionManager(logger)
	wm := world.NewManager(sm, ground, pubsub, cfg.Game, logger)
	inv := inventory.NewService(db, cfg.Game, rules, ground, hooks, wm, auditSvc, logger)

	// ---- Periodic Scheduler Tasks ----
	if cfg.Game.DropLifetimeS > 0 {
		sched.AddTicker("ground_sweep", time.Duration(cfg.Game.GroundSweepS)*time.Second, wm.SweepExpired)
	}
	sched.AddTicker("position_save", 5*time.Minute, func() {
		for _, s := range sm.All() {
			if s.CharID == 0 {
				continue
			}
			pos, heading, dim := s.Position()
			db.Model(&model.Character{}).Where("id = ?", s.CharID).Updates(map[string]interface{}{
				"pos_x": pos.X, "pos_y": pos.Y, "pos_z": pos.Z,
				"heading": heading, "dimension": dim,
			})
		}
	})

	// ---- WS Router ----
	wsRouter := apows.NewRouter(logger)
	wsH := apows.NewHandler(db, c, cfg.Security, sm, wm, inv, hooks, wsRouter, logger)
	wsH.RegisterSessionHandlers()
	wsH.RegisterInventoryHandlers()

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security)
	charH := apirest.NewCharacterHandler(db, cfg.Game)
	invH := apirest.NewInventoryHandler(db, inv)
	adminH := apirest.NewAdminHandler(db, sm, wm, ground, sched, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		charsG := api.Group("/characters")
		charsG.Use(mw.Auth(cfg.Security, c))
		charsG.GET("", charH.List)
		charsG.POST("", charH.Create)
		charsG.GET("/:id", charH.Get)
		charsG.DELETE("/:id", charH.Delete)
		charsG.GET("/:id/inventory", invH.Get)

		adminG := api.Group("/admin")
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		if len(cfg.Security.AdminIPs) > 0 {
			adminG.Use(mw.IPWhitelist(cfg.Security.AdminIPs))
		}
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/players", adminH.ListPlayers)
		adminG.GET("/ground", adminH.ListGroundItems)
		adminG.DELETE("/ground", adminH.ClearGround)
		adminG.POST("/kick/:id", adminH.KickPlayer)
		adminG.POST("/accounts/:id/ban", adminH.BanAccount)
	}

	// ---- WebSocket ----
	r.GET("/ws", wsH.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
