package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"unoserver/database"
	"unoserver/uno"
	"unoserver/uno/actions"
	"unoserver/uno/engine"
	"unoserver/uno/registry"
	"unoserver/uno/store"
	"unoserver/uno/voice"
	"unoserver/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

func main() {
	logger, err := utils.InitLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	// Redis (session store, required) and Postgres (archive, optional)
	// initialize concurrently.
	var db *gorm.DB
	var rdb *redis.Client
	done := make(chan bool)

	go func() {
		config, err := database.LoadConfig("config.json")
		if err != nil {
			logger.Warn("No config.json, running without the Postgres archive", zap.Error(err))
		} else {
			db, err = database.InitPostgreSQL(config, logger)
			if err != nil {
				logger.Warn("Postgres unavailable, running without the archive", zap.Error(err))
				db = nil
			}
		}
		done <- true
	}()

	go func() {
		rdb, err = database.InitRedis(logger)
		if err != nil {
			logger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		done <- true
	}()

	<-done
	<-done

	retention := store.DefaultRetention
	if hours, err := strconv.Atoi(os.Getenv("ROOM_RETENTION_HOURS")); err == nil && hours > 0 {
		retention = time.Duration(hours) * time.Hour
	}

	sessionStore := store.New(rdb, db, retention, logger)
	deps := &actions.Deps{
		Registry: registry.New(),
		Sessions: engine.NewManager(),
		Store:    sessionStore,
		Voice:    voice.NewRelay(),
		Logger:   logger,
	}

	// Hourly active sweep backing up the passive Redis TTL expiry.
	go utils.CronSweeper(sessionStore, retention, logger)

	router := gin.Default()
	router.Use(gin.Recovery(), utils.RequestLogger(logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	adminSecret := os.Getenv("ADMIN_SECRET")
	if adminSecret == "" {
		adminSecret = "uno-clear-2024"
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Maintenance surface: wipe every persisted room, gated by the
	// shared secret.
	router.GET("/admin/clear-rooms", func(c *gin.Context) {
		if c.Query("secret") != adminSecret {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden — wrong secret"})
			return
		}
		deleted, err := sessionStore.DeleteAll(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted})
	})

	router.GET("/ws", func(c *gin.Context) {
		uno.HandleConnections(c.Request.Context(), c.Writer, c.Request, deps, upgrader, logger)
	})

	router.Run()
}
