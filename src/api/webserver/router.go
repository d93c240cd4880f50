package webserver

import (
	"context"
	"net/http"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/config"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// GuildStore is the per-community document store consumed by the handlers.
// data.Guilds is the MySQL implementation; tests plug in a fake.
type GuildStore interface {
	Get(ctx context.Context, guildID string) (types.GuildDoc, error)
	Update(ctx context.Context, guildID string, fn func(*types.GuildDoc) error) (types.GuildDoc, error)
	Modify(ctx context.Context, guildID string, fn func(*types.GuildDoc) error) (types.GuildDoc, error)
}

// Notifier is the best-effort fan-out invoked after vouch mutations.
type Notifier interface {
	VouchCreated(guildID string, v types.Vouch)
	VouchDeleted(guildID string, id, nextID int)
}

func attachRoutes(r *gin.Engine, cfg config.Config, store GuildStore, notify Notifier, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:" + cfg.Port},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	r.Use(Principals([]byte(cfg.SessionSecret)))

	authH := NewAuth(cfg, rdb)
	vouchH := NewVouches(store, notify, cfg.GuildID)
	listH := NewLists(store, cfg.GuildID)
	prodH := NewProducts(store, cfg.GuildID, cfg.UploadDir)

	r.GET("/", home)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	r.GET("/auth/discord", authH.Login)
	r.GET("/auth/discord/callback", authH.Callback)
	r.GET("/logout", authH.Logout)
	r.GET("/login-failed", authH.LoginFailed)

	r.Static("/uploads", cfg.UploadDir)

	authed := r.Group("", RequireAuthenticated())
	{
		authed.GET("/vouches", vouchH.List)
		authed.GET("/leaderboard", vouchH.Leaderboard)
		authed.GET("/products", prodH.List)
		authed.POST("/api/vouch", vouchH.Create)
	}

	admin := r.Group("", RequireAdmin())
	{
		admin.GET("/config", listH.Show)
		admin.DELETE("/api/vouch/:id", vouchH.Delete)

		admin.POST("/api/config/vendor/add", listH.AddVendor)
		admin.POST("/api/config/vendor/remove", listH.RemoveVendor)
		admin.POST("/api/config/item/add", listH.AddItem)
		admin.POST("/api/config/item/remove", listH.RemoveItem)
		admin.POST("/api/config/payment/add", listH.AddPayment)
		admin.POST("/api/config/payment/remove", listH.RemovePayment)

		admin.POST("/api/product", prodH.Create)
		admin.PUT("/api/product/:id", prodH.Update)
		admin.DELETE("/api/product/:id", prodH.Delete)
	}
}

func home(c *gin.Context) {
	if p, ok := principalFrom(c); ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": p})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}
