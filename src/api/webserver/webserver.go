package webserver

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/config"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/data"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/discord"
)

func New(cfg config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	store := data.NewGuilds(db)
	notify := discord.NewNotifier(cfg, rdb)
	attachRoutes(g, cfg, store, notify, rdb)
	return g
}
