// fix-products is the maintenance pass over the product catalog: it assigns
// ids to malformed entries, drops duplicate ids (first occurrence wins) and
// normalizes the remaining fields. Safe to run repeatedly.
package main

import (
	"context"
	"log"
	"time"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/config"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/data"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/guild"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
)

func main() {
	cfg := config.Load()
	db := data.MustMySQL(cfg.MySQLDSN)
	store := data.NewGuilds(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	before := 0
	doc, err := store.Modify(ctx, cfg.GuildID, func(d *types.GuildDoc) error {
		before = len(d.Products)
		guild.RepairProducts(d, time.Now())
		return nil
	})
	if err == guild.ErrNotFound {
		log.Printf("no document for guild %s, nothing to repair", cfg.GuildID)
		return
	}
	if err != nil {
		log.Fatalf("repair: %v", err)
	}
	log.Printf("repaired products for guild %s: %d -> %d entries", cfg.GuildID, before, len(doc.Products))
}
