package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/guild"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
	"gorm.io/gorm"
)

// Guilds is the per-community document store. Every mutation is a whole
// document read-modify-write; writes for the same guild id are serialized
// through a keyed mutex so concurrent requests cannot lose updates.
type Guilds struct {
	db *gorm.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewGuilds(db *gorm.DB) *Guilds {
	return &Guilds{db: db, locks: make(map[string]*sync.Mutex)}
}

func (g *Guilds) lock(guildID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[guildID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[guildID] = l
	}
	return l
}

func decode(row types.Guild) (types.GuildDoc, error) {
	var doc types.GuildDoc
	if row.Doc == "" {
		return doc, nil
	}
	if err := json.Unmarshal([]byte(row.Doc), &doc); err != nil {
		return doc, fmt.Errorf("guild %s: decode doc: %w", row.GuildID, err)
	}
	return doc, nil
}

// Get loads the document for a guild, guild.ErrNotFound when no row exists.
func (g *Guilds) Get(ctx context.Context, guildID string) (types.GuildDoc, error) {
	var row types.Guild
	err := g.db.WithContext(ctx).First(&row, "guild_id = ?", guildID).Error
	if err == gorm.ErrRecordNotFound {
		return types.GuildDoc{}, guild.ErrNotFound
	}
	if err != nil {
		return types.GuildDoc{}, err
	}
	return decode(row)
}

// Update applies fn to the guild's document and persists the result, lazily
// creating the row when absent.
func (g *Guilds) Update(ctx context.Context, guildID string, fn func(*types.GuildDoc) error) (types.GuildDoc, error) {
	return g.apply(ctx, guildID, true, fn)
}

// Modify is Update without lazy creation: guild.ErrNotFound when no row
// exists (remove paths must not create empty documents).
func (g *Guilds) Modify(ctx context.Context, guildID string, fn func(*types.GuildDoc) error) (types.GuildDoc, error) {
	return g.apply(ctx, guildID, false, fn)
}

func (g *Guilds) apply(ctx context.Context, guildID string, create bool, fn func(*types.GuildDoc) error) (types.GuildDoc, error) {
	l := g.lock(guildID)
	l.Lock()
	defer l.Unlock()

	var row types.Guild
	err := g.db.WithContext(ctx).First(&row, "guild_id = ?", guildID).Error
	switch {
	case err == gorm.ErrRecordNotFound && create:
		row = types.Guild{GuildID: guildID}
	case err == gorm.ErrRecordNotFound:
		return types.GuildDoc{}, guild.ErrNotFound
	case err != nil:
		return types.GuildDoc{}, err
	}

	doc, err := decode(row)
	if err != nil {
		return types.GuildDoc{}, err
	}
	if err := fn(&doc); err != nil {
		return doc, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return doc, fmt.Errorf("guild %s: encode doc: %w", guildID, err)
	}
	row.Doc = string(raw)
	if err := g.db.WithContext(ctx).Save(&row).Error; err != nil {
		return doc, err
	}
	return doc, nil
}
