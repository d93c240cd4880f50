package webserver

import (
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/guild"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

// number accepts a JSON number or a numeric string; loosely-typed front-end
// clients submit both. Unmarshal never fails, parse problems surface as
// ok=false so handlers decide how strict to be.
type number struct {
	set bool
	ok  bool
	val float64
}

func (n *number) UnmarshalJSON(b []byte) error {
	n.set = true
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n.ok = true
	n.val = v
	return nil
}

type Vouches struct {
	store    GuildStore
	notify   Notifier
	guildID  string
	sanitize *bluemonday.Policy
}

func NewVouches(store GuildStore, notify Notifier, guildID string) Vouches {
	return Vouches{
		store:    store,
		notify:   notify,
		guildID:  guildID,
		sanitize: bluemonday.StrictPolicy(),
	}
}

// Create handles POST /api/vouch.
func (h Vouches) Create(c *gin.Context) {
	var req struct {
		Vendor    string `json:"vendor"`
		Vendeur   string `json:"vendeur"` // legacy field name still sent by old clients
		Note      number `json:"note"`
		Item      string `json:"item"`
		Qty       number `json:"qty"`
		Price     string `json:"price"`
		Payment   string `json:"payment"`
		Comment   string `json:"comment"`
		Anonymous bool   `json:"anonymous"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "invalid request body"})
		return
	}
	vendor := strings.TrimSpace(req.Vendor)
	if vendor == "" {
		vendor = strings.TrimSpace(req.Vendeur)
	}
	if vendor == "" || !req.Note.set {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "vendor and note are required"})
		return
	}
	if !req.Note.ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "note must be a number"})
		return
	}
	qty := 1
	if req.Qty.ok && req.Qty.val > 0 {
		qty = int(req.Qty.val)
	}
	p, _ := principalFrom(c)

	in := guild.VouchInput{
		Vendor:    vendor,
		Note:      req.Note.val,
		Item:      strings.TrimSpace(req.Item),
		Qty:       qty,
		Price:     strings.TrimSpace(req.Price),
		Payment:   strings.TrimSpace(req.Payment),
		Comment:   h.sanitize.Sanitize(strings.TrimSpace(req.Comment)),
		Anonymous: req.Anonymous,
	}

	var created types.Vouch
	doc, err := h.store.Update(c, h.guildID, func(d *types.GuildDoc) error {
		created = guild.AppendVouch(d, in, p, time.Now())
		return nil
	})
	if err != nil {
		log.Printf("vouch create: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "server error"})
		return
	}

	go h.notify.VouchCreated(h.guildID, created)

	c.JSON(http.StatusOK, gin.H{"ok": true, "id": created.ID, "nextId": doc.NextID})
}

// Delete handles DELETE /api/vouch/:id.
func (h Vouches) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "invalid vouch id"})
		return
	}
	doc, err := h.store.Modify(c, h.guildID, func(d *types.GuildDoc) error {
		return guild.DeleteVouch(d, id)
	})
	switch {
	case err == guild.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": "vouch not found"})
		return
	case err != nil:
		log.Printf("vouch delete: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "server error"})
		return
	}

	go h.notify.VouchDeleted(h.guildID, id, doc.NextID)

	c.JSON(http.StatusOK, gin.H{"ok": true, "nextId": doc.NextID})
}

// List handles GET /vouches: newest first, plus the reference lists the
// submit form needs.
func (h Vouches) List(c *gin.Context) {
	doc, err := h.store.Get(c, h.guildID)
	if err != nil && err != guild.ErrNotFound {
		log.Printf("vouch list: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "server error"})
		return
	}
	vouches := append([]types.Vouch(nil), doc.Vouches...)
	sort.SliceStable(vouches, func(i, j int) bool {
		return vouches[i].CreatedAt > vouches[j].CreatedAt
	})
	c.JSON(http.StatusOK, gin.H{
		"vouches":  vouches,
		"vendors":  emptyVendors(doc.Vendors),
		"items":    emptyStrings(doc.Items),
		"payments": emptyStrings(doc.Payments),
	})
}

// Leaderboard handles GET /leaderboard.
func (h Vouches) Leaderboard(c *gin.Context) {
	doc, err := h.store.Get(c, h.guildID)
	if err != nil && err != guild.ErrNotFound {
		log.Printf("leaderboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "server error"})
		return
	}
	rows := guild.Leaderboard(&doc)
	if rows == nil {
		rows = []guild.Row{}
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func emptyVendors(v []types.Vendor) []types.Vendor {
	if v == nil {
		return []types.Vendor{}
	}
	return v
}

func emptyStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
