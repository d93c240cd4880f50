package webserver

import (
	"log"
	"net/http"
	"strings"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/guild"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
	"github.com/gin-gonic/gin"
)

// Lists serves the admin reference-list surface: vendors, items and payment
// methods.
type Lists struct {
	store   GuildStore
	guildID string
}

func NewLists(store GuildStore, guildID string) Lists {
	return Lists{store: store, guildID: guildID}
}

// Show handles GET /config.
func (h Lists) Show(c *gin.Context) {
	doc, err := h.store.Get(c, h.guildID)
	if err != nil && err != guild.ErrNotFound {
		log.Printf("config show: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"gid":      h.guildID,
		"vendors":  emptyVendors(doc.Vendors),
		"items":    emptyStrings(doc.Items),
		"payments": emptyStrings(doc.Payments),
	})
}

// AddVendor handles POST /api/config/vendor/add. Duplicate labels are
// deliberately allowed.
func (h Lists) AddVendor(c *gin.Context) {
	var req struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "invalid request body"})
		return
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "label is required"})
		return
	}
	_, err := h.store.Update(c, h.guildID, func(d *types.GuildDoc) error {
		guild.AddVendor(d, strings.TrimSpace(req.ID), label)
		return nil
	})
	if err != nil {
		log.Printf("vendor add: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RemoveVendor handles POST /api/config/vendor/remove. The key matches either
// a vendor id or a label.
func (h Lists) RemoveVendor(c *gin.Context) {
	var req struct {
		Key string `json:"key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "invalid request body"})
		return
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "vendor key is required"})
		return
	}
	h.remove(c, func(d *types.GuildDoc) error { return guild.RemoveVendor(d, key) }, "vendor not found")
}

// AddItem handles POST /api/config/item/add.
func (h Lists) AddItem(c *gin.Context) {
	h.addNamed(c, guild.AddItem)
}

// RemoveItem handles POST /api/config/item/remove.
func (h Lists) RemoveItem(c *gin.Context) {
	name, ok := bindName(c)
	if !ok {
		return
	}
	h.remove(c, func(d *types.GuildDoc) error { return guild.RemoveItem(d, name) }, "item not found")
}

// AddPayment handles POST /api/config/payment/add.
func (h Lists) AddPayment(c *gin.Context) {
	h.addNamed(c, guild.AddPayment)
}

// RemovePayment handles POST /api/config/payment/remove.
func (h Lists) RemovePayment(c *gin.Context) {
	name, ok := bindName(c)
	if !ok {
		return
	}
	h.remove(c, func(d *types.GuildDoc) error { return guild.RemovePayment(d, name) }, "payment not found")
}

func bindName(c *gin.Context) (string, bool) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "invalid request body"})
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "name is required"})
		return "", false
	}
	return name, true
}

func (h Lists) addNamed(c *gin.Context, add func(*types.GuildDoc, string)) {
	name, ok := bindName(c)
	if !ok {
		return
	}
	_, err := h.store.Update(c, h.guildID, func(d *types.GuildDoc) error {
		add(d, name)
		return nil
	})
	if err != nil {
		log.Printf("list add: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Lists) remove(c *gin.Context, fn func(*types.GuildDoc) error, missing string) {
	_, err := h.store.Modify(c, h.guildID, fn)
	switch {
	case err == guild.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": missing})
	case err != nil:
		log.Printf("list remove: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "server error"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
