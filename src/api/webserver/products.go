package webserver

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/guild"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

type Products struct {
	store     GuildStore
	guildID   string
	uploadDir string
	sanitize  *bluemonday.Policy
}

func NewProducts(store GuildStore, guildID, uploadDir string) Products {
	return Products{
		store:     store,
		guildID:   guildID,
		uploadDir: uploadDir,
		sanitize:  bluemonday.StrictPolicy(),
	}
}

// List handles GET /products.
func (h Products) List(c *gin.Context) {
	doc, err := h.store.Get(c, h.guildID)
	if err != nil && err != guild.ErrNotFound {
		log.Printf("product list: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "server error"})
		return
	}
	products := doc.Products
	if products == nil {
		products = []types.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// Create handles POST /api/product. The body is either JSON with an image
// URL, or a multipart form carrying an upload.
func (h Products) Create(c *gin.Context) {
	var name, description, image, priceRaw string
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		name = c.PostForm("name")
		description = c.PostForm("description")
		priceRaw = c.PostForm("price")
		image = c.PostForm("image")
		if file, err := c.FormFile("image"); err == nil && file != nil {
			stored, err := h.saveUpload(c, file)
			if err != nil {
				log.Printf("product upload: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "upload rejected"})
				return
			}
			image = stored
		}
	} else {
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Price       number `json:"price"`
			Image       string `json:"image"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "invalid request body"})
			return
		}
		name = req.Name
		description = req.Description
		image = req.Image
		if req.Price.ok {
			priceRaw = strconv.FormatFloat(req.Price.val, 'f', -1, 64)
		}
	}

	name = h.sanitize.Sanitize(strings.TrimSpace(name))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "name is required"})
		return
	}
	description = h.sanitize.Sanitize(strings.TrimSpace(description))

	var price *float64
	if v, err := strconv.ParseFloat(strings.TrimSpace(priceRaw), 64); err == nil {
		price = &v
	}

	var created types.Product
	_, err := h.store.Update(c, h.guildID, func(d *types.GuildDoc) error {
		created = guild.AddProduct(d, name, description, price, strings.TrimSpace(image), time.Now())
		return nil
	})
	if err != nil {
		log.Printf("product create: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": created.ID})
}

// Update handles PUT /api/product/:id. Omitted fields keep their stored
// values.
func (h Products) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "invalid product id"})
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Image       *string `json:"image"`
		Price       *number `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "invalid request body"})
		return
	}
	patch := guild.ProductPatch{}
	if req.Name != nil {
		v := h.sanitize.Sanitize(strings.TrimSpace(*req.Name))
		patch.Name = &v
	}
	if req.Description != nil {
		v := h.sanitize.Sanitize(strings.TrimSpace(*req.Description))
		patch.Description = &v
	}
	if req.Image != nil {
		v := strings.TrimSpace(*req.Image)
		patch.Image = &v
	}
	if req.Price != nil {
		patch.HasPrice = true
		if req.Price.ok {
			v := req.Price.val
			patch.Price = &v
		}
	}

	_, err = h.store.Modify(c, h.guildID, func(d *types.GuildDoc) error {
		return guild.UpdateProduct(d, id, patch)
	})
	switch {
	case err == guild.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": "product not found"})
	case err != nil:
		log.Printf("product update: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "server error"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// Delete handles DELETE /api/product/:id. A stored upload is removed
// best-effort; a leftover file never fails the request.
func (h Products) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "invalid product id"})
		return
	}
	var removed types.Product
	_, err = h.store.Modify(c, h.guildID, func(d *types.GuildDoc) error {
		var err error
		removed, err = guild.DeleteProduct(d, id)
		return err
	})
	switch {
	case err == guild.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": "product not found"})
		return
	case err != nil:
		log.Printf("product delete: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "server error"})
		return
	}

	if strings.HasPrefix(removed.Image, "/uploads/") {
		path := filepath.Join(h.uploadDir, filepath.Base(removed.Image))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("product delete: remove image %s: %v", path, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// saveUpload stores the upload under a fresh name and returns the public
// path. Non-image extensions are rejected.
func (h Products) saveUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExts[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(h.uploadDir, name)); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}
