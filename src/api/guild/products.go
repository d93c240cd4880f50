package guild

import (
	"strings"
	"time"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
)

// UnnamedProduct is the name fallback applied by RepairProducts.
const UnnamedProduct = "Unnamed product"

// AddProduct appends a catalog entry. Ids are max(existing)+1 and, unlike
// vouch ids, never resequenced.
func AddProduct(doc *types.GuildDoc, name, description string, price *float64, image string, now time.Time) types.Product {
	maxID := 0
	for _, p := range doc.Products {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	p := types.Product{
		ID:          maxID + 1,
		Name:        name,
		Description: description,
		Price:       price,
		Image:       image,
		CreatedAt:   now.UnixMilli(),
	}
	doc.Products = append(doc.Products, p)
	return p
}

// ProductPatch is a shallow merge: nil fields keep the stored value. HasPrice
// distinguishes "leave the price alone" from "set it to Price" (which may be
// nil for an unparsable submission).
type ProductPatch struct {
	Name        *string
	Description *string
	Image       *string
	Price       *float64
	HasPrice    bool
}

// UpdateProduct merges patch over the product with the given id.
func UpdateProduct(doc *types.GuildDoc, id int, patch ProductPatch) error {
	for i := range doc.Products {
		if doc.Products[i].ID != id {
			continue
		}
		p := &doc.Products[i]
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Image != nil {
			p.Image = *patch.Image
		}
		if patch.HasPrice {
			p.Price = patch.Price
		}
		return nil
	}
	return ErrNotFound
}

// DeleteProduct removes the product with the given id and returns it so the
// caller can clean up an uploaded image.
func DeleteProduct(doc *types.GuildDoc, id int) (types.Product, error) {
	for i, p := range doc.Products {
		if p.ID == id {
			doc.Products = append(doc.Products[:i], doc.Products[i+1:]...)
			return p, nil
		}
	}
	return types.Product{}, ErrNotFound
}

// RepairProducts is an idempotent cleanup pass over possibly-corrupt
// historical entries: invalid ids become index+1, duplicate ids are dropped
// keeping the first occurrence, strings are trimmed with fallback defaults,
// a missing price becomes 0 and a missing CreatedAt becomes now.
func RepairProducts(doc *types.GuildDoc, now time.Time) {
	fixed := make([]types.Product, 0, len(doc.Products))
	for i, p := range doc.Products {
		if p.ID <= 0 {
			p.ID = i + 1
		}
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			p.Name = UnnamedProduct
		}
		p.Description = strings.TrimSpace(p.Description)
		p.Image = strings.TrimSpace(p.Image)
		if p.Price == nil {
			zero := 0.0
			p.Price = &zero
		}
		if p.CreatedAt == 0 {
			p.CreatedAt = now.UnixMilli()
		}
		fixed = append(fixed, p)
	}
	seen := map[int]bool{}
	deduped := fixed[:0]
	for _, p := range fixed {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		deduped = append(deduped, p)
	}
	doc.Products = deduped
}
