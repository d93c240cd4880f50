// Package guild holds the pure operations over a community's vouch-board
// document. Nothing here touches storage; callers load a document, apply an
// operation and persist the result (see data.Guilds).
package guild

import (
	"errors"
	"regexp"
	"sort"
	"time"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
)

// ErrNotFound is returned when a referenced vouch, vendor, item, payment or
// product does not exist in the document.
var ErrNotFound = errors.New("guild: not found")

// UnknownVendor is the leaderboard key for vouches without any vendor data.
const UnknownVendor = "Unknown"

var allDigits = regexp.MustCompile(`^\d+$`)

// VouchInput carries the already-validated fields for a new vouch. Vendor is
// the raw reference the member typed (vendor id or label).
type VouchInput struct {
	Vendor    string
	Note      float64
	Item      string
	Qty       int
	Price     string
	Payment   string
	Comment   string
	Anonymous bool
}

// resolveVendor matches ref against the reference list, first match by id
// equality then label equality. The stored id is only carried over when it is
// purely numeric (a Discord user id).
func resolveVendor(doc *types.GuildDoc, ref string) (id, label string) {
	for _, v := range doc.Vendors {
		if (v.ID != "" && v.ID == ref) || v.Label == ref {
			if allDigits.MatchString(v.ID) {
				id = v.ID
			}
			return id, v.Label
		}
	}
	// Unknown references are stored verbatim as the label.
	return "", ref
}

// AppendVouch resolves the vendor, appends a new vouch and resequences. The
// returned vouch carries its final id.
func AppendVouch(doc *types.GuildDoc, in VouchInput, author types.Principal, now time.Time) types.Vouch {
	vendorID, vendorLabel := resolveVendor(doc, in.Vendor)
	qty := in.Qty
	if qty <= 0 {
		qty = 1
	}
	v := types.Vouch{
		ID:           doc.NextID,
		VendorID:     vendorID,
		VendorLabel:  vendorLabel,
		Note:         in.Note,
		Item:         in.Item,
		Qty:          qty,
		Price:        in.Price,
		Payment:      in.Payment,
		Comment:      in.Comment,
		AuthorID:     author.ID,
		AuthorTag:    author.Tag,
		AuthorAvatar: author.Avatar,
		Anonymous:    in.Anonymous,
		CreatedAt:    now.UnixMilli(),
	}
	if v.ID <= 0 {
		v.ID = len(doc.Vouches) + 1
	}
	doc.Vouches = append(doc.Vouches, v)
	Resequence(doc)
	// Existing vouches may carry a later CreatedAt (clock skew, imported
	// data), so the new one is not necessarily last. The stable sort keeps
	// it at the end of its CreatedAt run, so scan from the back.
	for i := len(doc.Vouches) - 1; i >= 0; i-- {
		if doc.Vouches[i].CreatedAt == v.CreatedAt {
			return doc.Vouches[i]
		}
	}
	return v
}

// DeleteVouch removes the vouch with the given id and resequences the rest.
func DeleteVouch(doc *types.GuildDoc, id int) error {
	kept := doc.Vouches[:0]
	for _, v := range doc.Vouches {
		if v.ID != id {
			kept = append(kept, v)
		}
	}
	if len(kept) == len(doc.Vouches) {
		return ErrNotFound
	}
	doc.Vouches = kept
	Resequence(doc)
	return nil
}

// Resequence renumbers all vouches 1..N ascending by CreatedAt and resets
// NextID to N+1. Ids are ordinals, not permanent identifiers: "vouch #7" is
// always the seventh-oldest vouch.
func Resequence(doc *types.GuildDoc) {
	sort.SliceStable(doc.Vouches, func(i, j int) bool {
		return doc.Vouches[i].CreatedAt < doc.Vouches[j].CreatedAt
	})
	for i := range doc.Vouches {
		doc.Vouches[i].ID = i + 1
	}
	doc.NextID = len(doc.Vouches) + 1
}

// Row is one leaderboard entry.
type Row struct {
	Rank   int    `json:"rank"`
	Vendor string `json:"vendor"`
	Count  int    `json:"count"`
}

// Leaderboard groups vouches by vendor key (id, else label, else the unknown
// sentinel) and ranks the groups by descending count. Ties keep the order of
// first appearance. All-digit keys are rendered as an @-mention.
func Leaderboard(doc *types.GuildDoc) []Row {
	counts := map[string]int{}
	var order []string
	for _, v := range doc.Vouches {
		key := v.VendorID
		if key == "" {
			key = v.VendorLabel
		}
		if key == "" {
			key = UnknownVendor
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	rows := make([]Row, 0, len(order))
	for i, key := range order {
		vendor := key
		if allDigits.MatchString(key) {
			vendor = "@" + key
		}
		rows = append(rows, Row{Rank: i + 1, Vendor: vendor, Count: counts[key]})
	}
	return rows
}
