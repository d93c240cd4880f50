package types

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Guild is the persisted row for one community. The whole vouch board lives
// in Doc as a single JSON document; fetch/mutate/save always moves the full
// document (see data.Guilds for the write serialization).
type Guild struct {
	ID        uint64 `gorm:"primaryKey"`
	GuildID   string `gorm:"size:64;unique;not null"`
	Doc       string `gorm:"type:longtext"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GuildDoc is the JSON document stored in Guild.Doc.
type GuildDoc struct {
	Vouches  []Vouch   `json:"vouches"`
	NextID   int       `json:"nextId"`
	Vendors  []Vendor  `json:"vendors"`
	Items    []string  `json:"items"`
	Payments []string  `json:"payments"`
	Products []Product `json:"products"`

	// Pointers to the last summary messages posted by the relay.
	LastLeaderboard MessageRef `json:"lastLeaderboard"`
	LastProducts    MessageRef `json:"lastProducts"`
}

// Vouch is one member-submitted vendor review. IDs are ordinals: after any
// delete the surviving set is renumbered 1..N by CreatedAt.
type Vouch struct {
	ID           int     `json:"id"`
	VendorID     string  `json:"vendorId,omitempty"`
	VendorLabel  string  `json:"vendorLabel"`
	Note         float64 `json:"note"`
	Item         string  `json:"item"`
	Qty          int     `json:"qty"`
	Price        string  `json:"price"`
	Payment      string  `json:"payment"`
	Comment      string  `json:"comment"`
	AuthorID     string  `json:"authorId"`
	AuthorTag    string  `json:"authorTag"`
	AuthorAvatar string  `json:"authorAvatar"`
	Anonymous    bool    `json:"anonymous"`
	CreatedAt    int64   `json:"createdAt"` // epoch milliseconds
}

// Vendor is one entry of the admin-curated vendor reference list. ID is a
// Discord user id when the admin provided one, empty otherwise.
type Vendor struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
}

// Product is one catalog entry.
type Product struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Image       string   `json:"image"`
	CreatedAt   int64    `json:"createdAt"` // epoch milliseconds
}

// UnmarshalJSON tolerates the malformed product entries older documents carry:
// ids and prices stored as strings, or as values that are not numbers at all.
// An unusable id decodes to 0 and an unusable price to nil, so repair can
// reassign them instead of the whole document failing to load.
func (p *Product) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID          json.RawMessage `json:"id"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       json.RawMessage `json:"price"`
		Image       string          `json:"image"`
		CreatedAt   int64           `json:"createdAt"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.ID = 0
	if n, ok := looseNumber(raw.ID); ok {
		p.ID = int(n)
	}
	p.Price = nil
	if n, ok := looseNumber(raw.Price); ok {
		p.Price = &n
	}
	p.Name = raw.Name
	p.Description = raw.Description
	p.Image = raw.Image
	p.CreatedAt = raw.CreatedAt
	return nil
}

// looseNumber reads a JSON number, or a string holding one.
func looseNumber(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	s = strings.Trim(s, `"`)
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MessageRef points at a posted Discord message.
type MessageRef struct {
	ChannelID string `json:"channelId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

// Principal is the authenticated user attached to a request by the session
// middleware. Admin is derived once, at login, from the guild permission bits.
type Principal struct {
	ID     string `json:"id"`
	Tag    string `json:"tag"`
	Avatar string `json:"avatar"`
	Admin  bool   `json:"admin"`
}
