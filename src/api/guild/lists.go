package guild

import "github.com/ZIKOpl/SITE-VOUCH/src/api/types"

// AddVendor appends to the vendor list. Duplicate labels are allowed; only
// items and payments are set-like.
func AddVendor(doc *types.GuildDoc, id, label string) {
	doc.Vendors = append(doc.Vendors, types.Vendor{ID: id, Label: label})
}

// RemoveVendor drops every vendor whose id or label equals key.
func RemoveVendor(doc *types.GuildDoc, key string) error {
	kept := doc.Vendors[:0]
	for _, v := range doc.Vendors {
		if v.ID != key && v.Label != key {
			kept = append(kept, v)
		}
	}
	if len(kept) == len(doc.Vendors) {
		return ErrNotFound
	}
	doc.Vendors = kept
	return nil
}

// AddItem inserts name unless already present (no-op on duplicates).
func AddItem(doc *types.GuildDoc, name string) {
	doc.Items = addUnique(doc.Items, name)
}

// RemoveItem removes an exact match.
func RemoveItem(doc *types.GuildDoc, name string) error {
	out, err := removeExact(doc.Items, name)
	if err != nil {
		return err
	}
	doc.Items = out
	return nil
}

// AddPayment inserts name unless already present (no-op on duplicates).
func AddPayment(doc *types.GuildDoc, name string) {
	doc.Payments = addUnique(doc.Payments, name)
}

// RemovePayment removes an exact match.
func RemovePayment(doc *types.GuildDoc, name string) error {
	out, err := removeExact(doc.Payments, name)
	if err != nil {
		return err
	}
	doc.Payments = out
	return nil
}

func addUnique(list []string, name string) []string {
	for _, s := range list {
		if s == name {
			return list
		}
	}
	return append(list, name)
}

func removeExact(list []string, name string) ([]string, error) {
	kept := list[:0]
	for _, s := range list {
		if s != name {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(list) {
		return list, ErrNotFound
	}
	return kept, nil
}
