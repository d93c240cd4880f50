package guild

import (
	"testing"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
)

func TestAddVendorNeverDeduplicates(t *testing.T) {
	doc := &types.GuildDoc{}
	AddVendor(doc, "", "Alice Shop")
	AddVendor(doc, "111", "Alice Shop")
	AddVendor(doc, "", "Alice Shop")
	if len(doc.Vendors) != 3 {
		t.Fatalf("got %d vendors, want 3", len(doc.Vendors))
	}
}

func TestRemoveVendorMatchesIDOrLabel(t *testing.T) {
	doc := &types.GuildDoc{Vendors: []types.Vendor{
		{ID: "111", Label: "Alice Shop"},
		{Label: "Bob Shop"},
	}}
	if err := RemoveVendor(doc, "111"); err != nil {
		t.Fatalf("remove by id: %v", err)
	}
	if len(doc.Vendors) != 1 || doc.Vendors[0].Label != "Bob Shop" {
		t.Fatalf("vendors = %+v", doc.Vendors)
	}
	if err := RemoveVendor(doc, "Bob Shop"); err != nil {
		t.Fatalf("remove by label: %v", err)
	}
	if err := RemoveVendor(doc, "ghost"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRemoveVendorDropsEverySharedLabel(t *testing.T) {
	doc := &types.GuildDoc{Vendors: []types.Vendor{
		{ID: "111", Label: "Twin"},
		{ID: "222", Label: "Twin"},
		{Label: "Other"},
	}}
	if err := RemoveVendor(doc, "Twin"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(doc.Vendors) != 1 || doc.Vendors[0].Label != "Other" {
		t.Fatalf("vendors = %+v", doc.Vendors)
	}
}

func TestAddItemIsSetLike(t *testing.T) {
	doc := &types.GuildDoc{}
	AddItem(doc, "skin")
	AddItem(doc, "skin")
	if len(doc.Items) != 1 {
		t.Fatalf("duplicate item inserted: %v", doc.Items)
	}
	AddItem(doc, "account")
	if len(doc.Items) != 2 {
		t.Fatalf("items = %v", doc.Items)
	}
}

func TestRemoveItemExactMatchOnly(t *testing.T) {
	doc := &types.GuildDoc{Items: []string{"skin", "account"}}
	if err := RemoveItem(doc, "skin"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := RemoveItem(doc, "Skin"); err != ErrNotFound {
		t.Fatalf("case-insensitive match slipped through: %v", err)
	}
	if len(doc.Items) != 1 || doc.Items[0] != "account" {
		t.Fatalf("items = %v", doc.Items)
	}
}

func TestPaymentsMirrorItemSemantics(t *testing.T) {
	doc := &types.GuildDoc{}
	AddPayment(doc, "paypal")
	AddPayment(doc, "paypal")
	if len(doc.Payments) != 1 {
		t.Fatalf("payments = %v", doc.Payments)
	}
	if err := RemovePayment(doc, "crypto"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := RemovePayment(doc, "paypal"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(doc.Payments) != 0 {
		t.Fatalf("payments = %v", doc.Payments)
	}
}
