package contactsync

import (
	"testing"

	"bitbucket.org/mmdatafocus/contactsync_backend/commerce"
)

func TestResolveAddress_PrefersBillingWhenStreetPresent(t *testing.T) {
	order := commerce.Order{
		Billing:  commerce.Address{Address1: "12 Queen St", City: "Auckland"},
		Shipping: commerce.Address{Address1: "99 Depot Rd", City: "Hamilton"},
	}

	got := ResolveAddress(order)
	if got.Address1 != "12 Queen St" {
		t.Fatalf("expected billing address, got %q", got.Address1)
	}
}

func TestResolveAddress_FallsBackToShipping(t *testing.T) {
	order := commerce.Order{
		Billing:  commerce.Address{Address1: "   ", Email: "buyer@example.com"},
		Shipping: commerce.Address{Address1: "99 Depot Rd", City: "Hamilton"},
	}

	got := ResolveAddress(order)
	if got.Address1 != "99 Depot Rd" {
		t.Fatalf("expected shipping address, got %q", got.Address1)
	}
}

func TestResolveAddress_ReturnsBillingVerbatimWhenNeitherHasStreet(t *testing.T) {
	order := commerce.Order{
		Billing:  commerce.Address{Email: "buyer@example.com", Phone: "021 555 1234"},
		Shipping: commerce.Address{},
	}

	got := ResolveAddress(order)
	if got.HasStreet() {
		t.Fatalf("expected no usable street line, got %q", got.Address1)
	}
	// Contact fields survive even without a street line.
	if got.Email != "buyer@example.com" || got.Phone != "021 555 1234" {
		t.Fatalf("expected billing contact fields to be preserved, got %+v", got)
	}
}
