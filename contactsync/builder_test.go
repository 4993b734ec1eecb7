package contactsync

import (
	"testing"

	"bitbucket.org/mmdatafocus/contactsync_backend/commerce"
	"bitbucket.org/mmdatafocus/contactsync_backend/models"
	"bitbucket.org/mmdatafocus/contactsync_backend/xero"
)

func TestBuildContactPayload_NameWithCompanyAndConstituent(t *testing.T) {
	address := commerce.Address{
		FirstName: "Jane",
		LastName:  "Smith",
		Company:   "Acme Ltd",
		Email:     "jane@acme.example",
	}
	constituent := &models.Contact{ID: 42, Email: "jane@crm.example"}
	order := commerce.Order{ID: 1001}

	payload := BuildContactPayload(address, constituent, order)

	if payload.Name != "Acme Ltd - Jane Smith - CRM:42 - Order:1001" {
		t.Fatalf("unexpected name %q", payload.Name)
	}
	if payload.ContactNumber != "42" {
		t.Fatalf("expected constituent id as contact number, got %q", payload.ContactNumber)
	}
	if payload.EmailAddress != "jane@acme.example" {
		t.Fatalf("expected address email to win, got %q", payload.EmailAddress)
	}
}

func TestBuildContactPayload_NameWithoutCompanyOrConstituent(t *testing.T) {
	address := commerce.Address{FirstName: "Jane", LastName: "Smith"}
	order := commerce.Order{ID: 1001}

	payload := BuildContactPayload(address, nil, order)

	if payload.Name != "Jane Smith - Order:1001" {
		t.Fatalf("unexpected name %q", payload.Name)
	}
	if payload.ContactNumber != "1001" {
		t.Fatalf("expected order id as contact number, got %q", payload.ContactNumber)
	}
}

func TestBuildContactPayload_EmailFallsBackToConstituent(t *testing.T) {
	address := commerce.Address{FirstName: "Jane"}
	constituent := &models.Contact{ID: 42, Email: "jane@crm.example"}

	payload := BuildContactPayload(address, constituent, commerce.Order{ID: 7})
	if payload.EmailAddress != "jane@crm.example" {
		t.Fatalf("expected constituent email fallback, got %q", payload.EmailAddress)
	}
}

func TestBuildContactPayload_PhoneOnlyWhenPresent(t *testing.T) {
	withPhone := BuildContactPayload(commerce.Address{Phone: "+64 21 555 1234"}, nil, commerce.Order{ID: 7})
	if len(withPhone.Phones) != 1 {
		t.Fatalf("expected one phone entry, got %d", len(withPhone.Phones))
	}
	if withPhone.Phones[0].PhoneType != xero.PhoneTypeDefault {
		t.Fatalf("expected DEFAULT phone type, got %q", withPhone.Phones[0].PhoneType)
	}

	withoutPhone := BuildContactPayload(commerce.Address{}, nil, commerce.Order{ID: 7})
	if withoutPhone.Phones != nil {
		t.Fatalf("expected no phone block, got %+v", withoutPhone.Phones)
	}
}

func TestBuildContactPayload_AddressBlockOnlyWithStreet(t *testing.T) {
	address := commerce.Address{
		Address1: "12 Queen St",
		City:     "Auckland",
		Postcode: "1010",
		Country:  "NZ",
		State:    "Auckland",
	}

	payload := BuildContactPayload(address, nil, commerce.Order{ID: 7})
	if len(payload.Addresses) != 1 {
		t.Fatalf("expected one address block, got %d", len(payload.Addresses))
	}
	block := payload.Addresses[0]
	if block.AddressType != xero.AddressTypePOBox {
		t.Fatalf("expected POBOX type, got %q", block.AddressType)
	}
	// AddressLine2 stays as an explicit empty string so the registry clears
	// any stale value.
	if block.AddressLine2 != "" || block.AddressLine1 != "12 Queen St" {
		t.Fatalf("unexpected address lines %+v", block)
	}

	noStreet := BuildContactPayload(commerce.Address{Email: "x@example.com"}, nil, commerce.Order{ID: 7})
	if noStreet.Addresses != nil {
		t.Fatalf("expected no address block, got %+v", noStreet.Addresses)
	}
}

func TestBuildContactPayload_AllNamePartsEmptyKeepsOrderSuffix(t *testing.T) {
	payload := BuildContactPayload(commerce.Address{}, nil, commerce.Order{ID: 1001})
	if payload.Name != " - Order:1001" {
		t.Fatalf("expected bare order suffix, got %q", payload.Name)
	}
}
