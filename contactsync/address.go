package contactsync

import (
	"bitbucket.org/mmdatafocus/contactsync_backend/commerce"
)

// ResolveAddress picks the best available address for an order: billing when
// its street line is filled, else shipping, else billing verbatim. The last
// case deliberately returns an address with an empty street line: it may
// still carry email/phone fields the payload builder needs, so callers must
// treat HasStreet as the "usable postal address" signal rather than rely on
// a nil return.
func ResolveAddress(order commerce.Order) commerce.Address {
	billing := order.Address(commerce.AddressKindBilling)
	if billing.HasStreet() {
		return billing
	}

	shipping := order.Address(commerce.AddressKindShipping)
	if shipping.HasStreet() {
		return shipping
	}

	return billing
}
