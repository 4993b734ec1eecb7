package commerce

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Kinds of order addresses exposed by the storefront.
type AddressKind string

const (
	AddressKindBilling  AddressKind = "billing"
	AddressKindShipping AddressKind = "shipping"
)

// Address is one storefront address block. Every field is always present on
// the wire; absent storefront fields arrive as empty strings.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	State     string `json:"state"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// HasStreet reports whether the primary line is usable. An address without a
// street line may still carry email/phone contact fields.
func (a Address) HasStreet() bool {
	return strings.TrimSpace(a.Address1) != ""
}

// Order is the storefront transaction record as delivered in a status-change
// event. The storefront owns it; this service only reads it.
type Order struct {
	ID       int             `json:"id"`
	UserId   int             `json:"user_id"` // 0 for guest checkout
	Billing  Address         `json:"billing"`
	Shipping Address         `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

func (o Order) Address(kind AddressKind) Address {
	if kind == AddressKindShipping {
		return o.Shipping
	}
	return o.Billing
}

// OrderStatusEvent is the upstream trigger: a storefront order changed
// status. The full order record rides along so the sync never has to call
// back into the storefront.
type OrderStatusEvent struct {
	OrderId       int    `json:"order_id"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
	Order         Order  `json:"order"`
	CorrelationId string `json:"correlation_id"`
}
