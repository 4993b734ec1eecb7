package xero

// Wire types for the ledger's contact API. Field names match the registry's
// own casing.
//
// Update semantics: an absent field means "leave unchanged" and an empty
// field means "clear". Payload address blocks therefore carry all six
// sub-fields explicitly (empty strings included), while the optional
// Phones/Addresses blocks are omitted entirely when not attached.

const (
	PhoneTypeDefault = "DEFAULT"

	// AddressTypePOBox is the registry's mailing address kind, used on
	// invoices.
	AddressTypePOBox = "POBOX"
)

type Phone struct {
	PhoneType   string `json:"PhoneType"`
	PhoneNumber string `json:"PhoneNumber"`
}

type Address struct {
	AddressType  string `json:"AddressType"`
	AddressLine1 string `json:"AddressLine1"`
	AddressLine2 string `json:"AddressLine2"`
	City         string `json:"City"`
	PostalCode   string `json:"PostalCode"`
	Country      string `json:"Country"`
	Region       string `json:"Region"`
}

type Contact struct {
	ContactID     string    `json:"ContactID,omitempty"`
	ContactNumber string    `json:"ContactNumber,omitempty"`
	Name          string    `json:"Name"`
	FirstName     string    `json:"FirstName,omitempty"`
	LastName      string    `json:"LastName,omitempty"`
	EmailAddress  string    `json:"EmailAddress"`
	ContactStatus string    `json:"ContactStatus,omitempty"`
	Phones        []Phone   `json:"Phones,omitempty"`
	Addresses     []Address `json:"Addresses,omitempty"`
}

type contactsEnvelope struct {
	Contacts []Contact `json:"Contacts"`
}

type Organisation struct {
	OrganisationID string `json:"OrganisationID"`
	Name           string `json:"Name"`
	CountryCode    string `json:"CountryCode"`
	BaseCurrency   string `json:"BaseCurrency"`
}

type organisationsEnvelope struct {
	Organisations []Organisation `json:"Organisations"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}
