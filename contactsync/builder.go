package contactsync

import (
	"fmt"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/contactsync_backend/commerce"
	"bitbucket.org/mmdatafocus/contactsync_backend/models"
	"bitbucket.org/mmdatafocus/contactsync_backend/utils"
	"bitbucket.org/mmdatafocus/contactsync_backend/xero"
)

// BuildContactPayload assembles the canonical ledger contact payload from
// the resolved address, the CRM constituent (when matched) and the order.
//
// The registry treats name collisions as ambiguous matches, so the name
// carries a per-order suffix; ContactNumber carries the CRM contact id when
// known, else the order id, so every ledger contact traces back to its
// origin.
func BuildContactPayload(address commerce.Address, constituent *models.Contact, order commerce.Order) xero.Contact {
	firstName := strings.TrimSpace(address.FirstName)
	lastName := strings.TrimSpace(address.LastName)
	company := strings.TrimSpace(address.Company)

	var name string
	if company != "" {
		name = company
		if firstName != "" || lastName != "" {
			name += " - " + strings.TrimSpace(firstName+" "+lastName)
		}
	} else {
		name = strings.TrimSpace(firstName + " " + lastName)
	}

	if constituent != nil {
		name += fmt.Sprintf(" - CRM:%d", constituent.ID)
	}
	name += fmt.Sprintf(" - Order:%d", order.ID)

	contactNumber := strconv.Itoa(order.ID)
	if constituent != nil {
		contactNumber = strconv.Itoa(constituent.ID)
	}

	email := strings.TrimSpace(address.Email)
	if email == "" && constituent != nil {
		email = strings.TrimSpace(constituent.Email)
	}

	payload := xero.Contact{
		Name:          name,
		FirstName:     firstName,
		LastName:      lastName,
		EmailAddress:  email,
		ContactNumber: contactNumber,
	}

	if strings.TrimSpace(address.Phone) != "" {
		payload.Phones = []xero.Phone{
			{
				PhoneType:   xero.PhoneTypeDefault,
				PhoneNumber: utils.NormalizePhoneNumber(address.Phone),
			},
		}
	}

	if address.HasStreet() {
		// All six sub-fields are sent explicitly: the registry clears a
		// field on empty string and leaves it unchanged when absent.
		payload.Addresses = []xero.Address{
			{
				AddressType:  xero.AddressTypePOBox,
				AddressLine1: address.Address1,
				AddressLine2: address.Address2,
				City:         address.City,
				PostalCode:   address.Postcode,
				Country:      address.Country,
				Region:       address.State,
			},
		}
	}

	return payload
}
