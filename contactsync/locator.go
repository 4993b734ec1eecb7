package contactsync

import (
	"context"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/contactsync_backend/config"
	"bitbucket.org/mmdatafocus/contactsync_backend/utils"
	"bitbucket.org/mmdatafocus/contactsync_backend/xero"
	"github.com/sirupsen/logrus"
)

// LocateSource reports which stage produced a locate hit. The orchestrator
// uses it on the update path: a remote-search hit means the mapping store
// has never seen this correspondence and should be written now.
type LocateSource int

const (
	LocateSourceNone LocateSource = iota
	LocateSourceMapping
	LocateSourceRemote
)

// Locator decides whether a matching ledger contact already exists.
type Locator struct {
	identity IdentityStore
	ledger   LedgerClient
	logger   *logrus.Logger
}

func NewLocator(identity IdentityStore, ledger LedgerClient, logger *logrus.Logger) *Locator {
	return &Locator{identity: identity, ledger: ledger, logger: logger}
}

// Locate searches, stopping at the first hit:
//
//  1. the mapping store (authoritative; bypasses remote search entirely),
//  2. the registry by ContactNumber when a reference number was supplied,
//  3. the registry by EmailAddress.
//
// constituentId may be 0; stage 1 then falls back to a reverse email
// lookup. A malformed email is treated as absent so it never reaches the
// registry as a filter value. A failure in any stage is logged and treated
// as a miss for that stage only, and the chain continues.
func (l *Locator) Locate(ctx context.Context, email string, refNumber string, constituentId int) (*xero.Contact, LocateSource) {
	email = strings.TrimSpace(email)
	if !utils.IsValidEmail(email) {
		email = ""
	}
	refNumber = strings.TrimSpace(refNumber)

	// Stage 1: mapping store.
	contactId := constituentId
	if contactId == 0 && email != "" {
		if constituent := l.identity.ConstituentByEmail(ctx, email); constituent != nil {
			contactId = constituent.ID
		}
	}
	if contactId != 0 {
		if mapping := l.identity.MappingFor(ctx, contactId); mapping != nil {
			return &xero.Contact{
				ContactID:     mapping.AccountsContactId,
				Name:          mapping.AccountsDisplayName,
				ContactNumber: strconv.Itoa(contactId),
			}, LocateSourceMapping
		}
	}

	// Stage 2: registry by reference number.
	if refNumber != "" {
		contacts, err := l.ledger.SearchContacts(ctx, xero.EqualsFilter("ContactNumber", refNumber))
		if err != nil {
			config.LogError(l.logger, "contactsync", "Locate", "registry search by contact number failed", refNumber, err)
		} else if len(contacts) > 0 {
			return &contacts[0], LocateSourceRemote
		}
	}

	// Stage 3: registry by email.
	if email != "" {
		contacts, err := l.ledger.SearchContacts(ctx, xero.EqualsFilter("EmailAddress", email))
		if err != nil {
			config.LogError(l.logger, "contactsync", "Locate", "registry search by email failed", email, err)
		} else if len(contacts) > 0 {
			return &contacts[0], LocateSourceRemote
		}
	}

	return nil, LocateSourceNone
}
