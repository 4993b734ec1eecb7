package contactsync

import (
	"context"
	"io"

	"bitbucket.org/mmdatafocus/contactsync_backend/models"
	"bitbucket.org/mmdatafocus/contactsync_backend/xero"
	"github.com/sirupsen/logrus"
)

// NOTE: These tests are intentionally DB-free. The identity bridge and the
// registry client are replaced with in-memory fakes; the gorm-backed and
// HTTP-backed implementations are exercised against real MySQL and a
// registry sandbox outside this suite.

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type upsertCall struct {
	contactId       int
	ledgerContactId string
	displayName     string
}

type fakeIdentity struct {
	byUser    map[int]*models.Contact
	byEmail   map[string]*models.Contact
	mappings  map[int]*models.AccountMapping
	upserts   []upsertCall
	upsertErr error
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		byUser:   map[int]*models.Contact{},
		byEmail:  map[string]*models.Contact{},
		mappings: map[int]*models.AccountMapping{},
	}
}

func (f *fakeIdentity) ConstituentFor(ctx context.Context, userId int) *models.Contact {
	return f.byUser[userId]
}

func (f *fakeIdentity) ConstituentByEmail(ctx context.Context, email string) *models.Contact {
	return f.byEmail[email]
}

func (f *fakeIdentity) MappingFor(ctx context.Context, contactId int) *models.AccountMapping {
	return f.mappings[contactId]
}

func (f *fakeIdentity) UpsertMapping(ctx context.Context, contactId int, ledgerContactId string, displayName string, data []byte) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, upsertCall{
		contactId:       contactId,
		ledgerContactId: ledgerContactId,
		displayName:     displayName,
	})
	f.mappings[contactId] = &models.AccountMapping{
		ContactId:           contactId,
		AccountsContactId:   ledgerContactId,
		AccountsDisplayName: displayName,
	}
	return nil
}

type fakeLedger struct {
	searches      []string
	searchResults map[string][]xero.Contact
	searchErrs    map[string]error

	createCalls  [][]xero.Contact
	createResult []xero.Contact
	createErr    error

	updateCalls  [][]xero.Contact
	updateResult []xero.Contact
	updateErr    error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		searchResults: map[string][]xero.Contact{},
		searchErrs:    map[string]error{},
	}
}

func (f *fakeLedger) SearchContacts(ctx context.Context, where string) ([]xero.Contact, error) {
	f.searches = append(f.searches, where)
	if err := f.searchErrs[where]; err != nil {
		return nil, err
	}
	return f.searchResults[where], nil
}

func (f *fakeLedger) CreateContacts(ctx context.Context, contacts []xero.Contact) ([]xero.Contact, error) {
	f.createCalls = append(f.createCalls, contacts)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createResult != nil {
		return f.createResult, nil
	}
	// Default: echo with an assigned identifier, like the registry does.
	out := make([]xero.Contact, len(contacts))
	copy(out, contacts)
	for i := range out {
		out[i].ContactID = "reg-created-1"
	}
	return out, nil
}

func (f *fakeLedger) UpdateContacts(ctx context.Context, contacts []xero.Contact) ([]xero.Contact, error) {
	f.updateCalls = append(f.updateCalls, contacts)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updateResult != nil {
		return f.updateResult, nil
	}
	out := make([]xero.Contact, len(contacts))
	copy(out, contacts)
	return out, nil
}

func (f *fakeLedger) Organisation(ctx context.Context) (*xero.Organisation, error) {
	return &xero.Organisation{Name: "Demo Org"}, nil
}
