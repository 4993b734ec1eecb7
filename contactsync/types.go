package contactsync

import (
	"context"

	"bitbucket.org/mmdatafocus/contactsync_backend/models"
	"bitbucket.org/mmdatafocus/contactsync_backend/xero"
)

// LedgerClient is the surface of the remote contact registry this package
// consumes. *xero.Client satisfies it; tests substitute fakes.
type LedgerClient interface {
	SearchContacts(ctx context.Context, where string) ([]xero.Contact, error)
	CreateContacts(ctx context.Context, contacts []xero.Contact) ([]xero.Contact, error)
	UpdateContacts(ctx context.Context, contacts []xero.Contact) ([]xero.Contact, error)
	Organisation(ctx context.Context) (*xero.Organisation, error)
}

// IdentityStore is the identity bridge: it resolves a local identity to a
// CRM contact, and a CRM contact to its recorded ledger contact id. Lookups
// fail soft; implementations log and return nil rather than propagate
// lookup errors.
type IdentityStore interface {
	ConstituentFor(ctx context.Context, userId int) *models.Contact
	ConstituentByEmail(ctx context.Context, email string) *models.Contact
	MappingFor(ctx context.Context, contactId int) *models.AccountMapping
	UpsertMapping(ctx context.Context, contactId int, ledgerContactId string, displayName string, data []byte) error
}

type ConnectRequest struct {
	TenantId     string `json:"tenantId" validate:"required"`
	ClientId     string `json:"clientId" validate:"required"`
	ClientSecret string `json:"clientSecret" validate:"required"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ConnectionResponse struct {
	Status   string `json:"status"`
	TenantId string `json:"tenantId"`
}

type StatusResponse struct {
	Connection        ConnectionResponse `json:"connection"`
	SyncEnabled       bool               `json:"syncEnabled"`
	LastSyncAt        *string            `json:"lastSyncAt"`
	LastSuccessSyncAt *string            `json:"lastSuccessSyncAt"`
}

type TestConnectionResponse struct {
	Connected    bool   `json:"connected"`
	Organisation string `json:"organisation,omitempty"`
	Error        string `json:"error,omitempty"`
}

type LogEntryResponse struct {
	Timestamp       string `json:"timestamp"`
	Kind            string `json:"kind"`
	Message         string `json:"message"`
	OrderId         *int   `json:"orderId,omitempty"`
	LedgerContactId string `json:"ledgerContactId,omitempty"`
}

type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}
