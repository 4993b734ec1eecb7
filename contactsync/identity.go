package contactsync

import (
	"context"
	"encoding/json"

	"bitbucket.org/mmdatafocus/contactsync_backend/config"
	"bitbucket.org/mmdatafocus/contactsync_backend/models"
	"bitbucket.org/mmdatafocus/contactsync_backend/utils"
	"github.com/sirupsen/logrus"
)

// IdentityBridge is the gorm-backed IdentityStore. All its lookups fail
// soft: a lookup error is logged and reported as "not found" so a flaky
// CRM read never aborts a whole sync run.
type IdentityBridge struct {
	logger *logrus.Logger

	getMapping func(ctx context.Context, contactId int, plugin string) (*models.AccountMapping, models.MappingMiss, error)
}

func NewIdentityBridge(logger *logrus.Logger) *IdentityBridge {
	return &IdentityBridge{
		logger:     logger,
		getMapping: models.GetAccountMapping,
	}
}

// ConstituentFor resolves the CRM contact for a storefront user. A live
// session identity wins over the stored cross-reference; outside admin
// contexts a session is more authoritative than a historical record.
func (b *IdentityBridge) ConstituentFor(ctx context.Context, userId int) *models.Contact {
	if sessionContactId, ok := utils.GetSessionContactIdFromContext(ctx); ok && sessionContactId != 0 {
		contact, err := models.GetContact(ctx, sessionContactId)
		if err != nil {
			config.LogError(b.logger, "contactsync", "ConstituentFor", "session contact lookup failed", sessionContactId, err)
		} else if contact != nil {
			return contact
		}
	}

	if userId == 0 {
		return nil
	}

	contactId, err := models.FindContactIdByUserId(ctx, userId)
	if err != nil {
		config.LogError(b.logger, "contactsync", "ConstituentFor", "user cross-reference lookup failed", userId, err)
		return nil
	}
	if contactId == 0 {
		return nil
	}

	contact, err := models.GetContact(ctx, contactId)
	if err != nil {
		config.LogError(b.logger, "contactsync", "ConstituentFor", "contact lookup failed", contactId, err)
		return nil
	}
	return contact
}

func (b *IdentityBridge) ConstituentByEmail(ctx context.Context, email string) *models.Contact {
	contact, err := models.FindContactByEmail(ctx, email)
	if err != nil {
		config.LogError(b.logger, "contactsync", "ConstituentByEmail", "contact email lookup failed", email, err)
		return nil
	}
	return contact
}

// MappingFor reads the contact-to-ledger mapping. The three no-mapping cases
// are logged distinctly because they indicate different histories: never
// synced, schema drift, and a prior failed write.
func (b *IdentityBridge) MappingFor(ctx context.Context, contactId int) *models.AccountMapping {
	mapping, miss, err := b.getMapping(ctx, contactId, models.LedgerPluginXero)
	if err != nil {
		config.LogError(b.logger, "contactsync", "MappingFor", "mapping lookup failed", contactId, err)
		return nil
	}
	if mapping == nil {
		b.logger.WithFields(logrus.Fields{
			"module":     "contactsync",
			"contact_id": contactId,
			"miss":       miss.String(),
		}).Info("no usable account mapping")
		return nil
	}
	return mapping
}

func (b *IdentityBridge) UpsertMapping(ctx context.Context, contactId int, ledgerContactId string, displayName string, data []byte) error {
	_, err := models.UpsertAccountMapping(ctx, contactId, models.LedgerPluginXero, ledgerContactId, displayName, data)
	return err
}

// marshalDiagnostics serializes the ledger's response contact for the
// mapping row's diagnostic blob. Best effort; nil on failure.
func marshalDiagnostics(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
