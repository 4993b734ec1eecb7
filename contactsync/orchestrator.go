package contactsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/contactsync_backend/commerce"
	"bitbucket.org/mmdatafocus/contactsync_backend/config"
	"bitbucket.org/mmdatafocus/contactsync_backend/utils"
	"bitbucket.org/mmdatafocus/contactsync_backend/xero"
	"github.com/sirupsen/logrus"
)

// SyncState tracks a run through the orchestrator. Failed is terminal and
// reachable from any step; a failed run is never retried here. The
// upstream event re-delivering is the retry path, and every step is safe to
// re-invoke.
type SyncState string

const (
	StateStart            SyncState = "Start"
	StateAddressResolved  SyncState = "AddressResolved"
	StateIdentityResolved SyncState = "IdentityResolved"
	StatePayloadBuilt     SyncState = "PayloadBuilt"
	StateLocated          SyncState = "Located"
	StateCreating         SyncState = "Creating"
	StateUpdating         SyncState = "Updating"
	StateMappingPersisted SyncState = "MappingPersisted"
	StateDone             SyncState = "Done"
	StateFailed           SyncState = "Failed"
)

type writeMode string

const (
	writeModeCreate writeMode = "create"
	writeModeUpdate writeMode = "update"
)

// Orchestrator drives one order through locate, create-or-update, mapping
// persist, and outcome logging. Collaborators are injected; there is no
// ambient global state beyond the config accessors the collaborators use.
type Orchestrator struct {
	identity IdentityStore
	ledger   LedgerClient
	locator  *Locator
	logs     *LogStore
	logger   *logrus.Logger

	syncEnabled func() bool
	obtainLock  func(ctx context.Context, contactId int) (func(), error)
}

func NewOrchestrator(identity IdentityStore, ledger LedgerClient, logs *LogStore, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		identity:    identity,
		ledger:      ledger,
		locator:     NewLocator(identity, ledger, logger),
		logs:        logs,
		logger:      logger,
		syncEnabled: config.ContactSyncEnabled,
		obtainLock:  obtainContactLock,
	}
}

func obtainContactLock(ctx context.Context, contactId int) (func(), error) {
	lock, err := utils.ObtainContactLock(ctx, contactId, 30*time.Second)
	if err != nil {
		return nil, err
	}
	return func() { _ = lock.Release(context.Background()) }, nil
}

// SyncOrder runs the full state machine for one order status event. The
// returned state is Done, Failed, or Done-via-bypass; callers do not branch
// on it beyond logging; outcomes surface through the audit log.
func (o *Orchestrator) SyncOrder(ctx context.Context, event commerce.OrderStatusEvent) SyncState {
	state := StateStart
	order := event.Order
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	log := o.logger.WithFields(logrus.Fields{
		"module":         "contactsync",
		"order_id":       order.ID,
		"old_status":     event.OldStatus,
		"new_status":     event.NewStatus,
		"correlation_id": correlationId,
	})

	if !o.syncEnabled() {
		o.logs.Success("contact sync disabled; order skipped", order.ID, "")
		return StateDone
	}

	address := ResolveAddress(order)
	state = StateAddressResolved

	constituent := o.identity.ConstituentFor(ctx, order.UserId)
	state = StateIdentityResolved

	payload := BuildContactPayload(address, constituent, order)
	state = StatePayloadBuilt

	constituentId := 0
	if constituent != nil {
		constituentId = constituent.ID
	}

	// Best-effort per-constituent serialization: two orders for the same
	// customer racing past the mapping store would both take the create
	// path. A lost lock is degraded, not fatal: the registry's id
	// stability and the mapping upsert still converge.
	if constituentId != 0 {
		release, err := o.obtainLock(ctx, constituentId)
		if err != nil {
			log.WithField("contact_id", constituentId).Warn("could not obtain contact lock; proceeding without it: " + err.Error())
		} else {
			defer release()
		}
	}

	existing, source := o.locator.Locate(ctx, payload.EmailAddress, payload.ContactNumber, constituentId)
	state = StateLocated

	// An empty remote identifier is never usable: a corrupted mapping row
	// must take the create path rather than silently update an undefined
	// remote record.
	if existing != nil && strings.TrimSpace(existing.ContactID) == "" {
		log.Warn("located contact has empty remote identifier; treating as not found")
		existing = nil
		source = LocateSourceNone
	}

	mode := writeModeCreate
	if existing != nil {
		mode = writeModeUpdate
		payload.ContactID = existing.ContactID
		state = StateUpdating
	} else {
		state = StateCreating
	}

	result, err := o.writeRemote(ctx, payload, mode)
	if err != nil {
		o.fail(log, order.ID, state, fmt.Sprintf("failed to %s ledger contact: %v", mode, err))
		return StateFailed
	}

	if constituentId == 0 {
		// Valid contact, but nothing to key a mapping row by. Reduced
		// traceability, not an error.
		o.logs.Success(fmt.Sprintf("ledger contact %sd without CRM mapping (no constituent match)", mode), order.ID, result.ContactID)
		return StateDone
	}

	// Create path: first mapping write. Update path via mapping store: a
	// no-op refresh confirming consistency. Update path via remote search:
	// first observation of the correspondence; writing it now self-heals
	// the mapping store over time.
	if err := o.identity.UpsertMapping(ctx, constituentId, result.ContactID, result.Name, marshalDiagnostics(result)); err != nil {
		o.fail(log, order.ID, state, fmt.Sprintf("ledger contact %sd but mapping write failed: %v", mode, err))
		return StateFailed
	}
	state = StateMappingPersisted

	switch {
	case mode == writeModeCreate:
		o.logs.Success("ledger contact created", order.ID, result.ContactID)
	case source == LocateSourceRemote:
		o.logs.Success("ledger contact updated; mapping recorded from registry match", order.ID, result.ContactID)
	default:
		o.logs.Success("ledger contact updated", order.ID, result.ContactID)
	}
	log.WithField("state", state).Info("contact sync completed")

	return StateDone
}

// writeRemote performs the create or update call and validates the
// response. Both paths share the same single-element batch shape; only the
// registry verb differs.
func (o *Orchestrator) writeRemote(ctx context.Context, payload xero.Contact, mode writeMode) (*xero.Contact, error) {
	var (
		contacts []xero.Contact
		err      error
	)
	if mode == writeModeCreate {
		contacts, err = o.ledger.CreateContacts(ctx, []xero.Contact{payload})
	} else {
		contacts, err = o.ledger.UpdateContacts(ctx, []xero.Contact{payload})
	}
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, fmt.Errorf("registry returned no contact")
	}

	// Accepting a malformed response would corrupt the mapping store with
	// an unusable reference, so missing fields are a hard failure.
	result := contacts[0]
	if strings.TrimSpace(result.ContactID) == "" {
		return nil, fmt.Errorf("registry response missing contact identifier")
	}
	if strings.TrimSpace(result.Name) == "" {
		return nil, fmt.Errorf("registry response missing contact name")
	}
	return &result, nil
}

func (o *Orchestrator) fail(log *logrus.Entry, orderId int, state SyncState, message string) {
	log.WithField("state", state).Error(message)
	o.logs.Error(message, orderId)
}
