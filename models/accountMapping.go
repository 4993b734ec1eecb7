package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/contactsync_backend/config"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const (
	LedgerPluginXero = "xero"
)

// AccountMapping is the durable cross-reference from a CRM contact to a
// remote ledger contact, scoped by plugin tag. At most one row exists per
// (contact_id, plugin) pair; rows are updated in place, never duplicated,
// and never deleted by normal operation.
type AccountMapping struct {
	ID                   uint       `gorm:"primary_key" json:"id"`
	ContactId            int        `gorm:"uniqueIndex:idx_account_mapping,priority:1;not null" json:"contact_id"`
	Plugin               string     `gorm:"uniqueIndex:idx_account_mapping,priority:2;size:50;not null" json:"plugin"`
	AccountsContactId    string     `gorm:"size:128" json:"accounts_contact_id"`
	AccountsDisplayName  string     `gorm:"size:255" json:"accounts_display_name"`
	AccountsModifiedDate *time.Time `json:"accounts_modified_date"`
	AccountsNeedsUpdate  *bool      `gorm:"not null;default:false" json:"accounts_needs_update"`
	AccountsDataJSON     []byte     `gorm:"type:json" json:"accounts_data"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// MappingMiss distinguishes why no usable mapping was found. The three
// cases indicate different failure histories: never synced, schema drift,
// and a prior failed write.
type MappingMiss int

const (
	MappingMissNone MappingMiss = iota
	MappingMissNoRecord
	MappingMissNoField
	MappingMissEmptyValue
)

func (m MappingMiss) String() string {
	switch m {
	case MappingMissNoRecord:
		return "no mapping record"
	case MappingMissNoField:
		return "mapping record lacks accounts_contact_id column"
	case MappingMissEmptyValue:
		return "mapping record has empty accounts_contact_id"
	default:
		return "mapping found"
	}
}

// GetAccountMapping reads the mapping row for a contact. The row is read as
// a raw column map so that a structurally missing identifier column (schema
// drift) can be told apart from a present-but-empty value.
func GetAccountMapping(ctx context.Context, contactId int, plugin string) (*AccountMapping, MappingMiss, error) {
	row := map[string]interface{}{}
	err := config.GetDB().WithContext(ctx).
		Model(&AccountMapping{}).
		Where("contact_id = ? AND plugin = ?", contactId, plugin).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, MappingMissNoRecord, nil
		}
		return nil, MappingMissNone, err
	}

	raw, ok := row["accounts_contact_id"]
	if !ok {
		return nil, MappingMissNoField, nil
	}
	// The MySQL driver scans VARCHAR into []byte.
	var accountsId string
	switch v := raw.(type) {
	case string:
		accountsId = v
	case []byte:
		accountsId = string(v)
	}
	if strings.TrimSpace(accountsId) == "" {
		return nil, MappingMissEmptyValue, nil
	}

	var mapping AccountMapping
	if err := config.GetDB().WithContext(ctx).
		Where("contact_id = ? AND plugin = ?", contactId, plugin).
		Take(&mapping).Error; err != nil {
		return nil, MappingMissNone, err
	}
	return &mapping, MappingMissNone, nil
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// UpsertAccountMapping records or refreshes the contact-to-ledger mapping.
// Safe to call repeatedly with identical arguments; a concurrent insert race
// collapses into the update path via the unique (contact_id, plugin) index.
func UpsertAccountMapping(ctx context.Context, contactId int, plugin string, accountsContactId string, displayName string, data []byte) (*AccountMapping, error) {
	db := config.GetDB().WithContext(ctx)
	now := time.Now()
	needsUpdate := false

	var existing AccountMapping
	err := db.Where("contact_id = ? AND plugin = ?", contactId, plugin).Take(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err == nil {
		updates := map[string]interface{}{
			"accounts_contact_id":    accountsContactId,
			"accounts_display_name":  displayName,
			"accounts_modified_date": now,
			"accounts_needs_update":  needsUpdate,
		}
		if len(data) > 0 {
			updates["accounts_data_json"] = data
		}
		if err := db.Model(&AccountMapping{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; err != nil {
			return nil, err
		}
		return refetchMapping(ctx, contactId, plugin)
	}

	mapping := AccountMapping{
		ContactId:            contactId,
		Plugin:               plugin,
		AccountsContactId:    accountsContactId,
		AccountsDisplayName:  displayName,
		AccountsModifiedDate: &now,
		AccountsNeedsUpdate:  &needsUpdate,
		AccountsDataJSON:     data,
	}
	if err := db.Create(&mapping).Error; err != nil {
		if isDuplicateKeyErr(err) {
			// Another run inserted the row between our read and write.
			return UpsertAccountMapping(ctx, contactId, plugin, accountsContactId, displayName, data)
		}
		return nil, err
	}
	return &mapping, nil
}

func refetchMapping(ctx context.Context, contactId int, plugin string) (*AccountMapping, error) {
	var mapping AccountMapping
	if err := config.GetDB().WithContext(ctx).
		Where("contact_id = ? AND plugin = ?", contactId, plugin).
		Take(&mapping).Error; err != nil {
		return nil, err
	}
	return &mapping, nil
}
