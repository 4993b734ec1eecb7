package models

import (
	"log"

	"bitbucket.org/mmdatafocus/contactsync_backend/config"
)

// MigrateTable creates/updates the tables this service owns or reads in
// development. In production the CRM owns contacts and user_accounts; only
// account_mappings and ledger_connections belong to this service.
func MigrateTable() {
	db := config.GetDB()
	if db == nil {
		log.Printf("skipping migration: db not connected")
		return
	}
	if err := db.AutoMigrate(
		&Contact{},
		&UserAccount{},
		&AccountMapping{},
		&LedgerConnection{},
	); err != nil {
		log.Printf("migration failed: %v", err)
	}
}
