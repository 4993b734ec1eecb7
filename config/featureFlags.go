package config

import (
	"os"
	"strings"
)

// ContactSyncEnabled gates every sync invocation. When disabled, inbound
// order events are acknowledged and logged but no ledger call is made.
//
// Set via env:
// - CONTACT_SYNC_ENABLED=false (default true)
func ContactSyncEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("CONTACT_SYNC_ENABLED")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y" || v == "on"
}
