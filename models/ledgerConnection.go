package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/contactsync_backend/config"
	"gorm.io/gorm"
)

const (
	LedgerStatusConnected    = "connected"
	LedgerStatusDisconnected = "disconnected"
	LedgerStatusError        = "error"
)

// LedgerConnection holds the remote ledger credentials and connection state.
// One row per plugin tag.
type LedgerConnection struct {
	ID                uint       `gorm:"primary_key" json:"id"`
	Plugin            string     `gorm:"uniqueIndex;size:50;not null" json:"plugin"`
	Status            string     `gorm:"size:20;not null" json:"status"`
	TenantId          string     `gorm:"size:100" json:"tenant_id"`
	ClientId          string     `gorm:"size:128" json:"client_id"`
	ClientSecret      string     `gorm:"size:128" json:"client_secret"`
	AccessToken       string     `gorm:"type:text" json:"access_token"`
	RefreshToken      string     `gorm:"type:text" json:"refresh_token"`
	TokenExpiresAt    *time.Time `json:"token_expires_at"`
	LastSyncAt        *time.Time `json:"last_sync_at"`
	LastSuccessSyncAt *time.Time `json:"last_success_sync_at"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetLedgerConnection returns (nil, nil) when no connection row exists.
func GetLedgerConnection(ctx context.Context, plugin string) (*LedgerConnection, error) {
	var conn LedgerConnection
	err := config.GetDB().WithContext(ctx).
		Where("plugin = ?", plugin).
		Take(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

// SaveLedgerToken persists a rotated OAuth token triple.
func SaveLedgerToken(ctx context.Context, id uint, accessToken string, refreshToken string, expiresAt time.Time) error {
	return config.GetDB().WithContext(ctx).
		Model(&LedgerConnection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":     accessToken,
			"refresh_token":    refreshToken,
			"token_expires_at": expiresAt,
		}).Error
}

// TouchLedgerSync records the time of a sync attempt and, when it succeeded,
// the last successful sync time.
func TouchLedgerSync(ctx context.Context, id uint, at time.Time, success bool) error {
	updates := map[string]interface{}{
		"last_sync_at": at,
	}
	if success {
		updates["last_success_sync_at"] = at
	}
	return config.GetDB().WithContext(ctx).
		Model(&LedgerConnection{}).
		Where("id = ?", id).
		Updates(updates).Error
}
