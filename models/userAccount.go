package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/contactsync_backend/config"
	"gorm.io/gorm"
)

// UserAccount cross-references a storefront user id to a CRM contact id.
// The CRM owns this table; this service only reads it.
type UserAccount struct {
	ID        uint      `gorm:"primary_key" json:"id"`
	UserId    int       `gorm:"uniqueIndex;not null" json:"user_id"`
	ContactId int       `gorm:"index;not null" json:"contact_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindContactIdByUserId returns (0, nil) when the storefront user has no
// CRM cross-reference.
func FindContactIdByUserId(ctx context.Context, userId int) (int, error) {
	if userId == 0 {
		return 0, nil
	}
	var account UserAccount
	err := config.GetDB().WithContext(ctx).
		Where("user_id = ?", userId).
		Take(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return account.ContactId, nil
}
