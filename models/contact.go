package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/contactsync_backend/config"
	"gorm.io/gorm"
)

// Contact is a constituent record in the CRM database. This service only
// reads contacts; creation and editing belong to the CRM itself.
type Contact struct {
	ID        int       `gorm:"primary_key" json:"id"`
	FirstName string    `gorm:"size:100" json:"first_name"`
	LastName  string    `gorm:"size:100" json:"last_name"`
	Email     string    `gorm:"size:100;index" json:"email"`
	Phone     string    `gorm:"size:32" json:"phone"`
	IsDeleted *bool     `gorm:"not null;default:false" json:"is_deleted"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Contact) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// GetContact returns (nil, nil) when no contact exists for the id.
func GetContact(ctx context.Context, id int) (*Contact, error) {
	var contact Contact
	err := config.GetDB().WithContext(ctx).
		Where("id = ? AND is_deleted = false", id).
		Take(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

// FindContactByEmail resolves a constituent by primary email. First match
// wins; the CRM does not enforce email uniqueness.
func FindContactByEmail(ctx context.Context, email string) (*Contact, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	var contact Contact
	err := config.GetDB().WithContext(ctx).
		Where("email = ? AND is_deleted = false", email).
		Order("id").
		Take(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}
