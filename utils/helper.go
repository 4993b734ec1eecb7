package utils

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/contactsync_backend/config"
	"github.com/bsm/redislock"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "NZ"

func IsValidEmail(email string) bool {
	// Basic email validation regex pattern
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

// NormalizePhoneNumber returns the E.164 form when the number parses for the
// configured country, otherwise the trimmed input unchanged. The ledger
// accepts free-form numbers, so a parse failure is not an error.
func NormalizePhoneNumber(phoneNumber string) string {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return ""
	}
	p, err := libphonenumber.Parse(phoneNumber, CountryCode)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return phoneNumber
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}

// ObtainContactLock serializes sync runs per CRM contact across instances.
// Callers must Release the returned lock. A nil locker (redis not ready)
// returns an error; callers decide whether to proceed without the lock.
func ObtainContactLock(ctx context.Context, contactId int, ttl time.Duration) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, errors.New("redis lock not initialized")
	}
	lockKey := fmt.Sprintf("contact-sync:%d", contactId)
	lock, err := locker.Obtain(ctx, lockKey, ttl, nil)
	if err == redislock.ErrNotObtained {
		return nil, errors.New("could not obtain lock for contact")
	} else if err != nil {
		return nil, err
	}
	return lock, nil
}
