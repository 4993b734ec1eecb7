package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/contactsync_backend/appctx"
)

// Alias the shared context key type so existing code keeps working.
type contextKey = appctx.ContextKey

var (
	ContextKeyToken            = appctx.ContextKeyToken
	ContextKeyUserId           = appctx.ContextKeyUserId
	ContextKeyCorrelationId    = appctx.ContextKeyCorrelationId
	ContextKeySessionContactId = appctx.ContextKeySessionContactId
	ContextKeyIsAdmin          = appctx.ContextKeyIsAdmin
)

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyUserId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetSessionContactIdInContext(ctx context.Context, contactId int) context.Context {
	return appctx.Set(ctx, ContextKeySessionContactId, contactId)
}

// GetSessionContactIdFromContext returns the contact id bound to the live
// session. Administrative contexts never expose one.
func GetSessionContactIdFromContext(ctx context.Context) (int, bool) {
	if admin, ok := appctx.GetBool(ctx, ContextKeyIsAdmin); ok && admin {
		return 0, false
	}
	return appctx.GetInt(ctx, ContextKeySessionContactId)
}

func SetIsAdminInContext(ctx context.Context, isAdmin bool) context.Context {
	return appctx.Set(ctx, ContextKeyIsAdmin, isAdmin)
}

func GetIsAdminFromContext(ctx context.Context) bool {
	admin, ok := appctx.GetBool(ctx, ContextKeyIsAdmin)
	return ok && admin
}
