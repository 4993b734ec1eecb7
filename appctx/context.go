package appctx

import "context"

// ContextKey is the shared type for all context keys in this codebase.
// Keeping it in a tiny package avoids import cycles (config <-> utils).
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyToken         = ContextKey("Token")
	ContextKeyUserId        = ContextKey("UserId")
	ContextKeyCorrelationId = ContextKey("CorrelationId")

	// ContextKeySessionContactId carries the CRM contact id bound to the
	// caller's live session. Only trusted outside admin contexts.
	ContextKeySessionContactId = ContextKey("SessionContactId")

	// ContextKeyIsAdmin marks administrative request contexts. Session
	// identity is ignored for these; the stored cross-reference wins.
	ContextKeyIsAdmin = ContextKey("IsAdmin")
)

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func GetBool(ctx context.Context, key ContextKey) (bool, bool) {
	v, ok := ctx.Value(key).(bool)
	return v, ok
}

func GetInt(ctx context.Context, key ContextKey) (int, bool) {
	v, ok := ctx.Value(key).(int)
	return v, ok
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
