package appctx

import "context"

// ContextKey is the shared type for all context keys in this codebase.
// Keeping it in a tiny package avoids import cycles (config <-> utils).
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyUserId        = ContextKey("UserId")
	ContextKeyActorName     = ContextKey("ActorName")
	ContextKeyCorrelationId = ContextKey("CorrelationId")

	// ContextKeyReconcileGuard carries the set of document ids whose payment
	// reconciliation is already in flight for this call chain. Nested linkage
	// events must not re-enter reconciliation for the same document.
	ContextKeyReconcileGuard = ContextKey("ReconcileGuard")
)

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func GetBool(ctx context.Context, key ContextKey) (bool, bool) {
	v, ok := ctx.Value(key).(bool)
	return v, ok
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

// ReconcileGuard returns the in-flight reconciliation set for this call chain,
// creating it on first use. The map value is shared down the chain rather than
// copied, so nested calls see what their parents already claimed.
func ReconcileGuard(ctx context.Context) (context.Context, map[string]bool) {
	if v, ok := ctx.Value(ContextKeyReconcileGuard).(map[string]bool); ok {
		return ctx, v
	}
	guard := make(map[string]bool)
	return context.WithValue(ctx, ContextKeyReconcileGuard, guard), guard
}
