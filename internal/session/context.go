package session

import "context"

type sessionContextKey struct{}

// ContextWithSession attaches the authenticated session to the context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	if !sess.Valid() {
		return ctx
	}
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// FromContext extracts the session placed there by the route guard.
func FromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	sess, ok := ctx.Value(sessionContextKey{}).(*Session)
	if !ok || !sess.Valid() {
		return nil, false
	}
	return sess, true
}

// MustFromContext is FromContext for code paths that only execute behind a
// guard. Calling it outside a guarded subtree is a programming error and
// panics immediately so the bug surfaces in development, not as silently
// wrong behavior.
func MustFromContext(ctx context.Context) *Session {
	sess, ok := FromContext(ctx)
	if !ok {
		panic("session: MustFromContext called outside a guarded handler")
	}
	return sess
}
