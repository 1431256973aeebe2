package logger

import "context"

type contextKey string

const (
	loggerKey    contextKey = "bankmesh.logger"
	remoteKey    contextKey = "bankmesh.remote"
	sessionIDKey contextKey = "bankmesh.session_id"
	userIDKey    contextKey = "bankmesh.user_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRemote tags the context with the peer address of a connection.
func WithRemote(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteKey, addr)
}

// RemoteFromContext returns the peer address, or "".
func RemoteFromContext(ctx context.Context) string {
	v, _ := ctx.Value(remoteKey).(string)
	return v
}

// WithSessionID tags the context with a connection session ID.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the session ID, or "".
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// WithUserID tags the context with the authenticated account ID.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext returns the authenticated account ID, or "".
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// L returns the context's logger bound to ctx, so records carry the
// remote, session_id and user_id set on it.
func L(ctx context.Context) Logger {
	return FromContext(ctx).WithContext(ctx)
}
