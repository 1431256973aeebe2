// Package logger provides structured logging for bankmesh.
//
// Every logger sits on one slog handler chain: redaction of secrets,
// argon2 hashes and private key PEM, then connection identity. A
// connection's remote address, session ID and, after login, user ID are
// stored once on its context (WithRemote, WithSessionID, WithUserID);
// any record logged through L(ctx) picks them up without call sites
// repeating them.
//
// The level is one shared slog.LevelVar, so SetLevel from the config
// watcher reaches every component at once.
package logger
