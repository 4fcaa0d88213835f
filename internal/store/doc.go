// Package store provides persistent storage for feedlog using SQLite.
//
// # Architecture
//
// The store uses an interface-driven design with specialized interfaces:
//
//   - FeedStore: Feed create/list/delete, owner-scoped
//   - UserStore: User accounts
//   - SessionStore: Browser sessions and per-session CSRF tokens
//   - WebAuthnStore: Passkey credentials
//
// SQLiteStore implements all interfaces in a single struct, allowing easy
// composition while maintaining clear interface boundaries.
//
// # Data Models
//
//   - Feed: A feeding event. Volume is integer microliters; fed_at is a UTC
//     instant stored as RFC3339 text.
//   - User: Account with bcrypt password hash (or passkey-only).
//   - Session: Browser session row carrying the CSRF synchronizer token.
//     Sessions do not expire; logout deletes the row.
//   - WebAuthnCredential: Passkey credential bound to a user.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//	PRAGMA busy_timeout=5000;
//
// The busy timeout makes concurrent writers wait briefly rather than fail
// immediately on lock contention.
//
// # Error Handling
//
// Common errors:
//
//   - ErrFeedNotFound: Feed missing or owned by another user
//   - ErrUserNotFound / ErrSessionNotFound
//   - ErrUsernameExists: Unique constraint on username
//
// All methods accept context.Context for cancellation support.
//
// # Migrations
//
// Schema creation is idempotent (CREATE TABLE IF NOT EXISTS). Column-level
// migrations for existing databases check pragma_table_info before applying
// ALTER TABLE, so they are safe to run on every start.
package store
