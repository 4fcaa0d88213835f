// ABOUTME: Store interfaces and data types for feedlog persistence
// ABOUTME: Defines Feed, User, Session structs and per-entity store interfaces

package store

import (
	"context"
	"errors"
	"time"
)

// ErrFeedNotFound is returned when a feed does not exist or belongs to another user.
var ErrFeedNotFound = errors.New("feed not found")

// ErrUserNotFound is returned when a user doesn't exist.
var ErrUserNotFound = errors.New("user not found")

// ErrSessionNotFound is returned when a session doesn't exist.
var ErrSessionNotFound = errors.New("session not found")

// ErrUsernameExists is returned when trying to create a user with an existing username.
var ErrUsernameExists = errors.New("username already exists")

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Feed represents a single feeding event.
// Volume is stored in integer microliters for precision; display conversion
// to fluid ounces lives in the units package.
type Feed struct {
	ID        string
	UserID    string
	VolumeUL  int64
	FedAt     time.Time // UTC instant of the feeding
	Note      string    // optional, rendered as markdown in the UI
	CreatedAt time.Time
}

// User represents an account that owns feeds.
type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt hash, empty if passkey-only
	CreatedAt    time.Time
}

// Session represents a browser session.
// Sessions carry the CSRF synchronizer token for that session and have no
// expiry; they live until explicitly deleted at logout.
type Session struct {
	ID        string
	UserID    string // empty for anonymous sessions (pre-login)
	CSRFToken string // empty until first issued
	CreatedAt time.Time
}

// WebAuthnCredential represents a passkey credential.
type WebAuthnCredential struct {
	ID              string
	UserID          string
	CredentialID    []byte
	PublicKey       []byte
	AttestationType string
	Transports      string // JSON array
	SignCount       uint32
	CreatedAt       time.Time
}

// FeedStore defines feed persistence operations.
// All mutations are single-statement transactions; the storage engine's own
// locking serializes concurrent writers.
type FeedStore interface {
	CreateFeed(ctx context.Context, feed *Feed) error
	GetFeed(ctx context.Context, id, userID string) (*Feed, error)
	ListFeeds(ctx context.Context, userID string) ([]*Feed, error)
	DeleteFeed(ctx context.Context, id, userID string) error
}

// UserStore defines user account persistence operations.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CountUsers(ctx context.Context) (int, error)
}

// SessionStore defines session and CSRF token persistence.
// The CSRF token is bound 1:1 to its session row so the guard works across
// processes without any in-memory state.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error

	// IssueCSRFToken overwrites the stored token for the session.
	IssueCSRFToken(ctx context.Context, sessionID, token string) error
	// GetCSRFToken returns the stored token, or "" if none has been issued.
	GetCSRFToken(ctx context.Context, sessionID string) (string, error)
}

// WebAuthnStore defines passkey credential persistence.
type WebAuthnStore interface {
	CreateWebAuthnCredential(ctx context.Context, cred *WebAuthnCredential) error
	GetWebAuthnCredentialsByUser(ctx context.Context, userID string) ([]*WebAuthnCredential, error)
	GetWebAuthnCredentialByCredentialID(ctx context.Context, credentialID []byte) (*WebAuthnCredential, error)
	UpdateWebAuthnCredentialSignCount(ctx context.Context, id string, signCount uint32) error
}

// Store combines all persistence interfaces.
type Store interface {
	FeedStore
	UserStore
	SessionStore
	WebAuthnStore

	// Close releases any resources held by the store.
	Close() error
}
