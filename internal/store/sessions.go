// ABOUTME: Session and CSRF token persistence methods on SQLiteStore
// ABOUTME: Sessions have no expiry; the CSRF synchronizer token lives on the session row

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateSession creates a new session.
// UserID may be empty for anonymous (pre-login) sessions.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO sessions (id, user_id, csrf_token, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		nullString(session.UserID),
		nullString(session.CSRFToken),
		session.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("created session", "id", session.ID, "user_id", session.UserID)
	return nil
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, user_id, csrf_token, created_at
		FROM sessions
		WHERE id = ?
	`

	var session Session
	var userID, csrfToken sql.NullString
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&userID,
		&csrfToken,
		&createdAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	session.UserID = userID.String
	session.CSRFToken = csrfToken.String
	session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &session, nil
}

// DeleteSession deletes a session.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// IssueCSRFToken overwrites the stored CSRF token for a session.
// Returns ErrSessionNotFound if the session doesn't exist.
func (s *SQLiteStore) IssueCSRFToken(ctx context.Context, sessionID, token string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE sessions SET csrf_token = ? WHERE id = ?`, token, sessionID)
	if err != nil {
		return fmt.Errorf("updating csrf token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSessionNotFound
	}

	s.logger.Debug("issued csrf token", "session_id", sessionID)
	return nil
}

// GetCSRFToken returns the stored CSRF token for a session, or "" if none has
// been issued. Returns ErrSessionNotFound if the session doesn't exist.
func (s *SQLiteStore) GetCSRFToken(ctx context.Context, sessionID string) (string, error) {
	var token sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT csrf_token FROM sessions WHERE id = ?`, sessionID).Scan(&token)

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying csrf token: %w", err)
	}

	return token.String, nil
}
