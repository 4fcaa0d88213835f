// ABOUTME: Feed persistence methods on SQLiteStore
// ABOUTME: Create, get, list (newest first), and owner-scoped delete

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateFeed inserts a new feed row.
func (s *SQLiteStore) CreateFeed(ctx context.Context, feed *Feed) error {
	query := `
		INSERT INTO feeds (id, user_id, volume_ul, fed_at, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		feed.ID,
		feed.UserID,
		feed.VolumeUL,
		feed.FedAt.UTC().Format(time.RFC3339),
		nullString(feed.Note),
		feed.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting feed: %w", err)
	}

	s.logger.Debug("created feed", "id", feed.ID, "user_id", feed.UserID, "volume_ul", feed.VolumeUL)
	return nil
}

// GetFeed retrieves a feed by ID, scoped to its owner.
// Returns ErrFeedNotFound if the feed doesn't exist or belongs to another user.
func (s *SQLiteStore) GetFeed(ctx context.Context, id, userID string) (*Feed, error) {
	query := `
		SELECT id, user_id, volume_ul, fed_at, note, created_at
		FROM feeds
		WHERE id = ? AND user_id = ?
	`

	var feed Feed
	var note sql.NullString
	var fedAtStr, createdAtStr string

	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(
		&feed.ID,
		&feed.UserID,
		&feed.VolumeUL,
		&fedAtStr,
		&note,
		&createdAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFeedNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying feed: %w", err)
	}

	feed.Note = note.String

	feed.FedAt, err = time.Parse(time.RFC3339, fedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing fed_at: %w", err)
	}

	feed.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &feed, nil
}

// ListFeeds returns all feeds for a user, newest feeding first.
func (s *SQLiteStore) ListFeeds(ctx context.Context, userID string) ([]*Feed, error) {
	query := `
		SELECT id, user_id, volume_ul, fed_at, note, created_at
		FROM feeds
		WHERE user_id = ?
		ORDER BY fed_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying feeds: %w", err)
	}
	defer rows.Close()

	var feeds []*Feed
	for rows.Next() {
		var feed Feed
		var note sql.NullString
		var fedAtStr, createdAtStr string

		if err := rows.Scan(&feed.ID, &feed.UserID, &feed.VolumeUL, &fedAtStr, &note, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning feed row: %w", err)
		}

		feed.Note = note.String

		feed.FedAt, err = time.Parse(time.RFC3339, fedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing fed_at: %w", err)
		}

		feed.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		feeds = append(feeds, &feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feed rows: %w", err)
	}

	return feeds, nil
}

// DeleteFeed removes a feed, scoped to its owner.
// Returns ErrFeedNotFound if the feed doesn't exist or belongs to another user.
func (s *SQLiteStore) DeleteFeed(ctx context.Context, id, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM feeds WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting feed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrFeedNotFound
	}

	s.logger.Debug("deleted feed", "id", id, "user_id", userID)
	return nil
}
