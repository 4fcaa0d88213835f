package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateSession_Anonymous(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	session := &Session{
		ID:        "sess-anon",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.CreateSession(ctx, session))

	retrieved, err := store.GetSession(ctx, "sess-anon")
	require.NoError(t, err)
	assert.Empty(t, retrieved.UserID)
	assert.Empty(t, retrieved.CSRFToken)
}

func TestStore_CreateSession_BoundToUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	session := &Session{
		ID:        "sess-1",
		UserID:    user.ID,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.CreateSession(ctx, session))

	retrieved, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.UserID)
}

func TestStore_GetSession_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetSession(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_DeleteSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	session := &Session{ID: "sess-1", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateSession(ctx, session))

	require.NoError(t, store.DeleteSession(ctx, "sess-1"))

	_, err := store.GetSession(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_DeleteSession_NonexistentIsNoError(t *testing.T) {
	store := setupTestStore(t)
	assert.NoError(t, store.DeleteSession(context.Background(), "no-such-session"))
}

func TestStore_IssueCSRFToken(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	session := &Session{ID: "sess-1", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateSession(ctx, session))

	require.NoError(t, store.IssueCSRFToken(ctx, "sess-1", "token-one"))

	token, err := store.GetCSRFToken(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "token-one", token)
}

func TestStore_IssueCSRFToken_Overwrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	session := &Session{ID: "sess-1", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateSession(ctx, session))

	require.NoError(t, store.IssueCSRFToken(ctx, "sess-1", "token-one"))
	require.NoError(t, store.IssueCSRFToken(ctx, "sess-1", "token-two"))

	token, err := store.GetCSRFToken(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "token-two", token)
}

func TestStore_IssueCSRFToken_UnknownSession(t *testing.T) {
	store := setupTestStore(t)

	err := store.IssueCSRFToken(context.Background(), "no-such-session", "token")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_GetCSRFToken_NoneIssued(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	session := &Session{ID: "sess-1", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateSession(ctx, session))

	token, err := store.GetCSRFToken(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStore_CSRFTokensIndependentPerSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, &Session{ID: "sess-a", CreatedAt: time.Now().UTC()}))
	require.NoError(t, store.CreateSession(ctx, &Session{ID: "sess-b", CreatedAt: time.Now().UTC()}))

	require.NoError(t, store.IssueCSRFToken(ctx, "sess-a", "token-a"))
	require.NoError(t, store.IssueCSRFToken(ctx, "sess-b", "token-b"))

	tokenA, err := store.GetCSRFToken(ctx, "sess-a")
	require.NoError(t, err)
	tokenB, err := store.GetCSRFToken(ctx, "sess-b")
	require.NoError(t, err)

	assert.Equal(t, "token-a", tokenA)
	assert.Equal(t, "token-b", tokenB)
}
