// ABOUTME: JSON API handlers for programmatic feed access
// ABOUTME: Provides GET/POST /api/feeds authenticated with JWT bearer tokens

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/2389/feedlog/internal/auth"
	"github.com/2389/feedlog/internal/store"
	"github.com/2389/feedlog/internal/units"
)

// FeedResponse is the JSON representation of a feed.
type FeedResponse struct {
	ID        string `json:"id"`
	Ounces    string `json:"ounces"`
	VolumeUL  int64  `json:"volume_ul"`
	FedAt     string `json:"fed_at"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListFeedsResponse is the JSON response for GET /api/feeds.
type ListFeedsResponse struct {
	Feeds []FeedResponse `json:"feeds"`
}

// CreateFeedRequest is the JSON request body for POST /api/feeds.
type CreateFeedRequest struct {
	Ounces string `json:"ounces"`
	FedAt  string `json:"fed_at"` // RFC3339
	Note   string `json:"note,omitempty"`
}

// API serves the JSON feed endpoints.
type API struct {
	store    store.Store
	verifier auth.TokenVerifier
	logger   *slog.Logger
}

// New creates a new API handler.
func New(st store.Store, verifier auth.TokenVerifier) *API {
	return &API{
		store:    st,
		verifier: verifier,
		logger:   slog.Default().With("component", "api"),
	}
}

// RegisterRoutes registers the API routes on the given mux.
// All routes require a valid bearer token.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	authed := auth.HTTPAuthMiddleware(a.store, a.verifier)

	mux.Handle("GET /api/feeds", authed(http.HandlerFunc(a.handleListFeeds)))
	mux.Handle("POST /api/feeds", authed(http.HandlerFunc(a.handleCreateFeed)))
	mux.Handle("DELETE /api/feeds/{id}", authed(http.HandlerFunc(a.handleDeleteFeed)))

	a.logger.Info("api routes registered")
}

// handleListFeeds handles GET /api/feeds.
// Returns the caller's feeds, newest first.
func (a *API) handleListFeeds(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	feeds, err := a.store.ListFeeds(r.Context(), authCtx.UserID)
	if err != nil {
		a.logger.Error("failed to list feeds", "error", err, "user_id", authCtx.UserID)
		a.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := ListFeedsResponse{
		Feeds: make([]FeedResponse, len(feeds)),
	}
	for i, f := range feeds {
		response.Feeds[i] = toFeedResponse(f)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleCreateFeed handles POST /api/feeds.
func (a *API) handleCreateFeed(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	req, errMsg := parseCreateFeedRequest(r.Body)
	if errMsg != "" {
		a.sendJSONError(w, http.StatusBadRequest, errMsg)
		return
	}

	volumeUL, err := units.ParseOunces(req.Ounces)
	if err != nil {
		a.sendJSONError(w, http.StatusBadRequest, "ounces must be a decimal number")
		return
	}
	if err := units.CheckFeedVolume(volumeUL); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, "ounces must be greater than 0 and at most 10")
		return
	}

	fedAt, err := time.Parse(time.RFC3339, req.FedAt)
	if err != nil {
		a.sendJSONError(w, http.StatusBadRequest, "fed_at must be an RFC3339 timestamp")
		return
	}

	feed := &store.Feed{
		ID:        uuid.NewString(),
		UserID:    authCtx.UserID,
		VolumeUL:  volumeUL,
		FedAt:     fedAt.UTC(),
		Note:      req.Note,
		CreatedAt: time.Now().UTC(),
	}

	if err := a.store.CreateFeed(r.Context(), feed); err != nil {
		a.logger.Error("failed to create feed", "error", err, "user_id", authCtx.UserID)
		a.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	a.logger.Info("feed created via api", "feed_id", feed.ID, "user_id", authCtx.UserID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toFeedResponse(feed))
}

// handleDeleteFeed handles DELETE /api/feeds/{id}.
func (a *API) handleDeleteFeed(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustFromContext(r.Context())

	feedID := r.PathValue("id")
	if feedID == "" {
		a.sendJSONError(w, http.StatusBadRequest, "feed id required")
		return
	}

	if err := a.store.DeleteFeed(r.Context(), feedID, authCtx.UserID); err != nil {
		if errors.Is(err, store.ErrFeedNotFound) {
			a.sendJSONError(w, http.StatusNotFound, "feed not found")
			return
		}
		a.logger.Error("failed to delete feed", "error", err, "feed_id", feedID)
		a.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseCreateFeedRequest parses and validates a CreateFeedRequest.
// Returns the request or an error message for the client.
func parseCreateFeedRequest(r io.Reader) (*CreateFeedRequest, string) {
	var req CreateFeedRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, "invalid JSON body"
	}
	if req.Ounces == "" {
		return nil, "ounces is required"
	}
	if req.FedAt == "" {
		return nil, "fed_at is required"
	}
	return &req, ""
}

// toFeedResponse converts a stored feed to its JSON representation.
func toFeedResponse(f *store.Feed) FeedResponse {
	return FeedResponse{
		ID:        f.ID,
		Ounces:    units.FormatOunces(f.VolumeUL),
		VolumeUL:  f.VolumeUL,
		FedAt:     f.FedAt.UTC().Format(time.RFC3339),
		Note:      f.Note,
		CreatedAt: f.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// sendJSONError writes a JSON error response.
func (a *API) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
