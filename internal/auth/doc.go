// Package auth provides token authentication for the feedlog JSON API.
//
// # Authentication Methods
//
// The web UI authenticates with cookie sessions (see internal/web). This
// package covers the programmatic API:
//
//   - JWT Tokens: API clients authenticate with bearer tokens signed
//     with HS256 using the configured jwt_secret. The "sub" claim carries
//     the user ID.
//
// # Token Management
//
// Issue a token for a user:
//
//	verifier := auth.NewJWTVerifier(secret)
//	token, err := verifier.Generate(userID, 30*24*time.Hour)
//
// Verify an incoming token:
//
//	userID, err := verifier.Verify(token)
//
// # HTTP Middleware
//
// HTTPAuthMiddleware wraps API handlers, verifies the Authorization
// header, resolves the user from the store and attaches an AuthContext
// to the request context:
//
//	mux.Handle("GET /api/feeds", auth.HTTPAuthMiddleware(st, verifier)(handler))
//
// Handlers read the identity back with auth.FromContext(ctx).
package auth
