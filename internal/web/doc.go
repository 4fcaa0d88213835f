// Package web serves the feedlog browser UI.
//
// # Overview
//
// Server-rendered HTML over net/http: a feed history page, an entry form,
// and login/register/logout. Templates are embedded with go:embed and
// rendered with html/template.
//
// # Sessions
//
// Every visitor gets an opaque session row keyed by a random 32-byte hex
// identifier carried in an HttpOnly, SameSite=Strict cookie. Anonymous
// sessions exist before login; logging in rotates the session to a fresh
// identifier bound to the user. Sessions have no expiry and are deleted
// only at logout.
//
// # CSRF Protection
//
// The two mutating form endpoints (POST /feed, POST /feed/{id}/delete) and
// the account forms require a synchronizer token. The token is generated
// lazily per session, persisted on the session row, embedded as a hidden
// form field, and checked with a constant-time comparison on submit. A
// mismatch or missing token rejects the request with 403 before any
// storage mutation.
//
// # Passkeys
//
// WebAuthn registration and discoverable-credential login are available
// alongside passwords. Challenge state is held in a short-lived in-memory
// store; verified credentials are persisted.
package web
