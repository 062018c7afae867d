// Package session implements Roundtable's tamper-evident session layer.
//
// Sessions are stateless signed tokens carried in an HttpOnly cookie:
// the payload binds a user ID and a ULID session ID to an expiry, and an
// HMAC-SHA256 signature over the payload makes forgery or elevation
// infeasible without the server's signing secret. Logout clears the cookie;
// tokens expire on their own, so logout is idempotent.
package session
