// Package http provides the HTTP handlers and middleware for the door
// security API.
//
// The router exposes the following endpoints under /api:
//   - POST /api/auth/login: issues an access token. Body: {"email","password"}.
//     Response: {"token","expires_at","user"}.
//   - GET /api/users, POST /api/users, DELETE /api/users/{id}: administrator
//     controlled account management exchanging the `userDTO` payload defined
//     in user_handler.go.
//   - GET /api/authorized-users, POST /api/authorized-users,
//     DELETE /api/authorized-users/{id}: the door authorization list, admin
//     only. Granting an already authorized user yields 409.
//   - POST /api/door/open: requests a door opening for the authenticated
//     principal. 403 when the principal holds no grant, 502 when the door
//     controller cannot be reached.
//   - GET /api/history?limit=: the audit trail, most recent first, for any
//     authenticated principal.
//   - POST /api/entry-requests: unauthenticated visitor intercom endpoint,
//     rate limited per client address.
//   - GET /api/entry-requests: pending visitor requests, admin only.
//   - POST /api/entry-requests/{id}/respond: resolves a pending request.
//     Responding twice yields 409.
//   - POST /api/alarm/trigger, POST /api/alarm/stop, GET /api/alarm/status:
//     manual alarm control (admin) and state query (any authenticated
//     principal).
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
