// Package http provides HTTP handlers and middleware for the campus scheduler API.
//
// The router exposes the following endpoints:
//   - GET /healthz: liveness and database reachability.
//   - POST /auth/request-otp, POST /auth/verify-otp: passwordless login. Verification
//     returns {"token","expires_at","user"}.
//   - GET /me, GET /users, POST /users: account endpoints exchanging the `userDTO`
//     payload defined in user_handler.go. Listing and creation require admin.
//   - GET /rooms, POST /rooms, PUT /rooms/{id}, DELETE /rooms/{id} and
//     GET /rooms/{id}/availability: room catalogue and live room status.
//   - GET /bookings, POST /bookings: the caller's bookings and conflict-checked creation.
//   - POST /timetable, GET /timetable/{branch}/{semester}/{section},
//     DELETE /timetable/{id}: the weekly timetable.
//   - GET /faculty/availability, POST /faculty/availability: per-day faculty presence.
//   - GET /staffrooms, POST /staffrooms, POST /staffrooms/{id}/faculty,
//     DELETE /staffrooms/{id}/faculty/{facultyId}: staffrooms and presence summaries.
//   - GET /notifications, POST /notifications, GET /notifications/stream: stored
//     notifications and the websocket push channel.
//
// Everything except health and login requires a bearer token, taken from the
// Authorization header or, for websocket clients, the access_token query parameter.
// Request/response DTOs live alongside their respective handlers.
package http
