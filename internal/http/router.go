package http

import (
	"log/slog"
	"net/http"
)

// RouterConfig wires handlers into the API. Nil handlers leave their routes unregistered.
type RouterConfig struct {
	Health        *HealthHandler
	Auth          *AuthHandler
	Users         *UserHandler
	Rooms         *RoomHandler
	Bookings      *BookingHandler
	Timetable     *TimetableHandler
	Faculty       *FacultyHandler
	Staffrooms    *StaffroomHandler
	Notifications *NotificationHandler
	Tokens        TokenValidator
	Logger        *slog.Logger
	Middleware    []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authed := func(h http.HandlerFunc) http.Handler {
		if cfg.Tokens == nil {
			return h
		}
		return RequireAuth(cfg.Tokens, cfg.Logger)(h)
	}

	if cfg.Health != nil {
		mux.HandleFunc("GET /healthz", cfg.Health.Check)
	}

	if cfg.Auth != nil {
		mux.HandleFunc("POST /auth/request-otp", cfg.Auth.RequestCode)
		mux.HandleFunc("POST /auth/verify-otp", cfg.Auth.VerifyCode)
	}

	if cfg.Users != nil {
		mux.Handle("GET /me", authed(cfg.Users.Me))
		mux.Handle("GET /users", authed(cfg.Users.List))
		mux.Handle("POST /users", authed(cfg.Users.Create))
	}

	if cfg.Rooms != nil {
		mux.Handle("GET /rooms", authed(cfg.Rooms.List))
		mux.Handle("POST /rooms", authed(cfg.Rooms.Create))
		mux.Handle("PUT /rooms/{id}", authed(cfg.Rooms.Update))
		mux.Handle("DELETE /rooms/{id}", authed(cfg.Rooms.Delete))
		mux.Handle("GET /rooms/{id}/availability", authed(cfg.Rooms.Availability))
	}

	if cfg.Bookings != nil {
		mux.Handle("GET /bookings", authed(cfg.Bookings.List))
		mux.Handle("POST /bookings", authed(cfg.Bookings.Create))
	}

	if cfg.Timetable != nil {
		mux.Handle("POST /timetable", authed(cfg.Timetable.Create))
		mux.Handle("GET /timetable/{branch}/{semester}/{section}", authed(cfg.Timetable.ListSection))
		mux.Handle("DELETE /timetable/{id}", authed(cfg.Timetable.Delete))
	}

	if cfg.Faculty != nil {
		mux.Handle("GET /faculty/availability", authed(cfg.Faculty.List))
		mux.Handle("POST /faculty/availability", authed(cfg.Faculty.Update))
	}

	if cfg.Staffrooms != nil {
		mux.Handle("GET /staffrooms", authed(cfg.Staffrooms.List))
		mux.Handle("POST /staffrooms", authed(cfg.Staffrooms.Create))
		mux.Handle("POST /staffrooms/{id}/faculty", authed(cfg.Staffrooms.AssignFaculty))
		mux.Handle("DELETE /staffrooms/{id}/faculty/{facultyId}", authed(cfg.Staffrooms.RemoveFaculty))
	}

	if cfg.Notifications != nil {
		mux.Handle("GET /notifications", authed(cfg.Notifications.List))
		mux.Handle("POST /notifications", authed(cfg.Notifications.Send))
		mux.Handle("GET /notifications/stream", authed(cfg.Notifications.Stream))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
