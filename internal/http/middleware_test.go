package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/campus-scheduler/internal/application"
)

type tokenValidatorStub struct {
	principals map[string]application.Principal
	err        error
}

func (s tokenValidatorStub) ValidateToken(_ context.Context, token string) (application.Principal, error) {
	if s.err != nil {
		return application.Principal{}, s.err
	}
	principal, ok := s.principals[token]
	if !ok {
		return application.Principal{}, application.ErrUnauthenticated
	}
	return principal, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	validator := tokenValidatorStub{principals: map[string]application.Principal{
		"good": {UserID: "faculty-1", Role: application.RoleFaculty},
	}}

	tests := []struct {
		name       string
		header     string
		query      string
		validator  TokenValidator
		wantStatus int
		wantCode   string
	}{
		{name: "missing credentials", validator: validator, wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHENTICATED"},
		{name: "malformed header", header: "Token good", validator: validator, wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHENTICATED"},
		{name: "unknown token", header: "Bearer nope", validator: validator, wantStatus: http.StatusUnauthorized, wantCode: "AUTH_INVALID_TOKEN"},
		{name: "bearer header", header: "Bearer good", validator: validator, wantStatus: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer good", validator: validator, wantStatus: http.StatusNoContent},
		{name: "query parameter", query: "good", validator: validator, wantStatus: http.StatusNoContent},
		{name: "validator failure", header: "Bearer good", validator: tokenValidatorStub{err: errors.New("store down")}, wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var seen application.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})

			target := "/me"
			if tc.query != "" {
				target += "?access_token=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			RequireAuth(tc.validator, discardLogger())(next).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if tc.wantCode != "" {
				body := decodeError(t, rec)
				if body.ErrorCode != tc.wantCode {
					t.Fatalf("error_code = %q, want %q", body.ErrorCode, tc.wantCode)
				}
				return
			}
			if seen.UserID != "faculty-1" || seen.Role != application.RoleFaculty {
				t.Fatalf("principal = %+v", seen)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var fromContext *slog.Logger
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromContext = LoggerFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rooms", nil))
	}

	if fromContext == nil {
		t.Fatal("expected request logger in context")
	}
	out := buf.String()
	for _, want := range []string{"request_id=1", "request_id=2", "status=418", "path=/rooms", "method=GET"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestStatusRecorderHijack(t *testing.T) {
	t.Parallel()

	recorder := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	if _, _, err := recorder.Hijack(); err == nil {
		t.Fatal("expected error when the underlying writer cannot hijack")
	}

	recorder.WriteHeader(http.StatusCreated)
	recorder.WriteHeader(http.StatusInternalServerError)
	if recorder.status != http.StatusCreated {
		t.Fatalf("status = %d, want first written status", recorder.status)
	}
}
