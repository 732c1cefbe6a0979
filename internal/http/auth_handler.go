package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/application"
)

type authService interface {
	RequestCode(ctx context.Context, params application.RequestCodeParams) error
	VerifyCode(ctx context.Context, params application.VerifyCodeParams) (application.AuthResult, error)
}

// AuthHandler serves the passwordless login flow.
type AuthHandler struct {
	service   authService
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// RequestCode issues a one-time code. The response does not reveal whether the email
// was already registered.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req requestCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "RequestCode", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode code request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "RequestCode")
	err := h.service.RequestCode(r.Context(), application.RequestCodeParams{
		Email: strings.TrimSpace(req.Email),
		Name:  strings.TrimSpace(req.Name),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "code request failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "code requested")
	h.responder.writeJSON(r.Context(), w, http.StatusAccepted, messageResponse{Message: "a login code has been sent"})
}

func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req verifyCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "VerifyCode", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode verify request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "VerifyCode")
	result, err := h.service.VerifyCode(r.Context(), application.VerifyCodeParams{
		Email: strings.TrimSpace(req.Email),
		Code:  strings.TrimSpace(req.Code),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "code verification failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", result.User.ID).InfoContext(r.Context(), "code verified")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, authResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toUserDTO(result.User),
	})
}

type requestCodeRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type authResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
	User      userDTO `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}
