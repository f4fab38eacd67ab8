package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/clubhub/internal/apperr"
	"github.com/geocoder89/clubhub/internal/http/middlewares"
)

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString(middlewares.CtxRequestID); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details any) {
	ctx.AbortWithStatusJSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details any) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, "unauthorized", message, nil)
}

// statusFor maps an error kind to its HTTP status and envelope code.
func statusFor(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest, "invalid_request"
	case apperr.UnsupportedMedia:
		return http.StatusUnsupportedMediaType, "unsupported_media_type"
	case apperr.PayloadTooLarge:
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case apperr.NotFound:
		return http.StatusNotFound, "not_found"
	case apperr.Conflict:
		return http.StatusConflict, "conflict"
	case apperr.Closed:
		return http.StatusConflict, "event_closed"
	case apperr.InvalidState:
		return http.StatusConflict, "invalid_state"
	case apperr.Authorization:
		return http.StatusForbidden, "forbidden"
	case apperr.Storage:
		return http.StatusServiceUnavailable, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// RespondErr writes the envelope for any service error. Server-side causes are
// logged and the client only gets a generic message.
func RespondErr(ctx *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status, code := statusFor(kind)

	if status >= http.StatusInternalServerError {
		_ = ctx.Error(err)
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"kind", kind,
			"request_id", requestIDFrom(ctx),
			"err", err,
		)
	}

	message := apperr.MessageOf(err)
	switch kind {
	case apperr.Storage:
		message = "file storage is temporarily unavailable, please try again"
	case apperr.Internal:
		message = "internal error"
	}

	RespondError(ctx, status, code, message, apperr.DetailsOf(err))
}
