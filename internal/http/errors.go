package httpx

import (
	"log/slog"
	"net/http"

	apperrors "github.com/danxi/authgate/internal/errors"
)

// statusFor maps an error kind to the HTTP status returned to API callers.
func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeInvalidCredentials, apperrors.ErrCodeGenericFailure:
		return http.StatusUnauthorized
	case apperrors.ErrCodeCaptchaRequired:
		return http.StatusPreconditionRequired
	case apperrors.ErrCodeNetwork:
		return http.StatusBadGateway
	case apperrors.ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError renders err with its kind and user-facing message. Internal details of
// 5xx-class failures other than provider outages are logged, not returned.
func WriteAppError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	status := statusFor(code)
	msg := apperrors.GetMessage(err)
	if code == apperrors.ErrCodeInternal {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = http.StatusText(status)
	}
	WriteJSON(w, status, ErrorBody{
		Error:     string(code),
		Message:   msg,
		Retryable: apperrors.Retryable(err),
	})
}
