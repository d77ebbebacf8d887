package core

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	RelayErrorBadInput        = "RELAY_BAD_INPUT"
	RelayErrorConfig          = "RELAY_CONFIG_INVALID"
	RelayErrorNotConfigured   = "RELAY_NOT_CONFIGURED"
	RelayErrorUnauthorized    = "RELAY_UNAUTHORIZED"
	RelayErrorForbidden       = "RELAY_FORBIDDEN"
	RelayErrorRateLimited     = "RELAY_RATE_LIMITED"
	RelayErrorExternalFailure = "RELAY_EXTERNAL_FAILURE"
	RelayErrorPayloadInvalid  = "RELAY_PAYLOAD_INVALID"
	RelayErrorOperationFailed = "RELAY_OPERATION_FAILED"
	RelayErrorInternal        = "RELAY_INTERNAL_ERROR"
)

// MapError normalizes any error into the relay error envelope.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

// ErrorFields flattens an error into log fields.
func ErrorFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	fields := map[string]any{"error": err.Error()}
	mapped := MapError(err)
	if mapped == nil {
		return fields
	}
	if mapped.TextCode != "" {
		fields["error_text_code"] = mapped.TextCode
	}
	if category := fmt.Sprint(mapped.Category); category != "" {
		fields["error_category"] = category
	}
	if mapped.Code != 0 {
		fields["error_code"] = mapped.Code
	}
	return fields
}

func TextCodeForCategory(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return RelayErrorBadInput
	case goerrors.CategoryAuth:
		return RelayErrorUnauthorized
	case goerrors.CategoryAuthz:
		return RelayErrorForbidden
	case goerrors.CategoryRateLimit:
		return RelayErrorRateLimited
	case goerrors.CategoryOperation:
		return RelayErrorOperationFailed
	case goerrors.CategoryExternal:
		return RelayErrorExternalFailure
	default:
		return RelayErrorInternal
	}
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatusForCategory(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = TextCodeForCategory(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func httpStatusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func configError(message string, source error) error {
	return goerrors.Wrap(source, goerrors.CategoryValidation, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(RelayErrorConfig)
}

func configBadInput(env string, raw string, source error) error {
	return goerrors.Wrap(source, goerrors.CategoryBadInput, fmt.Sprintf("core: invalid value for %s", env)).
		WithCode(http.StatusBadRequest).
		WithTextCode(RelayErrorConfig).
		WithMetadata(map[string]any{"env": env, "value": raw})
}
