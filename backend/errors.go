package backend

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-whatsapp-relay/core"
)

const maxLoggedBodyBytes = 512

func statusError(res core.TransportResponse) error {
	category := goerrors.CategoryExternal
	textCode := core.RelayErrorExternalFailure
	if res.StatusCode == http.StatusUnauthorized {
		category = goerrors.CategoryAuth
		textCode = core.RelayErrorUnauthorized
	}
	return goerrors.New(fmt.Sprintf("backend: unexpected status %d", res.StatusCode), category).
		WithCode(res.StatusCode).
		WithTextCode(textCode).
		WithMetadata(map[string]any{"body": truncate(string(res.Body), maxLoggedBodyBytes)})
}

func payloadError(source error) error {
	return goerrors.Wrap(source, goerrors.CategoryExternal, "backend: decode response").
		WithCode(http.StatusBadGateway).
		WithTextCode(core.RelayErrorPayloadInvalid)
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
