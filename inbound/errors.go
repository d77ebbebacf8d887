package inbound

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-whatsapp-relay/core"
)

func inboundWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, category)
	} else {
		err = goerrors.Wrap(source, category, message)
	}
	err = err.WithCode(code).WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func inboundUnauthorized(source error, metadata map[string]any) error {
	return inboundWrapError(
		source,
		goerrors.CategoryAuth,
		"inbound: request verification failed",
		http.StatusUnauthorized,
		core.RelayErrorUnauthorized,
		metadata,
	)
}

func inboundBadInput(source error, message string, metadata map[string]any) error {
	return inboundWrapError(
		source,
		goerrors.CategoryBadInput,
		message,
		http.StatusBadRequest,
		core.RelayErrorBadInput,
		metadata,
	)
}
