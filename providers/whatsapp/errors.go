package whatsapp

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-whatsapp-relay/core"
)

func malformedError(path string, source error) error {
	message := "whatsapp: malformed webhook payload at " + path
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, goerrors.CategoryBadInput)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryBadInput, message)
	}
	return err.
		WithCode(http.StatusBadRequest).
		WithTextCode(core.RelayErrorPayloadInvalid).
		WithMetadata(map[string]any{"path": path})
}
