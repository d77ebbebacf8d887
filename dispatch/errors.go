package dispatch

import (
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-whatsapp-relay/core"
)

func dispatchPanicError(id string, recovered any) error {
	return goerrors.New(fmt.Sprintf("dispatch: recovered panic: %v", recovered), goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.RelayErrorInternal).
		WithMetadata(map[string]any{"dispatch_id": id})
}
