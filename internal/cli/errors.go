package cli

import (
	"errors"

	"github.com/txn2/realty-crm/pkg/actor"
)

// errorCode names an error for JSON output.
func errorCode(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code == ExitCommandError {
		return "usage"
	}
	if kind := actor.KindOf(err); kind != actor.KindUnknown {
		return kind.String()
	}
	return "failed"
}
