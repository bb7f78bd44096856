package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/localrivet/notionmcp/internal/errortypes"
)

// Response status values shared by every tool response.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// toolErrorMessage renders a failure as troubleshooting text for the
// calling assistant: what failed, the likely cause, and a remedy. Raw
// remote bodies and stack traces never reach the caller.
func toolErrorMessage(operation string, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed: %v.", operation, rootCause(err))

	var appErr *errortypes.AppError
	if errors.As(err, &appErr) && appErr.RemoteStatus != 0 {
		fmt.Fprintf(&b, " The Notion API responded with status %d", appErr.RemoteStatus)
		if appErr.RemoteCode != "" {
			fmt.Fprintf(&b, " (%s)", appErr.RemoteCode)
		}
		b.WriteString(".")
	}

	switch errortypes.TypeOf(err) {
	case errortypes.ErrorTypeValidation:
		b.WriteString(" The arguments were rejected before any API call was made; correct the named field and retry.")
	case errortypes.ErrorTypeUnauthorized:
		b.WriteString(" The integration token was rejected. Check NOTION_API_KEY and confirm the integration still exists; retrying without fixing the token will not help.")
	case errortypes.ErrorTypeRejected:
		b.WriteString(" Common causes: a wrong or inaccessible ID, a malformed property schema, or the integration lacking access to the target. Verify the ID and share the page or database with the integration.")
		if errors.As(err, &appErr) && appErr.RemoteStatus == 404 {
			b.WriteString(" Status 404 means the object was not found with this credential.")
		}
	case errortypes.ErrorTypeUpstream:
		b.WriteString(" The Notion API was unreachable or returned a server error. This is usually transient; retry with backoff. Do not retry create/update/append calls blindly, as the original call may have gone through.")
	case errortypes.ErrorTypeUnsupported:
		b.WriteString(" No tool with this name is registered; call one of the declared tools.")
	default:
		b.WriteString(" This looks like an adapter bug; check the server logs.")
	}

	return b.String()
}

// rootCause unwraps to the innermost error so the message leads with
// the concrete failure rather than layers of context.
func rootCause(err error) error {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
}
