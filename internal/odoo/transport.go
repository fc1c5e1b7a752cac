package odoo

import (
	"context"
	"errors"
	"fmt"
)

// Transport protocols.
const (
	ProtocolXMLRPC  = "xmlrpc"
	ProtocolJSONRPC = "jsonrpc"
)

// ErrAuthFailed is returned when the server rejects the configured
// credentials (a falsy uid result) or when authentication cannot complete.
var ErrAuthFailed = errors.New("odoo: authentication failed")

// Auth identifies an authenticated session on the wire. The server keeps the
// password as the per-call secret, so it travels with every execute call.
type Auth struct {
	Database string
	UID      int64
	Password string
}

// Transport binds the logical operations to one of the two wire protocols.
// Implementations return the remote result loosely typed: identifiers and
// counts as int64, records as map[string]any, collections as []any.
type Transport interface {
	// Name identifies the protocol for logging.
	Name() string

	// Authenticate resolves the user id for the given credentials. A falsy
	// server result is reported as uid 0 with a nil error; the caller decides
	// how to surface it.
	Authenticate(ctx context.Context, db, username, password string) (int64, error)

	// ExecuteKw invokes method on model with positional args and, when
	// non-empty, keyword args. kwargs must be omitted from the wire entirely
	// when empty: the server treats an absent key differently from a
	// null-valued one.
	ExecuteKw(ctx context.Context, auth Auth, model, method string, args []any, kwargs map[string]any) (any, error)

	// Reset drops any transport-held session state (cookies).
	Reset()
}

// RPCError is a protocol-level failure: a well-formed response carrying an
// error payload instead of a result.
type RPCError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("odoo: rpc error %d: %s", e.Code, e.Message)
}

// StatusError captures a non-2xx transport response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("odoo: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// toInt64 normalizes the numeric identifier shapes the two codecs produce.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
