package odoo

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kolo/xmlrpc"
)

// xmlrpcTransport binds operations to the stateless XML-RPC endpoints:
// /xmlrpc/2/common for authentication, /xmlrpc/2/object for model execution.
type xmlrpcTransport struct {
	common *xmlrpc.Client
	object *xmlrpc.Client
}

func newXMLRPCTransport(baseURL string, timeout time.Duration) (*xmlrpcTransport, error) {
	rt := &http.Transport{ResponseHeaderTimeout: timeout}

	common, err := xmlrpc.NewClient(baseURL+"/xmlrpc/2/common", rt)
	if err != nil {
		return nil, err
	}
	object, err := xmlrpc.NewClient(baseURL+"/xmlrpc/2/object", rt)
	if err != nil {
		return nil, err
	}

	return &xmlrpcTransport{common: common, object: object}, nil
}

func (t *xmlrpcTransport) Name() string { return ProtocolXMLRPC }

func (t *xmlrpcTransport) Authenticate(ctx context.Context, db, username, password string) (int64, error) {
	var reply any
	err := t.call(ctx, t.common, "authenticate", []any{db, username, password, map[string]any{}}, &reply)
	if err != nil {
		return 0, err
	}

	// Bad credentials come back as boolean false rather than a fault.
	uid, ok := toInt64(reply)
	if !ok {
		return 0, nil
	}
	return uid, nil
}

func (t *xmlrpcTransport) ExecuteKw(ctx context.Context, auth Auth, model, method string, args []any, kwargs map[string]any) (any, error) {
	if args == nil {
		args = []any{}
	}

	params := []any{auth.Database, auth.UID, auth.Password, model, method, args}
	if len(kwargs) > 0 {
		params = append(params, kwargs)
	}

	var reply any
	if err := t.call(ctx, t.object, "execute_kw", params, &reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// Reset is a no-op: the XML-RPC binding holds no session state.
func (t *xmlrpcTransport) Reset() {}

// call runs a client call under the context's deadline. The underlying codec
// has no context support, so cancellation abandons the in-flight call.
func (t *xmlrpcTransport) call(ctx context.Context, client *xmlrpc.Client, method string, params []any, reply *any) error {
	done := make(chan error, 1)
	go func() {
		done <- client.Call(method, params, reply)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		var fault xmlrpc.FaultError
		if errors.As(err, &fault) {
			return &RPCError{Code: fault.Code, Message: fault.String}
		}
		return err
	}
}
