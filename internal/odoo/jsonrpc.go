package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync/atomic"
	"time"
)

const sessionCookieName = "session_id"

// jsonrpcTransport binds operations to the single /jsonrpc endpoint that
// accepts {jsonrpc, method: "call", params: {service, method, args}, id}
// envelopes. Session continuity rides on a server-issued cookie held in the
// client's jar.
type jsonrpcTransport struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	nextID   atomic.Int64
	session  string
}

func newJSONRPCTransport(baseURL string, timeout time.Duration) *jsonrpcTransport {
	t := &jsonrpcTransport{
		endpoint: baseURL + "/jsonrpc",
		timeout:  timeout,
	}
	t.resetClient()
	return t
}

func (t *jsonrpcTransport) resetClient() {
	// cookiejar.New never fails with nil options.
	jar, _ := cookiejar.New(nil)
	t.client = &http.Client{Jar: jar, Timeout: t.timeout}
	t.session = ""
}

func (t *jsonrpcTransport) Name() string { return ProtocolJSONRPC }

type jsonrpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type jsonrpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  jsonrpcParams `json:"params"`
	ID      int64         `json:"id"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func (t *jsonrpcTransport) Authenticate(ctx context.Context, db, username, password string) (int64, error) {
	result, err := t.call(ctx, "common", "login", []any{db, username, password})
	if err != nil {
		return 0, err
	}

	// A falsy result (boolean false) means rejected credentials.
	uid, ok := toInt64(result)
	if !ok {
		return 0, nil
	}
	return uid, nil
}

func (t *jsonrpcTransport) ExecuteKw(ctx context.Context, auth Auth, model, method string, args []any, kwargs map[string]any) (any, error) {
	if args == nil {
		args = []any{}
	}

	callArgs := []any{auth.Database, auth.UID, auth.Password, model, method, args}
	if len(kwargs) > 0 {
		callArgs = append(callArgs, kwargs)
	}
	return t.call(ctx, "object", "execute_kw", callArgs)
}

// Reset drops the session cookie so the next call starts a fresh session.
func (t *jsonrpcTransport) Reset() {
	t.resetClient()
}

// SessionToken returns the server-issued session cookie value, if captured.
func (t *jsonrpcTransport) SessionToken() string {
	return t.session
}

func (t *jsonrpcTransport) call(ctx context.Context, service, method string, args []any) (any, error) {
	payload := jsonrpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  jsonrpcParams{Service: service, Method: method, Args: args},
		ID:      t.nextID.Add(1),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &StatusError{StatusCode: res.StatusCode, URL: t.endpoint, Body: string(buf)}
	}

	for _, cookie := range res.Cookies() {
		if cookie.Name == sessionCookieName && cookie.Value != "" {
			t.session = cookie.Value
		}
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var envelope jsonrpcResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}

	var result any
	if len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, &result); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
	}
	return result, nil
}
