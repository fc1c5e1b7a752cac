package odoo

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config holds the connection settings for one ERP instance.
type Config struct {
	URL      string
	Database string
	Username string
	Password string
	// Protocol selects the transport; defaults to ProtocolXMLRPC.
	Protocol string
	// Timeout bounds each round trip. Zero means 30s.
	Timeout time.Duration
}

// Client presents one uniform interface over the selectable transports.
//
// The authenticated uid is process-local mutable state with no locking:
// a client instance serves one caller at a time. Construct one per
// conversation or CLI run instead of sharing.
type Client struct {
	cfg       Config
	transport Transport
	uid       int64
}

// New builds a client with the transport selected by cfg.Protocol.
func New(cfg Config) (*Client, error) {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if cfg.URL == "" {
		return nil, fmt.Errorf("odoo: url must not be empty")
	}
	if cfg.Database == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("odoo: database, username and password are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	var (
		transport Transport
		err       error
	)
	switch cfg.Protocol {
	case ProtocolJSONRPC:
		transport = newJSONRPCTransport(cfg.URL, cfg.Timeout)
	case ProtocolXMLRPC, "":
		transport, err = newXMLRPCTransport(cfg.URL, cfg.Timeout)
	default:
		return nil, fmt.Errorf("odoo: unknown protocol %q", cfg.Protocol)
	}
	if err != nil {
		return nil, err
	}

	return NewWithTransport(cfg, transport), nil
}

// NewWithTransport builds a client around an explicit transport.
func NewWithTransport(cfg Config, transport Transport) *Client {
	return &Client{cfg: cfg, transport: transport}
}

// Authenticated reports whether a prior Authenticate succeeded.
func (c *Client) Authenticated() bool {
	return c.uid != 0
}

// UID returns the authenticated user id, or 0 before authentication.
func (c *Client) UID() int64 {
	return c.uid
}

// Authenticate resolves and stores the session's user id. A falsy server
// result leaves the session unauthenticated and returns ErrAuthFailed.
func (c *Client) Authenticate(ctx context.Context) error {
	uid, err := c.transport.Authenticate(ctx, c.cfg.Database, c.cfg.Username, c.cfg.Password)
	if err != nil {
		return fmt.Errorf("%s authenticate: %w", c.transport.Name(), err)
	}
	if uid == 0 {
		return fmt.Errorf("%s authenticate: %w", c.transport.Name(), ErrAuthFailed)
	}

	c.uid = uid
	return nil
}

// Logout invalidates the session: the uid is cleared and the transport drops
// any session token it holds.
func (c *Client) Logout() {
	c.uid = 0
	c.transport.Reset()
}

// ExecuteKw dispatches method on model over the active transport,
// authenticating implicitly when needed. The result is returned verbatim and
// loosely typed; kwargs are sent only when non-empty.
func (c *Client) ExecuteKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (any, error) {
	if c.uid == 0 {
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	auth := Auth{Database: c.cfg.Database, UID: c.uid, Password: c.cfg.Password}
	result, err := c.transport.ExecuteKw(ctx, auth, model, method, args, kwargs)
	if err != nil {
		return nil, fmt.Errorf("%s execute %s.%s: %w", c.transport.Name(), model, method, err)
	}
	return result, nil
}
