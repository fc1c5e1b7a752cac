package odoo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	xmlUIDResponse = `<?xml version="1.0"?>
<methodResponse><params><param><value><int>2</int></value></param></params></methodResponse>`

	xmlFalseResponse = `<?xml version="1.0"?>
<methodResponse><params><param><value><boolean>0</boolean></value></param></params></methodResponse>`

	xmlCreateResponse = `<?xml version="1.0"?>
<methodResponse><params><param><value><int>41</int></value></param></params></methodResponse>`

	xmlFaultResponse = `<?xml version="1.0"?>
<methodResponse><fault><value><struct>
<member><name>faultCode</name><value><int>1</int></value></member>
<member><name>faultString</name><value><string>Access Denied</string></value></member>
</struct></value></fault></methodResponse>`
)

func TestXMLRPCAuthenticate(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/xmlrpc/2/common", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, xmlUIDResponse)
	}))
	defer srv.Close()

	transport, err := newXMLRPCTransport(srv.URL, 5*time.Second)
	require.NoError(t, err)

	uid, err := transport.Authenticate(context.Background(), "odoo", "admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(2), uid)
	assert.Contains(t, body, "<methodName>authenticate</methodName>")
	assert.Contains(t, body, "odoo")
}

func TestXMLRPCAuthenticateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, xmlFalseResponse)
	}))
	defer srv.Close()

	transport, err := newXMLRPCTransport(srv.URL, 5*time.Second)
	require.NoError(t, err)

	// Bad credentials arrive as boolean false, not a fault.
	uid, err := transport.Authenticate(context.Background(), "odoo", "admin", "wrong")
	require.NoError(t, err)
	assert.Zero(t, uid)
}

func TestXMLRPCExecuteKw(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/xmlrpc/2/object", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, xmlCreateResponse)
	}))
	defer srv.Close()

	transport, err := newXMLRPCTransport(srv.URL, 5*time.Second)
	require.NoError(t, err)

	auth := Auth{Database: "odoo", UID: 2, Password: "admin"}
	result, err := transport.ExecuteKw(context.Background(), auth, "crm.lead", "create",
		[]any{map[string]any{"name": "Lead"}}, nil)
	require.NoError(t, err)

	id, ok := toInt64(result)
	require.True(t, ok)
	assert.Equal(t, int64(41), id)

	assert.Contains(t, body, "<methodName>execute_kw</methodName>")
	assert.Contains(t, body, "crm.lead")
	// Empty kwargs must not produce a trailing struct parameter.
	assert.Equal(t, 6, strings.Count(body, "<param>"))
}

func TestXMLRPCFaultBecomesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, xmlFaultResponse)
	}))
	defer srv.Close()

	transport, err := newXMLRPCTransport(srv.URL, 5*time.Second)
	require.NoError(t, err)

	auth := Auth{Database: "odoo", UID: 2, Password: "admin"}
	_, err = transport.ExecuteKw(context.Background(), auth, "crm.lead", "read", []any{[]int64{1}}, nil)
	require.Error(t, err)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, "Access Denied", rpcErr.Message)
}

func TestXMLRPCContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, xmlUIDResponse)
	}))
	defer srv.Close()
	defer close(release)

	transport, err := newXMLRPCTransport(srv.URL, 5*time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = transport.Authenticate(ctx, "odoo", "admin", "admin")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
