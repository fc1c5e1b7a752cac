package odoo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linyuhan/crmbridge/internal/odoo"
)

type recordedCall struct {
	Model  string
	Method string
	Args   []any
	Kwargs map[string]any
}

// stubTransport scripts transport behavior for client tests.
type stubTransport struct {
	uid        int64
	authErr    error
	authCalls  int
	execute    func(call recordedCall) (any, error)
	calls      []recordedCall
	resetCalls int
}

func (s *stubTransport) Name() string { return "stub" }

func (s *stubTransport) Authenticate(_ context.Context, _, _, _ string) (int64, error) {
	s.authCalls++
	return s.uid, s.authErr
}

func (s *stubTransport) ExecuteKw(_ context.Context, _ odoo.Auth, model, method string, args []any, kwargs map[string]any) (any, error) {
	call := recordedCall{Model: model, Method: method, Args: args, Kwargs: kwargs}
	s.calls = append(s.calls, call)
	if s.execute != nil {
		return s.execute(call)
	}
	return nil, nil
}

func (s *stubTransport) Reset() { s.resetCalls++ }

func testConfig() odoo.Config {
	return odoo.Config{
		URL:      "http://localhost:8069",
		Database: "odoo",
		Username: "admin",
		Password: "admin",
	}
}

func TestAuthenticateRejectedCredentials(t *testing.T) {
	stub := &stubTransport{uid: 0}
	client := odoo.NewWithTransport(testConfig(), stub)

	err := client.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, odoo.ErrAuthFailed))
	assert.False(t, client.Authenticated())
	assert.Zero(t, client.UID())
}

func TestExecuteKwWithoutSessionFails(t *testing.T) {
	stub := &stubTransport{uid: 0}
	client := odoo.NewWithTransport(testConfig(), stub)

	result, err := client.ExecuteKw(context.Background(), "crm.lead", "read", []any{[]int64{1}}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, odoo.ErrAuthFailed))
	assert.Nil(t, result)
	assert.Empty(t, stub.calls, "no execute call may reach the wire without a session")
}

func TestExecuteKwAuthenticatesImplicitly(t *testing.T) {
	stub := &stubTransport{
		uid: 7,
		execute: func(recordedCall) (any, error) {
			return true, nil
		},
	}
	client := odoo.NewWithTransport(testConfig(), stub)

	_, err := client.ExecuteKw(context.Background(), "crm.lead", "write", []any{[]int64{1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.authCalls)
	assert.Equal(t, int64(7), client.UID())

	// Already authenticated: no second authenticate call.
	_, err = client.ExecuteKw(context.Background(), "crm.lead", "write", []any{[]int64{2}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.authCalls)
}

func TestExecuteKwTransportError(t *testing.T) {
	stub := &stubTransport{
		uid: 7,
		execute: func(recordedCall) (any, error) {
			return nil, errors.New("connection refused")
		},
	}
	client := odoo.NewWithTransport(testConfig(), stub)

	result, err := client.ExecuteKw(context.Background(), "crm.lead", "read", nil, nil)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	stub := &stubTransport{uid: 7}
	client := odoo.NewWithTransport(testConfig(), stub)

	require.NoError(t, client.Authenticate(context.Background()))
	require.True(t, client.Authenticated())

	client.Logout()
	assert.False(t, client.Authenticated())
	assert.Equal(t, 1, stub.resetCalls)
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	_, err := odoo.New(odoo.Config{URL: "http://localhost:8069"})
	require.Error(t, err)

	_, err = odoo.New(odoo.Config{
		URL: "http://localhost:8069", Database: "odoo",
		Username: "admin", Password: "admin", Protocol: "soap",
	})
	require.Error(t, err)
}
