package billingapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRazorpayCustomerEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key_test", user)
		require.Equal(t, "secret_test", pass)
		require.Equal(t, "/customers/cust_1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cust_1", "name": "Gym Owner", "email": "owner@gym.example"}`))
	}))
	defer srv.Close()

	c := newRazorpayCustomerClient("key_test", "secret_test", srv.Client())
	c.baseURL = srv.URL

	email, err := c.CustomerEmail(context.Background(), "cust_1")
	require.NoError(t, err)
	require.Equal(t, "owner@gym.example", email)
}

func TestRazorpayCustomerEmail_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"code": "BAD_REQUEST_ERROR"}}`))
	}))
	defer srv.Close()

	c := newRazorpayCustomerClient("key_test", "secret_test", srv.Client())
	c.baseURL = srv.URL

	_, err := c.CustomerEmail(context.Background(), "cust_missing")
	require.Error(t, err)
}

func TestRazorpayCustomerEmail_EmptyEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "cust_2", "email": ""}`))
	}))
	defer srv.Close()

	c := newRazorpayCustomerClient("key_test", "secret_test", srv.Client())
	c.baseURL = srv.URL

	_, err := c.CustomerEmail(context.Background(), "cust_2")
	require.Error(t, err)
}
