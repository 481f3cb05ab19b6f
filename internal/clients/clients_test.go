package clients_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ordersvc/internal/apperrors"
	"ordersvc/internal/clients"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPIdentityClient_ResolveCaller(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/me", r.URL.Path)
		assert.Equal(t, "Bearer good-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 7, "name": "Alice", "email": "alice@example.com"}`))
	}))
	defer server.Close()

	client := clients.NewHTTPIdentityClient(server.URL, 2*time.Second)
	user, err := client.ResolveCaller(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
	assert.Equal(t, "Alice", user.Name)
}

func TestHTTPIdentityClient_AlreadyPrefixedCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The prefix is not doubled up.
		assert.Equal(t, "Bearer good-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id": 7}`))
	}))
	defer server.Close()

	client := clients.NewHTTPIdentityClient(server.URL, 2*time.Second)
	_, err := client.ResolveCaller(context.Background(), "Bearer good-token")
	assert.NoError(t, err)
}

func TestHTTPIdentityClient_MissingCredential(t *testing.T) {
	client := clients.NewHTTPIdentityClient("http://localhost:0", 2*time.Second)
	_, err := client.ResolveCaller(context.Background(), "  ")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestHTTPIdentityClient_RejectedCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := clients.NewHTTPIdentityClient(server.URL, 2*time.Second)
	_, err := client.ResolveCaller(context.Background(), "bad-token")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestHTTPIdentityClient_NoUsableUserID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "Nobody"}`))
	}))
	defer server.Close()

	client := clients.NewHTTPIdentityClient(server.URL, 2*time.Second)
	_, err := client.ResolveCaller(context.Background(), "token")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestHTTPIdentityClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := clients.NewHTTPIdentityClient(server.URL, 2*time.Second)
	_, err := client.ResolveCaller(context.Background(), "token")
	assert.ErrorIs(t, err, apperrors.ErrDependencyUnavailable)
}

func TestHTTPIdentityClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"id": 7}`))
	}))
	defer server.Close()

	client := clients.NewHTTPIdentityClient(server.URL, 20*time.Millisecond)
	_, err := client.ResolveCaller(context.Background(), "token")
	assert.ErrorIs(t, err, apperrors.ErrDependencyUnavailable)
}

func TestHTTPCatalogClient_ResolveProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/batch", r.URL.Path)
		assert.Equal(t, "101,102", r.URL.Query().Get("ids"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 101, "name": "Laptop Sleeve", "price": "50.00", "image": "sleeve.png", "stock": 3},
			{"id": 102, "name": "Headphones", "price": 100.5, "image": "phones.png", "stock": 1}
		]`))
	}))
	defer server.Close()

	client := clients.NewHTTPCatalogClient(server.URL, 2*time.Second)
	products, err := client.ResolveProducts(context.Background(), []uint{101, 102}, "token")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Laptop Sleeve", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, products[1].Price.Equal(decimal.RequireFromString("100.5")))
}

func TestHTTPCatalogClient_EmptyIDsSkipsCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := clients.NewHTTPCatalogClient(server.URL, 2*time.Second)
	products, err := client.ResolveProducts(context.Background(), nil, "token")
	assert.NoError(t, err)
	assert.Nil(t, products)
	assert.False(t, called)
}

func TestHTTPCatalogClient_UnknownProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := clients.NewHTTPCatalogClient(server.URL, 2*time.Second)
	_, err := client.ResolveProducts(context.Background(), []uint{999}, "token")
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestHTTPCatalogClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := clients.NewHTTPCatalogClient(server.URL, 2*time.Second)
	_, err := client.ResolveProducts(context.Background(), []uint{101}, "token")
	assert.ErrorIs(t, err, apperrors.ErrDependencyUnavailable)
}
