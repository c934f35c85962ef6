package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Artist X"}`))
	}))
	defer server.Close()

	var out struct {
		Name string `json:"name"`
	}
	c := NewClient(5 * time.Second)
	err := c.GetJSON(context.Background(), server.URL, http.Header{"Authorization": {"Bearer tok"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Artist X", out.Name)
}

func TestGetJSON_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer server.Close()

	err := NewClient(time.Second).GetJSON(context.Background(), server.URL, nil, &struct{}{})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestHTTPClient_CarriesTimeout(t *testing.T) {
	c := NewClient(3 * time.Second)
	require.NotNil(t, c.HTTPClient())
	assert.Equal(t, 3*time.Second, c.HTTPClient().Timeout)
}
