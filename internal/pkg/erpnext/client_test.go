package erpnext

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/config"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.ERPNextConfig{
		URL:       serverURL,
		APIKey:    "key",
		APISecret: "secret",
		Timeout:   5 * time.Second,
	})
}

func TestPushShiftSync_Success(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		assert.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	err := client.PushShiftSync(context.Background(), "Day Shift", ts)

	require.NoError(t, err)
	assert.Equal(t, "/api/resource/Shift Type/Day Shift", gotPath)
	assert.Equal(t, "token key:secret", gotAuth)
	assert.Equal(t, "2024-01-01 10:00:00", gotBody["last_sync_of_checkin"])
}

func TestPushShiftSync_NonOKResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"exc_type":"PermissionError"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.PushShiftSync(context.Background(), "Day Shift", time.Now())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "PermissionError")
}

func TestPushShiftSync_ServerUnreachable(t *testing.T) {
	t.Parallel()

	client := newTestClient("http://127.0.0.1:1")

	err := client.PushShiftSync(context.Background(), "Day Shift", time.Now())

	assert.Error(t, err)
	var apiErr *APIError
	assert.NotErrorAs(t, err, &apiErr)
}
