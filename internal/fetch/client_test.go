package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return NewClient(ClientConfig{
		Attempts:       3,
		InitialBackoff: time.Millisecond,
		AttemptTimeout: time.Second,
	}, nil)
}

func TestGetJSON_SucceedsOnThirdAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ok":true,"city":"orlando"}`)
	}))
	defer srv.Close()

	payload := testClient().GetJSON(context.Background(), srv.URL, map[string]string{"q": "x"})

	require.False(t, IsErrorPayload(payload))
	assert.Equal(t, true, payload["ok"])
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetJSON_ExhaustionReturnsErrorPayload(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	params := map[string]string{"city": "orlando"}
	payload := testClient().GetJSON(context.Background(), srv.URL, params)

	require.True(t, IsErrorPayload(payload))
	assert.Equal(t, srv.URL, payload["url"])
	assert.Equal(t, params, payload["params"])
	assert.Contains(t, payload["error"], "500")
	assert.Equal(t, int32(3), calls.Load(), "must stop after 3 attempts")
}

func TestGetJSON_SendsQueryParams(t *testing.T) {
	var gotCity string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCity = r.URL.Query().Get("city")
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	testClient().GetJSON(context.Background(), srv.URL, map[string]string{"city": "miami"})
	assert.Equal(t, "miami", gotCity)
}

func TestGetJSON_BadJSONIsAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer srv.Close()

	payload := testClient().GetJSON(context.Background(), srv.URL, nil)
	assert.True(t, IsErrorPayload(payload))
}

func TestGetJSON_CanceledContextStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload := NewClient(ClientConfig{
		Attempts:       3,
		InitialBackoff: time.Hour, // would hang if the context were ignored
		AttemptTimeout: time.Second,
	}, nil).GetJSON(ctx, srv.URL, nil)

	assert.True(t, IsErrorPayload(payload))
}
