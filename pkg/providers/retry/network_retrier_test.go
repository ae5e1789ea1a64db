package retry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxRetries:          2,
		NetworkMaxRetries:   1,
		InitialDelay:        time.Millisecond,
		MaxDelay:            5 * time.Millisecond,
		BackoffFactor:       2.0,
		NetworkInitialDelay: time.Millisecond,
		NetworkMaxDelay:     5 * time.Millisecond,
	}
}

func TestExecuteSucceedsOnFirstTry(t *testing.T) {
	r := New(fastConfig())
	calls := 0
	resp, err := r.Execute(context.Background(), func() (*http.Response, error) {
		calls++
		return &http.Response{StatusCode: 200}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, 1, calls)
}

func TestExecuteRetriesServerErrorsThenSucceeds(t *testing.T) {
	r := New(fastConfig())
	calls := 0
	resp, err := r.Execute(context.Background(), func() (*http.Response, error) {
		calls++
		if calls < 3 {
			return &http.Response{StatusCode: 500, Body: http.NoBody}, nil
		}
		return &http.Response{StatusCode: 200}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, 3, calls)
}

func TestExecuteDoesNotRetryClientErrors(t *testing.T) {
	r := New(fastConfig())
	calls := 0
	resp, err := r.Execute(context.Background(), func() (*http.Response, error) {
		calls++
		return &http.Response{StatusCode: 400, Body: http.NoBody}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 400, resp.StatusCode)
	require.Equal(t, 1, calls)
}

func TestExecuteRetriesNetworkErrors(t *testing.T) {
	r := New(fastConfig())
	calls := 0
	_, err := r.Execute(context.Background(), func() (*http.Response, error) {
		calls++
		return nil, errors.New("connection reset by peer")
	})
	require.Error(t, err)
	require.Greater(t, calls, 1)
}

func TestTransportRetriesThroughRoundTrip(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New(fastConfig())
	client := &http.Client{Transport: r.Transport(http.DefaultTransport)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.GreaterOrEqual(t, attempts, 2)
}
