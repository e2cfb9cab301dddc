package httputil_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/descwallet/pkg/httputil"
)

func TestNewHTTPRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			//nolint
			w.Write([]byte(r.Method + ":" + string(body)))
		},
	))
	defer srv.Close()

	client, err := httputil.NewClient(0, "")
	require.NoError(t, err)
	defer client.Close()

	headers := map[string]string{"Content-Type": "text/plain"}
	status, resp, err := client.NewHTTPRequest(
		context.Background(), http.MethodPost, srv.URL, "hello", headers,
	)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "POST:hello", resp)

	_, _, err = client.NewHTTPRequest(
		context.Background(), "LIST", srv.URL, "", nil,
	)
	require.Error(t, err)
}

func TestNewClientInvalidProxy(t *testing.T) {
	_, err := httputil.NewClient(0, "ftp://127.0.0.1:21")
	require.Error(t, err)

	client, err := httputil.NewClient(0, "socks5://127.0.0.1:9050")
	require.NoError(t, err)
	require.NotNil(t, client)
}
